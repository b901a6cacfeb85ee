// Package session holds per-session state: the owned filter selection, the
// last computed view summary, and the chat transcript.
//
// All state is session-local. The manager's lock only guards the session
// map for the hosting server; nothing is shared between sessions.
//
// Transcript backends:
//   - MemoryHistory: per-session slice with max-turn eviction
//   - RedisHistory: Redis list with TTL, for multi-instance deployments
package session

import (
	"context"
	"sync"
	"time"
)

// Turn is one transcript entry.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// History stores chat transcripts keyed by session ID. Recent returns the
// newest turns first.
type History interface {
	Append(ctx context.Context, sessionID string, turn Turn) error
	Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// defaultRecentLimit applies when Recent is called with limit <= 0.
const defaultRecentLimit = 10

// MemoryHistory keeps transcripts in process memory with oldest-first
// eviction once a session exceeds maxTurns.
type MemoryHistory struct {
	maxTurns int

	mu    sync.RWMutex
	turns map[string][]Turn
}

var _ History = (*MemoryHistory)(nil)

// NewMemoryHistory creates an in-memory transcript store. maxTurns <= 0
// means unbounded.
func NewMemoryHistory(maxTurns int) *MemoryHistory {
	return &MemoryHistory{
		maxTurns: maxTurns,
		turns:    make(map[string][]Turn),
	}
}

// Append implements History.
func (m *MemoryHistory) Append(ctx context.Context, sessionID string, turn Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.turns[sessionID], turn)
	if m.maxTurns > 0 && len(turns) > m.maxTurns {
		turns = turns[len(turns)-m.maxTurns:]
	}
	m.turns[sessionID] = turns
	return nil
}

// Recent implements History.
func (m *MemoryHistory) Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.turns[sessionID]
	if len(stored) == 0 {
		return []Turn{}, nil
	}

	n := limit
	if n > len(stored) {
		n = len(stored)
	}
	recent := make([]Turn, 0, n)
	for i := len(stored) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, stored[i])
	}
	return recent, nil
}

// Clear implements History.
func (m *MemoryHistory) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.turns, sessionID)
	return nil
}

// Len reports the stored turn count for a session.
func (m *MemoryHistory) Len(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns[sessionID])
}
