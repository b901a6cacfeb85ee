package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feriadolabs/feriado/filter"
	"github.com/feriadolabs/feriado/metrics"
)

// Session is one user's state: an owned filter selection, the summary of
// the last applied view, and (via the manager's History) a transcript.
// The selection starts all-inclusive and is replaced wholesale by updates.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu        sync.Mutex
	selection *filter.Selection
	summary   *metrics.Summary
}

// Selection returns the session's current filter selection. Callers treat
// it as read-only; updates go through SetSelection.
func (s *Session) Selection() *filter.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetSelection replaces the session's filter selection.
func (s *Session) SetSelection(sel *filter.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
}

// Summary returns the metrics of the last applied view, or nil before the
// first application.
func (s *Session) Summary() *metrics.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// SetSummary records the metrics of the most recently applied view.
func (s *Session) SetSummary(summary *metrics.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
}

// Manager owns the session map for the hosting server. Its lock guards only
// the map; each session's state stays session-local.
type Manager struct {
	history History

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager over the given transcript store. A
// nil history gets an in-memory store with the default cap.
func NewManager(history History) *Manager {
	if history == nil {
		history = NewMemoryHistory(100)
	}
	return &Manager{
		history:  history,
		sessions: make(map[string]*Session),
	}
}

// History exposes the transcript store sessions share.
func (m *Manager) History() History {
	return m.history
}

// Create registers a new session with a fresh all-inclusive selection.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		selection: filter.NewSelection(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session with the given ID, registering a fresh
// one under that ID if absent.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		selection: filter.NewSelection(),
	}
	m.sessions[id] = s
	return s
}

// Delete removes a session and clears its transcript.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	return m.history.Clear(ctx, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
