package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHistoryConfig configures a RedisHistory.
type RedisHistoryConfig struct {
	// KeyPrefix namespaces the transcript keys. Default: "feriado:chat".
	KeyPrefix string

	// MaxTurns caps the stored turns per session. Default: 100.
	MaxTurns int

	// TTL expires idle transcripts. Zero disables expiry.
	TTL time.Duration
}

func (c *RedisHistoryConfig) applyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "feriado:chat"
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 100
	}
}

// redisCommands is the slice of go-redis that RedisHistory uses. Tests
// substitute a recording fake.
type redisCommands interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisHistory stores transcripts as Redis lists, newest turn at the head.
//
// Key layout: "{prefix}:{session_id}:turns", values are JSON turns. Every
// append trims the list to MaxTurns and refreshes the TTL.
type RedisHistory struct {
	client redisCommands
	config RedisHistoryConfig
}

var _ History = (*RedisHistory)(nil)

// NewRedisHistory connects to redisURL and returns a transcript store.
func NewRedisHistory(redisURL string, config RedisHistoryConfig) (*RedisHistory, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	config.applyDefaults()
	return &RedisHistory{client: redis.NewClient(opts), config: config}, nil
}

// newRedisHistoryWithClient wires an existing client; used by tests.
func newRedisHistoryWithClient(client redisCommands, config RedisHistoryConfig) *RedisHistory {
	config.applyDefaults()
	return &RedisHistory{client: client, config: config}
}

func (r *RedisHistory) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:turns", r.config.KeyPrefix, sessionID)
}

// Append implements History.
func (r *RedisHistory) Append(ctx context.Context, sessionID string, turn Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("serialize turn: %w", err)
	}

	key := r.sessionKey(sessionID)
	if err := r.client.LPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("store turn: %w", err)
	}
	if err := r.client.LTrim(ctx, key, 0, int64(r.config.MaxTurns)-1).Err(); err != nil {
		return fmt.Errorf("trim transcript: %w", err)
	}
	if r.config.TTL > 0 {
		if err := r.client.Expire(ctx, key, r.config.TTL).Err(); err != nil {
			return fmt.Errorf("set transcript TTL: %w", err)
		}
	}
	return nil
}

// Recent implements History.
func (r *RedisHistory) Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	values, err := r.client.LRange(ctx, r.sessionKey(sessionID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	turns := make([]Turn, 0, len(values))
	for _, value := range values {
		var turn Turn
		if err := json.Unmarshal([]byte(value), &turn); err != nil {
			continue // skip malformed entries
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear implements History.
func (r *RedisHistory) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	return nil
}
