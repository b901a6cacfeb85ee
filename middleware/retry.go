package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/feriadolabs/feriado/workflow"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// Default: 3.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt. Default: 100ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff growth. Default: 10s.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the backoff between attempts. Default: 2.0.
	BackoffMultiplier float64

	// ShouldRetry decides whether an error is worth another attempt.
	// Nil retries every error.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig returns a retry config with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Retry wraps a responder with exponential-backoff retries.
type Retry struct {
	next   workflow.Responder
	config RetryConfig
}

var _ workflow.Responder = (*Retry)(nil)

// NewRetry creates a retry decorator around next.
func NewRetry(next workflow.Responder, config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 100 * time.Millisecond
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 10 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	return &Retry{next: next, config: config}
}

// Key implements workflow.Responder.
func (r *Retry) Key() workflow.Stage {
	return r.next.Key()
}

// Respond implements workflow.Responder with retry logic.
func (r *Retry) Respond(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result, err := r.next.Respond(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if r.config.ShouldRetry != nil && !r.config.ShouldRetry(err) {
			return nil, fmt.Errorf("non-retryable error on attempt %d/%d: %w", attempt, r.config.MaxAttempts, err)
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
			if backoff > r.config.MaxBackoff {
				backoff = r.config.MaxBackoff
			}
		}
	}

	return nil, fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
}
