// Package middleware provides reusable decorators for workflow responders.
//
// Decorators wrap a workflow.Responder and return one, so they stack in any
// order. Failures they produce surface through the executor's per-stage
// outcomes like any other responder error.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/feriadolabs/feriado/workflow"
)

// TimeoutConfig configures timeout behavior.
type TimeoutConfig struct {
	// Timeout is the per-call deadline. Default: 30 seconds.
	Timeout time.Duration
}

// DefaultTimeoutConfig returns a timeout config with sensible defaults.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{Timeout: 30 * time.Second}
}

// TimeoutError is returned when a responder exceeds the configured timeout.
type TimeoutError struct {
	Stage   workflow.Stage
	Timeout time.Duration
	Elapsed time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stage %q timed out after %v (limit %v)", e.Stage, e.Elapsed.Round(time.Millisecond), e.Timeout)
}

// Timeout wraps a responder with a per-call deadline.
//
// The call runs in a goroutine so the deadline holds even for responders
// that do not watch their context; the buffered channel lets an abandoned
// call finish without leaking.
type Timeout struct {
	next   workflow.Responder
	config TimeoutConfig
}

var _ workflow.Responder = (*Timeout)(nil)

// NewTimeout creates a timeout decorator around next.
func NewTimeout(next workflow.Responder, config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeoutConfig().Timeout
	}
	return &Timeout{next: next, config: config}
}

// Key implements workflow.Responder.
func (t *Timeout) Key() workflow.Stage {
	return t.next.Key()
}

// Respond implements workflow.Responder with timeout protection.
func (t *Timeout) Respond(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	type result struct {
		res *workflow.Result
		err error
	}
	done := make(chan result, 1)

	go func() {
		res, err := t.next.Respond(timeoutCtx, req)
		done <- result{res, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && timeoutCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &TimeoutError{Stage: t.Key(), Timeout: t.config.Timeout, Elapsed: time.Since(start)}
		}
		return r.res, r.err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			// Caller cancellation, not our deadline.
			return nil, ctx.Err()
		}
		return nil, &TimeoutError{Stage: t.Key(), Timeout: t.config.Timeout, Elapsed: time.Since(start)}
	}
}
