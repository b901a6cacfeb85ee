package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/feriadolabs/feriado/workflow"
)

// Fallback tries responders in order until one succeeds. Typical wiring puts
// a hosted-LLM responder first and the matching offline responder last, so a
// provider outage degrades the answer instead of failing the stage.
type Fallback struct {
	stage workflow.Stage
	chain []workflow.Responder
}

var _ workflow.Responder = (*Fallback)(nil)

// NewFallback creates a fallback chain. All responders must serve the same
// stage.
func NewFallback(responders ...workflow.Responder) (*Fallback, error) {
	if len(responders) == 0 {
		return nil, fmt.Errorf("fallback requires at least one responder")
	}
	stage := responders[0].Key()
	for _, responder := range responders[1:] {
		if responder.Key() != stage {
			return nil, fmt.Errorf("fallback mixes stages %q and %q", stage, responder.Key())
		}
	}
	return &Fallback{stage: stage, chain: responders}, nil
}

// Key implements workflow.Responder.
func (f *Fallback) Key() workflow.Stage {
	return f.stage
}

// Respond tries each responder in order until one succeeds.
func (f *Fallback) Respond(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	var failures []string

	for i, responder := range f.chain {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fallback cancelled at attempt %d: %w", i+1, err)
		}

		result, err := responder.Respond(ctx, req)
		if err == nil {
			if result.Metadata == nil {
				result.Metadata = make(map[string]any)
			}
			result.Metadata["fallback_attempt"] = i + 1
			return result, nil
		}
		failures = append(failures, fmt.Sprintf("attempt %d: %v", i+1, err))
	}

	return nil, fmt.Errorf("all %d responders failed: %s", len(f.chain), strings.Join(failures, "; "))
}
