package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/feriadolabs/feriado/workflow"
)

func TestNewFallbackValidation(t *testing.T) {
	if _, err := NewFallback(); err == nil {
		t.Error("empty chain should be rejected")
	}

	mixed := []workflow.Responder{
		&flakyResponder{stage: workflow.StageResearch, text: "a"},
		&flakyResponder{stage: workflow.StageSynthesis, text: "b"},
	}
	if _, err := NewFallback(mixed...); err == nil || !strings.Contains(err.Error(), "mixes stages") {
		t.Errorf("mixed stages should be rejected, got %v", err)
	}
}

func TestFallbackPrimarySucceeds(t *testing.T) {
	primary := &flakyResponder{stage: workflow.StageResearch, text: "primary"}
	secondary := &flakyResponder{stage: workflow.StageResearch, text: "secondary"}
	fallback, err := NewFallback(primary, secondary)
	if err != nil {
		t.Fatalf("NewFallback: %v", err)
	}

	result, err := fallback.Respond(context.Background(), &workflow.Request{Query: "q"})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if result.Text != "primary" {
		t.Errorf("text = %q, want primary", result.Text)
	}
	if attempt, _ := result.Metadata["fallback_attempt"].(int); attempt != 1 {
		t.Errorf("fallback_attempt = %v, want 1", result.Metadata["fallback_attempt"])
	}
	if secondary.calls != 0 {
		t.Errorf("secondary called %d times, want 0", secondary.calls)
	}
}

func TestFallbackUsesSecondary(t *testing.T) {
	primary := &flakyResponder{stage: workflow.StageResearch, failures: 10, err: errors.New("quota")}
	secondary := &flakyResponder{stage: workflow.StageResearch, text: "offline answer"}
	fallback, err := NewFallback(primary, secondary)
	if err != nil {
		t.Fatalf("NewFallback: %v", err)
	}

	result, err := fallback.Respond(context.Background(), &workflow.Request{Query: "q"})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if result.Text != "offline answer" {
		t.Errorf("text = %q, want secondary's answer", result.Text)
	}
	if attempt, _ := result.Metadata["fallback_attempt"].(int); attempt != 2 {
		t.Errorf("fallback_attempt = %v, want 2", result.Metadata["fallback_attempt"])
	}
}

func TestFallbackAllFail(t *testing.T) {
	first := &flakyResponder{stage: workflow.StageResearch, failures: 10, err: errors.New("quota")}
	second := &flakyResponder{stage: workflow.StageResearch, failures: 10, err: errors.New("network")}
	fallback, err := NewFallback(first, second)
	if err != nil {
		t.Fatalf("NewFallback: %v", err)
	}

	_, err = fallback.Respond(context.Background(), &workflow.Request{Query: "q"})
	if err == nil {
		t.Fatal("expected error when every responder fails")
	}
	for _, want := range []string{"all 2 responders failed", "quota", "network"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestFallbackCancelled(t *testing.T) {
	responder := &flakyResponder{stage: workflow.StageResearch, text: "never reached"}
	fallback, err := NewFallback(responder)
	if err != nil {
		t.Fatalf("NewFallback: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fallback.Respond(ctx, &workflow.Request{Query: "q"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if responder.calls != 0 {
		t.Errorf("responder called %d times after cancellation, want 0", responder.calls)
	}
}
