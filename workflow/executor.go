package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request carries one query through a pipeline. Context holds whatever the
// caller wants responders to see (current view metrics, session facts);
// Prior is filled in by the executor with the sections produced so far.
type Request struct {
	Query   string         `json:"query"`
	Topic   string         `json:"topic,omitempty"`
	Context map[string]any `json:"context,omitempty"`
	Prior   []Section      `json:"prior,omitempty"`
}

// Result is one responder's output.
type Result struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Section is one labeled block of the merged document.
type Section struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Responder produces one stage's output. Implementations live in the agents
// package; middleware wraps this interface.
type Responder interface {
	// Key names the stage this responder serves.
	Key() Stage

	// Respond produces the stage output for the request. The request's
	// Prior sections hold earlier successful stages in pipeline order.
	Respond(ctx context.Context, req *Request) (*Result, error)
}

// StageStatus is the terminal state of one executed stage.
type StageStatus string

// Stage status constants.
const (
	StageOK     StageStatus = "ok"
	StageFailed StageStatus = "failed"
)

// StageError marks which stage of a pipeline failed.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOutcome records how one stage ended. Failed outcomes carry the error
// text; successful ones the produced text.
type StageOutcome struct {
	Stage   Stage         `json:"stage"`
	Label   string        `json:"label"`
	Status  StageStatus   `json:"status"`
	Text    string        `json:"text,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// MergedResult is a completed pipeline run: the ordered sections of every
// successful stage plus the outcome trail of all of them.
type MergedResult struct {
	RunID        string         `json:"run_id"`
	Template     string         `json:"template"`
	OutputFormat string         `json:"output_format"`
	Sections     []Section      `json:"sections"`
	Outcomes     []StageOutcome `json:"outcomes"`
}

// Succeeded reports whether every stage completed.
func (m *MergedResult) Succeeded() bool {
	for _, o := range m.Outcomes {
		if o.Status != StageOK {
			return false
		}
	}
	return true
}

// FailedStages lists the stages that did not complete.
func (m *MergedResult) FailedStages() []Stage {
	var failed []Stage
	for _, o := range m.Outcomes {
		if o.Status != StageOK {
			failed = append(failed, o.Stage)
		}
	}
	return failed
}

// Render flattens the sections into one markdown document, in stage order,
// keeping duplicates. A single-section result (quick_chat) renders without
// its heading.
func (m *MergedResult) Render() string {
	if len(m.Sections) == 1 {
		return m.Sections[0].Text
	}
	var b strings.Builder
	for i, s := range m.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(s.Label)
		b.WriteString("\n\n")
		b.WriteString(s.Text)
	}
	return b.String()
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Responders maps stages to their implementations. Templates may name
	// stages with no responder; those stages fail without aborting the run.
	Responders map[Stage]Responder

	// OnStage, when set, observes every outcome as it happens. Used by the
	// chat websocket to stream progress.
	OnStage func(StageOutcome)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Executor runs templates against a responder set.
type Executor struct {
	responders map[Stage]Responder
	onStage    func(StageOutcome)
	logger     *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(config *ExecutorConfig) (*Executor, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(config.Responders) == 0 {
		return nil, fmt.Errorf("at least one responder is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		responders: config.Responders,
		onStage:    config.OnStage,
		logger:     logger,
	}, nil
}

// Execute runs every stage of the template in order. A stage failure is
// recorded in its outcome and the pipeline moves on, so the returned result
// always covers every stage. Cancelling the context fails the remaining
// stages without running them.
func (e *Executor) Execute(ctx context.Context, tmpl Template, req *Request) *MergedResult {
	merged := &MergedResult{
		RunID:        uuid.NewString(),
		Template:     tmpl.Name,
		OutputFormat: tmpl.OutputFormat,
		Outcomes:     make([]StageOutcome, 0, len(tmpl.Stages)),
	}

	for _, stage := range tmpl.Stages {
		outcome := e.runStage(ctx, stage, req, merged.Sections)
		if outcome.Status == StageOK {
			merged.Sections = append(merged.Sections, Section{Label: outcome.Label, Text: outcome.Text})
		}
		merged.Outcomes = append(merged.Outcomes, outcome)
		if e.onStage != nil {
			e.onStage(outcome)
		}
	}

	e.logger.Info("workflow executed",
		"template", tmpl.Name,
		"stages", len(tmpl.Stages),
		"failed", len(merged.FailedStages()))
	return merged
}

func (e *Executor) runStage(ctx context.Context, stage Stage, req *Request, prior []Section) StageOutcome {
	outcome := StageOutcome{Stage: stage, Label: stage.Label()}
	start := time.Now()

	fail := func(err error) StageOutcome {
		serr := &StageError{Stage: stage, Err: err}
		outcome.Status = StageFailed
		outcome.Error = serr.Error()
		outcome.Elapsed = time.Since(start)
		e.logger.Warn("stage failed", "stage", stage, "error", err)
		return outcome
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	responder, ok := e.responders[stage]
	if !ok {
		return fail(fmt.Errorf("no responder registered"))
	}

	stageReq := &Request{
		Query:   req.Query,
		Topic:   req.Topic,
		Context: req.Context,
		Prior:   append([]Section(nil), prior...),
	}
	result, err := responder.Respond(ctx, stageReq)
	if err != nil {
		return fail(err)
	}
	if result == nil || strings.TrimSpace(result.Text) == "" {
		return fail(fmt.Errorf("responder returned no text"))
	}

	outcome.Status = StageOK
	outcome.Text = result.Text
	outcome.Elapsed = time.Since(start)
	return outcome
}
