package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/feriadolabs/feriado/classify"
)

type stubResponder struct {
	stage Stage
	text  string
	err   error
	calls int
	seen  []*Request
	after func()
}

func (s *stubResponder) Key() Stage { return s.stage }

func (s *stubResponder) Respond(ctx context.Context, req *Request) (*Result, error) {
	s.calls++
	s.seen = append(s.seen, req)
	if s.after != nil {
		defer s.after()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &Result{Text: s.text}, nil
}

func stubSet(stages ...Stage) map[Stage]Responder {
	set := make(map[Stage]Responder, len(stages))
	for _, st := range stages {
		set[st] = &stubResponder{stage: st, text: string(st) + " output"}
	}
	return set
}

func quietExecutor(t *testing.T, config *ExecutorConfig) *Executor {
	t.Helper()
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	exec, err := NewExecutor(config)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return exec
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		tmpl, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) missing", name)
			continue
		}
		if len(tmpl.Stages) == 0 {
			t.Errorf("template %q has no stages", name)
		}
		if tmpl.Stages[len(tmpl.Stages)-1] != StageSynthesis {
			t.Errorf("template %q must end in synthesis, ends in %q", name, tmpl.Stages[len(tmpl.Stages)-1])
		}
	}
	if _, ok := Lookup("no_such_template"); ok {
		t.Error("unknown template resolved")
	}

	full, _ := Lookup(TemplateComprehensive)
	if len(full.Stages) != 5 {
		t.Errorf("comprehensive stages = %d, want 5", len(full.Stages))
	}
	quick, _ := Lookup(TemplateQuickChat)
	if len(quick.Stages) != 1 || quick.Stages[0] != StageSynthesis {
		t.Errorf("quick_chat stages = %v, want [synthesis]", quick.Stages)
	}
}

func TestSelectTemplate(t *testing.T) {
	tests := []struct {
		name string
		cls  classify.Classification
		want string
	}{
		{
			"comprehensive",
			classify.Classification{Type: classify.TypeComprehensive, Complexity: classify.ComplexityHigh},
			TemplateComprehensive,
		},
		{
			"business",
			classify.Classification{Type: classify.TypeBusiness, Complexity: classify.ComplexityMedium},
			TemplateBusinessAdvisory,
		},
		{
			"research",
			classify.Classification{Type: classify.TypeResearch, Complexity: classify.ComplexityMedium},
			TemplateDeepResearch,
		},
		{
			"medium analysis",
			classify.Classification{Type: classify.TypeAnalysis, Complexity: classify.ComplexityMedium},
			TemplateFocusedAnalysis,
		},
		{
			"light analysis falls back to chat",
			classify.Classification{Type: classify.TypeAnalysis, Complexity: classify.ComplexityLow},
			TemplateQuickChat,
		},
		{
			"chat",
			classify.Classification{Type: classify.TypeChat, Complexity: classify.ComplexityLow},
			TemplateQuickChat,
		},
		{
			"unknown type falls back to chat",
			classify.Classification{Type: "mystery", Complexity: classify.ComplexityHigh},
			TemplateQuickChat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectTemplate(tt.cls); got.Name != tt.want {
				t.Errorf("template = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestNewExecutor_Validation(t *testing.T) {
	if _, err := NewExecutor(nil); err == nil {
		t.Error("nil config accepted")
	}
	if _, err := NewExecutor(&ExecutorConfig{}); err == nil {
		t.Error("empty responder set accepted")
	}
}

func TestExecutor_MergesStagesInOrder(t *testing.T) {
	set := stubSet(StageDataAnalysis, StageBusinessAdvisor, StageSynthesis)
	exec := quietExecutor(t, &ExecutorConfig{Responders: set})

	tmpl, _ := Lookup(TemplateBusinessAdvisory)
	merged := exec.Execute(context.Background(), tmpl, &Request{Query: "advise me"})

	if !merged.Succeeded() {
		t.Fatalf("outcomes = %+v, want all ok", merged.Outcomes)
	}
	wantLabels := []string{"Data Analysis", "Business Advisor", "Synthesis"}
	if len(merged.Sections) != len(wantLabels) {
		t.Fatalf("sections = %d, want %d", len(merged.Sections), len(wantLabels))
	}
	for i, want := range wantLabels {
		if merged.Sections[i].Label != want {
			t.Errorf("section %d label = %q, want %q", i, merged.Sections[i].Label, want)
		}
	}
	if merged.Template != TemplateBusinessAdvisory || merged.OutputFormat != "recommendation_brief" {
		t.Errorf("template/format = %q/%q", merged.Template, merged.OutputFormat)
	}
	if merged.RunID == "" {
		t.Error("merged result should carry a run id")
	}
	again := exec.Execute(context.Background(), tmpl, &Request{Query: "advise me"})
	if again.RunID == merged.RunID {
		t.Error("each run should get its own id")
	}
}

func TestExecutor_LaterStagesSeePriorSections(t *testing.T) {
	set := stubSet(StageDataAnalysis, StageBusinessAdvisor, StageSynthesis)
	exec := quietExecutor(t, &ExecutorConfig{Responders: set})

	tmpl, _ := Lookup(TemplateBusinessAdvisory)
	exec.Execute(context.Background(), tmpl, &Request{Query: "advise me"})

	synth := set[StageSynthesis].(*stubResponder)
	if synth.calls != 1 {
		t.Fatalf("synthesis calls = %d, want 1", synth.calls)
	}
	prior := synth.seen[0].Prior
	if len(prior) != 2 {
		t.Fatalf("synthesis prior = %d sections, want 2", len(prior))
	}
	if prior[0].Label != "Data Analysis" || prior[1].Label != "Business Advisor" {
		t.Errorf("prior labels = %q, %q", prior[0].Label, prior[1].Label)
	}

	first := set[StageDataAnalysis].(*stubResponder)
	if len(first.seen[0].Prior) != 0 {
		t.Errorf("first stage prior = %d sections, want 0", len(first.seen[0].Prior))
	}
}

func TestExecutor_StageFailureDoesNotAbort(t *testing.T) {
	set := stubSet(StageDataAnalysis, StageBusinessAdvisor, StageValidation, StageSynthesis)
	set[StageResearch] = &stubResponder{stage: StageResearch, err: errors.New("upstream boom")}
	exec := quietExecutor(t, &ExecutorConfig{Responders: set})

	tmpl, _ := Lookup(TemplateComprehensive)
	merged := exec.Execute(context.Background(), tmpl, &Request{Query: "everything"})

	if merged.Succeeded() {
		t.Fatal("run with a failing stage reported success")
	}
	if got := merged.FailedStages(); len(got) != 1 || got[0] != StageResearch {
		t.Fatalf("failed stages = %v, want [research]", got)
	}
	if len(merged.Outcomes) != 5 {
		t.Errorf("outcomes = %d, want 5 (every stage reported)", len(merged.Outcomes))
	}
	if len(merged.Sections) != 4 {
		t.Errorf("sections = %d, want 4 (failed stage contributes none)", len(merged.Sections))
	}
	research := merged.Outcomes[1]
	if research.Status != StageFailed || !strings.Contains(research.Error, "upstream boom") {
		t.Errorf("research outcome = %+v", research)
	}
	// The failed stage must not appear in later stages' prior sections.
	synth := set[StageSynthesis].(*stubResponder)
	for _, s := range synth.seen[0].Prior {
		if s.Label == StageResearch.Label() {
			t.Error("failed stage leaked into prior sections")
		}
	}
}

func TestExecutor_MissingResponderFailsStage(t *testing.T) {
	set := stubSet(StageSynthesis)
	exec := quietExecutor(t, &ExecutorConfig{Responders: set})

	tmpl, _ := Lookup(TemplateFocusedAnalysis)
	merged := exec.Execute(context.Background(), tmpl, &Request{Query: "analyze"})

	if merged.Succeeded() {
		t.Fatal("missing responders reported success")
	}
	failed := merged.FailedStages()
	if len(failed) != 2 {
		t.Fatalf("failed stages = %v, want data_analysis and validation_crosscheck", failed)
	}
	if !strings.Contains(merged.Outcomes[0].Error, "no responder") {
		t.Errorf("error = %q, want responder lookup failure", merged.Outcomes[0].Error)
	}
	if len(merged.Sections) != 1 {
		t.Errorf("sections = %d, want 1 (synthesis only)", len(merged.Sections))
	}
}

func TestExecutor_BlankTextIsFailure(t *testing.T) {
	set := map[Stage]Responder{
		StageSynthesis: &stubResponder{stage: StageSynthesis, text: "   \n"},
	}
	exec := quietExecutor(t, &ExecutorConfig{Responders: set})

	tmpl, _ := Lookup(TemplateQuickChat)
	merged := exec.Execute(context.Background(), tmpl, &Request{Query: "hi"})

	if merged.Succeeded() {
		t.Fatal("blank responder output reported success")
	}
	if !strings.Contains(merged.Outcomes[0].Error, "no text") {
		t.Errorf("error = %q", merged.Outcomes[0].Error)
	}
}

func TestExecutor_CancellationFailsRemainingStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	set := stubSet(StageBusinessAdvisor, StageSynthesis)
	first := &stubResponder{stage: StageDataAnalysis, text: "numbers", after: cancel}
	set[StageDataAnalysis] = first
	exec := quietExecutor(t, &ExecutorConfig{Responders: set})

	tmpl, _ := Lookup(TemplateBusinessAdvisory)
	merged := exec.Execute(ctx, tmpl, &Request{Query: "advise me"})

	if merged.Outcomes[0].Status != StageOK {
		t.Fatalf("first stage = %+v, want ok", merged.Outcomes[0])
	}
	for _, o := range merged.Outcomes[1:] {
		if o.Status != StageFailed {
			t.Errorf("stage %s = %q, want failed after cancellation", o.Stage, o.Status)
		}
	}
	if advisor := set[StageBusinessAdvisor].(*stubResponder); advisor.calls != 0 {
		t.Errorf("advisor ran %d times after cancellation, want 0", advisor.calls)
	}
	if len(merged.Outcomes) != 3 {
		t.Errorf("outcomes = %d, want 3 (cancelled stages still reported)", len(merged.Outcomes))
	}
}

func TestExecutor_OnStageStreamsOutcomes(t *testing.T) {
	var streamed []Stage
	set := stubSet(StageDataAnalysis, StageValidation, StageSynthesis)
	exec := quietExecutor(t, &ExecutorConfig{
		Responders: set,
		OnStage:    func(o StageOutcome) { streamed = append(streamed, o.Stage) },
	})

	tmpl, _ := Lookup(TemplateFocusedAnalysis)
	merged := exec.Execute(context.Background(), tmpl, &Request{Query: "analyze"})

	if len(streamed) != len(merged.Outcomes) {
		t.Fatalf("streamed %d outcomes, want %d", len(streamed), len(merged.Outcomes))
	}
	for i, stage := range streamed {
		if stage != merged.Outcomes[i].Stage {
			t.Errorf("streamed[%d] = %q, want %q", i, stage, merged.Outcomes[i].Stage)
		}
	}
}

func TestMergedResult_Render(t *testing.T) {
	multi := &MergedResult{Sections: []Section{
		{Label: "Data Analysis", Text: "numbers"},
		{Label: "Synthesis", Text: "the upshot"},
	}}
	rendered := multi.Render()
	if !strings.Contains(rendered, "## Data Analysis") || !strings.Contains(rendered, "## Synthesis") {
		t.Errorf("rendered = %q, want section headings", rendered)
	}
	if strings.Index(rendered, "numbers") > strings.Index(rendered, "the upshot") {
		t.Error("sections rendered out of order")
	}

	single := &MergedResult{Sections: []Section{{Label: "Synthesis", Text: "just chat"}}}
	if got := single.Render(); got != "just chat" {
		t.Errorf("single-section render = %q, want bare text", got)
	}
}

func TestStageError_Unwrap(t *testing.T) {
	sentinel := errors.New("model unavailable")
	err := &StageError{Stage: StageResearch, Err: fmt.Errorf("calling model: %w", sentinel)}

	if !errors.Is(err, sentinel) {
		t.Error("StageError must unwrap to the cause")
	}
	if !strings.Contains(err.Error(), "research") {
		t.Errorf("message %q does not name the stage", err.Error())
	}
}
