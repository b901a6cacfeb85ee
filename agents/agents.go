// Package agents provides the concrete stage responders that workflow
// pipelines execute.
//
// Each responder is a thin prompt wrapper over an llm.Client: it owns a
// system prompt describing its specialty, renders the request (query, topic,
// shared context, prior stage findings) into a user message, and returns the
// completion text as its stage output. The offline responders mirror the
// same stages without a model behind them, so pipelines stay runnable when
// no provider is configured.
package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feriadolabs/feriado/llm"
	"github.com/feriadolabs/feriado/workflow"
)

const (
	defaultTemperature = 0.4
	defaultMaxTokens   = 1024
)

// stageAgent is the shared prompt-wrapper implementation behind every
// LLM-backed responder.
type stageAgent struct {
	stage       workflow.Stage
	client      llm.Client
	system      string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option is a functional option for configuring a stage responder.
type Option func(*stageAgent)

// WithTemperature sets the sampling temperature for the responder's calls.
func WithTemperature(temperature float64) Option {
	return func(a *stageAgent) {
		a.temperature = temperature
	}
}

// WithMaxTokens caps the completion length for the responder's calls.
func WithMaxTokens(maxTokens int) Option {
	return func(a *stageAgent) {
		a.maxTokens = maxTokens
	}
}

// WithLogger sets the responder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *stageAgent) {
		a.logger = logger
	}
}

func newStageAgent(stage workflow.Stage, system string, client llm.Client, opts ...Option) *stageAgent {
	a := &stageAgent{
		stage:       stage,
		client:      client,
		system:      system,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key implements workflow.Responder.
func (a *stageAgent) Key() workflow.Stage {
	return a.stage
}

// Respond implements workflow.Responder.
func (a *stageAgent) Respond(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.system},
		{Role: llm.RoleUser, Content: renderRequest(req)},
	}

	completion, err := a.client.Complete(ctx, messages,
		llm.WithTemperature(a.temperature),
		llm.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.stage, err)
	}

	a.logger.Debug("stage completion",
		"stage", string(a.stage),
		"model", completion.Model,
		"chars", len(completion.Text))

	return &workflow.Result{Text: completion.Text, Metadata: completion.Metadata}, nil
}

// NewDataAnalyst builds the data_analysis responder. It reads the metric
// context assembled by the caller and turns it into quantified findings.
func NewDataAnalyst(client llm.Client, opts ...Option) workflow.Responder {
	return newStageAgent(workflow.StageDataAnalysis, dataAnalystPrompt, client, opts...)
}

// NewResearcher builds the research responder, which supplies external
// context around the question: holiday background, travel-industry factors,
// regional specifics.
func NewResearcher(client llm.Client, opts ...Option) workflow.Responder {
	return newStageAgent(workflow.StageResearch, researcherPrompt, client, opts...)
}

// NewBusinessAdvisor builds the business_advisor responder, which turns
// findings into concrete recommendations.
func NewBusinessAdvisor(client llm.Client, opts ...Option) workflow.Responder {
	return newStageAgent(workflow.StageBusinessAdvisor, businessAdvisorPrompt, client, opts...)
}

// NewValidator builds the validation_crosscheck responder, which audits the
// prior stages against the metric context and flags contradictions.
func NewValidator(client llm.Client, opts ...Option) workflow.Responder {
	return newStageAgent(workflow.StageValidation, validatorPrompt, client, opts...)
}

// NewSynthesizer builds the synthesis responder. It closes every pipeline,
// folding the earlier sections into one answer in the user's language.
func NewSynthesizer(client llm.Client, opts ...Option) workflow.Responder {
	return newStageAgent(workflow.StageSynthesis, synthesizerPrompt, client, opts...)
}

// Registry builds all five responders over one client, keyed for the
// workflow executor.
func Registry(client llm.Client, opts ...Option) map[workflow.Stage]workflow.Responder {
	return map[workflow.Stage]workflow.Responder{
		workflow.StageDataAnalysis:    NewDataAnalyst(client, opts...),
		workflow.StageResearch:        NewResearcher(client, opts...),
		workflow.StageBusinessAdvisor: NewBusinessAdvisor(client, opts...),
		workflow.StageValidation:      NewValidator(client, opts...),
		workflow.StageSynthesis:       NewSynthesizer(client, opts...),
	}
}
