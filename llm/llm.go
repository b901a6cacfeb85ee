// Package llm adapts commercial model providers behind one small interface.
//
// The contract is deliberately minimal: a Client turns a message list into
// one completion. Provider specifics (chat session plumbing, SDK types,
// credential loading) stay inside each adapter, so the agents package can
// swap providers through configuration alone.
package llm

import "context"

// Roles used in conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of provider-agnostic conversation input.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a provider response.
type Completion struct {
	Text     string         `json:"text"`
	Model    string         `json:"model"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Client is the minimal provider contract.
type Client interface {
	// Complete generates one completion for the conversation.
	Complete(ctx context.Context, messages []Message, opts ...CallOption) (*Completion, error)

	// Model returns the model identifier this client targets.
	Model() string
}

// CallOptions holds per-call generation parameters.
type CallOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// CallOption is a functional option for configuring calls.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens caps the generated token count.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) CallOption {
	return func(opts *CallOptions) {
		opts.TopP = &topP
	}
}

// BuildCallOptions folds functional options into a CallOptions.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
