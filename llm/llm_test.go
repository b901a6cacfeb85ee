package llm

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/google/generative-ai-go/genai"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

func TestCallOptions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []CallOption
		validate func(*testing.T, *CallOptions)
	}{
		{
			name: "WithTemperature",
			opts: []CallOption{WithTemperature(0.7)},
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.Temperature == nil {
					t.Fatal("Temperature should not be nil")
				}
				if *opts.Temperature != 0.7 {
					t.Errorf("Expected temperature 0.7, got %f", *opts.Temperature)
				}
			},
		},
		{
			name: "WithMaxTokens",
			opts: []CallOption{WithMaxTokens(1024)},
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.MaxTokens == nil {
					t.Fatal("MaxTokens should not be nil")
				}
				if *opts.MaxTokens != 1024 {
					t.Errorf("Expected max_tokens 1024, got %d", *opts.MaxTokens)
				}
			},
		},
		{
			name: "WithTopP",
			opts: []CallOption{WithTopP(0.9)},
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.TopP == nil {
					t.Fatal("TopP should not be nil")
				}
				if *opts.TopP != 0.9 {
					t.Errorf("Expected top_p 0.9, got %f", *opts.TopP)
				}
			},
		},
		{
			name: "Multiple options",
			opts: []CallOption{
				WithTemperature(0.5),
				WithMaxTokens(2048),
				WithTopP(0.95),
			},
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.Temperature == nil || *opts.Temperature != 0.5 {
					t.Error("Temperature not set correctly")
				}
				if opts.MaxTokens == nil || *opts.MaxTokens != 2048 {
					t.Error("MaxTokens not set correctly")
				}
				if opts.TopP == nil || *opts.TopP != 0.95 {
					t.Error("TopP not set correctly")
				}
			},
		},
		{
			name: "No options",
			opts: nil,
			validate: func(t *testing.T, opts *CallOptions) {
				if opts.Temperature != nil || opts.MaxTokens != nil || opts.TopP != nil {
					t.Error("Expected all options unset")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := BuildCallOptions(tt.opts...)
			tt.validate(t, opts)
		})
	}
}

// mockClient is an in-memory Client for wiring tests in other packages.
type mockClient struct {
	model        string
	completeFunc func(context.Context, []Message, ...CallOption) (*Completion, error)
}

func (m *mockClient) Complete(ctx context.Context, messages []Message, opts ...CallOption) (*Completion, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, messages, opts...)
	}
	return &Completion{Text: "mock response", Model: m.model}, nil
}

func (m *mockClient) Model() string {
	return m.model
}

func TestMockClient(t *testing.T) {
	mock := &mockClient{model: "mock-model"}
	ctx := context.Background()

	response, err := mock.Complete(ctx, []Message{{Role: RoleUser, Content: "test"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if response.Text != "mock response" {
		t.Errorf("Expected 'mock response', got %s", response.Text)
	}
	if mock.Model() != "mock-model" {
		t.Errorf("Expected 'mock-model', got %s", mock.Model())
	}
}

// TestClientInterface verifies that concrete adapters satisfy the interface.
func TestClientInterface(t *testing.T) {
	var _ Client = &mockClient{}
	var _ Client = &GeminiClient{}
	var _ Client = &OpenAIClient{}
	var _ Client = &BedrockClient{}
}

func TestConvertGeminiMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "you are a travel analyst"},
		{Role: RoleUser, Content: "hola"},
		{Role: RoleAssistant, Content: "hola, como puedo ayudar?"},
		{Role: RoleUser, Content: "analiza los feriados"},
	}

	history, lastParts := convertGeminiMessages(messages)
	if len(history) != 3 {
		t.Fatalf("Expected 3 history entries, got %d", len(history))
	}
	if history[0].Role != "user" {
		t.Errorf("System message should map to user role, got %s", history[0].Role)
	}
	if history[2].Role != "model" {
		t.Errorf("Assistant message should map to model role, got %s", history[2].Role)
	}
	if len(lastParts) != 1 {
		t.Fatalf("Expected 1 last part, got %d", len(lastParts))
	}
	if text, ok := lastParts[0].(genai.Text); !ok || string(text) != "analiza los feriados" {
		t.Errorf("Last part should carry the final user message, got %v", lastParts[0])
	}
}

func TestMapOpenAIRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{RoleSystem, openai.ChatMessageRoleSystem},
		{RoleUser, openai.ChatMessageRoleUser},
		{RoleAssistant, openai.ChatMessageRoleAssistant},
		{"unknown", openai.ChatMessageRoleUser},
	}
	for _, tt := range tests {
		if got := mapOpenAIRole(tt.role); got != tt.want {
			t.Errorf("mapOpenAIRole(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestConvertBedrockMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "you are a travel analyst"},
		{Role: RoleUser, Content: "hola"},
		{Role: RoleAssistant, Content: "hola!"},
	}

	converted, system := convertBedrockMessages(messages)
	if len(system) != 1 {
		t.Fatalf("Expected 1 system block, got %d", len(system))
	}
	block, ok := system[0].(*types.SystemContentBlockMemberText)
	if !ok || block.Value != "you are a travel analyst" {
		t.Errorf("System block should carry the system prompt, got %v", system[0])
	}
	if len(converted) != 2 {
		t.Fatalf("Expected 2 conversation turns, got %d", len(converted))
	}
	if converted[0].Role != types.ConversationRoleUser {
		t.Errorf("Expected user role, got %s", converted[0].Role)
	}
	if converted[1].Role != types.ConversationRoleAssistant {
		t.Errorf("Expected assistant role, got %s", converted[1].Role)
	}
}

func TestExtractBedrockText(t *testing.T) {
	if got := extractBedrockText(nil); got != "" {
		t.Errorf("Expected empty text for nil response, got %q", got)
	}
}
