package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient adapts the OpenAI chat completions API to the Client interface.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed client.
//
// If apiKey is empty, OPENAI_API_KEY is consulted. If model is empty,
// gpt-4o-mini is used.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key required: set OPENAI_API_KEY")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}, nil
}

// Complete implements Client.
func (o *OpenAIClient) Complete(ctx context.Context, messages []Message, opts ...CallOption) (*Completion, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages provided")
	}

	options := BuildCallOptions(opts...)
	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: convertOpenAIMessages(messages),
	}
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	choice := resp.Choices[0]
	return &Completion{
		Text:  choice.Message.Content,
		Model: resp.Model,
		Metadata: map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
			"finish_reason":     string(choice.FinishReason),
		},
	}, nil
}

// Model implements Client.
func (o *OpenAIClient) Model() string {
	return o.model
}

func convertOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    mapOpenAIRole(msg.Role),
			Content: msg.Content,
		})
	}
	return converted
}

func mapOpenAIRole(role string) string {
	switch role {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
