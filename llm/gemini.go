package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient adapts Google's Gemini API to the Client interface.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client.
//
// If apiKey is empty, GEMINI_API_KEY and then GOOGLE_API_KEY are consulted.
// If model is empty, a sensible default is used.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key required: set GEMINI_API_KEY or GOOGLE_API_KEY")
	}
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete implements Client.
func (g *GeminiClient) Complete(ctx context.Context, messages []Message, opts ...CallOption) (*Completion, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages provided")
	}

	model := g.client.GenerativeModel(g.model)
	g.configureModel(model, BuildCallOptions(opts...))

	history, lastParts := convertGeminiMessages(messages)
	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, lastParts...)
	if err != nil {
		return nil, fmt.Errorf("gemini completion: %w", err)
	}

	text := extractGeminiText(resp)
	if text == "" {
		return nil, errors.New("gemini returned empty response")
	}

	completion := &Completion{
		Text:     text,
		Model:    g.model,
		Metadata: map[string]any{},
	}
	if resp.UsageMetadata != nil {
		completion.Metadata["prompt_tokens"] = int(resp.UsageMetadata.PromptTokenCount)
		completion.Metadata["completion_tokens"] = int(resp.UsageMetadata.CandidatesTokenCount)
		completion.Metadata["total_tokens"] = int(resp.UsageMetadata.TotalTokenCount)
	}
	return completion, nil
}

// Model implements Client.
func (g *GeminiClient) Model() string {
	return g.model
}

// Close releases the underlying API client.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) configureModel(model *genai.GenerativeModel, options *CallOptions) {
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		model.Temperature = &temp
	}
	if options.MaxTokens != nil {
		maxTokens := int32(*options.MaxTokens)
		model.MaxOutputTokens = &maxTokens
	}
	if options.TopP != nil {
		topP := float32(*options.TopP)
		model.TopP = &topP
	}
}

// convertGeminiMessages splits the conversation into chat history and the
// parts of the final message, which the SDK sends separately.
func convertGeminiMessages(messages []Message) ([]*genai.Content, []genai.Part) {
	if len(messages) == 0 {
		return nil, nil
	}

	history := make([]*genai.Content, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		history = append(history, &genai.Content{
			Role:  mapGeminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	last := messages[len(messages)-1]
	return history, []genai.Part{genai.Text(last.Content)}
}

// mapGeminiRole translates conversation roles to Gemini's two-role scheme.
// Gemini has no system role, so system prompts ride along as user turns.
func mapGeminiRole(role string) string {
	switch role {
	case RoleUser, RoleSystem:
		return "user"
	default:
		return "model"
	}
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var text string
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text
}
