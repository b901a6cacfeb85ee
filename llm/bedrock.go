package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockConfig configures an Amazon Bedrock client.
//
// Zero values fall back to the default AWS credential chain, so on EC2 or
// with a configured ~/.aws profile only ModelID needs to be set.
type BedrockConfig struct {
	ModelID         string
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	EndpointURL     string
}

// BedrockClient adapts Amazon Bedrock's Converse API to the Client interface.
type BedrockClient struct {
	client *bedrockruntime.Client
	model  string
}

// NewBedrockClient creates a Bedrock-backed client.
func NewBedrockClient(ctx context.Context, cfg BedrockConfig) (*BedrockClient, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})
	return &BedrockClient{client: client, model: cfg.ModelID}, nil
}

// Complete implements Client.
func (b *BedrockClient) Complete(ctx context.Context, messages []Message, opts ...CallOption) (*Completion, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages provided")
	}

	converted, system := convertBedrockMessages(messages)
	options := BuildCallOptions(opts...)

	inference := &types.InferenceConfiguration{}
	if options.Temperature != nil {
		inference.Temperature = aws.Float32(float32(*options.Temperature))
	}
	if options.TopP != nil {
		inference.TopP = aws.Float32(float32(*options.TopP))
	}
	maxTokens := 4096
	if options.MaxTokens != nil {
		maxTokens = *options.MaxTokens
	}
	inference.MaxTokens = aws.Int32(int32(maxTokens))

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(b.model),
		Messages:        converted,
		InferenceConfig: inference,
	}
	if len(system) > 0 {
		input.System = system
	}

	resp, err := b.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock completion: %w", err)
	}

	text := extractBedrockText(resp)
	if text == "" {
		return nil, errors.New("bedrock returned empty response")
	}

	completion := &Completion{
		Text:     text,
		Model:    b.model,
		Metadata: map[string]any{"stop_reason": string(resp.StopReason)},
	}
	if resp.Usage != nil {
		completion.Metadata["prompt_tokens"] = int(aws.ToInt32(resp.Usage.InputTokens))
		completion.Metadata["completion_tokens"] = int(aws.ToInt32(resp.Usage.OutputTokens))
		completion.Metadata["total_tokens"] = int(aws.ToInt32(resp.Usage.TotalTokens))
	}
	return completion, nil
}

// Model implements Client.
func (b *BedrockClient) Model() string {
	return b.model
}

// convertBedrockMessages maps the conversation onto Converse message blocks.
// System turns go into the dedicated system field rather than the turn list.
func convertBedrockMessages(messages []Message) ([]types.Message, []types.SystemContentBlock) {
	converted := make([]types.Message, 0, len(messages))
	var system []types.SystemContentBlock

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, &types.SystemContentBlockMemberText{Value: msg.Content})
			continue
		}
		role := types.ConversationRoleUser
		if msg.Role == RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		converted = append(converted, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: msg.Content}},
		})
	}
	return converted, system
}

func extractBedrockText(resp *bedrockruntime.ConverseOutput) string {
	if resp == nil {
		return ""
	}
	output, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var text string
	for _, block := range output.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			text += t.Value
		}
	}
	return text
}
