package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// Bedrock model identifiers supported out of the box.
const (
	BedrockClaude35Sonnet = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	BedrockClaude35Haiku  = "anthropic.claude-3-5-haiku-20241022-v1:0"
	BedrockNovaPro        = "amazon.nova-pro-v1:0"
	BedrockNovaLite       = "amazon.nova-lite-v1:0"
)

// DefaultBedrockModel is used when no model is configured.
const DefaultBedrockModel = BedrockClaude35Sonnet

// bedrockToolModels lists models with Converse tool support.
var bedrockToolModels = map[string]bool{
	BedrockClaude35Sonnet: true,
	BedrockClaude35Haiku:  true,
	BedrockNovaPro:        true,
	BedrockNovaLite:       true,
}

// Bedrock is an LLM backed by the AWS Bedrock Converse API.
type Bedrock struct {
	client      *bedrockruntime.Client
	model       string
	maxTokens   int32
	temperature float32
	logger      *slog.Logger
}

// BedrockOption configures a Bedrock client.
type BedrockOption func(*Bedrock)

// WithBedrockModel sets the model identifier.
func WithBedrockModel(model string) BedrockOption {
	return func(b *Bedrock) {
		b.model = model
	}
}

// WithBedrockMaxTokens sets the generation token limit.
func WithBedrockMaxTokens(maxTokens int) BedrockOption {
	return func(b *Bedrock) {
		b.maxTokens = int32(maxTokens)
	}
}

// WithBedrockTemperature sets the sampling temperature.
func WithBedrockTemperature(temperature float32) BedrockOption {
	return func(b *Bedrock) {
		b.temperature = temperature
	}
}

// WithBedrockClient sets a pre-built client, mainly for tests.
func WithBedrockClient(client *bedrockruntime.Client) BedrockOption {
	return func(b *Bedrock) {
		b.client = client
	}
}

// NewBedrock creates a Bedrock LLM using the default AWS credential chain.
// The region falls back to AWS_REGION, then us-east-1.
func NewBedrock(ctx context.Context, opts ...BedrockOption) (*Bedrock, error) {
	b := &Bedrock{
		model:       DefaultBedrockModel,
		maxTokens:   1024,
		temperature: 0.1,
		logger:      slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.client == nil {
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		b.client = bedrockruntime.NewFromConfig(cfg)
	}

	return b, nil
}

// Complete generates a completion for a single prompt.
func (b *Bedrock) Complete(ctx context.Context, prompt string) (string, error) {
	return b.Chat(ctx, []ChatMessage{UserMessage(prompt)})
}

// Chat generates a response for a conversation.
func (b *Bedrock) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	b.logger.Debug("chat", "model", b.model, "messages", len(messages))

	resp, err := b.client.Converse(ctx, b.converseInput(messages, nil))
	if err != nil {
		return "", fmt.Errorf("bedrock converse failed: %w", err)
	}

	return converseText(resp), nil
}

// Stream generates a streaming completion for a single prompt.
func (b *Bedrock) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	conv, system := toConverseMessages([]ChatMessage{UserMessage(prompt)})

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(b.model),
		Messages: conv,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(b.maxTokens),
			Temperature: aws.Float32(b.temperature),
		},
	}
	if len(system) > 0 {
		input.System = system
	}

	resp, err := b.client.ConverseStream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock stream failed: %w", err)
	}

	tokens := make(chan string)
	go func() {
		defer close(tokens)
		for event := range resp.GetStream().Events() {
			delta, ok := event.(*types.ConverseStreamOutputMemberContentBlockDelta)
			if !ok {
				continue
			}
			text, ok := delta.Value.Delta.(*types.ContentBlockDeltaMemberText)
			if !ok || text.Value == "" {
				continue
			}
			select {
			case tokens <- text.Value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tokens, nil
}

// ChatWithTools generates a response that may request tool invocations.
func (b *Bedrock) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolSpec, opts *Options) (ChatResponse, error) {
	b.logger.Debug("chat with tools", "model", b.model, "messages", len(messages), "tools", len(tools))

	input := b.converseInput(messages, tools)
	if opts != nil {
		if opts.Temperature != nil {
			input.InferenceConfig.Temperature = aws.Float32(*opts.Temperature)
		}
		if opts.MaxTokens != nil {
			input.InferenceConfig.MaxTokens = aws.Int32(int32(*opts.MaxTokens))
		}
		if opts.TopP != nil {
			input.InferenceConfig.TopP = aws.Float32(*opts.TopP)
		}
	}

	resp, err := b.client.Converse(ctx, input)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("bedrock converse with tools failed: %w", err)
	}

	msg := ChatMessage{
		Role:    RoleAssistant,
		Content: converseText(resp),
	}
	if out, ok := resp.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range out.Value.Content {
			use, ok := block.(*types.ContentBlockMemberToolUse)
			if !ok {
				continue
			}
			var argsStr string
			if use.Value.Input != nil {
				var args any
				if err := use.Value.Input.UnmarshalSmithyDocument(&args); err == nil {
					if raw, err := json.Marshal(args); err == nil {
						argsStr = string(raw)
					}
				}
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:        aws.ToString(use.Value.ToolUseId),
				Name:      aws.ToString(use.Value.Name),
				Arguments: argsStr,
			})
		}
	}

	return ChatResponse{
		Message:      msg,
		FinishReason: string(resp.StopReason),
	}, nil
}

// SupportsToolCalling reports whether the configured model can call tools.
func (b *Bedrock) SupportsToolCalling() bool {
	return bedrockToolModels[strings.TrimPrefix(strings.TrimPrefix(b.model, "us."), "eu.")]
}

// Metadata returns the model's capability metadata.
func (b *Bedrock) Metadata() Metadata {
	return Metadata{
		Model:           b.model,
		ContextWindow:   200000,
		MaxOutputTokens: int(b.maxTokens),
		ToolCalling:     b.SupportsToolCalling(),
	}
}

func (b *Bedrock) converseInput(messages []ChatMessage, tools []ToolSpec) *bedrockruntime.ConverseInput {
	conv, system := toConverseMessages(messages)

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(b.model),
		Messages: conv,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(b.maxTokens),
			Temperature: aws.Float32(b.temperature),
		},
	}
	if len(system) > 0 {
		input.System = system
	}
	if len(tools) > 0 {
		specs := make([]types.Tool, 0, len(tools))
		for _, tool := range tools {
			params := tool.Parameters
			if params == nil {
				params = SingleQueryParameters()
			}
			specs = append(specs, &types.ToolMemberToolSpec{
				Value: types.ToolSpecification{
					Name:        aws.String(tool.Name),
					Description: aws.String(tool.Description),
					InputSchema: &types.ToolInputSchemaMemberJson{
						Value: document.NewLazyDocument(params),
					},
				},
			})
		}
		input.ToolConfig = &types.ToolConfiguration{Tools: specs}
	}

	return input
}

// toConverseMessages maps chat messages to Converse messages. System messages
// become system content blocks; tool results ride as user messages, which is
// what the Converse API expects.
func toConverseMessages(messages []ChatMessage) ([]types.Message, []types.SystemContentBlock) {
	var conv []types.Message
	var system []types.SystemContentBlock

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, &types.SystemContentBlockMemberText{Value: msg.Content})

		case RoleUser:
			conv = append(conv, types.Message{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: msg.Content},
				},
			})

		case RoleAssistant:
			var blocks []types.ContentBlock
			for _, tc := range msg.ToolCalls {
				var args any
				if tc.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Arguments), &args)
				}
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(tc.ID),
						Name:      aws.String(tc.Name),
						Input:     document.NewLazyDocument(args),
					},
				})
			}
			if msg.Content != "" {
				blocks = append(blocks, &types.ContentBlockMemberText{Value: msg.Content})
			}
			if len(blocks) > 0 {
				conv = append(conv, types.Message{
					Role:    types.ConversationRoleAssistant,
					Content: blocks,
				})
			}

		case RoleTool:
			conv = append(conv, types.Message{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberToolResult{
						Value: types.ToolResultBlock{
							ToolUseId: aws.String(msg.ToolCallID),
							Content: []types.ToolResultContentBlock{
								&types.ToolResultContentBlockMemberText{Value: msg.Content},
							},
						},
					},
				},
			})
		}
	}

	return conv, system
}

func converseText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	out, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var parts []string
	for _, block := range out.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			parts = append(parts, text.Value)
		}
	}
	return strings.Join(parts, "")
}

// Ensure Bedrock implements the interfaces.
var (
	_ LLM            = (*Bedrock)(nil)
	_ MetadataLLM    = (*Bedrock)(nil)
	_ ToolCallingLLM = (*Bedrock)(nil)
)
