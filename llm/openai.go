package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI is an LLM backed by the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		o.model = model
	}
}

// WithOpenAIBaseURL points the client at a compatible API endpoint.
func WithOpenAIBaseURL(baseURL, apiKey string) OpenAIOption {
	return func(o *OpenAI) {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		o.client = openai.NewClientWithConfig(cfg)
	}
}

// WithOpenAIClient sets a pre-built client, mainly for tests.
func WithOpenAIClient(client *openai.Client) OpenAIOption {
	return func(o *OpenAI) {
		o.client = client
	}
}

// WithOpenAILogger sets the logger.
func WithOpenAILogger(logger *slog.Logger) OpenAIOption {
	return func(o *OpenAI) {
		o.logger = logger
	}
}

// NewOpenAI creates an OpenAI LLM. The API key falls back to the
// OPENAI_API_KEY environment variable.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	o := &OpenAI{
		model:  DefaultOpenAIModel,
		logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		o.client = openai.NewClient(apiKey)
	}

	return o
}

// Complete generates a completion for a single prompt.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	return o.Chat(ctx, []ChatMessage{UserMessage(prompt)})
}

// Chat generates a response for a conversation.
func (o *OpenAI) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	o.logger.Debug("chat", "model", o.model, "messages", len(messages))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Stream generates a streaming completion for a single prompt.
func (o *OpenAI) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	o.logger.Debug("stream", "model", o.model, "prompt_len", len(prompt))

	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages([]ChatMessage{UserMessage(prompt)}),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("openai stream failed: %w", err)
	}

	tokens := make(chan string)
	go func() {
		defer close(tokens)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				o.logger.Error("stream receive failed", "error", err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case tokens <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tokens, nil
}

// ChatWithTools generates a response that may request tool invocations.
func (o *OpenAI) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolSpec, opts *Options) (ChatResponse, error) {
	o.logger.Debug("chat with tools", "model", o.model, "messages", len(messages), "tools", len(tools))

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(tools),
	}

	if opts != nil {
		if opts.Temperature != nil {
			req.Temperature = *opts.Temperature
		}
		if opts.MaxTokens != nil {
			req.MaxTokens = *opts.MaxTokens
		}
		if opts.TopP != nil {
			req.TopP = *opts.TopP
		}
		if opts.Stop != nil {
			req.Stop = opts.Stop
		}
		if opts.ToolChoice != "" {
			req.ToolChoice = string(opts.ToolChoice)
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("openai chat with tools failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("openai returned no choices")
	}

	choice := resp.Choices[0]
	msg := ChatMessage{
		Role:    RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return ChatResponse{
		Message:      msg,
		FinishReason: string(choice.FinishReason),
	}, nil
}

// SupportsToolCalling reports whether the configured model can call tools.
func (o *OpenAI) SupportsToolCalling() bool {
	return o.Metadata().ToolCalling
}

// Metadata returns the model's capability metadata.
func (o *OpenAI) Metadata() Metadata {
	return MetadataForModel(o.model)
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		m := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		if msg.ToolCallID != "" {
			m.ToolCallID = msg.ToolCallID
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out[i] = m
	}
	return out
}

func toOpenAITools(tools []ToolSpec) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		params := tool.Parameters
		if params == nil {
			params = SingleQueryParameters()
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		}
	}
	return out
}

// Ensure OpenAI implements the interfaces.
var (
	_ LLM            = (*OpenAI)(nil)
	_ MetadataLLM    = (*OpenAI)(nil)
	_ ToolCallingLLM = (*OpenAI)(nil)
)
