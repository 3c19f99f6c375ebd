package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/memory"
	"github.com/quarv/docrouter/tools"
)

// FunctionAgent answers user messages by letting a tool-calling model choose
// among the registered tools. Each turn runs a loop: the model either
// answers in text or requests tool calls; tool results are fed back until it
// answers or the iteration cap is hit.
type FunctionAgent struct {
	llm           llm.ToolCallingLLM
	tools         map[string]tools.Tool
	specs         []llm.ToolSpec
	memory        *memory.Buffer
	systemPrompt  string
	maxIterations int
	logger        *slog.Logger
}

// Option configures a FunctionAgent.
type Option func(*FunctionAgent)

// WithSystemPrompt sets the system prompt prepended to every turn.
func WithSystemPrompt(prompt string) Option {
	return func(a *FunctionAgent) {
		a.systemPrompt = prompt
	}
}

// WithMaxIterations bounds the tool loop per user message.
func WithMaxIterations(n int) Option {
	return func(a *FunctionAgent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithMemory sets the conversation memory used by Chat.
func WithMemory(mem *memory.Buffer) Option {
	return func(a *FunctionAgent) {
		a.memory = mem
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *FunctionAgent) {
		a.logger = logger
	}
}

// New creates a FunctionAgent over a tool-calling model. Tool names must be
// unique.
func New(model llm.ToolCallingLLM, agentTools []tools.Tool, opts ...Option) (*FunctionAgent, error) {
	if !model.SupportsToolCalling() {
		return nil, fmt.Errorf("model does not support tool calling")
	}
	if len(agentTools) == 0 {
		return nil, fmt.Errorf("agent needs at least one tool")
	}

	a := &FunctionAgent{
		llm:           model,
		tools:         make(map[string]tools.Tool, len(agentTools)),
		maxIterations: DefaultMaxIterations,
		logger:        slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, tool := range agentTools {
		name := tool.Metadata().Name
		if _, dup := a.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		a.tools[name] = tool
		a.specs = append(a.specs, tool.Metadata().ToSpec())
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.memory == nil {
		mem, err := memory.NewBuffer()
		if err != nil {
			return nil, err
		}
		a.memory = mem
	}

	return a, nil
}

// Chat answers a message within the ongoing conversation. History is read
// from and written back to the agent's memory.
func (a *FunctionAgent) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	history, err := a.memory.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}

	resp, err := a.run(ctx, message, history)
	if err != nil {
		return nil, err
	}

	if err := a.memory.Put(ctx, llm.UserMessage(message)); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}
	if err := a.memory.Put(ctx, llm.AssistantMessage(resp.Response)); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}

	return resp, nil
}

// Query answers a single message with no conversation history.
func (a *FunctionAgent) Query(ctx context.Context, message string) (*ChatResponse, error) {
	return a.run(ctx, message, nil)
}

// Reset clears the conversation memory.
func (a *FunctionAgent) Reset(ctx context.Context) error {
	return a.memory.Reset(ctx)
}

func (a *FunctionAgent) run(ctx context.Context, message string, history []llm.ChatMessage) (*ChatResponse, error) {
	var messages []llm.ChatMessage
	if a.systemPrompt != "" {
		messages = append(messages, llm.SystemMessage(a.systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(message))

	var toolOutputs []*tools.Output

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		resp, err := a.llm.ChatWithTools(ctx, messages, a.specs, nil)
		if err != nil {
			return nil, fmt.Errorf("chat with tools: %w", err)
		}

		messages = append(messages, resp.Message)

		if !resp.Message.HasToolCalls() {
			return &ChatResponse{
				Response:    resp.Message.Content,
				ToolOutputs: toolOutputs,
				Messages:    messages,
			}, nil
		}

		for _, call := range resp.Message.ToolCalls {
			if call.ID == "" {
				call.ID = uuid.New().String()
			}

			output := a.executeCall(ctx, call)
			toolOutputs = append(toolOutputs, output)
			messages = append(messages, llm.ToolMessage(call.ID, output.Content))

			a.logger.Debug("tool call",
				"tool", call.Name,
				"error", output.IsError,
			)

			if tool, ok := a.tools[call.Name]; ok && tool.Metadata().ReturnDirect && !output.IsError {
				return &ChatResponse{
					Response:    output.Content,
					ToolOutputs: toolOutputs,
					Messages:    messages,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("no final answer after %d iterations", a.maxIterations)
}

// executeCall runs one tool call. Failures are reported as error outputs the
// model can react to rather than aborting the turn.
func (a *FunctionAgent) executeCall(ctx context.Context, call llm.ToolCall) *tools.Output {
	tool, ok := a.tools[call.Name]
	if !ok {
		return tools.NewErrorOutput(call.Name, fmt.Errorf("unknown tool %q", call.Name))
	}

	args, err := call.ParseArguments()
	if err != nil {
		return tools.NewErrorOutput(call.Name, fmt.Errorf("invalid arguments: %w", err))
	}

	output, err := tool.Call(ctx, args)
	if err != nil {
		if output != nil && output.IsError {
			return output
		}
		return tools.NewErrorOutput(call.Name, err)
	}
	return output
}
