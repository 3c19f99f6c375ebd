package llm

import "context"

// LLM is the minimal interface to a chat-completion model.
type LLM interface {
	// Complete generates a completion for a single prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Chat generates a response for a conversation.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
	// Stream generates a streaming completion for a single prompt.
	Stream(ctx context.Context, prompt string) (<-chan string, error)
}

// MetadataLLM is an LLM that can report its capabilities.
type MetadataLLM interface {
	LLM
	// Metadata returns the model's capability metadata.
	Metadata() Metadata
}

// ToolCallingLLM is an LLM with native function-calling support.
type ToolCallingLLM interface {
	LLM
	// ChatWithTools generates a response that may request tool invocations.
	ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolSpec, opts *Options) (ChatResponse, error)
	// SupportsToolCalling reports whether the configured model can call tools.
	SupportsToolCalling() bool
}
