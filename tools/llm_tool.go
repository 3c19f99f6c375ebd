package tools

import (
	"context"

	"github.com/quarv/docrouter/llm"
)

const (
	// DefaultLLMToolName is used when no name is configured.
	DefaultLLMToolName = "general_knowledge"
	// DefaultLLMToolDescription is used when no description is configured.
	DefaultLLMToolDescription = "Useful for answering general questions that are not covered by any document index. Passes the question to the language model directly."
)

// LLMTool answers queries straight from the language model, with no
// retrieval. The agent routes to it when no corpus tool fits the question.
// The query is forwarded verbatim.
type LLMTool struct {
	metadata *Metadata
	llm      llm.LLM
}

// LLMToolOption configures an LLMTool.
type LLMToolOption func(*LLMTool)

// WithLLMToolName sets the tool name.
func WithLLMToolName(name string) LLMToolOption {
	return func(t *LLMTool) {
		t.metadata.Name = name
	}
}

// WithLLMToolDescription sets the tool description.
func WithLLMToolDescription(description string) LLMToolOption {
	return func(t *LLMTool) {
		t.metadata.Description = description
	}
}

// NewLLMTool wraps a language model as a passthrough tool.
func NewLLMTool(model llm.LLM, opts ...LLMToolOption) *LLMTool {
	t := &LLMTool{
		metadata: &Metadata{
			Name:        DefaultLLMToolName,
			Description: DefaultLLMToolDescription,
		},
		llm: model,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Metadata returns the tool's metadata.
func (t *LLMTool) Metadata() *Metadata {
	return t.metadata
}

// Call completes the query with the model.
func (t *LLMTool) Call(ctx context.Context, args map[string]any) (*Output, error) {
	query, err := QueryInput(args)
	if err != nil {
		return NewErrorOutput(t.metadata.Name, err), nil
	}

	answer, err := t.llm.Complete(ctx, query)
	if err != nil {
		return NewErrorOutput(t.metadata.Name, err), err
	}

	return NewOutput(t.metadata.Name, answer, map[string]any{"input": query}, answer), nil
}

var _ Tool = (*LLMTool)(nil)
