package tools

import (
	"context"

	"github.com/quarv/docrouter/engine"
	"github.com/quarv/docrouter/schema"
)

const (
	// DefaultQueryEngineToolName is used when no name is configured.
	DefaultQueryEngineToolName = "query_engine_tool"
	// DefaultQueryEngineToolDescription is used when no description is configured.
	DefaultQueryEngineToolDescription = "Useful for running a natural language query against a knowledge base and getting back a natural language response."
)

// QueryEngineTool exposes a query engine over one document corpus as an
// agent tool.
type QueryEngineTool struct {
	metadata *Metadata
	engine   engine.QueryEngine
}

// QueryEngineToolOption configures a QueryEngineTool.
type QueryEngineToolOption func(*QueryEngineTool)

// WithName sets the tool name.
func WithName(name string) QueryEngineToolOption {
	return func(t *QueryEngineTool) {
		t.metadata.Name = name
	}
}

// WithDescription sets the tool description.
func WithDescription(description string) QueryEngineToolOption {
	return func(t *QueryEngineTool) {
		t.metadata.Description = description
	}
}

// WithReturnDirect makes the tool's output the agent's final answer.
func WithReturnDirect(returnDirect bool) QueryEngineToolOption {
	return func(t *QueryEngineTool) {
		t.metadata.ReturnDirect = returnDirect
	}
}

// NewQueryEngineTool wraps a query engine as a tool.
func NewQueryEngineTool(qe engine.QueryEngine, opts ...QueryEngineToolOption) *QueryEngineTool {
	t := &QueryEngineTool{
		metadata: &Metadata{
			Name:        DefaultQueryEngineToolName,
			Description: DefaultQueryEngineToolDescription,
		},
		engine: qe,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Metadata returns the tool's metadata.
func (t *QueryEngineTool) Metadata() *Metadata {
	return t.metadata
}

// QueryEngine returns the wrapped engine.
func (t *QueryEngineTool) QueryEngine() engine.QueryEngine {
	return t.engine
}

// Call runs the query engine on the tool's input query.
func (t *QueryEngineTool) Call(ctx context.Context, args map[string]any) (*Output, error) {
	query, err := QueryInput(args)
	if err != nil {
		return NewErrorOutput(t.metadata.Name, err), nil
	}

	resp, err := t.engine.Query(ctx, schema.QueryBundle{Query: query})
	if err != nil {
		return NewErrorOutput(t.metadata.Name, err), err
	}

	return NewOutput(t.metadata.Name, resp.Response, map[string]any{"input": query}, resp), nil
}

var _ Tool = (*QueryEngineTool)(nil)
