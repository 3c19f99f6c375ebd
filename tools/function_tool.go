package tools

import (
	"context"
	"fmt"
)

// FuncTool adapts a plain Go function into a Tool.
type FuncTool struct {
	metadata *Metadata
	fn       func(ctx context.Context, args map[string]any) (any, error)
}

// NewFuncTool creates a tool from a function. A nil parameters schema
// defaults to the single query string schema.
func NewFuncTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FuncTool {
	return &FuncTool{
		metadata: &Metadata{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
		fn: fn,
	}
}

// Metadata returns the tool's metadata.
func (t *FuncTool) Metadata() *Metadata {
	return t.metadata
}

// Call invokes the wrapped function.
func (t *FuncTool) Call(ctx context.Context, args map[string]any) (*Output, error) {
	result, err := t.fn(ctx, args)
	if err != nil {
		return NewErrorOutput(t.metadata.Name, err), err
	}

	var content string
	switch v := result.(type) {
	case string:
		content = v
	case fmt.Stringer:
		content = v.String()
	default:
		content = fmt.Sprintf("%v", v)
	}

	return NewOutput(t.metadata.Name, content, args, result), nil
}

var _ Tool = (*FuncTool)(nil)
