// Package tools defines the tools an agent can route queries to.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quarv/docrouter/llm"
)

// Metadata describes a tool to the model that selects it.
type Metadata struct {
	// Name is the unique tool name.
	Name string `json:"name"`
	// Description tells the model what the tool is good for. Routing quality
	// depends on it being specific.
	Description string `json:"description"`
	// Parameters is the JSON Schema of the tool's argument object.
	Parameters map[string]any `json:"parameters,omitempty"`
	// ReturnDirect short-circuits the agent loop: the tool's output becomes
	// the final answer without another model call.
	ReturnDirect bool `json:"return_direct,omitempty"`
}

// ToSpec converts the metadata to the LLM tool spec format.
func (m *Metadata) ToSpec() llm.ToolSpec {
	params := m.Parameters
	if params == nil {
		params = llm.SingleQueryParameters()
	}
	return llm.ToolSpec{
		Name:        m.Name,
		Description: m.Description,
		Parameters:  params,
	}
}

// Output is the result of one tool invocation.
type Output struct {
	// Content is the text result handed back to the model.
	Content string `json:"content"`
	// ToolName is the tool that produced this output.
	ToolName string `json:"tool_name"`
	// RawInput is the argument object the tool was called with.
	RawInput map[string]any `json:"raw_input,omitempty"`
	// RawOutput is the tool's native result before stringification.
	RawOutput any `json:"raw_output,omitempty"`
	// IsError marks outputs that report a failure to the model.
	IsError bool `json:"is_error,omitempty"`
}

// NewOutput creates a successful tool output.
func NewOutput(toolName, content string, rawInput map[string]any, rawOutput any) *Output {
	return &Output{
		Content:   content,
		ToolName:  toolName,
		RawInput:  rawInput,
		RawOutput: rawOutput,
	}
}

// NewErrorOutput creates an output that reports err to the model.
func NewErrorOutput(toolName string, err error) *Output {
	return &Output{
		Content:  "Error: " + err.Error(),
		ToolName: toolName,
		IsError:  true,
	}
}

func (o *Output) String() string {
	return o.Content
}

// Tool is a capability the agent can invoke with a JSON argument object.
type Tool interface {
	// Metadata returns the tool's metadata.
	Metadata() *Metadata
	// Call executes the tool.
	Call(ctx context.Context, args map[string]any) (*Output, error)
}

// QueryInput extracts the natural language query from a tool argument
// object, accepting both "input" and "query" keys.
func QueryInput(args map[string]any) (string, error) {
	if v, ok := args["input"].(string); ok {
		return v, nil
	}
	if v, ok := args["query"].(string); ok {
		return v, nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("missing required argument %q", "input")
	}
	// Unexpected shape, stringify so the model sees what it sent.
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cannot find 'input' or 'query' in arguments")
	}
	return string(raw), nil
}
