package llm

import "encoding/json"

// ToolCall is a request from the model to invoke a named tool.
type ToolCall struct {
	// ID uniquely identifies this call within the conversation.
	ID string `json:"id"`
	// Name is the tool to invoke.
	Name string `json:"name"`
	// Arguments is the JSON-encoded argument object.
	Arguments string `json:"arguments"`
}

// ParseArguments decodes the JSON arguments into a map.
func (tc ToolCall) ParseArguments() (map[string]any, error) {
	args := make(map[string]any)
	if tc.Arguments == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// ToolSpec describes a tool exposed to the model for selection.
type ToolSpec struct {
	// Name is the unique tool name.
	Name string `json:"name"`
	// Description tells the model what the tool is good for.
	Description string `json:"description"`
	// Parameters is the JSON Schema of the tool's argument object.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// SingleQueryParameters is the JSON Schema for tools that take one natural
// language query string.
func SingleQueryParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": "natural language query",
			},
		},
		"required": []string{"input"},
	}
}

// ToolChoice controls whether the model may, must, or must not call tools.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone forbids tool calls.
	ToolChoiceNone ToolChoice = "none"
	// ToolChoiceRequired forces at least one tool call.
	ToolChoiceRequired ToolChoice = "required"
)

// Options are per-request generation parameters. Nil fields use provider
// defaults.
type Options struct {
	Temperature *float32   `json:"temperature,omitempty"`
	MaxTokens   *int       `json:"max_tokens,omitempty"`
	TopP        *float32   `json:"top_p,omitempty"`
	Stop        []string   `json:"stop,omitempty"`
	ToolChoice  ToolChoice `json:"tool_choice,omitempty"`
}
