// Package agent routes user queries across tools with a function-calling
// loop.
package agent

import (
	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/tools"
)

// DefaultMaxIterations bounds the tool-calling loop per user message.
const DefaultMaxIterations = 10

// ChatResponse is the agent's answer to one user message.
type ChatResponse struct {
	// Response is the final answer text.
	Response string
	// ToolOutputs are the outputs of every tool invoked while answering.
	ToolOutputs []*tools.Output
	// Messages is the full message trace of this turn, tool calls included.
	Messages []llm.ChatMessage
}

// String returns the response text.
func (r *ChatResponse) String() string {
	return r.Response
}

// SourceOutput returns the output of the named tool, or nil.
func (r *ChatResponse) SourceOutput(toolName string) *tools.Output {
	for _, out := range r.ToolOutputs {
		if out.ToolName == toolName {
			return out
		}
	}
	return nil
}
