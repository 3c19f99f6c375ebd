package llm

// Role identifies the sender of a chat message.
type Role string

const (
	// RoleSystem is for system instructions.
	RoleSystem Role = "system"
	// RoleUser is for user messages.
	RoleUser Role = "user"
	// RoleAssistant is for model responses.
	RoleAssistant Role = "assistant"
	// RoleTool is for tool execution results.
	RoleTool Role = "tool"
)

// ChatMessage is a single message in a conversation. Plain text lives in
// Content; tool call requests issued by the model live in ToolCalls.
type ChatMessage struct {
	// Role is the sender of the message.
	Role Role `json:"role"`
	// Content is the text content of the message.
	Content string `json:"content,omitempty"`
	// ToolCalls are tool invocations requested by an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ToolMessage creates a tool result message answering toolCallID.
func ToolMessage(toolCallID, content string) ChatMessage {
	return ChatMessage{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m ChatMessage) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ChatResponse is the result of a chat completion, possibly with tool calls.
type ChatResponse struct {
	// Message is the assistant message returned by the model.
	Message ChatMessage `json:"message"`
	// FinishReason indicates why generation stopped, when known.
	FinishReason string `json:"finish_reason,omitempty"`
}

// Text returns the text content of the response message.
func (r ChatResponse) Text() string {
	return r.Message.Content
}

// StreamToken is one increment of a streaming completion.
type StreamToken struct {
	// Delta is the new text added by this token.
	Delta string `json:"delta"`
	// FinishReason is set on the final token, when known.
	FinishReason string `json:"finish_reason,omitempty"`
}

// Metadata describes a model's capabilities.
type Metadata struct {
	// Model is the provider-specific model identifier.
	Model string `json:"model"`
	// ContextWindow is the maximum number of input tokens.
	ContextWindow int `json:"context_window"`
	// MaxOutputTokens is the maximum number of generated tokens.
	MaxOutputTokens int `json:"max_output_tokens"`
	// ToolCalling reports native function-calling support.
	ToolCalling bool `json:"tool_calling"`
}

// knownOpenAIModels maps OpenAI chat models to their capabilities.
var knownOpenAIModels = map[string]Metadata{
	"gpt-3.5-turbo": {Model: "gpt-3.5-turbo", ContextWindow: 16385, MaxOutputTokens: 4096, ToolCalling: true},
	"gpt-4":         {Model: "gpt-4", ContextWindow: 8192, MaxOutputTokens: 4096, ToolCalling: true},
	"gpt-4-turbo":   {Model: "gpt-4-turbo", ContextWindow: 128000, MaxOutputTokens: 4096, ToolCalling: true},
	"gpt-4o":        {Model: "gpt-4o", ContextWindow: 128000, MaxOutputTokens: 16384, ToolCalling: true},
	"gpt-4o-mini":   {Model: "gpt-4o-mini", ContextWindow: 128000, MaxOutputTokens: 16384, ToolCalling: true},
}

// MetadataForModel returns capability metadata for a model, falling back to
// conservative defaults for unknown model names.
func MetadataForModel(model string) Metadata {
	if meta, ok := knownOpenAIModels[model]; ok {
		return meta
	}
	return Metadata{
		Model:           model,
		ContextWindow:   8192,
		MaxOutputTokens: 1024,
		ToolCalling:     false,
	}
}
