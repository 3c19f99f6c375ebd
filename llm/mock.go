package llm

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scriptable LLM for tests. Responses are consumed in order; when
// the queue runs dry it falls back to a fixed response.
type Mock struct {
	mu        sync.Mutex
	responses []ChatResponse
	fallback  string

	// CompleteCalls records every prompt passed to Complete.
	CompleteCalls []string
	// ChatCalls records every message list passed to Chat or ChatWithTools.
	ChatCalls [][]ChatMessage
	// ToolSpecs records the tool lists passed to ChatWithTools.
	ToolSpecs [][]ToolSpec
}

// NewMock creates a mock that always answers with fallback.
func NewMock(fallback string) *Mock {
	return &Mock{fallback: fallback}
}

// Enqueue appends scripted responses to be returned in order.
func (m *Mock) Enqueue(responses ...ChatResponse) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// EnqueueText appends a plain text response.
func (m *Mock) EnqueueText(text string) *Mock {
	return m.Enqueue(ChatResponse{
		Message:      AssistantMessage(text),
		FinishReason: "stop",
	})
}

// EnqueueToolCall appends a response that requests a single tool call.
func (m *Mock) EnqueueToolCall(id, name, arguments string) *Mock {
	return m.Enqueue(ChatResponse{
		Message: ChatMessage{
			Role:      RoleAssistant,
			ToolCalls: []ToolCall{{ID: id, Name: name, Arguments: arguments}},
		},
		FinishReason: "tool_calls",
	})
}

func (m *Mock) next() ChatResponse {
	if len(m.responses) == 0 {
		return ChatResponse{
			Message:      AssistantMessage(m.fallback),
			FinishReason: "stop",
		}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp
}

// Complete returns the next scripted response's text.
func (m *Mock) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = append(m.CompleteCalls, prompt)
	return m.next().Text(), nil
}

// Chat returns the next scripted response's text.
func (m *Mock) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = append(m.ChatCalls, messages)
	return m.next().Text(), nil
}

// Stream emits the next scripted response's text one rune at a time.
func (m *Mock) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, prompt)
	text := m.next().Text()
	m.mu.Unlock()

	tokens := make(chan string)
	go func() {
		defer close(tokens)
		for _, r := range text {
			select {
			case tokens <- string(r):
			case <-ctx.Done():
				return
			}
		}
	}()
	return tokens, nil
}

// ChatWithTools returns the next scripted response, tool calls included.
func (m *Mock) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolSpec, opts *Options) (ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return ChatResponse{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = append(m.ChatCalls, messages)
	m.ToolSpecs = append(m.ToolSpecs, tools)
	return m.next(), nil
}

// SupportsToolCalling always reports true for the mock.
func (m *Mock) SupportsToolCalling() bool { return true }

// Metadata returns fixed test metadata.
func (m *Mock) Metadata() Metadata {
	return Metadata{
		Model:           "mock",
		ContextWindow:   8192,
		MaxOutputTokens: 1024,
		ToolCalling:     true,
	}
}

// ErrMock is a mock LLM whose every method fails with Err.
type ErrMock struct {
	Err error
}

// NewErrMock creates a mock that fails with the given message.
func NewErrMock(msg string) *ErrMock {
	return &ErrMock{Err: fmt.Errorf("%s", msg)}
}

func (e *ErrMock) Complete(context.Context, string) (string, error)      { return "", e.Err }
func (e *ErrMock) Chat(context.Context, []ChatMessage) (string, error)  { return "", e.Err }
func (e *ErrMock) Stream(context.Context, string) (<-chan string, error) { return nil, e.Err }

func (e *ErrMock) ChatWithTools(context.Context, []ChatMessage, []ToolSpec, *Options) (ChatResponse, error) {
	return ChatResponse{}, e.Err
}

func (e *ErrMock) SupportsToolCalling() bool { return true }

var (
	_ LLM            = (*Mock)(nil)
	_ MetadataLLM    = (*Mock)(nil)
	_ ToolCallingLLM = (*Mock)(nil)
	_ ToolCallingLLM = (*ErrMock)(nil)
)
