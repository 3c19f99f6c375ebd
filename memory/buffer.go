// Package memory stores conversation history for chat sessions.
package memory

import (
	"context"
	"sync"

	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/splitter"
)

// DefaultTokenLimit bounds the history returned by Get when no limit is
// configured.
const DefaultTokenLimit = 3000

// Memory stores chat history between turns.
type Memory interface {
	// Put appends a message to the history.
	Put(ctx context.Context, msg llm.ChatMessage) error
	// Get returns the history trimmed to fit the configured budget.
	Get(ctx context.Context) ([]llm.ChatMessage, error)
	// GetAll returns the full untrimmed history.
	GetAll(ctx context.Context) ([]llm.ChatMessage, error)
	// Set replaces the history.
	Set(ctx context.Context, messages []llm.ChatMessage) error
	// Reset clears the history.
	Reset(ctx context.Context) error
}

var _ Memory = (*Buffer)(nil)

// Buffer is a token-limited chat history. All messages are kept; Get returns
// the most recent ones that fit the token limit. A leading system message is
// always included and never evicted.
type Buffer struct {
	mu         sync.Mutex
	messages   []llm.ChatMessage
	tokenLimit int
	tokenizer  splitter.Tokenizer
}

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithTokenLimit sets the token limit for Get.
func WithTokenLimit(limit int) BufferOption {
	return func(b *Buffer) {
		if limit > 0 {
			b.tokenLimit = limit
		}
	}
}

// WithTokenizer sets the tokenizer used for budgeting.
func WithTokenizer(tok splitter.Tokenizer) BufferOption {
	return func(b *Buffer) {
		b.tokenizer = tok
	}
}

// NewBuffer creates an empty chat buffer.
func NewBuffer(opts ...BufferOption) (*Buffer, error) {
	b := &Buffer{tokenLimit: DefaultTokenLimit}
	for _, opt := range opts {
		opt(b)
	}

	if b.tokenizer == nil {
		tok, err := splitter.DefaultTokenizer()
		if err != nil {
			return nil, err
		}
		b.tokenizer = tok
	}
	return b, nil
}

// Put appends a message to the history.
func (b *Buffer) Put(ctx context.Context, msg llm.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

// Get returns the most recent messages that fit the token limit, preserving
// order. A system message at the head of the history is always returned.
func (b *Buffer) Get(ctx context.Context) ([]llm.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.messages) == 0 {
		return nil, nil
	}

	var system *llm.ChatMessage
	rest := b.messages
	if b.messages[0].Role == llm.RoleSystem {
		system = &b.messages[0]
		rest = b.messages[1:]
	}

	budget := b.tokenLimit
	if system != nil {
		budget -= b.messageTokens(*system)
	}

	// Walk backwards, newest first, until the budget runs out.
	start := len(rest)
	used := 0
	for i := len(rest) - 1; i >= 0; i-- {
		size := b.messageTokens(rest[i])
		if used+size > budget {
			break
		}
		used += size
		start = i
	}

	var out []llm.ChatMessage
	if system != nil {
		out = append(out, *system)
	}
	out = append(out, rest[start:]...)
	return out, nil
}

// GetAll returns the full history regardless of the token limit.
func (b *Buffer) GetAll(ctx context.Context) ([]llm.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]llm.ChatMessage, len(b.messages))
	copy(out, b.messages)
	return out, nil
}

// Set replaces the history.
func (b *Buffer) Set(ctx context.Context, messages []llm.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = make([]llm.ChatMessage, len(messages))
	copy(b.messages, messages)
	return nil
}

// Reset clears the history.
func (b *Buffer) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
	return nil
}

func (b *Buffer) messageTokens(msg llm.ChatMessage) int {
	n := b.tokenizer.Count(msg.Content)
	for _, tc := range msg.ToolCalls {
		n += b.tokenizer.Count(tc.Name) + b.tokenizer.Count(tc.Arguments)
	}
	return n
}
