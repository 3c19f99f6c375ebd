package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockEmbedder produces deterministic embeddings derived from the input text.
// Identical texts map to identical vectors, so similarity behaves sensibly in
// tests without a live API.
type MockEmbedder struct {
	// Dim is the vector dimension. Defaults to 16 when zero.
	Dim int

	mu    sync.Mutex
	calls int
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

// Calls returns how many texts were embedded, batches counted per text.
// Indexing embeds batches concurrently, so the counter is mutex-guarded.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbedder) record(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls += n
}

func (m *MockEmbedder) dim() int {
	if m.Dim <= 0 {
		return 16
	}
	return m.Dim
}

func (m *MockEmbedder) embed(text string) []float64 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float64, m.dim())
	for i := range vec {
		// Reuse the digest bytes cyclically for dimensions past 8 words.
		off := (i * 4) % (len(sum) - 4)
		bits := binary.BigEndian.Uint32(sum[off : off+4])
		vec[i] = float64(bits)/float64(1<<31) - 1.0
	}
	out, err := Normalize(vec)
	if err != nil {
		return vec
	}
	return out
}

// EmbedText embeds a document chunk.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.record(1)
	return m.embed(text), nil
}

// EmbedQuery embeds a retrieval query.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	return m.EmbedText(ctx, query)
}

// EmbedBatch embeds many texts, preserving input order.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.record(len(texts))
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = m.embed(text)
	}
	return out, nil
}

var _ Embedder = (*MockEmbedder)(nil)
