package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// maxBatchSize is the largest input list sent in one embeddings request.
const maxBatchSize = 512

// OpenAIEmbedder produces embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	limiter *rate.Limiter
	logger  *slog.Logger
}

// OpenAIEmbedderOption configures an OpenAIEmbedder.
type OpenAIEmbedderOption func(*OpenAIEmbedder)

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.model = openai.EmbeddingModel(model)
	}
}

// WithEmbeddingClient sets a pre-built client, mainly for tests.
func WithEmbeddingClient(client *openai.Client) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.client = client
	}
}

// WithRateLimit caps embedding requests per second.
func WithRateLimit(requestsPerSecond float64) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithEmbedderLogger sets the logger.
func WithEmbedderLogger(logger *slog.Logger) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.logger = logger
	}
}

// NewOpenAIEmbedder creates an embedder. The API key falls back to the
// OPENAI_API_KEY environment variable.
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIEmbedderOption) *OpenAIEmbedder {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	e := &OpenAIEmbedder{
		model:  openai.SmallEmbedding3,
		logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		e.client = openai.NewClient(apiKey)
	}

	return e
}

// EmbedText embeds a document chunk.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedQuery embeds a retrieval query. OpenAI embedding models use the same
// representation for queries and documents.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	return e.EmbedText(ctx, query)
}

// EmbedBatch embeds many texts, batching requests and preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("embedding rate limit wait: %w", err)
			}
		}

		e.logger.Debug("embedding batch", "model", e.model, "size", len(batch))

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: e.model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding failed: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(batch))
		}

		for _, data := range resp.Data {
			vec := make([]float64, len(data.Embedding))
			for i, v := range data.Embedding {
				vec[i] = float64(v)
			}
			out = append(out, vec)
		}
	}

	return out, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)
