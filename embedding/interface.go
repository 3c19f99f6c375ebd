package embedding

import "context"

// Embedder converts text into dense vectors.
type Embedder interface {
	// EmbedText embeds a document chunk.
	EmbedText(ctx context.Context, text string) ([]float64, error)
	// EmbedQuery embeds a retrieval query.
	EmbedQuery(ctx context.Context, query string) ([]float64, error)
	// EmbedBatch embeds many texts, preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}
