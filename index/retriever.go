package index

import (
	"context"
	"fmt"

	"github.com/quarv/docrouter/embedding"
	"github.com/quarv/docrouter/schema"
	"github.com/quarv/docrouter/store"
)

// Retriever embeds a query and returns the most similar indexed nodes.
type Retriever struct {
	store    store.VectorStore
	embedder embedding.Embedder
	topK     int
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets the number of nodes to retrieve.
func WithTopK(topK int) RetrieverOption {
	return func(r *Retriever) {
		if topK > 0 {
			r.topK = topK
		}
	}
}

// NewRetriever creates a Retriever over a vector store.
func NewRetriever(vs store.VectorStore, embedder embedding.Embedder, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		store:    vs,
		embedder: embedder,
		topK:     schema.DefaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query and returns up to top-k nodes ordered by
// descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, query schema.QueryBundle) ([]schema.NodeWithScore, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	nodes, err := r.store.Query(ctx, schema.VectorStoreQuery{
		Embedding: queryEmbedding,
		TopK:      r.topK,
		Filters:   query.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}
	return nodes, nil
}
