// Package store provides vector stores for embedded nodes.
package store

import (
	"context"

	"github.com/quarv/docrouter/schema"
)

// VectorStore stores embedded nodes and answers similarity queries.
type VectorStore interface {
	// Add stores nodes and returns their IDs. Every node must carry an
	// embedding.
	Add(ctx context.Context, nodes []schema.Node) ([]string, error)
	// Query returns the nodes most similar to the query embedding, ordered
	// by descending score.
	Query(ctx context.Context, query schema.VectorStoreQuery) ([]schema.NodeWithScore, error)
	// Delete removes a node by ID. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
	// Reset removes all stored nodes, leaving an empty store.
	Reset(ctx context.Context) error
	// Count returns the number of stored nodes.
	Count(ctx context.Context) (int, error)
}
