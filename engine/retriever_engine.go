package engine

import (
	"context"
	"fmt"

	"github.com/quarv/docrouter/schema"
)

// RetrieverQueryEngine ties a retriever and a synthesizer into an
// end-to-end query pipeline.
type RetrieverQueryEngine struct {
	retriever   Retriever
	synthesizer Synthesizer
}

// NewRetrieverQueryEngine creates a query engine.
func NewRetrieverQueryEngine(retriever Retriever, synthesizer Synthesizer) *RetrieverQueryEngine {
	return &RetrieverQueryEngine{
		retriever:   retriever,
		synthesizer: synthesizer,
	}
}

// Retrieve returns the nodes relevant to the query.
func (e *RetrieverQueryEngine) Retrieve(ctx context.Context, query schema.QueryBundle) ([]schema.NodeWithScore, error) {
	return e.retriever.Retrieve(ctx, query)
}

// Query retrieves relevant nodes and synthesizes an answer from them.
func (e *RetrieverQueryEngine) Query(ctx context.Context, query schema.QueryBundle) (*Response, error) {
	nodes, err := e.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve failed: %w", err)
	}

	resp, err := e.synthesizer.Synthesize(ctx, query.Query, nodes)
	if err != nil {
		return nil, fmt.Errorf("synthesize failed: %w", err)
	}
	return resp, nil
}

var _ QueryEngine = (*RetrieverQueryEngine)(nil)
