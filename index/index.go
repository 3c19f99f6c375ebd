// Package index builds and queries vector indices over document corpora.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/quarv/docrouter/embedding"
	"github.com/quarv/docrouter/engine"
	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/schema"
	"github.com/quarv/docrouter/splitter"
	"github.com/quarv/docrouter/store"
)

// defaultEmbedWorkers bounds concurrent embedding batches during indexing.
const defaultEmbedWorkers = 4

// embedBatchSize is the number of nodes embedded per request during indexing.
const embedBatchSize = 64

// VectorIndex chunks documents, embeds the chunks, and serves similarity
// retrieval over a vector store.
type VectorIndex struct {
	store    store.VectorStore
	embedder embedding.Embedder
	splitter *splitter.SentenceSplitter
	workers  int
	logger   *slog.Logger
}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithSplitter sets the text splitter used for ingestion.
func WithSplitter(s *splitter.SentenceSplitter) Option {
	return func(idx *VectorIndex) {
		idx.splitter = s
	}
}

// WithEmbedWorkers bounds concurrent embedding batches.
func WithEmbedWorkers(workers int) Option {
	return func(idx *VectorIndex) {
		if workers > 0 {
			idx.workers = workers
		}
	}
}

// WithIndexLogger sets the logger.
func WithIndexLogger(logger *slog.Logger) Option {
	return func(idx *VectorIndex) {
		idx.logger = logger
	}
}

// New creates a VectorIndex over the given store and embedder.
func New(vs store.VectorStore, embedder embedding.Embedder, opts ...Option) (*VectorIndex, error) {
	idx := &VectorIndex{
		store:    vs,
		embedder: embedder,
		workers:  defaultEmbedWorkers,
		logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(idx)
	}

	if idx.splitter == nil {
		s, err := splitter.NewSentenceSplitter()
		if err != nil {
			return nil, fmt.Errorf("default splitter: %w", err)
		}
		idx.splitter = s
	}

	return idx, nil
}

// AddDocuments chunks, embeds, and stores documents. Returns the IDs of the
// stored nodes.
func (idx *VectorIndex) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	nodes, err := idx.splitter.SplitDocuments(docs)
	if err != nil {
		return nil, fmt.Errorf("split documents: %w", err)
	}
	return idx.AddNodes(ctx, nodes)
}

// AddNodes embeds and stores pre-chunked nodes. Nodes that already carry an
// embedding keep it.
func (idx *VectorIndex) AddNodes(ctx context.Context, nodes []schema.Node) ([]string, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	idx.logger.Info("indexing nodes", "count", len(nodes))

	// Batch the unembedded nodes and embed batches concurrently.
	var pending []int
	for i := range nodes {
		if len(nodes[i].Embedding) == 0 {
			pending = append(pending, i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, nodeIdx := range batch {
				texts[i] = nodes[nodeIdx].Content(schema.MetadataModeEmbed)
			}
			vecs, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch: %w", err)
			}
			for i, nodeIdx := range batch {
				nodes[nodeIdx].Embedding = vecs[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return idx.store.Add(ctx, nodes)
}

// Retriever returns a retriever over this index.
func (idx *VectorIndex) Retriever(opts ...RetrieverOption) *Retriever {
	return NewRetriever(idx.store, idx.embedder, opts...)
}

// AsQueryEngine wraps the index in a query engine that synthesizes answers
// with the given model.
func (idx *VectorIndex) AsQueryEngine(model llm.LLM, opts ...RetrieverOption) (*engine.RetrieverQueryEngine, error) {
	synth, err := engine.NewCompactSynthesizer(model)
	if err != nil {
		return nil, err
	}
	return engine.NewRetrieverQueryEngine(idx.Retriever(opts...), synth), nil
}

// Delete removes an indexed node by ID.
func (idx *VectorIndex) Delete(ctx context.Context, nodeID string) error {
	return idx.store.Delete(ctx, nodeID)
}

// Clear removes every indexed node. Nodes get fresh IDs on each split, so a
// rebuild must clear first or the corpus duplicates.
func (idx *VectorIndex) Clear(ctx context.Context) error {
	return idx.store.Reset(ctx)
}

// Count returns the number of indexed nodes.
func (idx *VectorIndex) Count(ctx context.Context) (int, error) {
	return idx.store.Count(ctx)
}
