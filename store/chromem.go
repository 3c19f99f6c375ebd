package store

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"github.com/quarv/docrouter/embedding"
	"github.com/quarv/docrouter/schema"
)

// ChromemStore is a vector store backed by chromem-go, optionally persisted
// to disk. Embeddings are computed upstream and passed through.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewChromemStore opens or creates a collection. An empty persistPath keeps
// the store in memory only.
func NewChromemStore(persistPath, collectionName string) (*ChromemStore, error) {
	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	// nil embedding function: vectors always arrive precomputed.
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", collectionName, err)
	}

	return &ChromemStore{db: db, collection: collection, name: collectionName}, nil
}

// Add stores nodes in the collection.
func (s *ChromemStore) Add(ctx context.Context, nodes []schema.Node) ([]string, error) {
	docs := make([]chromem.Document, len(nodes))
	ids := make([]string, len(nodes))

	for i, node := range nodes {
		if len(node.Embedding) == 0 {
			return nil, fmt.Errorf("node %s has no embedding", node.ID)
		}

		// chromem metadata is map[string]string.
		meta := make(map[string]string, len(node.Metadata)+1)
		for k, v := range node.Metadata {
			meta[k] = fmt.Sprintf("%v", v)
		}
		if node.SourceDocID != "" {
			meta["_source_doc_id"] = node.SourceDocID
		}

		docs[i] = chromem.Document{
			ID:        node.ID,
			Content:   node.Text,
			Metadata:  meta,
			Embedding: embedding.ToFloat32(node.Embedding),
		}
		ids[i] = node.ID
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add documents to chromem collection: %w", err)
	}
	return ids, nil
}

// Query returns the top-k most similar nodes. Only equality filters map onto
// chromem's where clause; other operators are not supported by this store.
func (s *ChromemStore) Query(ctx context.Context, query schema.VectorStoreQuery) ([]schema.NodeWithScore, error) {
	topK := query.EffectiveTopK()
	if count := s.collection.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	var where map[string]string
	if query.Filters != nil {
		for _, f := range query.Filters.Filters {
			if f.Operator != schema.FilterOpEq && f.Operator != "" {
				return nil, fmt.Errorf("chromem store supports only equality filters, got %q", f.Operator)
			}
			if where == nil {
				where = make(map[string]string)
			}
			where[f.Key] = fmt.Sprintf("%v", f.Value)
		}
	}

	res, err := s.collection.QueryEmbedding(ctx, embedding.ToFloat32(query.Embedding), topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query chromem collection: %w", err)
	}

	out := make([]schema.NodeWithScore, len(res))
	for i, doc := range res {
		meta := make(map[string]any, len(doc.Metadata))
		sourceDocID := ""
		for k, v := range doc.Metadata {
			if k == "_source_doc_id" {
				sourceDocID = v
				continue
			}
			meta[k] = v
		}

		out[i] = schema.NodeWithScore{
			Node: schema.Node{
				ID:          doc.ID,
				Text:        doc.Content,
				Metadata:    meta,
				SourceDocID: sourceDocID,
			},
			Score: float64(doc.Similarity),
		}
	}
	return out, nil
}

// Delete removes a node by ID.
func (s *ChromemStore) Delete(ctx context.Context, id string) error {
	if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete from chromem collection: %w", err)
	}
	return nil
}

// Reset drops and recreates the collection, removing all stored nodes.
func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete chromem collection %s: %w", s.name, err)
	}
	collection, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate chromem collection %s: %w", s.name, err)
	}
	s.collection = collection
	return nil
}

// Count returns the number of stored nodes.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.collection.Count(), nil
}

var _ VectorStore = (*ChromemStore)(nil)
