package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/quarv/docrouter/embedding"
	"github.com/quarv/docrouter/schema"
)

// SimpleVectorStore is an in-memory vector store using brute-force cosine
// similarity. Good for tests and small corpora.
type SimpleVectorStore struct {
	mu    sync.RWMutex
	nodes map[string]schema.Node
}

// NewSimpleVectorStore creates an empty in-memory store.
func NewSimpleVectorStore() *SimpleVectorStore {
	return &SimpleVectorStore{
		nodes: make(map[string]schema.Node),
	}
}

// Add stores nodes, replacing any with the same ID.
func (s *SimpleVectorStore) Add(ctx context.Context, nodes []schema.Node) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if node.ID == "" {
			return nil, errors.New("node ID cannot be empty")
		}
		if len(node.Embedding) == 0 {
			return nil, fmt.Errorf("node %s has no embedding", node.ID)
		}
		s.nodes[node.ID] = node
		ids = append(ids, node.ID)
	}
	return ids, nil
}

// Query scans all nodes and returns the top-k by cosine similarity.
func (s *SimpleVectorStore) Query(ctx context.Context, query schema.VectorStoreQuery) ([]schema.NodeWithScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []schema.NodeWithScore
	for _, node := range s.nodes {
		if !matchesFilters(node, query.Filters) {
			continue
		}
		score, err := embedding.CosineSimilarity(query.Embedding, node.Embedding)
		if err != nil {
			return nil, fmt.Errorf("similarity for node %s: %w", node.ID, err)
		}
		scored = append(scored, schema.NodeWithScore{Node: node, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	topK := query.EffectiveTopK()
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Delete removes a node by ID.
func (s *SimpleVectorStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
	return nil
}

// Reset removes all stored nodes.
func (s *SimpleVectorStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]schema.Node)
	return nil
}

// Count returns the number of stored nodes.
func (s *SimpleVectorStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), nil
}

func matchesFilters(node schema.Node, filters *schema.MetadataFilters) bool {
	if filters == nil {
		return true
	}
	for _, f := range filters.Filters {
		val, ok := node.Metadata[f.Key]
		strVal := fmt.Sprintf("%v", val)
		want := fmt.Sprintf("%v", f.Value)

		switch f.Operator {
		case schema.FilterOpNe:
			if ok && strVal == want {
				return false
			}
		case schema.FilterOpContains:
			if !ok || !strings.Contains(strVal, want) {
				return false
			}
		default: // FilterOpEq
			if !ok || strVal != want {
				return false
			}
		}
	}
	return true
}

var _ VectorStore = (*SimpleVectorStore)(nil)
