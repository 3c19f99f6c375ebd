package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarv/docrouter/schema"
)

func embeddedNode(id, text string, vec []float64, metadata map[string]any) schema.Node {
	node := schema.Node{
		ID:        id,
		Text:      text,
		Embedding: vec,
		Metadata:  metadata,
	}
	if node.Metadata == nil {
		node.Metadata = map[string]any{}
	}
	return node
}

// storeTests runs the shared VectorStore contract against an implementation.
func storeTests(t *testing.T, newStore func(t *testing.T) VectorStore) {
	ctx := context.Background()

	t.Run("add and count", func(t *testing.T) {
		s := newStore(t)
		ids, err := s.Add(ctx, []schema.Node{
			embeddedNode("n1", "first", []float64{1, 0, 0}, nil),
			embeddedNode("n2", "second", []float64{0, 1, 0}, nil),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"n1", "n2"}, ids)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("add rejects missing embedding", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add(ctx, []schema.Node{{ID: "n1", Text: "no vector"}})
		assert.Error(t, err)
	})

	t.Run("query orders by similarity", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add(ctx, []schema.Node{
			embeddedNode("exact", "exact match", []float64{1, 0, 0}, nil),
			embeddedNode("close", "close match", []float64{0.9, 0.1, 0}, nil),
			embeddedNode("far", "far away", []float64{0, 0, 1}, nil),
		})
		require.NoError(t, err)

		res, err := s.Query(ctx, schema.VectorStoreQuery{
			Embedding: []float64{1, 0, 0},
			TopK:      2,
		})
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "exact", res[0].Node.ID)
		assert.Equal(t, "close", res[1].Node.ID)
		assert.Greater(t, res[0].Score, res[1].Score)
	})

	t.Run("query top-k caps results", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add(ctx, []schema.Node{
			embeddedNode("n1", "one", []float64{1, 0, 0}, nil),
		})
		require.NoError(t, err)

		res, err := s.Query(ctx, schema.VectorStoreQuery{
			Embedding: []float64{1, 0, 0},
			TopK:      10,
		})
		require.NoError(t, err)
		assert.Len(t, res, 1)
	})

	t.Run("query with equality filter", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add(ctx, []schema.Node{
			embeddedNode("a", "from paper a", []float64{1, 0, 0}, map[string]any{"file_name": "a.pdf"}),
			embeddedNode("b", "from paper b", []float64{1, 0, 0}, map[string]any{"file_name": "b.pdf"}),
		})
		require.NoError(t, err)

		res, err := s.Query(ctx, schema.VectorStoreQuery{
			Embedding: []float64{1, 0, 0},
			TopK:      5,
			Filters: schema.NewMetadataFilters(
				schema.MetadataFilter{Key: "file_name", Value: "b.pdf"},
			),
		})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "b", res[0].Node.ID)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add(ctx, []schema.Node{
			embeddedNode("n1", "text", []float64{1, 0, 0}, nil),
		})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "n1"))
		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("reset clears the store", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add(ctx, []schema.Node{
			embeddedNode("n1", "text", []float64{1, 0, 0}, nil),
		})
		require.NoError(t, err)

		require.NoError(t, s.Reset(ctx))
		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		// The store stays usable after a reset.
		_, err = s.Add(ctx, []schema.Node{
			embeddedNode("n2", "more text", []float64{0, 1, 0}, nil),
		})
		require.NoError(t, err)
		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("query empty store", func(t *testing.T) {
		s := newStore(t)
		res, err := s.Query(ctx, schema.VectorStoreQuery{
			Embedding: []float64{1, 0, 0},
			TopK:      3,
		})
		require.NoError(t, err)
		assert.Empty(t, res)
	})
}

func TestSimpleVectorStore(t *testing.T) {
	storeTests(t, func(t *testing.T) VectorStore {
		return NewSimpleVectorStore()
	})
}

func TestChromemStoreInMemory(t *testing.T) {
	storeTests(t, func(t *testing.T) VectorStore {
		s, err := NewChromemStore("", "test-collection")
		require.NoError(t, err)
		return s
	})
}

func TestChromemStorePersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewChromemStore(dir, "papers")
	require.NoError(t, err)
	_, err = s.Add(ctx, []schema.Node{
		embeddedNode("n1", "persisted text", []float64{1, 0, 0}, map[string]any{"file_name": "x.pdf"}),
	})
	require.NoError(t, err)

	// Reopen from the same path.
	reopened, err := NewChromemStore(dir, "papers")
	require.NoError(t, err)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	res, err := reopened.Query(ctx, schema.VectorStoreQuery{
		Embedding: []float64{1, 0, 0},
		TopK:      1,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "persisted text", res[0].Node.Text)
	assert.Equal(t, "x.pdf", res[0].Node.Metadata["file_name"])
}

func TestSimpleStoreExtraFilterOperators(t *testing.T) {
	ctx := context.Background()
	s := NewSimpleVectorStore()
	_, err := s.Add(ctx, []schema.Node{
		embeddedNode("a", "alpha", []float64{1, 0}, map[string]any{"topic": "transformers"}),
		embeddedNode("b", "beta", []float64{1, 0}, map[string]any{"topic": "databases"}),
	})
	require.NoError(t, err)

	res, err := s.Query(ctx, schema.VectorStoreQuery{
		Embedding: []float64{1, 0},
		TopK:      5,
		Filters: schema.NewMetadataFilters(
			schema.MetadataFilter{Key: "topic", Value: "data", Operator: schema.FilterOpContains},
		),
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].Node.ID)

	res, err = s.Query(ctx, schema.VectorStoreQuery{
		Embedding: []float64{1, 0},
		TopK:      5,
		Filters: schema.NewMetadataFilters(
			schema.MetadataFilter{Key: "topic", Value: "databases", Operator: schema.FilterOpNe},
		),
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "a", res[0].Node.ID)
}
