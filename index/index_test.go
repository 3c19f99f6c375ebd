package index

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarv/docrouter/embedding"
	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/schema"
	"github.com/quarv/docrouter/splitter"
	"github.com/quarv/docrouter/store"
)

func newTestIndex(t *testing.T) (*VectorIndex, *embedding.MockEmbedder, *store.SimpleVectorStore) {
	t.Helper()
	vs := store.NewSimpleVectorStore()
	emb := embedding.NewMockEmbedder(16)

	split, err := splitter.NewSentenceSplitter(
		splitter.WithChunkSize(64),
		splitter.WithChunkOverlap(8),
	)
	require.NoError(t, err)

	idx, err := New(vs, emb, WithSplitter(split))
	require.NoError(t, err)
	return idx, emb, vs
}

func TestAddDocumentsSplitsAndEmbeds(t *testing.T) {
	ctx := context.Background()
	idx, _, vs := newTestIndex(t)

	doc := schema.NewDocument(
		strings.Repeat("Self attention relates every token to every other token in the sequence. ", 20),
		map[string]any{"file_name": "attention.pdf"},
	)

	ids, err := idx.AddDocuments(ctx, []schema.Document{doc})
	require.NoError(t, err)
	require.Greater(t, len(ids), 1, "long document should produce multiple nodes")

	count, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ids), count)
}

func TestAddNodesKeepsExistingEmbeddings(t *testing.T) {
	ctx := context.Background()
	idx, emb, _ := newTestIndex(t)

	preEmbedded := schema.Node{
		ID:        "pre",
		Text:      "already embedded",
		Embedding: []float64{1, 0, 0},
		Metadata:  map[string]any{},
	}

	_, err := idx.AddNodes(ctx, []schema.Node{preEmbedded})
	require.NoError(t, err)
	assert.Zero(t, emb.Calls(), "nodes with embeddings must not be re-embedded")
}

func TestAddNodesConcurrentBatchesCountEveryEmbedding(t *testing.T) {
	ctx := context.Background()
	idx, emb, vs := newTestIndex(t)

	// Enough nodes to spread across several concurrent embedding batches.
	nodes := make([]schema.Node, 200)
	for i := range nodes {
		nodes[i] = *schema.NewTextNode(fmt.Sprintf("chunk number %d", i))
	}

	ids, err := idx.AddNodes(ctx, nodes)
	require.NoError(t, err)
	require.Len(t, ids, 200)
	assert.Equal(t, 200, emb.Calls())

	count, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, count)
}

func TestAddNodesEmptyInput(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := newTestIndex(t)

	ids, err := idx.AddNodes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRetrieveFindsSimilarContent(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := newTestIndex(t)

	docs := []schema.Document{
		schema.NewDocument("The transformer architecture relies on self attention.", nil),
		schema.NewDocument("Postgres uses multi version concurrency control.", nil),
	}
	_, err := idx.AddDocuments(ctx, docs)
	require.NoError(t, err)

	retriever := idx.Retriever(WithTopK(1))
	// The mock embedder is deterministic per text, so querying with the
	// exact indexed text retrieves that node with score 1.
	res, err := retriever.Retrieve(ctx, schema.QueryBundle{
		Query: "The transformer architecture relies on self attention.",
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Node.Text, "transformer")
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}

func TestRetrieveRespectsTopK(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := newTestIndex(t)

	var docs []schema.Document
	for i := 0; i < 10; i++ {
		docs = append(docs, schema.NewDocument("Short document number "+strings.Repeat("x", i+1)+".", nil))
	}
	_, err := idx.AddDocuments(ctx, docs)
	require.NoError(t, err)

	retriever := idx.Retriever(WithTopK(3))
	res, err := retriever.Retrieve(ctx, schema.QueryBundle{Query: "anything"})
	require.NoError(t, err)
	assert.Len(t, res, 3)

	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score, "results must be ordered by descending score")
	}
}

func TestReindexAfterClearDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := embedding.NewMockEmbedder(16)

	build := func() *VectorIndex {
		vs, err := store.NewChromemStore(dir, "papers")
		require.NoError(t, err)
		idx, err := New(vs, emb)
		require.NoError(t, err)
		return idx
	}

	doc := schema.NewDocument("One short sentence about attention.", nil)

	idx := build()
	ids, err := idx.AddDocuments(ctx, []schema.Document{doc})
	require.NoError(t, err)
	first := len(ids)

	// A rerun opens the same persistent collection and clears it before
	// adding, since every split produces nodes with fresh IDs.
	rerun := build()
	require.NoError(t, rerun.Clear(ctx))
	_, err = rerun.AddDocuments(ctx, []schema.Document{doc})
	require.NoError(t, err)

	count, err := rerun.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, count, "reindexing the same corpus must not duplicate chunks")
}

func TestAsQueryEngineAnswersFromIndex(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := newTestIndex(t)

	_, err := idx.AddDocuments(ctx, []schema.Document{
		schema.NewDocument("The transformer architecture relies on self attention.", nil),
	})
	require.NoError(t, err)

	model := llm.NewMock("grounded answer")
	qe, err := idx.AsQueryEngine(model, WithTopK(1))
	require.NoError(t, err)

	resp, err := qe.Query(ctx, schema.QueryBundle{Query: "What does the transformer rely on?"})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", resp.Response)
	require.Len(t, resp.SourceNodes, 1)
}

func TestDeleteRemovesNode(t *testing.T) {
	ctx := context.Background()
	idx, _, vs := newTestIndex(t)

	ids, err := idx.AddDocuments(ctx, []schema.Document{
		schema.NewDocument("Content to remove.", nil),
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	require.NoError(t, idx.Delete(ctx, ids[0]))

	count, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRetrieveWithFilters(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := newTestIndex(t)

	_, err := idx.AddDocuments(ctx, []schema.Document{
		schema.NewDocument("Content about attention.", map[string]any{"file_name": "a.pdf"}),
		schema.NewDocument("Content about databases.", map[string]any{"file_name": "b.pdf"}),
	})
	require.NoError(t, err)

	res, err := idx.Retriever().Retrieve(ctx, schema.QueryBundle{
		Query: "anything",
		Filters: schema.NewMetadataFilters(
			schema.MetadataFilter{Key: "file_name", Value: "b.pdf"},
		),
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b.pdf", res[0].Node.Metadata["file_name"])
}
