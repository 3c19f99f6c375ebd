package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeContent(t *testing.T) {
	t.Run("NoMetadata", func(t *testing.T) {
		n := NewTextNode("hello world")
		assert.Equal(t, "hello world", n.Content(MetadataModeAll))
		assert.Equal(t, "hello world", n.Content(MetadataModeNone))
	})

	t.Run("WithMetadata", func(t *testing.T) {
		n := NewTextNode("body text")
		n.Metadata["file_name"] = "report.pdf"
		n.Metadata["page"] = 3

		content := n.Content(MetadataModeAll)
		assert.Contains(t, content, "file_name: report.pdf")
		assert.Contains(t, content, "page: 3")
		assert.Contains(t, content, "body text")
	})

	t.Run("MetadataModeNoneOmitsMetadata", func(t *testing.T) {
		n := NewTextNode("body text")
		n.Metadata["file_name"] = "report.pdf"
		assert.Equal(t, "body text", n.Content(MetadataModeNone))
	})

	t.Run("ExcludedKeys", func(t *testing.T) {
		n := NewTextNode("body")
		n.Metadata["secret"] = "hidden"
		n.Metadata["title"] = "visible"
		n.ExcludedLLMKeys = []string{"secret"}
		n.ExcludedEmbedKeys = []string{"title"}

		llmContent := n.Content(MetadataModeLLM)
		assert.NotContains(t, llmContent, "hidden")
		assert.Contains(t, llmContent, "visible")

		embedContent := n.Content(MetadataModeEmbed)
		assert.Contains(t, embedContent, "hidden")
		assert.NotContains(t, embedContent, "title: visible")
	})
}

func TestNodeMetadataStringSorted(t *testing.T) {
	n := NewTextNode("x")
	n.Metadata["b"] = "2"
	n.Metadata["a"] = "1"
	n.Metadata["c"] = "3"

	assert.Equal(t, "a: 1\nb: 2\nc: 3", n.MetadataString(MetadataModeAll))
}

func TestNodeHash(t *testing.T) {
	a := NewTextNode("same text")
	b := NewTextNode("same text")
	require.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Hash(), b.Hash())

	b.Metadata["extra"] = "changes hash"
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestDocumentHash(t *testing.T) {
	d1 := NewDocument("alpha", map[string]any{"k": "v"})
	d2 := NewDocument("alpha", map[string]any{"k": "v"})
	assert.Equal(t, d1.Hash(), d2.Hash())

	d3 := NewDocument("beta", nil)
	assert.NotEqual(t, d1.Hash(), d3.Hash())
}

func TestVectorStoreQueryEffectiveTopK(t *testing.T) {
	q := VectorStoreQuery{}
	assert.Equal(t, DefaultTopK, q.EffectiveTopK())

	q.TopK = 12
	assert.Equal(t, 12, q.EffectiveTopK())
}

func TestNewMetadataFiltersDefaultsOperator(t *testing.T) {
	f := NewMetadataFilters(MetadataFilter{Key: "corpus", Value: "lyft"})
	require.Len(t, f.Filters, 1)
	assert.Equal(t, FilterOpEq, f.Filters[0].Operator)
}
