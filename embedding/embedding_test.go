package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float64{1, 0}, []float64{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float64{1, 0}, []float64{-1, 0})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-9)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float64{1}, []float64{1, 2})
		assert.Error(t, err)
	})

	t.Run("zero vector", func(t *testing.T) {
		_, err := CosineSimilarity([]float64{0, 0}, []float64{1, 2})
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float64{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)

	var norm float64
	for _, val := range v {
		norm += val * val
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	_, err = Normalize([]float64{0, 0})
	assert.Error(t, err)
}

func TestToFloat32(t *testing.T) {
	out := ToFloat32([]float64{0.5, -1.25})
	require.Len(t, out, 2)
	assert.Equal(t, float32(0.5), out[0])
	assert.Equal(t, float32(-1.25), out[1])
}

func TestMockEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder(16)

	a, err := m.EmbedText(ctx, "transformers are neural networks")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "transformers are neural networks")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := m.EmbedText(ctx, "completely different text")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	// Vectors come out unit length.
	sim, err := CosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestMockEmbedderBatchOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder(8)

	texts := []string{"first", "second", "third"}
	vecs, err := m.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	for i, text := range texts {
		single, err := m.EmbedText(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, vecs[i], "batch order must match input order")
	}
}

func TestMockEmbedderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMockEmbedder(8)
	_, err := m.EmbedText(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}
