package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarv/docrouter/engine"
	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/schema"
)

type stubEngine struct {
	response  string
	err       error
	lastQuery string
}

func (s *stubEngine) Query(ctx context.Context, query schema.QueryBundle) (*engine.Response, error) {
	s.lastQuery = query.Query
	if s.err != nil {
		return nil, s.err
	}
	return engine.NewResponse(s.response, nil), nil
}

func TestQueryInput(t *testing.T) {
	t.Run("input key", func(t *testing.T) {
		q, err := QueryInput(map[string]any{"input": "what is rag?"})
		require.NoError(t, err)
		assert.Equal(t, "what is rag?", q)
	})

	t.Run("query key fallback", func(t *testing.T) {
		q, err := QueryInput(map[string]any{"query": "what is rag?"})
		require.NoError(t, err)
		assert.Equal(t, "what is rag?", q)
	})

	t.Run("empty args", func(t *testing.T) {
		_, err := QueryInput(map[string]any{})
		assert.Error(t, err)
	})

	t.Run("unexpected shape stringifies", func(t *testing.T) {
		q, err := QueryInput(map[string]any{"topic": "transformers"})
		require.NoError(t, err)
		assert.Contains(t, q, "transformers")
	})
}

func TestQueryEngineToolCall(t *testing.T) {
	eng := &stubEngine{response: "grounded answer"}
	tool := NewQueryEngineTool(eng,
		WithName("attention_paper"),
		WithDescription("Questions about the attention paper."),
	)

	assert.Equal(t, "attention_paper", tool.Metadata().Name)

	out, err := tool.Call(context.Background(), map[string]any{"input": "what is self attention?"})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", out.Content)
	assert.Equal(t, "what is self attention?", eng.lastQuery)
	assert.False(t, out.IsError)
}

func TestQueryEngineToolEngineError(t *testing.T) {
	eng := &stubEngine{err: errors.New("store unavailable")}
	tool := NewQueryEngineTool(eng)

	out, err := tool.Call(context.Background(), map[string]any{"input": "anything"})
	require.Error(t, err)
	require.NotNil(t, out)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Content, "store unavailable")
}

func TestQueryEngineToolBadInputReportsToModel(t *testing.T) {
	tool := NewQueryEngineTool(&stubEngine{response: "never"})

	out, err := tool.Call(context.Background(), map[string]any{})
	require.NoError(t, err, "bad arguments are reported to the model, not raised")
	assert.True(t, out.IsError)
}

func TestQueryEngineToolReturnDirect(t *testing.T) {
	tool := NewQueryEngineTool(&stubEngine{}, WithReturnDirect(true))
	assert.True(t, tool.Metadata().ReturnDirect)
}

func TestLLMToolPassesQueryVerbatim(t *testing.T) {
	mock := llm.NewMock("")
	mock.EnqueueText("a general answer")

	tool := NewLLMTool(mock)
	out, err := tool.Call(context.Background(), map[string]any{"input": "who wrote Hamlet?"})
	require.NoError(t, err)
	assert.Equal(t, "a general answer", out.Content)

	require.Len(t, mock.CompleteCalls, 1)
	assert.Equal(t, "who wrote Hamlet?", mock.CompleteCalls[0], "query must reach the model unmodified")
}

func TestLLMToolError(t *testing.T) {
	tool := NewLLMTool(llm.NewErrMock("quota exceeded"))

	out, err := tool.Call(context.Background(), map[string]any{"input": "anything"})
	require.Error(t, err)
	assert.True(t, out.IsError)
}

func TestFuncTool(t *testing.T) {
	tool := NewFuncTool("adder", "Adds a and b.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}, func(ctx context.Context, args map[string]any) (any, error) {
		a, _ := args["a"].(float64)
		b, _ := args["b"].(float64)
		return a + b, nil
	})

	out, err := tool.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, "5", out.Content)
	assert.Equal(t, 5.0, out.RawOutput)
}

func TestMetadataToSpecDefaultsParameters(t *testing.T) {
	m := &Metadata{Name: "t", Description: "d"}
	spec := m.ToSpec()
	assert.Equal(t, "t", spec.Name)
	require.NotNil(t, spec.Parameters)
	assert.Equal(t, "object", spec.Parameters["type"])
}
