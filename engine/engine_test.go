package engine

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/schema"
)

type stubRetriever struct {
	nodes []schema.NodeWithScore
	err   error
	// lastQuery records the query passed to Retrieve.
	lastQuery schema.QueryBundle
}

func (s *stubRetriever) Retrieve(ctx context.Context, query schema.QueryBundle) ([]schema.NodeWithScore, error) {
	s.lastQuery = query
	return s.nodes, s.err
}

func scoredNode(text string, score float64) schema.NodeWithScore {
	node := schema.NewTextNode(text)
	return schema.NodeWithScore{Node: *node, Score: score}
}

func TestSynthesizeEmptyNodes(t *testing.T) {
	mock := llm.NewMock("should not be called")
	s, err := NewCompactSynthesizer(mock)
	require.NoError(t, err)

	resp, err := s.Synthesize(context.Background(), "any question", nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyResponse, resp.Response)
	assert.Empty(t, mock.CompleteCalls, "no nodes means no model call")
}

func TestSynthesizeSingleCallIncludesContext(t *testing.T) {
	mock := llm.NewMock("")
	mock.EnqueueText("Transformers use self attention.")

	s, err := NewCompactSynthesizer(mock)
	require.NoError(t, err)

	nodes := []schema.NodeWithScore{
		scoredNode("Self attention compares all token pairs.", 0.9),
		scoredNode("Positional encodings add order information.", 0.8),
	}

	resp, err := s.Synthesize(context.Background(), "How do transformers work?", nodes)
	require.NoError(t, err)
	assert.Equal(t, "Transformers use self attention.", resp.Response)
	assert.Equal(t, nodes, resp.SourceNodes)

	require.Len(t, mock.CompleteCalls, 1)
	prompt := mock.CompleteCalls[0]
	assert.Contains(t, prompt, "Self attention compares all token pairs.")
	assert.Contains(t, prompt, "Positional encodings add order information.")
	assert.Contains(t, prompt, "How do transformers work?")
}

func TestSynthesizeRefinesAcrossBudget(t *testing.T) {
	mock := llm.NewMock("")
	mock.EnqueueText("initial answer")
	mock.EnqueueText("refined answer")

	s, err := NewCompactSynthesizer(mock, WithContextBudget(20))
	require.NoError(t, err)

	nodes := []schema.NodeWithScore{
		scoredNode(strings.Repeat("alpha beta gamma delta ", 5), 0.9),
		scoredNode(strings.Repeat("epsilon zeta eta theta ", 5), 0.8),
	}

	resp, err := s.Synthesize(context.Background(), "question", nodes)
	require.NoError(t, err)
	assert.Equal(t, "refined answer", resp.Response)

	require.Len(t, mock.CompleteCalls, 2)
	assert.Contains(t, mock.CompleteCalls[1], "initial answer", "refine prompt carries the previous answer")
}

func TestSynthesizePropagatesLLMError(t *testing.T) {
	s, err := NewCompactSynthesizer(llm.NewErrMock("model down"))
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "question", []schema.NodeWithScore{
		scoredNode("some context", 0.5),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model down")
}

func TestQueryEngineEndToEnd(t *testing.T) {
	mock := llm.NewMock("")
	mock.EnqueueText("grounded answer")

	s, err := NewCompactSynthesizer(mock)
	require.NoError(t, err)

	retriever := &stubRetriever{
		nodes: []schema.NodeWithScore{scoredNode("retrieved context", 0.7)},
	}

	e := NewRetrieverQueryEngine(retriever, s)
	resp, err := e.Query(context.Background(), schema.QueryBundle{Query: "what is this about?"})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", resp.Response)
	assert.Equal(t, "what is this about?", retriever.lastQuery.Query)
	require.Len(t, resp.SourceNodes, 1)
}

func TestQueryEngineEmptyRetrieval(t *testing.T) {
	mock := llm.NewMock("should not run")
	s, err := NewCompactSynthesizer(mock)
	require.NoError(t, err)

	e := NewRetrieverQueryEngine(&stubRetriever{}, s)
	resp, err := e.Query(context.Background(), schema.QueryBundle{Query: "unknown topic"})
	require.NoError(t, err)
	assert.Equal(t, EmptyResponse, resp.Response)
}

func TestResponseFormattedSources(t *testing.T) {
	node := scoredNode("A long chunk of source text used for grounding.", 0.9)
	resp := NewResponse("answer", []schema.NodeWithScore{node})

	formatted := resp.FormattedSources(10)
	assert.Contains(t, formatted, node.Node.ID)
	assert.Contains(t, formatted, "...")
}

func TestResponseFormattedSourcesMultibyte(t *testing.T) {
	node := scoredNode("注意機構は系列内の全トークンを相互に関連付ける。", 0.9)
	resp := NewResponse("answer", []schema.NodeWithScore{node})

	// Truncation counts runes, so it must never cut a UTF-8 sequence.
	formatted := resp.FormattedSources(5)
	assert.True(t, utf8.ValidString(formatted), "truncated sources must stay valid UTF-8")
	assert.Contains(t, formatted, "注意機構は...")
}

func TestResponseStringEmpty(t *testing.T) {
	resp := NewResponse("", nil)
	assert.Equal(t, "None", resp.String())
}
