// Package engine answers queries by retrieving indexed nodes and
// synthesizing a grounded response.
package engine

import (
	"context"
	"strings"

	"github.com/quarv/docrouter/schema"
)

// EmptyResponse is returned when retrieval yields no nodes to ground an
// answer on.
const EmptyResponse = "Empty Response"

// Response is a synthesized answer with the nodes that grounded it.
type Response struct {
	// Response is the answer text.
	Response string
	// SourceNodes are the retrieved nodes the answer was grounded on.
	SourceNodes []schema.NodeWithScore
	// Metadata carries extra response information.
	Metadata map[string]any
}

// NewResponse creates a Response.
func NewResponse(text string, sourceNodes []schema.NodeWithScore) *Response {
	return &Response{
		Response:    text,
		SourceNodes: sourceNodes,
		Metadata:    make(map[string]any),
	}
}

// String returns the response text.
func (r *Response) String() string {
	if r.Response == "" {
		return "None"
	}
	return r.Response
}

// FormattedSources renders the source nodes, truncating each to length runes.
func (r *Response) FormattedSources(length int) string {
	var parts []string
	for _, src := range r.SourceNodes {
		content := src.Node.Content(schema.MetadataModeLLM)
		if runes := []rune(content); len(runes) > length {
			content = string(runes[:length]) + "..."
		}
		parts = append(parts, "> Source (Node id: "+src.Node.ID+"): "+content)
	}
	return strings.Join(parts, "\n\n")
}

// QueryEngine answers natural language queries.
type QueryEngine interface {
	// Query answers a query end to end.
	Query(ctx context.Context, query schema.QueryBundle) (*Response, error)
}

// Retriever returns nodes relevant to a query, ordered by descending score.
type Retriever interface {
	Retrieve(ctx context.Context, query schema.QueryBundle) ([]schema.NodeWithScore, error)
}

// Synthesizer turns retrieved nodes into an answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, nodes []schema.NodeWithScore) (*Response, error)
}
