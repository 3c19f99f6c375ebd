package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/schema"
	"github.com/quarv/docrouter/splitter"
)

const textQATemplate = `Context information is below.
---------------------
{context_str}
---------------------
Given the context information and not prior knowledge, answer the query.
Query: {query_str}
Answer: `

const refineTemplate = `The original query is as follows: {query_str}
We have provided an existing answer: {existing_answer}
We have the opportunity to refine the existing answer (only if needed) with some more context below.
---------------------
{context_str}
---------------------
Given the new context, refine the original answer to better answer the query. If the context isn't useful, return the original answer.
Refined Answer: `

// CompactSynthesizer packs retrieved node text into as few LLM calls as the
// token budget allows, refining the answer across calls when the context
// does not fit in one.
type CompactSynthesizer struct {
	llm llm.LLM
	// contextBudget is the token budget for packed context per call.
	contextBudget int
	tokenizer     splitter.Tokenizer
	separator     string
}

// SynthesizerOption configures a CompactSynthesizer.
type SynthesizerOption func(*CompactSynthesizer)

// WithContextBudget sets the per-call context token budget.
func WithContextBudget(tokens int) SynthesizerOption {
	return func(s *CompactSynthesizer) {
		if tokens > 0 {
			s.contextBudget = tokens
		}
	}
}

// WithSynthTokenizer sets the tokenizer used for budgeting.
func WithSynthTokenizer(tok splitter.Tokenizer) SynthesizerOption {
	return func(s *CompactSynthesizer) {
		s.tokenizer = tok
	}
}

// NewCompactSynthesizer creates a synthesizer over the given LLM.
func NewCompactSynthesizer(model llm.LLM, opts ...SynthesizerOption) (*CompactSynthesizer, error) {
	s := &CompactSynthesizer{
		llm:           model,
		contextBudget: 3000,
		separator:     "\n\n",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.tokenizer == nil {
		tok, err := splitter.DefaultTokenizer()
		if err != nil {
			return nil, err
		}
		s.tokenizer = tok
	}

	return s, nil
}

// Synthesize answers the query grounded on the given nodes. With no nodes it
// returns EmptyResponse without calling the model.
func (s *CompactSynthesizer) Synthesize(ctx context.Context, query string, nodes []schema.NodeWithScore) (*Response, error) {
	if len(nodes) == 0 {
		return NewResponse(EmptyResponse, nil), nil
	}

	chunks := make([]string, 0, len(nodes))
	for _, node := range nodes {
		chunks = append(chunks, node.Node.Content(schema.MetadataModeLLM))
	}
	packed := s.pack(chunks)

	var answer string
	for i, contextStr := range packed {
		var prompt string
		if i == 0 {
			prompt = format(textQATemplate, map[string]string{
				"context_str": contextStr,
				"query_str":   query,
			})
		} else {
			prompt = format(refineTemplate, map[string]string{
				"context_str":     contextStr,
				"query_str":       query,
				"existing_answer": answer,
			})
		}

		resp, err := s.llm.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("synthesize answer: %w", err)
		}
		answer = strings.TrimSpace(resp)
	}

	return NewResponse(answer, nodes), nil
}

// pack greedily joins chunks into context strings within the token budget.
// A single oversized chunk still gets its own call rather than being dropped.
func (s *CompactSynthesizer) pack(chunks []string) []string {
	var packed []string
	var cur []string
	curTokens := 0

	for _, chunk := range chunks {
		size := s.tokenizer.Count(chunk)
		if len(cur) > 0 && curTokens+size > s.contextBudget {
			packed = append(packed, strings.Join(cur, s.separator))
			cur = nil
			curTokens = 0
		}
		cur = append(cur, chunk)
		curTokens += size
	}
	if len(cur) > 0 {
		packed = append(packed, strings.Join(cur, s.separator))
	}
	return packed
}

func format(template string, vars map[string]string) string {
	out := template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

var _ Synthesizer = (*CompactSynthesizer)(nil)
