package splitter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences/english"

	"github.com/quarv/docrouter/schema"
)

const (
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 200

	paragraphSeparator = "\n\n\n"
	wordSeparator      = " "
	// subSentenceRegex breaks oversized sentences on clause punctuation.
	subSentenceRegex = `[^,.;。？！]+[,.;。？！]?|[,.;。？！]`
)

// textSplit is an intermediate fragment with its token size.
type textSplit struct {
	text       string
	isSentence bool
	tokenSize  int
}

// SentenceSplitter chunks text by token budget with a preference for keeping
// sentences whole. Oversized sentences fall back to clause, word, and finally
// character splits.
type SentenceSplitter struct {
	chunkSize    int
	chunkOverlap int
	tokenizer    Tokenizer

	splitSentences func(string) []string
	subRegex       *regexp.Regexp
}

// SplitterOption configures a SentenceSplitter.
type SplitterOption func(*SentenceSplitter)

// WithChunkSize sets the token budget per chunk.
func WithChunkSize(chunkSize int) SplitterOption {
	return func(s *SentenceSplitter) {
		s.chunkSize = chunkSize
	}
}

// WithChunkOverlap sets the token overlap carried between chunks.
func WithChunkOverlap(chunkOverlap int) SplitterOption {
	return func(s *SentenceSplitter) {
		s.chunkOverlap = chunkOverlap
	}
}

// WithTokenizer sets the tokenizer used for budgeting.
func WithTokenizer(tokenizer Tokenizer) SplitterOption {
	return func(s *SentenceSplitter) {
		s.tokenizer = tokenizer
	}
}

// NewSentenceSplitter creates a splitter with English sentence detection and
// a cl100k_base token budget.
func NewSentenceSplitter(opts ...SplitterOption) (*SentenceSplitter, error) {
	s := &SentenceSplitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		subRegex:     regexp.MustCompile(subSentenceRegex),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", s.chunkOverlap, s.chunkSize)
	}

	if s.tokenizer == nil {
		tok, err := DefaultTokenizer()
		if err != nil {
			return nil, err
		}
		s.tokenizer = tok
	}

	sentTok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("sentence tokenizer: %w", err)
	}
	s.splitSentences = func(text string) []string {
		sents := sentTok.Tokenize(text)
		out := make([]string, 0, len(sents))
		for _, sent := range sents {
			out = append(out, sent.Text)
		}
		return out
	}

	return s, nil
}

// SplitText splits text into chunks of at most the configured token budget.
func (s *SentenceSplitter) SplitText(text string) []string {
	return s.splitWithBudget(text, s.chunkSize)
}

// SplitDocument splits a document into nodes that carry its metadata. The
// metadata string is budgeted against the chunk size so that a node's full
// embed content stays within the token limit.
func (s *SentenceSplitter) SplitDocument(doc schema.Document) ([]schema.Node, error) {
	metadataLen := s.tokenizer.Count(schema.MetadataString(doc.Metadata))
	budget := s.chunkSize - metadataLen
	if budget < 50 {
		return nil, fmt.Errorf("document %s: metadata takes %d tokens of a %d token budget, leaving too little for content", doc.ID, metadataLen, s.chunkSize)
	}

	chunks := s.splitWithBudget(doc.Text, budget)
	nodes := make([]schema.Node, 0, len(chunks))
	searchFrom := 0
	for _, chunk := range chunks {
		node := schema.NewTextNode(chunk)
		node.SourceDocID = doc.ID
		node.Metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			node.Metadata[k] = v
		}
		// Overlapping chunks can repeat text, so resume the scan from the
		// previous chunk's start.
		if idx := strings.Index(doc.Text[searchFrom:], chunk); idx >= 0 {
			node.StartCharIdx = searchFrom + idx
			node.EndCharIdx = node.StartCharIdx + len(chunk)
			searchFrom = node.StartCharIdx
		}
		nodes = append(nodes, *node)
	}
	return nodes, nil
}

// SplitDocuments splits many documents, concatenating their nodes in order.
func (s *SentenceSplitter) SplitDocuments(docs []schema.Document) ([]schema.Node, error) {
	var nodes []schema.Node
	for _, doc := range docs {
		docNodes, err := s.SplitDocument(doc)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, docNodes...)
	}
	return nodes, nil
}

func (s *SentenceSplitter) splitWithBudget(text string, chunkSize int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	splits := s.split(text, chunkSize)
	chunks := s.merge(splits, chunkSize)

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		stripped := strings.TrimSpace(chunk)
		if stripped == "" {
			continue
		}
		out = append(out, stripped)
	}
	return out
}

// split recursively breaks text into fragments that each fit the budget.
func (s *SentenceSplitter) split(text string, chunkSize int) []textSplit {
	tokenSize := s.tokenizer.Count(text)
	if tokenSize <= chunkSize {
		return []textSplit{{text: text, isSentence: true, tokenSize: tokenSize}}
	}

	parts, isSentence := s.nextSplits(text)
	var out []textSplit
	for _, part := range parts {
		partSize := s.tokenizer.Count(part)
		if partSize <= chunkSize {
			out = append(out, textSplit{text: part, isSentence: isSentence, tokenSize: partSize})
		} else {
			out = append(out, s.split(part, chunkSize)...)
		}
	}
	return out
}

// nextSplits tries paragraph and sentence boundaries first, then clause,
// word, and character fallbacks for text without usable boundaries.
func (s *SentenceSplitter) nextSplits(text string) ([]string, bool) {
	if parts := splitKeepSep(text, paragraphSeparator); len(parts) > 1 {
		return parts, true
	}
	if parts := s.splitSentences(text); len(parts) > 1 {
		return parts, true
	}

	if parts := s.subRegex.FindAllString(text, -1); len(parts) > 1 {
		return parts, false
	}
	if parts := splitKeepSep(text, wordSeparator); len(parts) > 1 {
		return parts, false
	}
	return strings.Split(text, ""), false
}

// merge packs fragments into chunks up to chunkSize tokens, carrying up to
// chunkOverlap trailing tokens into the next chunk.
func (s *SentenceSplitter) merge(splits []textSplit, chunkSize int) []string {
	type bufItem struct {
		text string
		size int
	}

	var chunks []string
	var cur []bufItem
	curLen := 0
	fresh := true

	closeChunk := func() {
		var sb strings.Builder
		for _, item := range cur {
			sb.WriteString(item.text)
		}
		chunks = append(chunks, sb.String())

		last := cur
		cur = nil
		curLen = 0
		fresh = true

		for i := len(last) - 1; i >= 0; i-- {
			if curLen+last[i].size > s.chunkOverlap {
				break
			}
			curLen += last[i].size
			cur = append([]bufItem{last[i]}, cur...)
		}
	}

	i := 0
	for i < len(splits) {
		split := splits[i]
		if curLen+split.tokenSize > chunkSize {
			if !fresh {
				closeChunk()
				continue
			}
			// The chunk holds only carried-back overlap. Drop overlap from
			// the front until the split fits, so no chunk exceeds the budget.
			for len(cur) > 0 && curLen+split.tokenSize > chunkSize {
				curLen -= cur[0].size
				cur = cur[1:]
			}
		}
		curLen += split.tokenSize
		cur = append(cur, bufItem{text: split.text, size: split.tokenSize})
		fresh = false
		i++
	}

	if !fresh {
		var sb strings.Builder
		for _, item := range cur {
			sb.WriteString(item.text)
		}
		chunks = append(chunks, sb.String())
	}

	return chunks
}

// splitKeepSep splits on sep, keeping the separator attached to the
// preceding part so merges reconstruct the original text.
func splitKeepSep(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
