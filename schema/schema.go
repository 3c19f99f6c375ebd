// Package schema defines the core data types shared across docrouter:
// documents, chunk nodes, retrieval results, and vector store queries.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// MetadataMode controls which metadata keys are rendered into node content.
type MetadataMode string

const (
	// MetadataModeAll renders all metadata.
	MetadataModeAll MetadataMode = "all"
	// MetadataModeEmbed renders metadata visible to the embedding model.
	MetadataModeEmbed MetadataMode = "embed"
	// MetadataModeLLM renders metadata visible to the language model.
	MetadataModeLLM MetadataMode = "llm"
	// MetadataModeNone renders no metadata.
	MetadataModeNone MetadataMode = "none"
)

// Templates used when rendering a node's content with metadata attached.
const (
	DefaultContentTemplate   = "{metadata_str}\n\n{content}"
	DefaultMetadataTemplate  = "{key}: {value}"
	DefaultMetadataSeparator = "\n"
)

// Document is a unit of source material before chunking, e.g. one PDF.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewDocument creates a Document with a generated ID.
func NewDocument(text string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return Document{
		ID:       uuid.New().String(),
		Text:     text,
		Metadata: metadata,
	}
}

// Hash returns a stable SHA-256 hash of the document text and metadata keys.
func (d Document) Hash() string {
	h := sha256.New()
	h.Write([]byte(d.Text))
	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Node is a chunk of a document, the unit of embedding and retrieval.
type Node struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float64      `json:"embedding,omitempty"`
	// SourceDocID links the node back to the document it was split from.
	SourceDocID string `json:"source_doc_id,omitempty"`
	// ExcludedEmbedKeys are metadata keys hidden from the embedding model.
	ExcludedEmbedKeys []string `json:"excluded_embed_keys,omitempty"`
	// ExcludedLLMKeys are metadata keys hidden from the language model.
	ExcludedLLMKeys []string `json:"excluded_llm_keys,omitempty"`
	// StartCharIdx and EndCharIdx locate the chunk in the source document.
	StartCharIdx int `json:"start_char_idx,omitempty"`
	EndCharIdx   int `json:"end_char_idx,omitempty"`
}

// NewTextNode creates a Node with a generated ID and the given text.
func NewTextNode(text string) *Node {
	return &Node{
		ID:       uuid.New().String(),
		Text:     text,
		Metadata: make(map[string]any),
	}
}

// Content renders the node text, prefixed by metadata according to mode.
func (n *Node) Content(mode MetadataMode) string {
	metaStr := n.MetadataString(mode)
	if mode == MetadataModeNone || metaStr == "" {
		return n.Text
	}
	out := strings.ReplaceAll(DefaultContentTemplate, "{metadata_str}", metaStr)
	out = strings.ReplaceAll(out, "{content}", n.Text)
	return strings.TrimSpace(out)
}

// MetadataString renders the node metadata for the given mode, sorted by key.
func (n *Node) MetadataString(mode MetadataMode) string {
	if mode == MetadataModeNone || len(n.Metadata) == 0 {
		return ""
	}

	excluded := make(map[string]bool)
	switch mode {
	case MetadataModeEmbed:
		for _, k := range n.ExcludedEmbedKeys {
			excluded[k] = true
		}
	case MetadataModeLLM:
		for _, k := range n.ExcludedLLMKeys {
			excluded[k] = true
		}
	}

	return renderMetadata(n.Metadata, excluded)
}

// MetadataString renders a metadata map as key: value lines, sorted by key.
func MetadataString(metadata map[string]any) string {
	return renderMetadata(metadata, nil)
}

func renderMetadata(metadata map[string]any, excluded map[string]bool) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		if !excluded[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		line := strings.ReplaceAll(DefaultMetadataTemplate, "{key}", k)
		line = strings.ReplaceAll(line, "{value}", stringify(metadata[k]))
		parts = append(parts, line)
	}
	return strings.Join(parts, DefaultMetadataSeparator)
}

// Hash returns a SHA-256 hash of the node content including all metadata.
func (n *Node) Hash() string {
	h := sha256.New()
	h.Write([]byte(n.Content(MetadataModeAll)))
	return hex.EncodeToString(h.Sum(nil))
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// NodeWithScore pairs a retrieved node with its similarity score.
type NodeWithScore struct {
	Node  Node    `json:"node"`
	Score float64 `json:"score"`
}

// QueryBundle carries a query string and optional metadata filters.
type QueryBundle struct {
	Query   string           `json:"query"`
	Filters *MetadataFilters `json:"filters,omitempty"`
}

// FilterOperator is the comparison operator of a metadata filter.
type FilterOperator string

const (
	// FilterOpEq matches values that are equal.
	FilterOpEq FilterOperator = "=="
	// FilterOpNe matches values that are not equal.
	FilterOpNe FilterOperator = "!="
	// FilterOpContains matches string values containing the filter value.
	FilterOpContains FilterOperator = "contains"
)

// MetadataFilter is a single key/value constraint on node metadata.
type MetadataFilter struct {
	Key      string         `json:"key"`
	Value    any            `json:"value"`
	Operator FilterOperator `json:"operator"`
}

// MetadataFilters is a conjunction of metadata filters.
type MetadataFilters struct {
	Filters []MetadataFilter `json:"filters"`
}

// NewMetadataFilters builds an AND filter set with EQ semantics per filter.
func NewMetadataFilters(filters ...MetadataFilter) *MetadataFilters {
	for i := range filters {
		if filters[i].Operator == "" {
			filters[i].Operator = FilterOpEq
		}
	}
	return &MetadataFilters{Filters: filters}
}

// VectorStoreQuery is a similarity search request against a vector store.
type VectorStoreQuery struct {
	Embedding []float64        `json:"embedding"`
	TopK      int              `json:"top_k"`
	Filters   *MetadataFilters `json:"filters,omitempty"`
}

// DefaultTopK is used when a query does not specify a result count.
const DefaultTopK = 5

// EffectiveTopK returns the query TopK, or DefaultTopK if unset.
func (q VectorStoreQuery) EffectiveTopK() int {
	if q.TopK > 0 {
		return q.TopK
	}
	return DefaultTopK
}
