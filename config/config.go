// Package config loads the docrouter configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Corpus is one routable document collection.
type Corpus struct {
	// Name is the tool name the agent routes by. Must be unique.
	Name string `yaml:"name"`
	// Description tells the router model what questions this corpus answers.
	Description string `yaml:"description"`
	// Sources are URLs of documents to fetch into the corpus.
	Sources []string `yaml:"sources"`
	// Dir overrides where fetched files land. Defaults to <data_dir>/<name>.
	Dir string `yaml:"dir,omitempty"`
}

// Config is the full docrouter configuration.
type Config struct {
	// Provider selects the LLM backend: "openai" or "bedrock".
	Provider string `yaml:"provider"`
	// Model overrides the provider's default chat model.
	Model string `yaml:"model,omitempty"`
	// EmbeddingModel overrides the default embedding model.
	EmbeddingModel string `yaml:"embedding_model,omitempty"`

	// DataDir is where fetched corpus files are stored.
	DataDir string `yaml:"data_dir"`
	// IndexDir is where the persistent vector index lives.
	IndexDir string `yaml:"index_dir"`

	// ChunkSize is the token budget per chunk.
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is the token overlap between adjacent chunks.
	ChunkOverlap int `yaml:"chunk_overlap"`
	// TopK is the number of nodes retrieved per query.
	TopK int `yaml:"top_k"`
	// MaxIterations bounds the agent's tool loop per message.
	MaxIterations int `yaml:"max_iterations"`

	// SystemPrompt overrides the agent's default system prompt.
	SystemPrompt string `yaml:"system_prompt,omitempty"`

	// Corpora are the routable document collections.
	Corpora []Corpus `yaml:"corpora"`
}

// Default returns a configuration with sensible defaults and no corpora.
func Default() *Config {
	return &Config{
		Provider:      "openai",
		DataDir:       "data",
		IndexDir:      "index",
		ChunkSize:     1024,
		ChunkOverlap:  200,
		TopK:          5,
		MaxIterations: 10,
	}
}

// Load reads and parses the config file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Provider == "" {
		cfg.Provider = def.Provider
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.IndexDir == "" {
		cfg.IndexDir = def.IndexDir
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.TopK == 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = def.MaxIterations
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Provider != "openai" && c.Provider != "bedrock" {
		return fmt.Errorf("unknown provider %q (want openai or bedrock)", c.Provider)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}

	seen := make(map[string]bool, len(c.Corpora))
	for i, corpus := range c.Corpora {
		if corpus.Name == "" {
			return fmt.Errorf("corpus %d: name is required", i)
		}
		if seen[corpus.Name] {
			return fmt.Errorf("duplicate corpus name %q", corpus.Name)
		}
		seen[corpus.Name] = true
		if corpus.Description == "" {
			return fmt.Errorf("corpus %q: description is required for routing", corpus.Name)
		}
	}
	return nil
}

// CorpusDir returns the directory holding a corpus's source files.
func (c *Config) CorpusDir(corpus Corpus) string {
	if corpus.Dir != "" {
		return corpus.Dir
	}
	return c.DataDir + "/" + corpus.Name
}
