package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quarv/docrouter/agent"
	"github.com/quarv/docrouter/config"
	"github.com/quarv/docrouter/embedding"
	"github.com/quarv/docrouter/index"
	"github.com/quarv/docrouter/llm"
	"github.com/quarv/docrouter/memory"
	"github.com/quarv/docrouter/splitter"
	"github.com/quarv/docrouter/store"
	"github.com/quarv/docrouter/tools"
)

const defaultSystemPrompt = `You answer user questions by choosing the right tool.
Each document tool covers one specific collection; use it for questions about
that collection's content. Use the general knowledge tool for everything else.
Ground document answers in tool output only.`

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func newChatModel(ctx context.Context, cfg *config.Config) (llm.ToolCallingLLM, error) {
	switch cfg.Provider {
	case "bedrock":
		var opts []llm.BedrockOption
		if cfg.Model != "" {
			opts = append(opts, llm.WithBedrockModel(cfg.Model))
		}
		return llm.NewBedrock(ctx, opts...)
	default:
		var opts []llm.OpenAIOption
		if cfg.Model != "" {
			opts = append(opts, llm.WithOpenAIModel(cfg.Model))
		}
		opts = append(opts, llm.WithOpenAILogger(slog.Default()))
		return llm.NewOpenAI("", opts...), nil
	}
}

func newEmbedder(cfg *config.Config) embedding.Embedder {
	var opts []embedding.OpenAIEmbedderOption
	if cfg.EmbeddingModel != "" {
		opts = append(opts, embedding.WithEmbeddingModel(cfg.EmbeddingModel))
	}
	opts = append(opts, embedding.WithEmbedderLogger(slog.Default()))
	return embedding.NewOpenAIEmbedder("", opts...)
}

func newSplitter(cfg *config.Config) (*splitter.SentenceSplitter, error) {
	return splitter.NewSentenceSplitter(
		splitter.WithChunkSize(cfg.ChunkSize),
		splitter.WithChunkOverlap(cfg.ChunkOverlap),
	)
}

// corpusStore opens the persistent vector collection for one corpus.
func corpusStore(cfg *config.Config, corpus config.Corpus) (store.VectorStore, error) {
	return store.NewChromemStore(cfg.IndexDir, corpus.Name)
}

// corpusIndex opens a corpus's store wrapped in a VectorIndex.
func corpusIndex(cfg *config.Config, corpus config.Corpus, emb embedding.Embedder) (*index.VectorIndex, error) {
	vs, err := corpusStore(cfg, corpus)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", corpus.Name, err)
	}

	split, err := newSplitter(cfg)
	if err != nil {
		return nil, err
	}

	return index.New(vs, emb,
		index.WithSplitter(split),
		index.WithIndexLogger(slog.Default()),
	)
}

// buildAgent wires one query tool per corpus plus the general passthrough
// tool into a routing agent.
func buildAgent(ctx context.Context, cfg *config.Config) (*agent.FunctionAgent, error) {
	if len(cfg.Corpora) == 0 {
		return nil, fmt.Errorf("no corpora configured; add some to %s", configPath)
	}

	model, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	emb := newEmbedder(cfg)

	var agentTools []tools.Tool
	for _, corpus := range cfg.Corpora {
		idx, err := corpusIndex(cfg, corpus, emb)
		if err != nil {
			return nil, err
		}

		qe, err := idx.AsQueryEngine(model, index.WithTopK(cfg.TopK))
		if err != nil {
			return nil, err
		}

		agentTools = append(agentTools, tools.NewQueryEngineTool(qe,
			tools.WithName(corpus.Name),
			tools.WithDescription(corpus.Description),
		))
	}

	agentTools = append(agentTools, tools.NewLLMTool(model))

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	mem, err := memory.NewBuffer()
	if err != nil {
		return nil, err
	}

	return agent.New(model, agentTools,
		agent.WithSystemPrompt(systemPrompt),
		agent.WithMaxIterations(cfg.MaxIterations),
		agent.WithMemory(mem),
		agent.WithLogger(slog.Default()),
	)
}
