package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarv/docrouter/reader"
)

var indexOnly string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from corpus files",
	Long: `Reads every corpus's data directory, splits the documents into
chunks, embeds them and stores the result in the persistent index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		emb := newEmbedder(cfg)

		indexed := 0
		for _, corpus := range cfg.Corpora {
			if indexOnly != "" && corpus.Name != indexOnly {
				continue
			}
			indexed++

			dir := cfg.CorpusDir(corpus)
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("corpus %s: data directory %s missing, run fetch first: %w", corpus.Name, dir, err)
			}

			docs, err := reader.NewDirectoryReader(dir, reader.WithRecursive(true)).LoadData(cmd.Context())
			if err != nil {
				return fmt.Errorf("read corpus %s: %w", corpus.Name, err)
			}
			if len(docs) == 0 {
				slog.Warn("corpus directory has no readable documents", "corpus", corpus.Name, "dir", dir)
				continue
			}

			idx, err := corpusIndex(cfg, corpus, emb)
			if err != nil {
				return err
			}
			// Rebuild from scratch so reruns do not duplicate chunks.
			if err := idx.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear corpus %s: %w", corpus.Name, err)
			}
			ids, err := idx.AddDocuments(cmd.Context(), docs)
			if err != nil {
				return fmt.Errorf("index corpus %s: %w", corpus.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d document(s), %d chunk(s)\n", corpus.Name, len(docs), len(ids))
		}

		if indexOnly != "" && indexed == 0 {
			return fmt.Errorf("no corpus named %q in config", indexOnly)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexOnly, "corpus", "", "index only the named corpus")
	rootCmd.AddCommand(indexCmd)
}
