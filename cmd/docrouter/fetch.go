package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quarv/docrouter/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download configured corpus sources",
	Long: `Downloads every source URL of every corpus into its data directory.
Files that already exist are skipped, so the command is safe to rerun.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fetcher := fetch.New(fetch.WithLogger(slog.Default()))
		for _, corpus := range cfg.Corpora {
			if len(corpus.Sources) == 0 {
				slog.Debug("corpus has no remote sources", "corpus", corpus.Name)
				continue
			}
			dir := cfg.CorpusDir(corpus)
			paths, err := fetcher.FetchAll(cmd.Context(), dir, corpus.Sources)
			if err != nil {
				return fmt.Errorf("fetch corpus %s: %w", corpus.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d file(s) in %s\n", corpus.Name, len(paths), dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
