package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askShowSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Routes one question through the agent and prints the answer.
The agent picks the corpus tool that fits the question, or falls back
to the model's general knowledge.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ag, err := buildAgent(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		resp, err := ag.Query(cmd.Context(), question)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Response)

		if askShowSources {
			for _, out := range resp.ToolOutputs {
				fmt.Fprintf(cmd.OutOrStdout(), "\n[%s] %s\n", out.ToolName, out.Content)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print each tool's raw output after the answer")
	rootCmd.AddCommand(askCmd)
}
