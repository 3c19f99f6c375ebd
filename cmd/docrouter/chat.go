package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens a read-eval-print loop against the routing agent. The agent
keeps the conversation in memory, so follow-up questions work.

Commands inside the session:
  /reset  clear the conversation history
  /quit   exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ag, err := buildAgent(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "docrouter chat. /reset clears history, /quit exits.")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					return err
				}
				fmt.Fprintln(out)
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
				continue
			case line == "/quit", line == "/exit":
				return nil
			case line == "/reset":
				if err := ag.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "history cleared")
				continue
			}

			resp, err := ag.Chat(cmd.Context(), line)
			if err != nil {
				// Keep the session alive on a failed turn.
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, resp.Response)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
