// Package cli implements the jirasafe command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jirasafe",
	Short: "Safety-gated Jira tools for AI assistants",
	Long: "Exposes the Jira Cloud REST API as MCP tools with a safety layer:\n" +
		"dry-run simulation, confirmation gating for destructive actions, and\n" +
		"a session plus persistent audit trail of every attempted mutation.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
