// Package commands implements the ledger CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Append-only customer transaction ledger",
		Version: Version + " (commit: " + Commit + ")",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with configuration overrides")

	rootCmd.AddCommand(
		newServeCommand(&envFile),
		newRecordCommand(&envFile),
		newListCommand(&envFile),
	)

	return rootCmd
}
