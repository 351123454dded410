// Package commands implements the taskchat CLI commands using cobra.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "0.1.0"
)

var (
	dbPathFlag  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "taskchat",
	Short: "Chat-style task manager for the terminal",
	Long: `taskchat manages a to-do list through a short conversation.

Tell it to add, view, update, or delete tasks and it walks you through
each step. Tasks, the conversation, and the transcript are stored in a
local SQLite database. Configure defaults in taskchat.yaml.`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database path (overrides storage.db_path)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}
