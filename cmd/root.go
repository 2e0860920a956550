// Package cmd defines the clientiq command-line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/clientiq/clientiq/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "clientiq",
	Short: "clientiq - customer profile retrieval and Q&A",
	Long: `clientiq answers free-text questions about a fixed collection of
customer profiles. It retrieves the most relevant records with vector
similarity (falling back to lexical scoring), classifies query intent to
decide between top-K and database-wide search, and hands the retrieved
profiles to a language model for answer synthesis.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the process logger from the --verbose flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
