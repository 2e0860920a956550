package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clientiq/clientiq/internal/app"
	"github.com/clientiq/clientiq/internal/config"
	"github.com/clientiq/clientiq/internal/generator"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question about the customer collection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, question string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing application", "error", err)
		}
	}()

	if err := a.Store.Populate(ctx, a.Customers.All()); err != nil {
		return fmt.Errorf("populating embedding store: %w", err)
	}

	result := a.Retriever.Retrieve(ctx, question)
	logger.Debug("retrieved records",
		"count", len(result.Records),
		"method", result.Method,
		"comprehensive", result.Comprehensive,
	)

	answer, err := a.Generator.Generate(ctx, question, generator.FormatContext(result.Records), result.Comprehensive)
	if err != nil {
		logger.Warn("generation failed, substituting apology", "error", err)
		answer = generator.Apology
	} else {
		answer = generator.CorrectProductCounts(answer, result.Records)
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
