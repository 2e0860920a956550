package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clientiq/clientiq/internal/app"
	"github.com/clientiq/clientiq/internal/config"
)

var indexCustomerID string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Populate the embedding store from the customer collection",
	Long: `index embeds every customer profile and persists the vectors.
Population is idempotent: a store that already holds entries is left
untouched. Use --customer to re-embed a single record after its source
data changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex()
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexCustomerID, "customer", "", "re-embed only this customer identifier")
	rootCmd.AddCommand(indexCmd)
}

func runIndex() error {
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

	if indexCustomerID != "" {
		record, ok := a.Customers.ByID(indexCustomerID)
		if !ok {
			return fmt.Errorf("customer %q not found in %s", indexCustomerID, cfg.DataFile)
		}
		if err := a.Store.Upsert(ctx, record); err != nil {
			return fmt.Errorf("re-embedding %q: %w", record.ID, err)
		}
		logger.Info("re-embedded customer", "customer_id", record.ID)
		return nil
	}

	if err := a.Store.Populate(ctx, a.Customers.All()); err != nil {
		return fmt.Errorf("populating embedding store: %w", err)
	}

	n, err := a.Store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting entries: %w", err)
	}
	logger.Info("embedding store ready", "entries", n, "records", a.Customers.Len())
	return nil
}
