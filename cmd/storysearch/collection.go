package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Acurioustractor/palm-island-repository/internal/config"
	"github.com/Acurioustractor/palm-island-repository/internal/log"
)

func resetCollectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-collection",
		Short: "Delete and recreate the Qdrant story collection",
		Long: `Delete and recreate the Qdrant story collection.

Every indexed point is lost. Run sync afterwards to index the stories again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runResetCollection(cmd.Context(), cfg, log.Configure(cfg), cmd.OutOrStdout())
		},
	}
}

func runResetCollection(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, out io.Writer) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	if err := client.ResetCollection(ctx); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}

	count, err := client.IndexedCount(ctx)
	if err != nil {
		return fmt.Errorf("count points: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Collection %s recreated with %d points\n", config.CollectionName, count)
	return nil
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many stories have embeddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runStats(cmd.Context(), cfg, log.Configure(cfg), cmd.OutOrStdout())
		},
	}
}

func runStats(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, out io.Writer) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	stats, err := client.Stats.Get(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Total stories:    %d\n", stats.Total())
	_, _ = fmt.Fprintf(out, "Embedded stories: %d\n", stats.Embedded())
	_, _ = fmt.Fprintf(out, "Remaining:        %d\n", stats.Remaining())
	_, _ = fmt.Fprintf(out, "Complete:         %.1f%%\n", stats.PercentageComplete())
	return nil
}
