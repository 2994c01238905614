package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	palmisland "github.com/Acurioustractor/palm-island-repository"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
	"github.com/Acurioustractor/palm-island-repository/internal/log"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  API_HOST                     Server host to bind to (default: 0.0.0.0)
  API_PORT                     Server port to listen on (default: 8000)
  DB_URL                       Story database (default: sqlite:///~/.palmisland/stories.db)
  STORIES_TABLE                Stories table name (default: stories)
  QDRANT_URL                   Qdrant REST URL (default: http://localhost:6333)
  QDRANT_API_KEY               Qdrant API key
  EMBEDDING_MODEL              Local model name (default: sentence-transformers/all-MiniLM-L6-v2)
  EMBEDDING_DIMENSION          Vector length (default: 384)
  MODEL_DIR                    Local model directory (default: ~/.palmisland/models)
  EMBEDDING_ENDPOINT_*         Remote OpenAI-compatible embedding service
    BASE_URL, MODEL, API_KEY, TIMEOUT, MAX_RETRIES, INITIAL_DELAY, BACKOFF_FACTOR
  API_KEYS                     Comma-separated keys guarding sync and delete
  CORS_ORIGINS                 Comma-separated browser origins
  PERIODIC_SYNC_ENABLED        Re-index stories in the background (default: false)
  PERIODIC_SYNC_INTERVAL_SECONDS  Interval between syncs (default: 3600)
  LOG_LEVEL                    DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   pretty, json (default: pretty)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg = applyServeOverrides(cfg, host, port)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, log.Configure(cfg))
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8000)")

	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting storysearch", attrs...)

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	if err := prepare(ctx, client, logger); err != nil {
		return err
	}

	client.StartPeriodicSync(ctx)

	apiServer := api.NewAPIServer(client, cfg.APIKeys())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.ListenAndServe(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// prepare runs the startup checks. An unreachable Qdrant or a missing model
// only degrades the service; a model whose output length differs from the
// configured dimension stops startup.
func prepare(ctx context.Context, client *palmisland.Client, logger *slog.Logger) error {
	if err := client.EnsureCollection(ctx); err != nil {
		logger.Warn("story collection not ready, search will fail until qdrant is reachable",
			slog.Any("error", err),
		)
	}

	err := client.CheckEmbeddingDimension(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domainservice.ErrDimensionMismatch):
		return fmt.Errorf("embedding model does not match EMBEDDING_DIMENSION: %w", err)
	default:
		logger.Warn("embedding model not ready", slog.Any("error", err))
		return nil
	}
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
