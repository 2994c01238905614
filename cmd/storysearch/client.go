package main

import (
	"fmt"
	"log/slog"

	palmisland "github.com/Acurioustractor/palm-island-repository"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
)

// clientFactory builds the client a command runs against. Tests replace it
// to inject fakes.
var clientFactory = func(cfg config.AppConfig, logger *slog.Logger) (*palmisland.Client, error) {
	return palmisland.New(
		palmisland.WithAppConfig(cfg),
		palmisland.WithLogger(logger),
	)
}

func newClient(cfg config.AppConfig, logger *slog.Logger) (*palmisland.Client, error) {
	client, err := clientFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func closeClient(client *palmisland.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close client", slog.Any("error", err))
	}
}
