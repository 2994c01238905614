package palmisland

import (
	"io"
	"log/slog"

	"github.com/Acurioustractor/palm-island-repository/domain/search"
	"github.com/Acurioustractor/palm-island-repository/domain/story"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	app      config.AppConfig
	logger   *slog.Logger
	embedder search.Embedder
	vectors  search.VectorStore
	stories  story.Store
	closers  []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{app: config.NewAppConfig()}
}

// WithAppConfig sets the application configuration.
func WithAppConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		c.app = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithEmbedder replaces the embedding model.
func WithEmbedder(e search.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithVectorStore replaces the Qdrant story index.
func WithVectorStore(v search.VectorStore) Option {
	return func(c *clientConfig) {
		c.vectors = v
	}
}

// WithStoryStore replaces the relational story store. No database is
// opened when one is given.
func WithStoryStore(s story.Store) Option {
	return func(c *clientConfig) {
		c.stories = s
	}
}

// WithCloser registers a resource to close with the client.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
