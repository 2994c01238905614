// Package palmisland provides semantic search over Palm Island community
// stories.
//
// A Client wires the embedding model, the Qdrant story index and the
// relational story store together:
//
//	client, err := palmisland.New(palmisland.WithAppConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	results, err := client.Search.Search(ctx, "fishing with grandfather", 5)
package palmisland

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Acurioustractor/palm-island-repository/application/service"
	"github.com/Acurioustractor/palm-island-repository/domain/search"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/domain/story"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/persistence"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/provider"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/qdrant"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
	"github.com/Acurioustractor/palm-island-repository/internal/database"
)

// Version is the service version reported by the API.
const Version = "1.0.0"

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = service.ErrClientClosed

// Client is the main entry point for story search.
type Client struct {
	Search    *service.Search
	Sync      *service.Sync
	Stats     *service.Stats
	Embedding *domainservice.EmbeddingService

	vectors      search.VectorStore
	collection   search.CollectionAdmin
	periodicSync *service.PeriodicSync

	db      *database.Database
	closers []io.Closer

	config config.AppConfig
	logger *slog.Logger
	closed atomic.Bool
	mu     sync.Mutex
}

// New creates a new Client. Nothing external is contacted except the
// relational store, which is opened and checked.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	app := cfg.app
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		config:  app,
		logger:  logger,
		closers: cfg.closers,
	}

	embedder := cfg.embedder
	if embedder == nil {
		embedder = c.defaultEmbedder()
	}

	embedding, err := domainservice.NewEmbedding(embedder, app.EmbeddingDimension())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create embedding service: %w", err), c.closeResources())
	}

	vectors := cfg.vectors
	if vectors == nil {
		vectors = qdrant.NewStore(app.Qdrant(), app.EmbeddingDimension(), qdrant.WithLogger(logger))
	}
	if admin, ok := vectors.(search.CollectionAdmin); ok {
		c.collection = admin
	}

	stories := cfg.stories
	if stories == nil {
		stories, err = c.openStoryStore(context.Background())
		if err != nil {
			return nil, errors.Join(err, c.closeResources())
		}
	}

	c.Embedding = embedding
	c.vectors = vectors
	c.Search = service.NewSearch(embedding, vectors, logger, service.WithDefaultSearchLimit(app.SearchLimit()))
	c.Sync = service.NewSync(stories, embedding, vectors, logger, service.WithDefaultSyncLimit(app.SyncLimit()))
	c.Stats = service.NewStats(stories)
	c.periodicSync = service.NewPeriodicSync(app.PeriodicSync(), c.Sync, app.SyncLimit(), logger)

	return c, nil
}

func (c *Client) defaultEmbedder() search.Embedder {
	if endpoint := c.config.EmbeddingEndpoint(); endpoint != nil && endpoint.IsConfigured() {
		p := provider.NewOpenAIProvider(*endpoint)
		c.logger.Info("remote embedding provider enabled",
			slog.String("base_url", endpoint.BaseURL()),
			slog.String("model", p.Model()),
		)
		return p
	}

	hugot := provider.NewHugotEmbedding(c.config.ModelDir(), c.config.EmbeddingModel())
	c.closers = append(c.closers, hugot)
	if hugot.Available() {
		c.logger.Info("built-in embedding model enabled",
			slog.String("model", c.config.EmbeddingModel()),
			slog.String("model_dir", c.config.ModelDir()),
		)
	} else {
		c.logger.Warn("no embedding model found, embedding requests will fail until one is installed",
			slog.String("model", c.config.EmbeddingModel()),
			slog.String("model_dir", c.config.ModelDir()),
			slog.String("hint", "run 'download-model' or set EMBEDDING_ENDPOINT_BASE_URL"),
		)
	}
	return hugot
}

func (c *Client) openStoryStore(ctx context.Context) (story.Store, error) {
	if err := c.config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}

	db, err := database.NewDatabaseWithLogger(ctx, c.config.DBURL(), c.logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	c.db = &db

	if err := persistence.EnsureStoriesTable(ctx, db, c.config.StoriesTable()); err != nil {
		return nil, fmt.Errorf("prepare stories table: %w", err)
	}

	store, err := persistence.NewStoryStore(db, c.config.StoriesTable())
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Config returns the application configuration the client was built with.
func (c *Client) Config() config.AppConfig {
	return c.config
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// EnsureCollection creates the story collection when it is absent.
func (c *Client) EnsureCollection(ctx context.Context) error {
	return c.vectors.EnsureCollection(ctx)
}

// ResetCollection drops and recreates the story collection.
func (c *Client) ResetCollection(ctx context.Context) error {
	if c.collection == nil {
		return fmt.Errorf("reset collection: %w", domainservice.ErrNotImplemented)
	}
	return c.collection.Reset(ctx)
}

// IndexedCount returns the number of points in the story collection.
func (c *Client) IndexedCount(ctx context.Context) (int64, error) {
	if c.collection == nil {
		return 0, fmt.Errorf("count points: %w", domainservice.ErrNotImplemented)
	}
	return c.collection.Count(ctx)
}

// CheckEmbeddingDimension probes the model and reports a mismatch with the
// configured dimension.
func (c *Client) CheckEmbeddingDimension(ctx context.Context) error {
	return c.Embedding.CheckDimension(ctx)
}

// StartPeriodicSync starts the background sync when it is enabled. It stops
// when ctx is done or the client is closed.
func (c *Client) StartPeriodicSync(ctx context.Context) {
	c.periodicSync.Start(ctx)
}

// Close stops background work and releases the model and the database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.periodicSync.Stop()

	if err := c.closeResources(); err != nil {
		return err
	}

	c.logger.Info("palmisland client closed")
	return nil
}

func (c *Client) closeResources() error {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}
	c.closers = nil

	if c.db != nil {
		db := c.db
		c.db = nil
		if err := db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
