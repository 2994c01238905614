// Package service holds the application services: search, sync and
// embedding stats.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Acurioustractor/palm-island-repository/domain/search"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
)

// DefaultSearchLimit applies when a search asks for no limit.
const DefaultSearchLimit = 10

// Search answers natural-language queries against the story index.
type Search struct {
	embedding    domainservice.Embedding
	vectors      search.VectorStore
	defaultLimit int
	logger       *slog.Logger
}

// SearchOption configures a Search.
type SearchOption func(*Search)

// WithDefaultSearchLimit sets the limit used when a caller passes none.
func WithDefaultSearchLimit(n int) SearchOption {
	return func(s *Search) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// NewSearch creates a new Search service.
func NewSearch(embedding domainservice.Embedding, vectors search.VectorStore, logger *slog.Logger, opts ...SearchOption) *Search {
	s := &Search{
		embedding:    embedding,
		vectors:      vectors,
		defaultLimit: DefaultSearchLimit,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds query and returns up to limit stories ordered by descending
// similarity. A limit of zero or less uses the default. A blank query is a
// validation error and reaches neither the model nor the index.
func (s *Search) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domainservice.NewValidationError("query", "must not be empty")
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	vector, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("search stories: %w", err)
	}

	results := make([]search.Result, len(hits))
	for i, hit := range hits {
		results[i] = search.ResultFromPoint(hit)
	}

	s.logger.Debug("story search",
		slog.Int("limit", limit),
		slog.Int("results", len(results)),
	)
	return results, nil
}

// Similar would return stories close to an indexed story. It is not
// available yet.
func (s *Search) Similar(_ context.Context, storyID string, _ int) ([]search.Result, error) {
	return nil, fmt.Errorf("similar stories for %s: %w", storyID, domainservice.ErrNotImplemented)
}
