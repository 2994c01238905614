package persistence

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/pgvector/pgvector-go"

	"github.com/Acurioustractor/palm-island-repository/domain/repository"
	"github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/domain/story"
	"github.com/Acurioustractor/palm-island-repository/internal/database"
)

const serviceName = "database"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// StoryStore implements story.Store over the stories table.
type StoryStore struct {
	repo database.Repository[story.Story, StoryModel]
}

var _ story.Store = StoryStore{}

// NewStoryStore creates a StoryStore reading from table.
func NewStoryStore(db database.Database, table string) (StoryStore, error) {
	if !tableNamePattern.MatchString(table) {
		return StoryStore{}, fmt.Errorf("invalid stories table name %q", table)
	}
	repo := database.NewRepositoryForTable[story.Story, StoryModel](db, StoryMapper{}, "story", table).
		WithColumns(storyColumns...)
	return StoryStore{repo: repo}, nil
}

// Find lists stories matching options. The embedding column is not read.
func (s StoryStore) Find(ctx context.Context, options ...repository.Option) ([]story.Story, error) {
	stories, err := s.repo.Find(ctx, options...)
	if err != nil {
		return nil, service.NewUpstreamError(serviceName, "find stories", err)
	}
	return stories, nil
}

// Count returns the number of stories matching options.
func (s StoryStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	n, err := s.repo.Count(ctx, options...)
	if err != nil {
		return 0, service.NewUpstreamError(serviceName, "count stories", err)
	}
	return n, nil
}

// UpdateEmbedding writes vector into the embedding column of story id. An
// unknown id yields story.ErrNotFound.
func (s StoryStore) UpdateEmbedding(ctx context.Context, id string, vector []float32) error {
	err := s.repo.UpdateColumn(ctx, "embedding", pgvector.NewVector(vector), story.WithID(id))
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("update embedding of story %s: %w: %w", id, story.ErrNotFound, err)
	}
	if err != nil {
		return service.NewUpstreamError(serviceName, "update embedding", err)
	}
	return nil
}

// ClearEmbedding sets the embedding column of story id back to NULL.
func (s StoryStore) ClearEmbedding(ctx context.Context, id string) error {
	err := s.repo.UpdateColumn(ctx, "embedding", nil, story.WithID(id))
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("clear embedding of story %s: %w: %w", id, story.ErrNotFound, err)
	}
	if err != nil {
		return service.NewUpstreamError(serviceName, "clear embedding", err)
	}
	return nil
}
