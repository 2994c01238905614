package service

import (
	"context"
	"fmt"

	"github.com/Acurioustractor/palm-island-repository/domain/story"
)

// Stats reports embedding progress across the relational store.
type Stats struct {
	stories story.Store
}

// NewStats creates a new Stats service.
func NewStats(stories story.Store) *Stats {
	return &Stats{stories: stories}
}

// Get counts all stories and those already embedded.
func (s *Stats) Get(ctx context.Context) (story.Stats, error) {
	total, err := s.stories.Count(ctx)
	if err != nil {
		return story.Stats{}, fmt.Errorf("count stories: %w", err)
	}
	embedded, err := s.stories.Count(ctx, story.WithEmbedded())
	if err != nil {
		return story.Stats{}, fmt.Errorf("count embedded stories: %w", err)
	}
	return story.NewStats(total, embedded), nil
}
