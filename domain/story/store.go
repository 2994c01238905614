package story

import (
	"context"
	"errors"

	"github.com/Acurioustractor/palm-island-repository/domain/repository"
)

// ErrNotFound indicates no story has the requested id.
var ErrNotFound = errors.New("story not found")

// Store is the narrow contract with the relational store: list stories and
// write back their embedding column.
type Store interface {
	// Find lists stories matching options, in store order.
	Find(ctx context.Context, options ...repository.Option) ([]Story, error)

	// Count returns the number of stories matching options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)

	// UpdateEmbedding writes vector into the embedding column of story id.
	UpdateEmbedding(ctx context.Context, id string, vector []float32) error

	// ClearEmbedding sets the embedding column of story id to NULL.
	ClearEmbedding(ctx context.Context, id string) error
}

// WithID filters by story id.
func WithID(id string) repository.Option {
	return repository.WithCondition("id", id)
}

// WithEmbedded keeps stories whose embedding column is set.
func WithEmbedded() repository.Option {
	return repository.WithWhere("embedding IS NOT NULL")
}

// Stats summarises embedding progress across the store.
type Stats struct {
	total    int64
	embedded int64
}

// NewStats creates a new Stats.
func NewStats(total, embedded int64) Stats {
	return Stats{total: total, embedded: embedded}
}

// Total returns the number of stories.
func (s Stats) Total() int64 { return s.total }

// Embedded returns the number of stories with an embedding.
func (s Stats) Embedded() int64 { return s.embedded }

// Remaining returns the number of stories still without an embedding.
func (s Stats) Remaining() int64 {
	if s.embedded >= s.total {
		return 0
	}
	return s.total - s.embedded
}

// PercentageComplete returns embedded/total as a percentage, rounded to one
// decimal place. It is 0 for an empty store.
func (s Stats) PercentageComplete() float64 {
	if s.total == 0 {
		return 0
	}
	pct := float64(s.embedded) / float64(s.total) * 100
	return float64(int64(pct*10+0.5)) / 10
}
