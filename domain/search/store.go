package search

import "context"

// VectorStore is the external vector index holding one point per story.
// Implementations perform no caching and no retries.
type VectorStore interface {
	// EnsureCollection creates the collection when it is absent. It does
	// not check the dimension of an existing collection.
	EnsureCollection(ctx context.Context) error

	// Upsert inserts or fully replaces the point with the same id.
	Upsert(ctx context.Context, point Point) error

	// Search returns at most limit hits ordered by descending similarity.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)

	// Delete removes the point for id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}

// CollectionAdmin manages the collection as a whole.
type CollectionAdmin interface {
	// Reset drops the collection and creates it again, empty.
	Reset(ctx context.Context) error

	// Count returns the number of indexed points.
	Count(ctx context.Context) (int64, error)
}
