// Package service holds domain services and the error kinds they share.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Acurioustractor/palm-island-repository/domain/search"
)

// probeText is embedded once at startup to learn the model's output size.
const probeText = "Palm Island community story"

// Embedding turns text into vectors of a fixed dimension.
type Embedding interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedStory embeds the title-weighted story text built by StoryText.
	EmbedStory(ctx context.Context, title, content string) ([]float32, error)

	// Dimension returns the configured vector length.
	Dimension() int
}

// EmbeddingService validates every vector an Embedder produces against the
// configured dimension.
type EmbeddingService struct {
	embedder  search.Embedder
	dimension int
}

var _ Embedding = (*EmbeddingService)(nil)

// NewEmbedding creates a new embedding service.
func NewEmbedding(embedder search.Embedder, dimension int) (*EmbeddingService, error) {
	if embedder == nil {
		return nil, errors.New("NewEmbedding: nil embedder")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("NewEmbedding: invalid dimension %d", dimension)
	}
	return &EmbeddingService{embedder: embedder, dimension: dimension}, nil
}

// StoryText repeats the title three times ahead of the content so the
// vector leans towards title semantics.
func StoryText(title, content string) string {
	return fmt.Sprintf("%s. %s. %s. %s", title, title, title, content)
}

// Dimension returns the configured vector length.
func (s *EmbeddingService) Dimension() int {
	return s.dimension
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text, in input order. An empty input
// yields an empty result without calling the model.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			return nil, fmt.Errorf("embed text %d: %w: got %d, configured %d", i, ErrDimensionMismatch, len(v), s.dimension)
		}
	}
	return vectors, nil
}

// EmbedStory embeds StoryText(title, content).
func (s *EmbeddingService) EmbedStory(ctx context.Context, title, content string) ([]float32, error) {
	return s.Embed(ctx, StoryText(title, content))
}

// Probe embeds a fixed text and reports the model's actual output length,
// without checking it against the configured dimension.
func (s *EmbeddingService) Probe(ctx context.Context) (int, error) {
	vectors, err := s.embedder.Embed(ctx, []string{probeText})
	if err != nil {
		return 0, fmt.Errorf("probe: %w", err)
	}
	if len(vectors) != 1 {
		return 0, fmt.Errorf("probe: got %d vectors for 1 text", len(vectors))
	}
	return len(vectors[0]), nil
}

// CheckDimension probes the model and fails with ErrDimensionMismatch when
// its output length differs from the configured dimension.
func (s *EmbeddingService) CheckDimension(ctx context.Context) error {
	actual, err := s.Probe(ctx)
	if err != nil {
		return err
	}
	if actual != s.dimension {
		return fmt.Errorf("%w: model produces %d, configured %d", ErrDimensionMismatch, actual, s.dimension)
	}
	return nil
}
