// Package search holds the vector search domain: embedders, indexed points,
// and the vector store port.
package search

import "context"

// Embedder converts text into embedding vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
