// Package fakes provides in-memory stand-ins for the embedding model and
// the Qdrant story index, for tests outside the packages that define them.
package fakes

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/Acurioustractor/palm-island-repository/domain/search"
)

// Dimension is the vector length produced by Embedder.
const Dimension = 64

// Embedder hashes each lower-cased word into a bucket, so texts sharing
// words end up close under cosine similarity.
type Embedder struct {
	mu    sync.Mutex
	calls int
	Err   error
}

var _ search.Embedder = (*Embedder)(nil)

// Embed returns one bag-of-words vector per text.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.Err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, Dimension)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		for _, word := range words {
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			v[h.Sum32()%Dimension]++
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Calls returns how many times Embed was called.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type point struct {
	vector  []float32
	payload map[string]any
}

// VectorStore ranks points by cosine similarity in memory. It also
// implements search.CollectionAdmin.
type VectorStore struct {
	mu       sync.Mutex
	points   map[string]point
	ensured  int
	searches int
	Err      error
}

var (
	_ search.VectorStore     = (*VectorStore)(nil)
	_ search.CollectionAdmin = (*VectorStore)(nil)
)

// NewVectorStore creates an empty VectorStore.
func NewVectorStore() *VectorStore {
	return &VectorStore{points: map[string]point{}}
}

// EnsureCollection records the call.
func (s *VectorStore) EnsureCollection(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.ensured++
	return nil
}

// Upsert stores or replaces the point.
func (s *VectorStore) Upsert(_ context.Context, p search.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	payload := p.Payload().Fields()
	payload[search.PayloadStoryID] = p.ID()
	s.points[p.ID()] = point{vector: p.Vector(), payload: payload}
	return nil
}

// Search ranks every point against vector.
func (s *VectorStore) Search(_ context.Context, vector []float32, limit int) ([]search.ScoredPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	if s.Err != nil {
		return nil, s.Err
	}
	if limit < 1 {
		return []search.ScoredPoint{}, nil
	}
	hits := make([]search.ScoredPoint, 0, len(s.points))
	for id, p := range s.points {
		hits = append(hits, search.ScoredPoint{ID: id, Score: cosine(vector, p.vector), Payload: p.payload})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete removes the point. An absent id is not an error.
func (s *VectorStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.points, id)
	return nil
}

// Reset drops every point.
func (s *VectorStore) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.points = map[string]point{}
	return nil
}

// Count returns the number of points.
func (s *VectorStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.points)), nil
}

// Has reports whether a point exists for id.
func (s *VectorStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.points[id]
	return ok
}

// Ensured returns how many times EnsureCollection succeeded.
func (s *VectorStore) Ensured() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensured
}

// Searches returns how many times Search was called.
func (s *VectorStore) Searches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searches
}

// SetErr makes every following call fail with err.
func (s *VectorStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
