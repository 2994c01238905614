package service

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Acurioustractor/palm-island-repository/domain/repository"
	"github.com/Acurioustractor/palm-island-repository/domain/search"
	"github.com/Acurioustractor/palm-island-repository/domain/story"
)

const testDimension = 64

// wordEmbedder hashes each lower-cased word into a bucket, so texts sharing
// words end up close under cosine similarity.
type wordEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (w *wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	if w.err != nil {
		return nil, w.err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, testDimension)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		for _, word := range words {
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			v[h.Sum32()%testDimension]++
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (w *wordEmbedder) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type indexedPoint struct {
	vector  []float32
	payload map[string]any
}

// memoryVectorStore ranks points by cosine similarity in memory.
type memoryVectorStore struct {
	mu        sync.Mutex
	points    map[string]indexedPoint
	searches  int
	failUpsrt map[string]bool
	err       error
}

func newMemoryVectorStore() *memoryVectorStore {
	return &memoryVectorStore{points: map[string]indexedPoint{}, failUpsrt: map[string]bool{}}
}

func (m *memoryVectorStore) EnsureCollection(context.Context) error { return m.err }

func (m *memoryVectorStore) Upsert(_ context.Context, p search.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.failUpsrt[p.ID()] {
		return errors.New("upsert rejected")
	}
	payload := p.Payload().Fields()
	payload[search.PayloadStoryID] = p.ID()
	m.points[p.ID()] = indexedPoint{vector: p.Vector(), payload: payload}
	return nil
}

func (m *memoryVectorStore) Search(_ context.Context, vector []float32, limit int) ([]search.ScoredPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if m.err != nil {
		return nil, m.err
	}
	hits := make([]search.ScoredPoint, 0, len(m.points))
	for id, p := range m.points {
		hits = append(hits, search.ScoredPoint{ID: id, Score: cosine(vector, p.vector), Payload: p.payload})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memoryVectorStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.points, id)
	return nil
}

func (m *memoryVectorStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.points[id]
	return ok
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

// memoryStoryStore holds stories in insertion order and ignores options
// other than the limit and the embedded filter.
type memoryStoryStore struct {
	mu         sync.Mutex
	stories    []story.Story
	embeddings map[string][]float32
	findErr    error
}

func newMemoryStoryStore(stories ...story.Story) *memoryStoryStore {
	return &memoryStoryStore{stories: stories, embeddings: map[string][]float32{}}
}

func (m *memoryStoryStore) Find(_ context.Context, options ...repository.Option) ([]story.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	limit := repository.Build(options...).LimitValue()
	out := make([]story.Story, 0, len(m.stories))
	for _, s := range m.stories {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStoryStore) Count(_ context.Context, options ...repository.Option) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return 0, m.findErr
	}
	if len(repository.Build(options...).Conditions()) > 0 {
		return int64(len(m.embeddings)), nil
	}
	return int64(len(m.stories)), nil
}

func (m *memoryStoryStore) UpdateEmbedding(_ context.Context, id string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stories {
		if s.ID() == id {
			m.embeddings[id] = vector
			return nil
		}
	}
	return story.ErrNotFound
}

func (m *memoryStoryStore) ClearEmbedding(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.embeddings[id]; !ok {
		return story.ErrNotFound
	}
	delete(m.embeddings, id)
	return nil
}

func (m *memoryStoryStore) embedded(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.embeddings[id]
	return ok
}

func sampleStories() []story.Story {
	created := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return []story.Story{
		story.NewStory("1", "Fishing with Grandfather", "We took the dinghy out past the jetty at dawn and he showed me where the coral trout sit.", "elder", created),
		story.NewStory("2", "First Day at School", "The classroom smelled of new books and the aunty taught us words in language.", "youth", created),
		story.NewStory("3", "Football Grand Final", "The whole community came down to the oval to watch the final under lights.", "community", created),
		story.NewStory("4", "Healing Garden", "Aunty planted bush medicine along the fence line near the clinic.", "health", time.Time{}),
	}
}
