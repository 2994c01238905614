package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/internal/log"
)

func newSearchFixture(t *testing.T) (*Search, *wordEmbedder, *memoryVectorStore) {
	t.Helper()
	embedder := &wordEmbedder{}
	embedding, err := domainservice.NewEmbedding(embedder, testDimension)
	require.NoError(t, err)

	vectors := newMemoryVectorStore()
	stories := newMemoryStoryStore(sampleStories()...)
	syncer := NewSync(stories, embedding, vectors, log.Discard())
	_, err = syncer.Run(context.Background(), 0)
	require.NoError(t, err)

	return NewSearch(embedding, vectors, log.Discard()), embedder, vectors
}

func TestSearch_RanksMatchingStoryFirst(t *testing.T) {
	svc, _, _ := newSearchFixture(t)

	results, err := svc.Search(context.Background(), "fishing with grandfather", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "1", top.ID())
	assert.Equal(t, "Fishing with Grandfather", top.Title())
	assert.Equal(t, "elder", top.StoryType())
	assert.Equal(t, "2023-06-01T00:00:00Z", top.CreatedAt())
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score(), results[i].Score())
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	svc, _, _ := newSearchFixture(t)

	results, err := svc.Search(context.Background(), "community", 0)
	require.NoError(t, err)
	assert.Len(t, results, 4, "all four stories fit under the default limit")

	one, err := svc.Search(context.Background(), "community", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestSearch_BlankQueryReachesNothing(t *testing.T) {
	svc, embedder, vectors := newSearchFixture(t)
	callsBefore := embedder.callCount()

	_, err := svc.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, domainservice.ErrValidation)
	assert.Equal(t, callsBefore, embedder.callCount())
	assert.Zero(t, vectors.searches)
}

func TestSearch_UpstreamFailure(t *testing.T) {
	svc, _, vectors := newSearchFixture(t)
	vectors.err = domainservice.NewUpstreamError("qdrant", "search", errors.New("connection refused"))

	_, err := svc.Search(context.Background(), "reef", 5)
	assert.ErrorIs(t, err, domainservice.ErrUpstreamUnavailable)
}

func TestSearch_ModelUnavailable(t *testing.T) {
	svc, embedder, _ := newSearchFixture(t)
	embedder.err = domainservice.ErrModelUnavailable

	_, err := svc.Search(context.Background(), "reef", 5)
	assert.ErrorIs(t, err, domainservice.ErrModelUnavailable)
}

func TestSearch_MissingPayloadFieldsAreEmpty(t *testing.T) {
	embedding, err := domainservice.NewEmbedding(&wordEmbedder{}, testDimension)
	require.NoError(t, err)
	vectors := newMemoryVectorStore()
	vectors.points["99"] = indexedPoint{vector: make([]float32, testDimension), payload: map[string]any{"title": 42}}

	results, err := NewSearch(embedding, vectors, log.Discard()).Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "99", results[0].ID())
	assert.Equal(t, "", results[0].Title())
	assert.Equal(t, "", results[0].ContentPreview())
}

func TestSearch_SimilarNotImplemented(t *testing.T) {
	svc, _, _ := newSearchFixture(t)

	_, err := svc.Similar(context.Background(), "1", 5)
	assert.ErrorIs(t, err, domainservice.ErrNotImplemented)
}
