package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeEmbedder struct {
	mu        sync.Mutex
	dimension int
	err       error
	short     bool // return one vector fewer than requested
	calls     [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, texts)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = hashVector(texts[i], f.dimension)
	}
	return vectors, nil
}

func hashVector(text string, dimension int) []float32 {
	v := make([]float32, dimension)
	for i := range v {
		h := fnv.New32a()
		_, _ = fmt.Fprintf(h, "%d:%s", i, text)
		v[i] = float32(h.Sum32()%1000) / 1000
	}
	return v
}

// --- tests ---

func TestNewEmbedding_Validation(t *testing.T) {
	_, err := NewEmbedding(nil, 384)
	assert.Error(t, err)

	_, err = NewEmbedding(&fakeEmbedder{dimension: 4}, 0)
	assert.Error(t, err)

	svc, err := NewEmbedding(&fakeEmbedder{dimension: 4}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, svc.Dimension())
}

func TestEmbeddingService_Embed_DimensionAndDeterminism(t *testing.T) {
	svc, err := NewEmbedding(&fakeEmbedder{dimension: 384}, 384)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "the reef at dawn")
	require.NoError(t, err)
	second, err := svc.Embed(ctx, "the reef at dawn")
	require.NoError(t, err)

	assert.Len(t, first, 384)
	assert.Equal(t, first, second)
}

func TestEmbeddingService_EmbedStory_MatchesCombinedText(t *testing.T) {
	svc, err := NewEmbedding(&fakeEmbedder{dimension: 8}, 8)
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct{ title, content string }{
		{"Fishing with Grandfather", "We went out past the jetty at first light."},
		{"", "content only"},
		{"title only", ""},
		{"", ""},
	}
	for _, c := range cases {
		story, err := svc.EmbedStory(ctx, c.title, c.content)
		require.NoError(t, err)
		direct, err := svc.Embed(ctx, fmt.Sprintf("%s. %s. %s. %s", c.title, c.title, c.title, c.content))
		require.NoError(t, err)
		assert.Equal(t, direct, story, "title=%q content=%q", c.title, c.content)
	}
}

func TestStoryText(t *testing.T) {
	assert.Equal(t, "A. A. A. body", StoryText("A", "body"))
	assert.Equal(t, ". . . ", StoryText("", ""))
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	fake := &fakeEmbedder{dimension: 3}
	svc, err := NewEmbedding(fake, 3)
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := svc.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Empty(t, fake.calls, "empty batch must not reach the model")

	vectors, err := svc.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, hashVector("a", 3), vectors[0])
	assert.Equal(t, hashVector("b", 3), vectors[1])
}

func TestEmbeddingService_DimensionMismatch(t *testing.T) {
	svc, err := NewEmbedding(&fakeEmbedder{dimension: 768}, 384)
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmbeddingService_CountMismatch(t *testing.T) {
	svc, err := NewEmbedding(&fakeEmbedder{dimension: 3, short: true}, 3)
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbeddingService_ModelUnavailablePropagates(t *testing.T) {
	cause := fmt.Errorf("load model: %w", ErrModelUnavailable)
	svc, err := NewEmbedding(&fakeEmbedder{err: cause}, 3)
	require.NoError(t, err)

	_, err = svc.EmbedStory(context.Background(), "t", "c")
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestEmbeddingService_CheckDimension(t *testing.T) {
	ctx := context.Background()

	ok, err := NewEmbedding(&fakeEmbedder{dimension: 384}, 384)
	require.NoError(t, err)
	assert.NoError(t, ok.CheckDimension(ctx))

	wrong, err := NewEmbedding(&fakeEmbedder{dimension: 768}, 384)
	require.NoError(t, err)
	actual, err := wrong.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 768, actual)
	assert.ErrorIs(t, wrong.CheckDimension(ctx), ErrDimensionMismatch)
}

func TestErrorKinds(t *testing.T) {
	up := NewUpstreamError("qdrant", "search", errors.New("connection refused"))
	assert.ErrorIs(t, up, ErrUpstreamUnavailable)
	assert.Equal(t, "qdrant search: connection refused", up.Error())

	var target *UpstreamError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", up), &target))
	assert.Equal(t, "qdrant", target.Service)

	v := NewValidationError("query", "is required")
	assert.ErrorIs(t, v, ErrValidation)
	assert.Equal(t, "query: is required", v.Error())
}
