package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
)

// embeddingServer mimics the /embeddings endpoint. The first failCount
// requests return an empty data array; later ones return 3-dimensional
// vectors whose first component is the input index.
func embeddingServer(t *testing.T, counter *atomic.Int64, failCount int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := counter.Add(1)

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		data := []map[string]any{}
		if n > failCount {
			for i := range body.Input {
				data = append(data, map[string]any{
					"object":    "embedding",
					"index":     i,
					"embedding": []float64{float64(i), 0.2, 0.3},
				})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]int{"prompt_tokens": len(body.Input), "total_tokens": len(body.Input)},
		})
	}))
}

func testEndpoint(url string, retries int) config.Endpoint {
	return config.NewEndpointWithOptions(
		config.WithBaseURL(url),
		config.WithModel("test-model"),
		config.WithAPIKey("test-key"),
		config.WithMaxRetries(retries),
		config.WithInitialDelay(time.Millisecond),
	)
}

func TestOpenAIProvider_EmbedEmpty(t *testing.T) {
	var counter atomic.Int64
	srv := embeddingServer(t, &counter, 0)
	defer srv.Close()

	p := NewOpenAIProvider(testEndpoint(srv.URL, 0))

	vectors, err := p.Embed(context.Background(), []string{})
	require.NoError(t, err)
	require.Empty(t, vectors)
	require.Equal(t, int64(0), counter.Load(), "no HTTP request for empty input")
}

func TestOpenAIProvider_EmbedSingle(t *testing.T) {
	var counter atomic.Int64
	srv := embeddingServer(t, &counter, 0)
	defer srv.Close()

	p := NewOpenAIProvider(testEndpoint(srv.URL, 0))

	vectors, err := p.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Len(t, vectors[0], 3)
	require.InDelta(t, 0.2, vectors[0][1], 1e-6)
	require.Equal(t, int64(1), counter.Load())
}

func TestOpenAIProvider_EmbedSplitsIntoBatches(t *testing.T) {
	var counter atomic.Int64
	srv := embeddingServer(t, &counter, 0)
	defer srv.Close()

	p := NewOpenAIProvider(testEndpoint(srv.URL, 0), WithBatchSize(4))

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "text"
	}

	vectors, err := p.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 10)
	require.Equal(t, int64(3), counter.Load(), "10 texts in batches of 4 is three requests")
	require.InDelta(t, 1.0, vectors[5][0], 1e-6, "index is relative to its batch")
}

func TestOpenAIProvider_EmbedCancelledContext(t *testing.T) {
	var counter atomic.Int64
	srv := embeddingServer(t, &counter, 0)
	defer srv.Close()

	p := NewOpenAIProvider(testEndpoint(srv.URL, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Embed(ctx, []string{"text"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int64(0), counter.Load())
}

func TestOpenAIProvider_EmptyResponseRetries(t *testing.T) {
	var counter atomic.Int64
	srv := embeddingServer(t, &counter, 2)
	defer srv.Close()

	p := NewOpenAIProvider(testEndpoint(srv.URL, 3))

	vectors, err := p.Embed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Equal(t, int64(3), counter.Load(), "retried twice then succeeded")
}

func TestOpenAIProvider_EmptyResponseIsUpstreamFailure(t *testing.T) {
	var counter atomic.Int64
	srv := embeddingServer(t, &counter, 999)
	defer srv.Close()

	p := NewOpenAIProvider(testEndpoint(srv.URL, 1))

	_, err := p.Embed(context.Background(), []string{"hello"})
	require.ErrorIs(t, err, errEmbeddingCountMismatch)
	require.ErrorIs(t, err, service.ErrUpstreamUnavailable)
	require.Equal(t, int64(2), counter.Load())
}

func TestOpenAIProvider_ClientErrorNotRetried(t *testing.T) {
	var counter atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		counter.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(testEndpoint(srv.URL, 3))

	_, err := p.Embed(context.Background(), []string{"hello"})
	require.ErrorIs(t, err, service.ErrUpstreamUnavailable)
	require.Equal(t, int64(1), counter.Load())
}
