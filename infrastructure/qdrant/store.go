// Package qdrant is the vector store gateway. It talks to Qdrant over its
// REST API and keeps one point per story in a fixed collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/Acurioustractor/palm-island-repository/domain/search"
	"github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
)

const serviceName = "qdrant"

// idNamespace derives stable point ids for story ids Qdrant cannot use as-is.
var idNamespace = uuid.MustParse("6f1c2a58-4d1e-4b5a-9a57-0b7d1f1e2c3d")

// errNotFound marks a 404 from Qdrant.
var errNotFound = errors.New("not found")

// Store is a search.VectorStore backed by a Qdrant collection.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	dimension  int
	distance   string
	client     *http.Client
	logger     *slog.Logger
}

var (
	_ search.VectorStore     = (*Store)(nil)
	_ search.CollectionAdmin = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(s *Store) { s.collection = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store for vectors of the given dimension. No request is
// made until the first call.
func NewStore(cfg config.QdrantConfig, dimension int, opts ...Option) *Store {
	s := &Store{
		baseURL:    cfg.URL(),
		apiKey:     cfg.APIKey(),
		collection: config.CollectionName,
		dimension:  dimension,
		distance:   config.Distance,
		client:     &http.Client{Timeout: cfg.Timeout()},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collection returns the collection name.
func (s *Store) Collection() string {
	return s.collection
}

// EnsureCollection creates the collection when it is absent. The dimension
// of an existing collection is not checked.
func (s *Store) EnsureCollection(ctx context.Context) error {
	var rsp envelope[collectionsResult]
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &rsp); err != nil {
		return service.NewUpstreamError(serviceName, "list collections", err)
	}
	for _, c := range rsp.Result.Collections {
		if c.Name == s.collection {
			return nil
		}
	}

	if err := s.create(ctx); err != nil {
		return service.NewUpstreamError(serviceName, "create collection", err)
	}
	s.logger.Info("created vector collection",
		slog.String("collection", s.collection),
		slog.Int("dimension", s.dimension),
		slog.String("distance", s.distance),
	)
	return nil
}

func (s *Store) create(ctx context.Context) error {
	req := createCollectionRequest{Vectors: vectorParams{Size: s.dimension, Distance: s.distance}}
	var rsp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, s.collectionPath(""), req, &rsp); err != nil {
		return err
	}
	if !rsp.Status.ok() {
		return errors.New(rsp.Status.Error)
	}
	return nil
}

// Upsert inserts or replaces the point for the story. The story id is also
// kept in the payload so hits map back to it regardless of the point id.
func (s *Store) Upsert(ctx context.Context, point search.Point) error {
	vector := point.Vector()
	if len(vector) != s.dimension {
		return fmt.Errorf("upsert %s: %w: got %d, configured %d", point.ID(), service.ErrDimensionMismatch, len(vector), s.dimension)
	}

	payload := point.Payload().Fields()
	payload[search.PayloadStoryID] = point.ID()

	req := upsertRequest{Points: []upsertPoint{{
		ID:      PointID(point.ID()),
		Vector:  vector,
		Payload: payload,
	}}}

	var rsp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), req, &rsp); err != nil {
		return service.NewUpstreamError(serviceName, "upsert", err)
	}
	if !rsp.Status.ok() {
		return service.NewUpstreamError(serviceName, "upsert", errors.New(rsp.Status.Error))
	}
	return nil
}

// Search returns at most limit hits ordered by descending cosine similarity.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]search.ScoredPoint, error) {
	if limit < 1 {
		return []search.ScoredPoint{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("search: %w: got %d, configured %d", service.ErrDimensionMismatch, len(vector), s.dimension)
	}

	req := searchRequest{Vector: vector, Limit: limit, WithPayload: true}
	var rsp envelope[[]scoredPoint]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &rsp); err != nil {
		return nil, service.NewUpstreamError(serviceName, "search", err)
	}

	hits := make([]search.ScoredPoint, 0, len(rsp.Result))
	for _, p := range rsp.Result {
		id := string(p.ID)
		if storyID, ok := p.Payload[search.PayloadStoryID].(string); ok && storyID != "" {
			id = storyID
		}
		hits = append(hits, search.ScoredPoint{ID: id, Score: p.Score, Payload: p.Payload})
	}
	return hits, nil
}

// Delete removes the point for the story. Deleting an absent id succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	req := deleteRequest{Points: []any{PointID(id)}}
	var rsp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, &rsp); err != nil {
		return service.NewUpstreamError(serviceName, "delete", err)
	}
	return nil
}

// Reset drops the collection, when present, and creates it again empty.
func (s *Store) Reset(ctx context.Context) error {
	err := s.do(ctx, http.MethodDelete, s.collectionPath(""), nil, nil)
	if err != nil && !errors.Is(err, errNotFound) {
		return service.NewUpstreamError(serviceName, "drop collection", err)
	}
	if err := s.create(ctx); err != nil {
		return service.NewUpstreamError(serviceName, "create collection", err)
	}
	s.logger.Warn("vector collection reset", slog.String("collection", s.collection))
	return nil
}

// Count returns the number of points in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var rsp envelope[collectionInfo]
	if err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, &rsp); err != nil {
		return 0, service.NewUpstreamError(serviceName, "collection info", err)
	}
	if rsp.Result.PointsCount == nil {
		return 0, nil
	}
	return *rsp.Result.PointsCount, nil
}

// PointID maps a story id onto a valid Qdrant point id. Canonical UUIDs
// and unsigned integers are used directly; anything else, including "007"
// or an upper-case UUID, becomes a name-based UUID so distinct ids never
// share a point.
func PointID(storyID string) any {
	if u, err := uuid.Parse(storyID); err == nil && u.String() == storyID {
		return storyID
	}
	if n, err := strconv.ParseUint(storyID, 10, 64); err == nil && strconv.FormatUint(n, 10) == storyID {
		return n
	}
	return uuid.NewSHA1(idNamespace, []byte(storyID)).String()
}

func (s *Store) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(s.collection) + suffix
}

func (s *Store) do(ctx context.Context, method, path string, req, rsp any) error {
	var body io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		request.Header.Set("api-key", s.apiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant http %d: %w: %s", response.StatusCode, errNotFound, string(payload))
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}
