package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	palmisland "github.com/Acurioustractor/palm-island-repository"
	"github.com/Acurioustractor/palm-island-repository/application/service"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/middleware"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/v1/dto"
)

// StoriesRouter handles story index maintenance endpoints.
type StoriesRouter struct {
	client *palmisland.Client
	logger *slog.Logger
}

// NewStoriesRouter creates a new StoriesRouter.
func NewStoriesRouter(client *palmisland.Client) *StoriesRouter {
	return &StoriesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Register adds the read-only story endpoints to router.
func (r *StoriesRouter) Register(router chi.Router) {
	router.Get("/embedding-stats", r.Stats)
	router.Get("/stories/{id}/similar", r.Similar)
}

// RegisterProtected adds the endpoints that change the index to router.
func (r *StoriesRouter) RegisterProtected(router chi.Router) {
	router.Post("/embedding/batch", r.Sync)
	router.Delete("/stories/{id}/embedding", r.DeleteEmbedding)
}

// Stats handles GET /api/embedding-stats.
func (r *StoriesRouter) Stats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.client.Stats.Get(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.StatsResponse{
		TotalStories:       stats.Total(),
		EmbeddedStories:    stats.Embedded(),
		Remaining:          stats.Remaining(),
		PercentageComplete: stats.PercentageComplete(),
	})
}

// Sync handles POST /api/embedding/batch. The sync runs to completion
// before the response is written.
func (r *StoriesRouter) Sync(w http.ResponseWriter, req *http.Request) {
	var body dto.SyncRequest
	if err := decodeJSON(w, req, &body, true); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	limit := 0
	if body.Limit != nil {
		if *body.Limit < 0 {
			middleware.WriteError(w, req, domainservice.NewValidationError("limit", "must not be negative"), r.logger)
			return
		}
		limit = *body.Limit
	}

	tally, err := r.client.Sync.Run(req.Context(), limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	failures := make([]dto.SyncFailure, len(tally.Failures))
	for i, f := range tally.Failures {
		failures[i] = dto.SyncFailure{StoryID: f.StoryID, Error: failureMessage(f.Err)}
	}

	middleware.WriteJSON(w, http.StatusOK, dto.SyncResponse{
		Total:     tally.Total,
		Succeeded: tally.Succeeded,
		Failed:    tally.Failed,
		Failures:  failures,
	})
}

func failureMessage(err error) string {
	if errors.Is(err, service.ErrEmptyStory) {
		return "story has no title or content"
	}
	return middleware.Detail(err)
}

// DeleteEmbedding handles DELETE /api/stories/{id}/embedding.
func (r *StoriesRouter) DeleteEmbedding(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	if err := r.client.Sync.Remove(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Similar handles GET /api/stories/{id}/similar.
func (r *StoriesRouter) Similar(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.WriteError(w, req, domainservice.NewValidationError("limit", "must be an integer"), r.logger)
			return
		}
		limit = n
	}

	results, err := r.client.Search.Similar(req.Context(), id, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, searchResults(results))
}
