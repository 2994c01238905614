// Package v1 holds the HTTP handlers of the story API.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	palmisland "github.com/Acurioustractor/palm-island-repository"
	"github.com/Acurioustractor/palm-island-repository/domain/search"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/middleware"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/v1/dto"
)

// SearchRouter handles story search endpoints.
type SearchRouter struct {
	client *palmisland.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *palmisland.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)

	return router
}

// Search handles POST /api/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	var body dto.SearchRequest
	if err := decodeJSON(w, req, &body, false); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if body.Query == nil {
		middleware.WriteError(w, req, domainservice.NewValidationError("query", "is required"), r.logger)
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

	results, err := r.client.Search.Search(req.Context(), *body.Query, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, searchResults(results))
}

func searchResults(results []search.Result) []dto.SearchResult {
	out := make([]dto.SearchResult, len(results))
	for i, res := range results {
		out[i] = dto.SearchResult{
			ID:             res.ID(),
			Score:          res.Score(),
			Title:          res.Title(),
			ContentPreview: res.ContentPreview(),
			StoryType:      res.StoryType(),
			CreatedAt:      res.CreatedAt(),
		}
	}
	return out
}
