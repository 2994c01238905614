package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	palmisland "github.com/Acurioustractor/palm-island-repository"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/middleware"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/v1/dto"
)

// EmbeddingRouter exposes the embedding model directly.
type EmbeddingRouter struct {
	client *palmisland.Client
	logger *slog.Logger
}

// NewEmbeddingRouter creates a new EmbeddingRouter.
func NewEmbeddingRouter(client *palmisland.Client) *EmbeddingRouter {
	return &EmbeddingRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Register adds the embedding endpoints to router.
func (r *EmbeddingRouter) Register(router chi.Router) {
	router.Post("/embedding", r.Embed)
	router.Post("/story-embedding", r.EmbedStory)
	router.Post("/embeddings", r.EmbedBatch)
}

// Embed handles POST /api/embedding. An empty text is embedded as is.
func (r *EmbeddingRouter) Embed(w http.ResponseWriter, req *http.Request) {
	var body dto.EmbeddingRequest
	if err := decodeJSON(w, req, &body, false); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if body.Text == nil {
		middleware.WriteError(w, req, domainservice.NewValidationError("text", "is required"), r.logger)
		return
	}

	vector, err := r.client.Embedding.Embed(req.Context(), *body.Text)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.EmbeddingResponse{
		Embedding: vector,
		Dimension: len(vector),
	})
}

// EmbedStory handles POST /api/story-embedding.
func (r *EmbeddingRouter) EmbedStory(w http.ResponseWriter, req *http.Request) {
	var body dto.StoryEmbeddingRequest
	if err := decodeJSON(w, req, &body, false); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if body.Title == nil {
		middleware.WriteError(w, req, domainservice.NewValidationError("title", "is required"), r.logger)
		return
	}
	if body.Content == nil {
		middleware.WriteError(w, req, domainservice.NewValidationError("content", "is required"), r.logger)
		return
	}

	vector, err := r.client.Embedding.EmbedStory(req.Context(), *body.Title, *body.Content)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.EmbeddingResponse{
		Embedding: vector,
		Dimension: len(vector),
	})
}

// EmbedBatch handles POST /api/embeddings.
func (r *EmbeddingRouter) EmbedBatch(w http.ResponseWriter, req *http.Request) {
	var body dto.BatchEmbeddingRequest
	if err := decodeJSON(w, req, &body, false); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if len(body.Texts) == 0 {
		middleware.WriteError(w, req, domainservice.NewValidationError("texts", "must not be empty"), r.logger)
		return
	}

	vectors, err := r.client.Embedding.EmbedBatch(req.Context(), body.Texts)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.BatchEmbeddingResponse{
		Embeddings: vectors,
		Dimension:  r.client.Embedding.Dimension(),
	})
}
