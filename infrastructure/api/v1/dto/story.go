// Package dto defines the JSON request and response bodies of the story API.
package dto

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query *string `json:"query"`
	Limit *int    `json:"limit,omitempty"`
}

// SearchResult is one ranked story.
type SearchResult struct {
	ID             string  `json:"id"`
	Score          float64 `json:"score"`
	Title          string  `json:"title"`
	ContentPreview string  `json:"content_preview"`
	StoryType      string  `json:"story_type"`
	CreatedAt      string  `json:"created_at"`
}

// EmbeddingRequest is the body of POST /api/embedding.
type EmbeddingRequest struct {
	Text *string `json:"text"`
}

// StoryEmbeddingRequest is the body of POST /api/story-embedding.
type StoryEmbeddingRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// EmbeddingResponse carries one vector.
type EmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

// BatchEmbeddingRequest is the body of POST /api/embeddings.
type BatchEmbeddingRequest struct {
	Texts []string `json:"texts"`
}

// BatchEmbeddingResponse carries one vector per input text.
type BatchEmbeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimension  int         `json:"dimension"`
}

// SyncRequest is the optional body of POST /api/embedding/batch.
type SyncRequest struct {
	Limit *int `json:"limit,omitempty"`
}

// SyncFailure is a story the sync could not index.
type SyncFailure struct {
	StoryID string `json:"story_id"`
	Error   string `json:"error"`
}

// SyncResponse is the tally of a sync run.
type SyncResponse struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []SyncFailure `json:"failures"`
}

// StatsResponse is the body of GET /api/embedding-stats.
type StatsResponse struct {
	TotalStories       int64   `json:"total_stories"`
	EmbeddedStories    int64   `json:"embedded_stories"`
	Remaining          int64   `json:"remaining"`
	PercentageComplete float64 `json:"percentage_complete"`
}
