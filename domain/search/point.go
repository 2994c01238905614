package search

// Payload keys stored alongside every vector.
const (
	PayloadStoryID        = "story_id"
	PayloadTitle          = "title"
	PayloadContentPreview = "content_preview"
	PayloadStoryType      = "story_type"
	PayloadCreatedAt      = "created_at"
)

// Payload is the denormalised story metadata attached to an indexed point.
type Payload struct {
	title          string
	contentPreview string
	storyType      string
	createdAt      string
}

// NewPayload creates a new Payload.
func NewPayload(title, contentPreview, storyType, createdAt string) Payload {
	return Payload{
		title:          title,
		contentPreview: contentPreview,
		storyType:      storyType,
		createdAt:      createdAt,
	}
}

// Title returns the story title.
func (p Payload) Title() string { return p.title }

// ContentPreview returns the truncated story content.
func (p Payload) ContentPreview() string { return p.contentPreview }

// StoryType returns the story type label.
func (p Payload) StoryType() string { return p.storyType }

// CreatedAt returns the string-encoded creation time.
func (p Payload) CreatedAt() string { return p.createdAt }

// Fields returns the payload as the key/value map sent to the vector store.
func (p Payload) Fields() map[string]any {
	return map[string]any{
		PayloadTitle:          p.title,
		PayloadContentPreview: p.contentPreview,
		PayloadStoryType:      p.storyType,
		PayloadCreatedAt:      p.createdAt,
	}
}

// Point is a vector keyed by story id, ready to be upserted.
type Point struct {
	id      string
	vector  []float32
	payload Payload
}

// NewPoint creates a new Point. The vector is copied.
func NewPoint(id string, vector []float32, payload Payload) Point {
	v := make([]float32, len(vector))
	copy(v, vector)
	return Point{id: id, vector: v, payload: payload}
}

// ID returns the story id.
func (p Point) ID() string { return p.id }

// Vector returns a copy of the embedding vector.
func (p Point) Vector() []float32 {
	v := make([]float32, len(p.vector))
	copy(v, p.vector)
	return v
}

// Payload returns the point metadata.
func (p Point) Payload() Payload { return p.payload }

// ScoredPoint is a raw search hit as returned by a vector store. Payload
// fields may be missing or of unexpected types.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}
