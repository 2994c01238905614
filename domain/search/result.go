package search

// Result is a ranked story returned to search callers. It is never persisted.
type Result struct {
	id             string
	score          float64
	title          string
	contentPreview string
	storyType      string
	createdAt      string
}

// NewResult creates a new Result.
func NewResult(id string, score float64, payload Payload) Result {
	return Result{
		id:             id,
		score:          score,
		title:          payload.Title(),
		contentPreview: payload.ContentPreview(),
		storyType:      payload.StoryType(),
		createdAt:      payload.CreatedAt(),
	}
}

// ResultFromPoint projects a raw hit onto a Result. Missing or non-string
// payload fields become empty strings.
func ResultFromPoint(p ScoredPoint) Result {
	payload := NewPayload(
		stringField(p.Payload, PayloadTitle),
		stringField(p.Payload, PayloadContentPreview),
		stringField(p.Payload, PayloadStoryType),
		stringField(p.Payload, PayloadCreatedAt),
	)
	return NewResult(p.ID, p.Score, payload)
}

// ID returns the story id.
func (r Result) ID() string { return r.id }

// Score returns the cosine similarity, in [-1, 1].
func (r Result) Score() float64 { return r.score }

// Title returns the story title.
func (r Result) Title() string { return r.title }

// ContentPreview returns the truncated story content.
func (r Result) ContentPreview() string { return r.contentPreview }

// StoryType returns the story type label.
func (r Result) StoryType() string { return r.storyType }

// CreatedAt returns the string-encoded creation time.
func (r Result) CreatedAt() string { return r.createdAt }

func stringField(fields map[string]any, key string) string {
	if fields == nil {
		return ""
	}
	s, _ := fields[key].(string)
	return s
}
