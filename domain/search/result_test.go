package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultFromPoint_MissingFieldsBecomeEmpty(t *testing.T) {
	r := ResultFromPoint(ScoredPoint{
		ID:    "s1",
		Score: 0.87,
		Payload: map[string]any{
			PayloadTitle:     "Fishing with Grandfather",
			PayloadStoryType: 42, // wrong type
		},
	})

	assert.Equal(t, "s1", r.ID())
	assert.InDelta(t, 0.87, r.Score(), 1e-9)
	assert.Equal(t, "Fishing with Grandfather", r.Title())
	assert.Equal(t, "", r.ContentPreview())
	assert.Equal(t, "", r.StoryType())
	assert.Equal(t, "", r.CreatedAt())
}

func TestResultFromPoint_NilPayload(t *testing.T) {
	r := ResultFromPoint(ScoredPoint{ID: "s2"})

	assert.Equal(t, "s2", r.ID())
	assert.Equal(t, "", r.Title())
}

func TestPayload_Fields(t *testing.T) {
	p := NewPayload("t", "preview", "elder", "2024-01-02T03:04:05Z")

	assert.Equal(t, map[string]any{
		"title":           "t",
		"content_preview": "preview",
		"story_type":      "elder",
		"created_at":      "2024-01-02T03:04:05Z",
	}, p.Fields())
}

func TestPoint_CopiesVector(t *testing.T) {
	v := []float32{1, 2, 3}
	p := NewPoint("s1", v, Payload{})
	v[0] = 99

	got := p.Vector()
	assert.Equal(t, []float32{1, 2, 3}, got)

	got[1] = 99
	assert.Equal(t, []float32{1, 2, 3}, p.Vector())
}
