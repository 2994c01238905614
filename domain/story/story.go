// Package story models the stories held in the relational store.
package story

import (
	"time"
	"unicode/utf8"
)

// Preview limits.
const (
	PreviewLength = 200
	PreviewMarker = "..."
)

// Story is a record from the relational store. The embedding, when present,
// may lag behind the title and content until the next sync.
type Story struct {
	id        string
	title     string
	content   string
	storyType string
	createdAt time.Time
	embedding []float32
}

// NewStory creates a new Story.
func NewStory(id, title, content, storyType string, createdAt time.Time) Story {
	return Story{
		id:        id,
		title:     title,
		content:   content,
		storyType: storyType,
		createdAt: createdAt,
	}
}

// ID returns the story id.
func (s Story) ID() string { return s.id }

// Title returns the story title.
func (s Story) Title() string { return s.title }

// Content returns the story body.
func (s Story) Content() string { return s.content }

// StoryType returns the story type label.
func (s Story) StoryType() string { return s.storyType }

// CreatedAt returns the creation time. The zero time means unknown.
func (s Story) CreatedAt() time.Time { return s.createdAt }

// CreatedAtString returns the creation time as RFC 3339, or "" if unknown.
func (s Story) CreatedAtString() string {
	if s.createdAt.IsZero() {
		return ""
	}
	return s.createdAt.UTC().Format(time.RFC3339)
}

// Embedding returns a copy of the stored vector, or nil.
func (s Story) Embedding() []float32 {
	if s.embedding == nil {
		return nil
	}
	v := make([]float32, len(s.embedding))
	copy(v, s.embedding)
	return v
}

// WithEmbedding returns a copy of the story carrying vector.
func (s Story) WithEmbedding(vector []float32) Story {
	s.embedding = make([]float32, len(vector))
	copy(s.embedding, vector)
	return s
}

// Embeddable reports whether the story has both a title and content. Only
// empty strings count as missing; whitespace is embedded as written.
func (s Story) Embeddable() bool {
	return s.title != "" && s.content != ""
}

// Preview returns content cut to PreviewLength characters, with
// PreviewMarker appended when anything was cut.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + PreviewMarker
}
