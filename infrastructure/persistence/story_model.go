package persistence

import (
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/Acurioustractor/palm-island-repository/domain/story"
)

// Story columns read by the store. The embedding column is only written.
var storyColumns = []string{"id", "title", "content", "story_type", "created_at"}

// StoryModel is a row of the stories table.
type StoryModel struct {
	ID        string           `gorm:"column:id;primaryKey"`
	Title     *string          `gorm:"column:title"`
	Content   *string          `gorm:"column:content"`
	StoryType *string          `gorm:"column:story_type"`
	CreatedAt *time.Time       `gorm:"column:created_at"`
	Embedding *pgvector.Vector `gorm:"column:embedding"`
}

// StoryMapper maps StoryModel rows onto domain stories.
type StoryMapper struct{}

// ToDomain converts a StoryModel to a story.Story.
func (StoryMapper) ToDomain(m StoryModel) story.Story {
	var createdAt time.Time
	if m.CreatedAt != nil {
		createdAt = *m.CreatedAt
	}
	s := story.NewStory(m.ID, deref(m.Title), deref(m.Content), deref(m.StoryType), createdAt)
	if m.Embedding != nil {
		s = s.WithEmbedding(m.Embedding.Slice())
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
