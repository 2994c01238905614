package story

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 250)
	assert.Equal(t, strings.Repeat("a", 200)+"...", Preview(long))

	short := strings.Repeat("b", 150)
	assert.Equal(t, short, Preview(short))

	exact := strings.Repeat("c", 200)
	assert.Equal(t, exact, Preview(exact))

	assert.Equal(t, "", Preview(""))
}

func TestPreview_CountsCharactersNotBytes(t *testing.T) {
	content := strings.Repeat("é", 201)

	got := Preview(content)

	assert.Equal(t, strings.Repeat("é", 200)+PreviewMarker, got)
}

func TestStory_CreatedAtString(t *testing.T) {
	brisbane := time.FixedZone("AEST", 10*3600)
	s := NewStory("1", "t", "c", "elder", time.Date(2024, 3, 1, 9, 30, 0, 0, brisbane))
	assert.Equal(t, "2024-02-29T23:30:00Z", s.CreatedAtString())

	unknown := NewStory("2", "t", "c", "", time.Time{})
	assert.Equal(t, "", unknown.CreatedAtString())
}

func TestStory_Embeddable(t *testing.T) {
	assert.True(t, NewStory("1", "Title", "Body", "", time.Time{}).Embeddable())
	assert.False(t, NewStory("2", "", "Body", "", time.Time{}).Embeddable())
	assert.False(t, NewStory("3", "Title", "", "", time.Time{}).Embeddable())
	assert.True(t, NewStory("4", "Title", "   ", "", time.Time{}).Embeddable(), "whitespace is not empty")
	assert.True(t, NewStory("5", " ", "Body", "", time.Time{}).Embeddable())
}

func TestStory_WithEmbeddingCopies(t *testing.T) {
	v := []float32{0.1, 0.2}
	s := NewStory("1", "t", "c", "", time.Time{})
	assert.Nil(t, s.Embedding())

	withVec := s.WithEmbedding(v)
	v[0] = 9

	assert.Equal(t, []float32{0.1, 0.2}, withVec.Embedding())
	assert.Nil(t, s.Embedding(), "original is unchanged")
}

func TestStats(t *testing.T) {
	s := NewStats(3, 1)
	assert.Equal(t, int64(3), s.Total())
	assert.Equal(t, int64(1), s.Embedded())
	assert.Equal(t, int64(2), s.Remaining())
	assert.Equal(t, 33.3, s.PercentageComplete())

	assert.Equal(t, 0.0, NewStats(0, 0).PercentageComplete())
	assert.Equal(t, int64(0), NewStats(0, 0).Remaining())
	assert.Equal(t, 100.0, NewStats(4, 4).PercentageComplete())
}
