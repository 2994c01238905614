package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acurioustractor/palm-island-repository/domain/repository"
	"github.com/Acurioustractor/palm-island-repository/domain/story"
	"github.com/Acurioustractor/palm-island-repository/infrastructure/persistence"
	"github.com/Acurioustractor/palm-island-repository/internal/database"
	"github.com/Acurioustractor/palm-island-repository/internal/testdb"
)

func newStore(t *testing.T) (persistence.StoryStore, database.Database) {
	t.Helper()
	db := testdb.New(t)
	testdb.Seed(t, db,
		testdb.Row{ID: "a", Title: "Fishing", Content: "Out past the jetty.", StoryType: "elder", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		testdb.Row{ID: "b", Title: "School days", Content: "Learning language.", StoryType: "youth"},
		testdb.Row{ID: "c", Title: "", Content: "No title here.", StoryType: "elder"},
	)
	store, err := persistence.NewStoryStore(db, "stories")
	require.NoError(t, err)
	return store, db
}

func TestStoryStore_Find(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	stories, err := store.Find(ctx, repository.WithOrderAsc("id"))
	require.NoError(t, err)
	require.Len(t, stories, 3)

	assert.Equal(t, "a", stories[0].ID())
	assert.Equal(t, "Fishing", stories[0].Title())
	assert.Equal(t, "elder", stories[0].StoryType())
	assert.Equal(t, "2024-01-02T03:04:05Z", stories[0].CreatedAtString())
	assert.Equal(t, "", stories[1].CreatedAtString())
	assert.False(t, stories[2].Embeddable())

	limited, err := store.Find(ctx, repository.WithOrderAsc("id"), repository.WithLimit(2))
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	byID, err := store.Find(ctx, story.WithID(stories[0].ID()))
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Fishing", byID[0].Title())
}

func TestStoryStore_UpdateAndClearEmbedding(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	require.NoError(t, store.UpdateEmbedding(ctx, "a", []float32{0.1, 0.2, 0.3}))

	n, err := store.Count(ctx, story.WithEmbedded())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	embedded, err := store.Find(ctx, story.WithEmbedded())
	require.NoError(t, err)
	require.Len(t, embedded, 1)
	assert.Equal(t, "a", embedded[0].ID())

	require.NoError(t, store.ClearEmbedding(ctx, "a"))
	n, err = store.Count(ctx, story.WithEmbedded())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoryStore_UpdateEmbeddingUnknownID(t *testing.T) {
	store, _ := newStore(t)

	err := store.UpdateEmbedding(context.Background(), "missing", []float32{1})
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, err, story.ErrNotFound)

	err = store.ClearEmbedding(context.Background(), "missing")
	assert.ErrorIs(t, err, story.ErrNotFound)
}

func TestNewStoryStore_RejectsBadTableName(t *testing.T) {
	db := testdb.New(t)

	_, err := persistence.NewStoryStore(db, "stories; DROP TABLE stories")
	assert.Error(t, err)

	_, err = persistence.NewStoryStore(db, "public.stories")
	assert.NoError(t, err)
}

func TestEnsureStoriesTable_Idempotent(t *testing.T) {
	db := testdb.New(t)

	assert.NoError(t, persistence.EnsureStoriesTable(context.Background(), db, "stories"))
	assert.Error(t, persistence.EnsureStoriesTable(context.Background(), db, "bad name"))
}
