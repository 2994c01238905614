// Package testdb provides a shared test database helper backed by an
// in-memory SQLite database.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/Acurioustractor/palm-island-repository/infrastructure/persistence"
	"github.com/Acurioustractor/palm-island-repository/internal/config"
	"github.com/Acurioustractor/palm-island-repository/internal/database"
)

// New creates an in-memory SQLite database holding an empty stories table.
// The database is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	if err := persistence.EnsureStoriesTable(ctx, db, config.DefaultStoriesTable); err != nil {
		_ = db.Close()
		t.Fatalf("testdb.New: create stories table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Row is a story row to seed.
type Row struct {
	ID        string
	Title     string
	Content   string
	StoryType string
	CreatedAt time.Time
}

// Seed inserts rows into the stories table.
func Seed(t *testing.T, db database.Database, rows ...Row) {
	t.Helper()
	ctx := context.Background()
	for _, r := range rows {
		var createdAt any
		if !r.CreatedAt.IsZero() {
			createdAt = r.CreatedAt
		}
		err := db.Session(ctx).Exec(
			"INSERT INTO stories (id, title, content, story_type, created_at) VALUES (?, ?, ?, ?, ?)",
			r.ID, r.Title, r.Content, r.StoryType, createdAt,
		).Error
		if err != nil {
			t.Fatalf("testdb.Seed: %v", err)
		}
	}
}
