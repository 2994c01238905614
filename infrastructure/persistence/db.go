// Package persistence is the relational store gateway: it reads stories and
// writes their embedding column through GORM.
package persistence

import (
	"context"
	"fmt"

	"github.com/Acurioustractor/palm-island-repository/internal/database"
)

// EnsureStoriesTable makes sure the stories table is usable. On SQLite,
// which is only used for local runs and tests, the table is created when
// missing. A Postgres table is owned by the wider platform and must exist.
func EnsureStoriesTable(ctx context.Context, db database.Database, table string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid stories table name %q", table)
	}

	if db.IsSQLite() {
		stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    title TEXT,
    content TEXT,
    story_type TEXT,
    created_at DATETIME,
    embedding TEXT
)`, table)
		if err := db.Session(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		return nil
	}

	if !db.Session(ctx).Migrator().HasTable(table) {
		return fmt.Errorf("stories table %s does not exist", table)
	}
	return nil
}
