package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Acurioustractor/palm-island-repository/domain/repository"
	"gorm.io/gorm"
)

// ErrNotFound indicates the requested entity was not found.
var ErrNotFound = errors.New("entity not found")

// EntityMapper maps database entities onto domain values.
type EntityMapper[D any, E any] interface {
	ToDomain(entity E) D
}

// Repository provides generic read and column-update operations for one
// entity type using repository.Option-based queries.
type Repository[D any, E any] struct {
	db        Database
	mapper    EntityMapper[D, E]
	label     string
	tableName string
	columns   []string
}

// NewRepositoryForTable creates a Repository that targets a specific table name.
// GORM caches schemas by type, so the table is applied with .Table() on
// every operation rather than through a TableName method.
func NewRepositoryForTable[D any, E any](db Database, mapper EntityMapper[D, E], label string, tableName string) Repository[D, E] {
	return Repository[D, E]{db: db, mapper: mapper, label: label, tableName: tableName}
}

// WithColumns returns a copy of the repository that only selects columns on reads.
func (r Repository[D, E]) WithColumns(columns ...string) Repository[D, E] {
	r.columns = append([]string(nil), columns...)
	return r
}

// modelDB returns a session scoped to the entity model and optional table.
// The trailing Session call gives callers a fresh chainable session.
func (r Repository[D, E]) modelDB(ctx context.Context) *gorm.DB {
	db := r.db.Session(ctx).Model(new(E))
	if r.tableName != "" {
		db = db.Table(r.tableName).Session(&gorm.Session{})
	}
	return db
}

func (r Repository[D, E]) readDB(ctx context.Context) *gorm.DB {
	db := r.modelDB(ctx)
	if len(r.columns) > 0 {
		db = db.Select(r.columns)
	}
	return db
}

// Find retrieves entities matching the given options.
func (r Repository[D, E]) Find(ctx context.Context, options ...repository.Option) ([]D, error) {
	var entities []E
	result := ApplyOptions(r.readDB(ctx), options...).Find(&entities)
	if result.Error != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, result.Error)
	}

	domains := make([]D, len(entities))
	for i, entity := range entities {
		domains[i] = r.mapper.ToDomain(entity)
	}
	return domains, nil
}

// Count returns the number of entities matching the given options.
func (r Repository[D, E]) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	if result := ApplyConditions(r.modelDB(ctx), options...).Count(&count); result.Error != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, result.Error)
	}
	return count, nil
}

// UpdateColumn sets one column on every row matching options and returns
// ErrNotFound when no row matched. At least one condition is required.
func (r Repository[D, E]) UpdateColumn(ctx context.Context, column string, value any, options ...repository.Option) error {
	if len(repository.Build(options...).Conditions()) == 0 {
		return fmt.Errorf("update %s.%s: %w", r.label, column, gorm.ErrMissingWhereClause)
	}
	result := ApplyConditions(r.modelDB(ctx), options...).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("update %s.%s: %w", r.label, column, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, r.label)
	}
	return nil
}
