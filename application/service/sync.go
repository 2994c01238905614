package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Acurioustractor/palm-island-repository/domain/repository"
	"github.com/Acurioustractor/palm-island-repository/domain/search"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
	"github.com/Acurioustractor/palm-island-repository/domain/story"
)

// DefaultSyncLimit applies when a sync asks for no limit.
const DefaultSyncLimit = 1000

// RecordFailure is a story that could not be indexed.
type RecordFailure struct {
	StoryID string
	Err     error
}

// Tally summarises a sync run.
type Tally struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []RecordFailure
}

// Err returns an error wrapping ErrPartialBatch when any record failed.
func (t Tally) Err() error {
	if len(t.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(t.Failures)+1)
	errs = append(errs, fmt.Errorf("%w: %d of %d", ErrPartialBatch, t.Failed, t.Total))
	for _, f := range t.Failures {
		errs = append(errs, fmt.Errorf("story %s: %w", f.StoryID, f.Err))
	}
	return errors.Join(errs...)
}

// Sync embeds stories from the relational store and indexes them. Records
// are processed one at a time, in store order.
type Sync struct {
	stories      story.Store
	embedding    domainservice.Embedding
	vectors      search.VectorStore
	defaultLimit int
	logger       *slog.Logger
}

// SyncOption configures a Sync.
type SyncOption func(*Sync)

// WithDefaultSyncLimit sets the limit used when a caller passes none.
func WithDefaultSyncLimit(n int) SyncOption {
	return func(s *Sync) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// NewSync creates a new Sync service.
func NewSync(stories story.Store, embedding domainservice.Embedding, vectors search.VectorStore, logger *slog.Logger, opts ...SyncOption) *Sync {
	s := &Sync{
		stories:      stories,
		embedding:    embedding,
		vectors:      vectors,
		defaultLimit: DefaultSyncLimit,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOption configures a single sync run.
type RunOption func(*runOptions)

type runOptions struct {
	progress func(done, total int)
}

// WithProgress reports progress after every record.
func WithProgress(fn func(done, total int)) RunOption {
	return func(o *runOptions) { o.progress = fn }
}

// Run indexes up to limit stories; zero or less uses the default. A record
// that fails is logged and counted, and the run carries on. Run itself only
// fails when the stories cannot be fetched or ctx is done.
func (s *Sync) Run(ctx context.Context, limit int, options ...RunOption) (Tally, error) {
	var o runOptions
	for _, opt := range options {
		opt(&o)
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	stories, err := s.stories.Find(ctx, repository.WithOrderAsc("id"), repository.WithLimit(limit))
	if err != nil {
		return Tally{}, fmt.Errorf("fetch stories: %w", err)
	}

	tally := Tally{Total: len(stories), Failures: []RecordFailure{}}
	s.logger.Info("sync started", slog.Int("stories", tally.Total))

	for i, st := range stories {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		if err := s.index(ctx, st); err != nil {
			if ctx.Err() != nil {
				return tally, ctx.Err()
			}
			tally.Failed++
			tally.Failures = append(tally.Failures, RecordFailure{StoryID: st.ID(), Err: err})
			s.logger.Warn("story sync failed",
				slog.String("story_id", st.ID()),
				slog.String("error", err.Error()),
			)
		} else {
			tally.Succeeded++
		}

		if o.progress != nil {
			o.progress(i+1, tally.Total)
		}
	}

	s.logger.Info("sync finished",
		slog.Int("total", tally.Total),
		slog.Int("succeeded", tally.Succeeded),
		slog.Int("failed", tally.Failed),
	)
	return tally, nil
}

func (s *Sync) index(ctx context.Context, st story.Story) error {
	if !st.Embeddable() {
		return ErrEmptyStory
	}

	vector, err := s.embedding.EmbedStory(ctx, st.Title(), st.Content())
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	payload := search.NewPayload(st.Title(), story.Preview(st.Content()), st.StoryType(), st.CreatedAtString())
	if err := s.vectors.Upsert(ctx, search.NewPoint(st.ID(), vector, payload)); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	if err := s.stories.UpdateEmbedding(ctx, st.ID(), vector); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// Remove deletes the indexed point of story id and clears its stored
// embedding. A story row that no longer exists is not an error.
func (s *Sync) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domainservice.NewValidationError("id", "must not be empty")
	}
	if err := s.vectors.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove from index: %w", err)
	}
	if err := s.stories.ClearEmbedding(ctx, id); err != nil && !errors.Is(err, story.ErrNotFound) {
		return fmt.Errorf("clear embedding: %w", err)
	}
	s.logger.Info("story embedding removed", slog.String("story_id", id))
	return nil
}
