package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Acurioustractor/palm-island-repository/internal/config"
)

// Syncer runs one sync pass.
type Syncer interface {
	Run(ctx context.Context, limit int, options ...RunOption) (Tally, error)
}

// PeriodicSync re-runs the sync job on a timer.
type PeriodicSync struct {
	syncer   Syncer
	limit    int
	logger   *slog.Logger
	interval time.Duration
	enabled  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodicSync creates a new PeriodicSync from config and dependencies.
func NewPeriodicSync(cfg config.PeriodicSyncConfig, syncer Syncer, limit int, logger *slog.Logger) *PeriodicSync {
	return &PeriodicSync{
		syncer:   syncer,
		limit:    limit,
		logger:   logger,
		interval: cfg.Interval(),
		enabled:  cfg.Enabled(),
	}
}

// Start begins periodic sync in a background goroutine.
// If disabled, this is a no-op.
func (p *PeriodicSync) Start(ctx context.Context) {
	if !p.enabled {
		p.logger.Info("periodic sync disabled")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Go(func() {
		p.run(ctx)
	})

	p.logger.Info("periodic sync started", slog.Duration("interval", p.interval))
}

// Stop cancels the background goroutine and waits for it to finish.
func (p *PeriodicSync) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.logger.Info("periodic sync stopped")
}

func (p *PeriodicSync) run(ctx context.Context) {
	p.sync(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sync(ctx)
		}
	}
}

func (p *PeriodicSync) sync(ctx context.Context) {
	tally, err := p.syncer.Run(ctx, p.limit)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("periodic sync failed", slog.String("error", err.Error()))
		return
	}
	if tally.Failed > 0 {
		p.logger.Warn("periodic sync finished with failures",
			slog.Int("succeeded", tally.Succeeded),
			slog.Int("failed", tally.Failed),
		)
	}
}
