package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acurioustractor/palm-island-repository/internal/config"
	"github.com/Acurioustractor/palm-island-repository/internal/log"
)

type countingSyncer struct {
	mu     sync.Mutex
	runs   int
	limits []int
}

func (c *countingSyncer) Run(_ context.Context, limit int, _ ...RunOption) (Tally, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	c.limits = append(c.limits, limit)
	return Tally{}, nil
}

func (c *countingSyncer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func TestPeriodicSync_Enabled(t *testing.T) {
	syncer := &countingSyncer{}
	cfg := config.NewPeriodicSyncConfig().
		WithEnabled(true).
		WithIntervalSeconds(0.01)

	ps := NewPeriodicSync(cfg, syncer, 50, log.Discard())
	ps.Start(context.Background())

	require.Eventually(t, func() bool {
		return syncer.count() >= 2
	}, time.Second, 5*time.Millisecond)

	ps.Stop()

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	assert.Equal(t, 50, syncer.limits[0])
}

func TestPeriodicSync_Disabled(t *testing.T) {
	syncer := &countingSyncer{}
	ps := NewPeriodicSync(config.NewPeriodicSyncConfig().WithEnabled(false), syncer, 0, log.Discard())
	ps.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	ps.Stop()

	assert.Zero(t, syncer.count())
}

func TestPeriodicSync_StopsWithContext(t *testing.T) {
	syncer := &countingSyncer{}
	cfg := config.NewPeriodicSyncConfig().WithEnabled(true).WithIntervalSeconds(0.01)

	ctx, cancel := context.WithCancel(context.Background())
	ps := NewPeriodicSync(cfg, syncer, 0, log.Discard())
	ps.Start(ctx)

	require.Eventually(t, func() bool { return syncer.count() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	ps.Stop()

	after := syncer.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, syncer.count())
}
