package tracker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// blockingRunner holds each pass until release is closed.
type blockingRunner struct {
	started atomic.Int32
	release chan struct{}
}

func (r *blockingRunner) RunOnce(ctx context.Context) (domain.PortfolioSnapshot, error) {
	r.started.Add(1)
	<-r.release
	return domain.PortfolioSnapshot{}, nil
}

func TestTickDropsOverlap(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{release: make(chan struct{})}
	p := NewPoller(runner, time.Minute, discardLogger())

	ctx := context.Background()
	assert.True(t, p.tick(ctx), "first tick must start a pass")

	// Wait for the pass goroutine to take the slot.
	assert.Eventually(t, func() bool {
		return runner.started.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Overlapping ticks are dropped, not queued.
	assert.False(t, p.tick(ctx))
	assert.False(t, p.tick(ctx))
	assert.Equal(t, int32(1), runner.started.Load())

	close(runner.release)

	// Once the pass finishes the slot frees up again.
	assert.Eventually(t, func() bool {
		return p.tick(ctx)
	}, time.Second, 5*time.Millisecond)
}

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) RunOnce(ctx context.Context) (domain.PortfolioSnapshot, error) {
	r.runs.Add(1)
	return domain.PortfolioSnapshot{}, nil
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	p := NewPoller(runner, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, runner.runs.Load(), int32(1))
}
