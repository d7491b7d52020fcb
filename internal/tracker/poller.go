package tracker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// SnapshotRunner executes one reconciliation pass.
type SnapshotRunner interface {
	RunOnce(ctx context.Context) (domain.PortfolioSnapshot, error)
}

// Poller drives reconciliation on a fixed interval with a single-slot gate:
// when a tick fires while the previous pass is still running, the tick is
// dropped rather than queued, so no backlog ever accumulates.
type Poller struct {
	runner   SnapshotRunner
	interval time.Duration
	gate     *semaphore.Weighted
	logger   *slog.Logger
}

// NewPoller creates a poller firing every interval.
func NewPoller(runner SnapshotRunner, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		runner:   runner,
		interval: interval,
		gate:     semaphore.NewWeighted(1),
		logger:   logger.With(slog.String("component", "poller")),
	}
}

// Run ticks until ctx is cancelled. The first pass starts immediately.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", slog.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick starts one pass if none is in flight and reports whether it started.
// The pass runs in its own goroutine so a slow pass never delays the ticker;
// it only causes subsequent ticks to be dropped.
func (p *Poller) tick(ctx context.Context) bool {
	if !p.gate.TryAcquire(1) {
		p.logger.Warn("previous pass still running, dropping tick")
		return false
	}

	go func() {
		defer p.gate.Release(1)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("pass panicked", slog.Any("panic", r))
			}
		}()

		if _, err := p.runner.RunOnce(ctx); err != nil {
			p.logger.Error("pass failed", slog.String("error", err.Error()))
		}
	}()

	return true
}
