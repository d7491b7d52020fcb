package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polytrack/internal/feed"
	"github.com/alanyoungcy/polytrack/internal/platform/polymarket"
	"github.com/alanyoungcy/polytrack/internal/server"
	"github.com/alanyoungcy/polytrack/internal/server/handler"
	"github.com/alanyoungcy/polytrack/internal/tracker"
)

// archiveInterval is how often the retention sweep runs in track mode.
const archiveInterval = 24 * time.Hour

// TrackMode runs the scheduled reconciliation loop, plus the optional live
// quote feed, the snapshot archiver, and the HTTP trigger server.
func (a *App) TrackMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting track mode",
		slog.String("wallet", a.cfg.Polymarket.Wallet),
		slog.Duration("poll_interval", a.cfg.Tracker.PollInterval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	svc := a.buildTracker(deps)
	poller := tracker.NewPoller(svc, a.cfg.Tracker.PollInterval.Duration, a.logger)
	g.Go(func() error {
		err := poller.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	// Live quote feed: keeps the cache warm for the tokens of currently open
	// positions. Positions opened later are still priced through the REST
	// book fallback.
	if a.cfg.Tracker.LiveQuotes && a.cfg.Polymarket.WsHost != "" {
		assetIDs := a.openTokenIDs(ctx, deps)
		quoteFeed := feed.NewLiveQuoteFeed(a.cfg.Polymarket.WsHost, assetIDs, deps.QuoteCache, a.logger)
		g.Go(func() error {
			err := quoteFeed.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	// Retention sweep: export snapshot rows older than the window to S3.
	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, svc)
	}

	return g.Wait()
}

// OnceMode runs a single synchronous reconciliation pass and exits.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode",
		slog.String("wallet", a.cfg.Polymarket.Wallet))

	svc := a.buildTracker(deps)
	snap, err := svc.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("once mode: %w", err)
	}

	a.logger.InfoContext(ctx, "pass complete",
		slog.Int64("snapshot_id", snap.ID),
		slog.Float64("total_value", snap.TotalValue))
	return nil
}

// BackfillMode creates ledger entries for untracked feed holdings and exits.
func (a *App) BackfillMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting backfill mode",
		slog.String("wallet", a.cfg.Polymarket.Wallet))

	client := polymarket.NewClient(a.cfg.Polymarket.DataHost, a.cfg.Polymarket.ClobHost)
	backfiller := tracker.NewBackfiller(
		client,
		deps.MarketStore,
		deps.PositionStore,
		deps.AuditStore,
		a.cfg.Polymarket.Wallet,
		a.logger,
	)

	created, err := backfiller.Run(ctx)
	if err != nil {
		return fmt.Errorf("backfill mode: %w", err)
	}

	a.logger.InfoContext(ctx, "backfill complete", slog.Int("created", created))
	return nil
}

// buildTracker assembles the reconciliation service from the wired deps.
func (a *App) buildTracker(deps *Dependencies) *tracker.Service {
	client := polymarket.NewClient(a.cfg.Polymarket.DataHost, a.cfg.Polymarket.ClobHost)
	quotes := tracker.NewQuoteResolver(client, deps.QuoteCache, a.logger)

	return tracker.NewService(
		client,
		quotes,
		deps.PositionStore,
		deps.SnapshotStore,
		deps.TxRunner,
		a.cfg.Polymarket.Wallet,
		a.logger,
	)
}

// openTokenIDs returns the outcome-token IDs of currently open positions for
// the WebSocket subscription.
func (a *App) openTokenIDs(ctx context.Context, deps *Dependencies) []string {
	open, err := deps.PositionStore.ListOpenWithMarkets(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "live quotes: list open positions failed",
			slog.String("error", err.Error()))
		return nil
	}

	seen := make(map[string]bool)
	var ids []string
	for _, op := range open {
		tid := op.Market.TokenFor(op.Position.Direction)
		if tid == "" || seen[tid] {
			continue
		}
		seen[tid] = true
		ids = append(ids, tid)
	}
	return ids
}

// runArchiveLoop exports snapshots older than the retention window once a day.
func (a *App) runArchiveLoop(ctx context.Context, deps *Dependencies) error {
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour

	sweep := func() {
		cutoff := time.Now().UTC().Add(-retention)

		n, err := deps.Archiver.ArchivePortfolioSnapshots(ctx, cutoff)
		if err != nil {
			a.logger.ErrorContext(ctx, "archive: portfolio snapshots failed",
				slog.String("error", err.Error()))
		} else if n > 0 {
			a.logger.InfoContext(ctx, "archive: portfolio snapshots exported",
				slog.Int64("rows", n))
		}

		n, err = deps.Archiver.ArchivePositionSnapshots(ctx, cutoff)
		if err != nil {
			a.logger.ErrorContext(ctx, "archive: position snapshots failed",
				slog.String("error", err.Error()))
		} else if n > 0 {
			a.logger.InfoContext(ctx, "archive: position snapshots exported",
				slog.Int64("rows", n))
		}
	}

	sweep()
	ticker := time.NewTicker(archiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}

// startHTTPServer adds the HTTP server goroutine plus a graceful-shutdown
// goroutine to the errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, runner handler.SnapshotRunner) {
	srv := server.NewServer(
		server.Config{Port: a.cfg.Server.Port},
		server.Handlers{
			Health:    handler.NewHealthHandler(a.logger),
			Portfolio: handler.NewPortfolioHandler(runner, a.logger),
		},
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
