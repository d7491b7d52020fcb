// Package tracker implements the portfolio reconciliation pass: matching
// feed-reported holdings against the position ledger, classifying
// disappearances, and appending value snapshots in one transaction.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// FeedSource lists the wallet's current holdings.
type FeedSource interface {
	OpenPositions(ctx context.Context, wallet string) ([]domain.FeedPosition, error)
}

// Service runs reconciliation passes. A single mutex serializes the scheduled
// and manual entry points so two passes can never interleave reads and writes
// of the same ledger rows.
type Service struct {
	mu sync.Mutex

	feed      FeedSource
	quotes    *QuoteResolver
	positions domain.PositionStore
	snapshots domain.SnapshotStore
	tx        domain.TxRunner
	wallet    string
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a reconciliation service for one wallet.
func NewService(
	feed FeedSource,
	quotes *QuoteResolver,
	positions domain.PositionStore,
	snapshots domain.SnapshotStore,
	tx domain.TxRunner,
	wallet string,
	logger *slog.Logger,
) *Service {
	return &Service{
		feed:      feed,
		quotes:    quotes,
		positions: positions,
		snapshots: snapshots,
		tx:        tx,
		wallet:    wallet,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "tracker")),
	}
}

// RunOnce executes one full reconciliation pass and returns the portfolio
// snapshot it committed. All ledger mutations and snapshot rows commit in a
// single transaction; any persistence failure rolls the whole pass back.
func (s *Service) RunOnce(ctx context.Context) (domain.PortfolioSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	started := time.Now()

	open, err := s.positions.ListOpenWithMarkets(ctx)
	if err != nil {
		return domain.PortfolioSnapshot{}, fmt.Errorf("tracker: load open positions: %w", err)
	}

	// A failing wallet query degrades to an empty holding list rather than
	// aborting the pass.
	records, err := s.feed.OpenPositions(ctx, s.wallet)
	if err != nil {
		s.logger.Warn("feed query failed, treating as empty",
			slog.String("wallet", s.wallet),
			slog.String("error", err.Error()))
		records = nil
	}

	feedByToken := make(map[string]domain.FeedPosition, len(records))
	for _, rec := range records {
		if rec.Size < sizeTolerance {
			continue
		}
		feedByToken[rec.TokenID] = rec
	}

	var (
		updates       []domain.Position
		posSnaps      []domain.PositionSnapshot
		audits        []auditNote
		positionValue float64
		matched       int
		closed        int
	)

	for _, op := range open {
		pos := op.Position
		token := op.Market.TokenFor(pos.Direction)
		if token == "" {
			s.logger.Warn("position has no matching token, skipping",
				slog.String("position_id", pos.ID),
				slog.String("market_id", op.Market.ID))
			continue
		}

		rec, hasFeedRecord := feedByToken[token]

		switch classify(hasFeedRecord, op.Market.Resolved(now)) {
		case stayOpen:
			snap := s.refreshMatched(ctx, &pos, rec, token, now)
			if partial := pos.Shares != op.Position.Shares; partial {
				audits = append(audits, auditNote{
					event: "position.partial_fill",
					detail: map[string]any{
						"position_id":    pos.ID,
						"old_shares":     op.Position.Shares,
						"new_shares":     pos.Shares,
						"old_cost_basis": op.Position.CostBasis,
						"new_cost_basis": pos.CostBasis,
					},
				})
			}
			positionValue += pos.CurrentValue
			posSnaps = append(posSnaps, snap)
			matched++

		case closeResolved:
			closeAsResolved(&pos, op.Market, now)
			closed++

		case closeManual:
			closeAsManual(&pos, now)
			audits = append(audits, auditNote{
				event: "position.manual_exit",
				detail: map[string]any{
					"position_id": pos.ID,
					"exit_price":  pos.CurrentPrice,
					"shares":      pos.Shares,
				},
			})
			closed++
		}

		updates = append(updates, pos)
	}

	prev, err := s.snapshots.LatestPortfolio(ctx)
	var prevPtr *domain.PortfolioSnapshot
	switch {
	case err == nil:
		prevPtr = &prev
	case errors.Is(err, domain.ErrNotFound):
		// first ever pass
	default:
		return domain.PortfolioSnapshot{}, fmt.Errorf("tracker: load previous snapshot: %w", err)
	}

	// No balance source is wired in; cash balance stays at zero and total
	// value equals position value.
	totalValue := positionValue
	daily, dailyPct := dailyPnL(prevPtr, totalValue)

	snap := domain.PortfolioSnapshot{
		Timestamp:     now,
		CashBalance:   0,
		PositionValue: positionValue,
		TotalValue:    totalValue,
		DailyPnL:      daily,
		DailyPnLPct:   dailyPct,
		Granularity:   domain.GranularityMinute,
	}

	err = s.tx.InTx(ctx, func(tx domain.ReconcileTx) error {
		for _, pos := range updates {
			if err := tx.UpdatePosition(ctx, pos); err != nil {
				return err
			}
		}
		id, err := tx.InsertPortfolioSnapshot(ctx, snap)
		if err != nil {
			return err
		}
		snap.ID = id
		for _, ps := range posSnaps {
			if err := tx.InsertPositionSnapshot(ctx, ps); err != nil {
				return err
			}
		}
		for _, note := range audits {
			if err := tx.LogAudit(ctx, note.event, note.detail); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.PortfolioSnapshot{}, fmt.Errorf("tracker: persist pass: %w", err)
	}

	s.logger.Info("reconciliation pass complete",
		slog.Int("matched", matched),
		slog.Int("closed", closed),
		slog.Float64("total_value", totalValue),
		slog.Duration("elapsed", time.Since(started)))

	return snap, nil
}

// refreshMatched updates a matched position in place and builds its snapshot
// row. Price comes from the live book or cache when available, falling back
// to the feed's reported price; bid, ask, and spread are recorded only when a
// real book quote backed the price.
func (s *Service) refreshMatched(ctx context.Context, pos *domain.Position, rec domain.FeedPosition, token string, now time.Time) domain.PositionSnapshot {
	price := rec.CurrentPrice
	var bid, ask, spread *float64
	if q, ok := s.quotes.Resolve(ctx, token); ok {
		price = q.Mid
		bid, ask, spread = q.Bid, q.Ask, q.Spread()
	}

	applyMatched(pos, rec, price)

	return domain.PositionSnapshot{
		PositionID: pos.ID,
		Timestamp:  now,
		Price:      pos.CurrentPrice,
		Value:      pos.CurrentValue,
		Bid:        bid,
		Ask:        ask,
		Spread:     spread,
	}
}

// auditNote is an audit entry queued for the pass transaction.
type auditNote struct {
	event  string
	detail map[string]any
}
