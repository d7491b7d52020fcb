package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// Backfiller creates ledger entries for holdings the feed reports but the
// ledger does not know about. It is idempotent: tokens already tracked by an
// open position are skipped, so repeated runs create nothing new.
type Backfiller struct {
	feed      FeedSource
	markets   domain.MarketStore
	positions domain.PositionStore
	audit     domain.AuditStore
	wallet    string
	now       func() time.Time
	logger    *slog.Logger
}

// NewBackfiller creates a backfiller for one wallet.
func NewBackfiller(
	feed FeedSource,
	markets domain.MarketStore,
	positions domain.PositionStore,
	audit domain.AuditStore,
	wallet string,
	logger *slog.Logger,
) *Backfiller {
	return &Backfiller{
		feed:      feed,
		markets:   markets,
		positions: positions,
		audit:     audit,
		wallet:    wallet,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "backfill")),
	}
}

// Run fetches the wallet's holdings and creates a ledger entry for every
// untracked one. It returns the number of positions created.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	records, err := b.feed.OpenPositions(ctx, b.wallet)
	if err != nil {
		return 0, fmt.Errorf("tracker: backfill feed query: %w", err)
	}

	open, err := b.positions.ListOpenWithMarkets(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracker: backfill load open positions: %w", err)
	}

	tracked := make(map[string]struct{}, len(open))
	for _, op := range open {
		if token := op.Market.TokenFor(op.Position.Direction); token != "" {
			tracked[token] = struct{}{}
		}
	}

	created := 0
	for _, rec := range records {
		if rec.Size < sizeTolerance {
			continue
		}
		if _, ok := tracked[rec.TokenID]; ok {
			continue
		}

		market, err := b.markets.GetByTokenID(ctx, rec.TokenID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				b.logger.Warn("no market for feed token, skipping",
					slog.String("token_id", rec.TokenID))
				continue
			}
			return created, fmt.Errorf("tracker: backfill market lookup: %w", err)
		}

		direction, err := domain.ParseDirection(rec.Outcome)
		if err != nil {
			b.logger.Warn("unparseable feed outcome, skipping",
				slog.String("token_id", rec.TokenID),
				slog.String("outcome", rec.Outcome))
			continue
		}

		now := b.now().UTC()
		costBasis := rec.Size * rec.AvgPrice
		currentValue := rec.Size * rec.CurrentPrice
		pos := domain.Position{
			ID:            uuid.NewString(),
			MarketID:      market.ID,
			Direction:     direction,
			Shares:        rec.Size,
			EntryPrice:    rec.AvgPrice,
			EntryDate:     now,
			CostBasis:     costBasis,
			CurrentPrice:  rec.CurrentPrice,
			CurrentValue:  currentValue,
			UnrealizedPnL: currentValue - costBasis,
			Status:        domain.PositionStatusOpen,
		}

		if err := b.positions.Create(ctx, pos); err != nil {
			return created, fmt.Errorf("tracker: backfill create position: %w", err)
		}

		if err := b.audit.Log(ctx, "backfill.position_created", map[string]any{
			"position_id": pos.ID,
			"market_id":   market.ID,
			"token_id":    rec.TokenID,
			"shares":      rec.Size,
			"avg_price":   rec.AvgPrice,
		}); err != nil {
			return created, fmt.Errorf("tracker: backfill audit log: %w", err)
		}

		b.logger.Info("backfilled position",
			slog.String("position_id", pos.ID),
			slog.String("market", market.Slug),
			slog.Float64("shares", rec.Size))
		created++
	}

	return created, nil
}
