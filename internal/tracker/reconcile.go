package tracker

import (
	"math"
	"time"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// sizeTolerance is the share-count difference below which a feed-reported
// size is treated as equal to the ledger's.
const sizeTolerance = 0.005

// manualExitReason annotates closures inferred from feed absence alone.
const manualExitReason = "position no longer reported by wallet feed; assumed manual exit"

// closeAction is the outcome of classifying one open ledger position at the
// end of a pass.
type closeAction int

const (
	stayOpen closeAction = iota
	closeResolved
	closeManual
)

// classify decides what happens to an open ledger position. Absence from the
// feed means the position no longer exists upstream: a resolved market
// explains the absence as a resolution payout, anything else is an
// out-of-band disposal.
func classify(hasFeedRecord, marketResolved bool) closeAction {
	switch {
	case hasFeedRecord:
		return stayOpen
	case marketResolved:
		return closeResolved
	default:
		return closeManual
	}
}

// applyMatched refreshes a matched position from its feed record and the
// resolved price. It reports whether a partial fill was detected: a
// feed-reported size differing from the ledger's by more than the tolerance,
// in which case cost basis is rescaled proportionally and shares adopt the
// feed's count. Entry price is never touched.
func applyMatched(pos *domain.Position, rec domain.FeedPosition, price float64) bool {
	partial := false
	if math.Abs(rec.Size-pos.Shares) > sizeTolerance && rec.Size > 0 && pos.Shares > 0 {
		pos.CostBasis *= rec.Size / pos.Shares
		pos.Shares = rec.Size
		partial = true
	}
	pos.CurrentPrice = price
	pos.CurrentValue = pos.Shares * price
	pos.UnrealizedPnL = pos.CurrentValue - pos.CostBasis
	return partial
}

// closeAsResolved settles a position against its market's resolution. A won
// position pays out at 1 per share, a lost one at 0. When the resolution
// outcome is unknown the last observed price stands in as the payout price;
// a conservative fallback, preserved as-is.
func closeAsResolved(pos *domain.Position, m domain.Market, now time.Time) {
	var exitPrice float64
	if outcome, ok := m.Outcome(); ok {
		if outcome == pos.Direction {
			exitPrice = 1
		}
	} else {
		exitPrice = pos.CurrentPrice
	}

	realized := pos.Shares*exitPrice - pos.CostBasis

	exitDate := now
	if m.ResolvedAt != nil {
		exitDate = *m.ResolvedAt
	} else if m.EndDate != nil {
		exitDate = *m.EndDate
	}

	pos.ExitPrice = &exitPrice
	pos.RealizedPnL = &realized
	pos.ExitDate = &exitDate
	markClosed(pos)
}

// closeAsManual settles a position that vanished from the feed while its
// market is still live, valuing the disposal at the last known price.
func closeAsManual(pos *domain.Position, now time.Time) {
	exitPrice := pos.CurrentPrice
	realized := pos.Shares*exitPrice - pos.CostBasis
	reason := manualExitReason

	pos.ExitPrice = &exitPrice
	pos.RealizedPnL = &realized
	pos.ExitDate = &now
	pos.ExitReasoning = &reason
	markClosed(pos)
}

func markClosed(pos *domain.Position) {
	pos.Status = domain.PositionStatusClosed
	pos.CurrentValue = 0
	pos.UnrealizedPnL = 0
}

// dailyPnL computes the change against the previous snapshot's total. Both
// values are nil when no prior snapshot exists or its total is not positive.
func dailyPnL(prev *domain.PortfolioSnapshot, totalValue float64) (*float64, *float64) {
	if prev == nil || prev.TotalValue <= 0 {
		return nil, nil
	}
	pnl := totalValue - prev.TotalValue
	pct := pnl / prev.TotalValue * 100
	return &pnl, &pct
}
