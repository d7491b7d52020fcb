package domain

import "time"

// GranularityMinute is the granularity recorded for snapshots produced by the
// fixed-interval reconciliation pass.
const GranularityMinute = "minute"

// PortfolioSnapshot is one immutable row in the portfolio value time series.
// The latest row by timestamp is the authoritative current state.
type PortfolioSnapshot struct {
	ID            int64
	Timestamp     time.Time
	CashBalance   float64
	PositionValue float64
	TotalValue    float64
	DailyPnL      *float64
	DailyPnLPct   *float64
	Granularity   string
	CreatedAt     time.Time
}

// PositionSnapshot is one immutable price/value observation for a single
// position. Bid, ask, and spread are present only when the price came from a
// live order book rather than the feed's reported price.
type PositionSnapshot struct {
	ID         int64
	PositionID string
	Timestamp  time.Time
	Price      float64
	Value      float64
	Bid        *float64
	Ask        *float64
	Spread     *float64
	CreatedAt  time.Time
}
