package domain

import "time"

// FeedPosition is one holding reported by the external wallet feed. The token
// ID is the join key against the ledger.
type FeedPosition struct {
	TokenID      string
	ConditionID  string
	Outcome      string
	Size         float64
	AvgPrice     float64
	CurrentPrice float64
	RealizedPnL  float64
}

// Quote is a derived price for one outcome token. Mid is the midpoint of best
// bid and best ask when both sides exist, otherwise whichever single side the
// book had.
type Quote struct {
	TokenID string
	Bid     *float64
	Ask     *float64
	Mid     float64
	Time    time.Time
}

// Spread returns ask minus bid when both sides are present.
func (q Quote) Spread() *float64 {
	if q.Bid == nil || q.Ask == nil {
		return nil
	}
	s := *q.Ask - *q.Bid
	return &s
}
