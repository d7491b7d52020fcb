package domain

import "time"

// PositionStatus tracks a ledger entry through its lifecycle.
type PositionStatus string

const (
	PositionStatusPending PositionStatus = "pending"
	PositionStatusOpen    PositionStatus = "open"
	PositionStatusClosed  PositionStatus = "closed"
)

// Position is a ledger entry for a holding in one outcome of a market.
// While open, only the reconciliation pass mutates it; the transition to
// closed happens exactly once.
type Position struct {
	ID             string
	MarketID       string
	Direction      Direction
	Shares         float64
	EntryPrice     float64
	EntryDate      time.Time
	CostBasis      float64
	CurrentPrice   float64
	CurrentValue   float64
	UnrealizedPnL  float64
	RealizedPnL    *float64
	ExitPrice      *float64
	ExitDate       *time.Time
	ExitReasoning  *string
	Status         PositionStatus
	ThesisStatus   *string // qualitative tag maintained by the operator, never touched here
	EntryReasoning *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OpenPosition joins an open ledger entry with its market so the matching
// token and resolution state are available in one read.
type OpenPosition struct {
	Position Position
	Market   Market
}
