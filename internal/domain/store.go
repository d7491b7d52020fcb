package domain

import (
	"context"
	"time"
)

// MarketStore reads market metadata. Market rows are written by an external
// process, so no mutation methods are exposed here.
type MarketStore interface {
	GetByTokenID(ctx context.Context, tokenID string) (Market, error)
}

// PositionStore persists ledger entries. Mutation of existing rows happens
// only inside a reconciliation transaction (see ReconcileTx).
type PositionStore interface {
	Create(ctx context.Context, pos Position) error
	ListOpenWithMarkets(ctx context.Context) ([]OpenPosition, error)
}

// SnapshotStore reads the snapshot time series. Writes happen only inside a
// reconciliation transaction (see ReconcileTx).
type SnapshotStore interface {
	LatestPortfolio(ctx context.Context) (PortfolioSnapshot, error)
	// ListPortfolioBetween returns portfolio snapshots with from <= timestamp
	// < to, oldest first.
	ListPortfolioBetween(ctx context.Context, from, to time.Time) ([]PortfolioSnapshot, error)
	// ListPositionBetween returns position snapshots with from <= timestamp
	// < to, oldest first.
	ListPositionBetween(ctx context.Context, from, to time.Time) ([]PositionSnapshot, error)
}

// ArchiveMarkStore persists the high-water mark of snapshot rows already
// exported to cold storage, keyed by snapshot kind.
type ArchiveMarkStore interface {
	// ArchivedThrough returns the exclusive upper bound of the last export,
	// or the zero time when nothing has been exported yet.
	ArchivedThrough(ctx context.Context, kind string) (time.Time, error)
	SetArchivedThrough(ctx context.Context, kind string, through time.Time) error
}

// ReconcileTx is the write surface available inside one reconciliation
// transaction. All calls commit or roll back together.
type ReconcileTx interface {
	UpdatePosition(ctx context.Context, pos Position) error
	InsertPortfolioSnapshot(ctx context.Context, snap PortfolioSnapshot) (int64, error)
	InsertPositionSnapshot(ctx context.Context, snap PositionSnapshot) error
	LogAudit(ctx context.Context, event string, detail map[string]any) error
}

// TxRunner executes fn inside a single database transaction. If fn returns an
// error the transaction is rolled back and no writes are visible.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx ReconcileTx) error) error
}

// AuditStore appends to the audit log for events that happen outside a
// reconciliation transaction (backfills, archive runs).
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
}
