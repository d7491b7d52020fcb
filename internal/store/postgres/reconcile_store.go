package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// TxRunner implements domain.TxRunner on a pgx connection pool. Every write a
// reconciliation pass makes goes through one transaction: if the callback
// returns an error the whole pass is rolled back.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner creates a TxRunner backed by the given connection pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// InTx begins a transaction, invokes fn with a ReconcileTx bound to it, and
// commits on success or rolls back on error.
func (r *TxRunner) InTx(ctx context.Context, fn func(tx domain.ReconcileTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin reconcile tx: %w", err)
	}

	if err := fn(&reconcileTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit reconcile tx: %w", err)
	}
	return nil
}

// reconcileTx implements domain.ReconcileTx on an open pgx transaction.
type reconcileTx struct {
	tx pgx.Tx
}

// UpdatePosition replaces the mutable fields of a position.
func (t *reconcileTx) UpdatePosition(ctx context.Context, p domain.Position) error {
	const query = `
		UPDATE positions SET
			shares         = $2,
			entry_price    = $3,
			cost_basis     = $4,
			current_price  = $5,
			current_value  = $6,
			unrealized_pnl = $7,
			realized_pnl   = $8,
			exit_price     = $9,
			exit_date      = $10,
			exit_reasoning = $11,
			status         = $12,
			updated_at     = NOW()
		WHERE id = $1`

	tag, err := t.tx.Exec(ctx, query,
		p.ID, p.Shares, p.EntryPrice, p.CostBasis,
		p.CurrentPrice, p.CurrentValue, p.UnrealizedPnL,
		p.RealizedPnL, p.ExitPrice, p.ExitDate, p.ExitReasoning,
		string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("postgres: update position %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InsertPortfolioSnapshot appends a portfolio snapshot and returns its ID.
func (t *reconcileTx) InsertPortfolioSnapshot(ctx context.Context, snap domain.PortfolioSnapshot) (int64, error) {
	const query = `
		INSERT INTO portfolio_snapshots (
			timestamp, cash_balance, position_value, total_value,
			daily_pnl, daily_pnl_pct, granularity
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := t.tx.QueryRow(ctx, query,
		snap.Timestamp, snap.CashBalance, snap.PositionValue, snap.TotalValue,
		snap.DailyPnL, snap.DailyPnLPct, snap.Granularity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert portfolio snapshot: %w", err)
	}
	return id, nil
}

// InsertPositionSnapshot appends one position snapshot.
func (t *reconcileTx) InsertPositionSnapshot(ctx context.Context, snap domain.PositionSnapshot) error {
	const query = `
		INSERT INTO position_snapshots (
			position_id, timestamp, price, value, bid, ask, spread
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := t.tx.Exec(ctx, query,
		snap.PositionID, snap.Timestamp, snap.Price, snap.Value,
		snap.Bid, snap.Ask, snap.Spread,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert position snapshot %s: %w", snap.PositionID, err)
	}
	return nil
}

// LogAudit appends an audit entry inside the transaction.
func (t *reconcileTx) LogAudit(ctx context.Context, event string, detail map[string]any) error {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("postgres: marshal audit detail: %w", err)
	}

	const query = `INSERT INTO audit_log (event, detail) VALUES ($1, $2)`
	if _, err := t.tx.Exec(ctx, query, event, detailJSON); err != nil {
		return fmt.Errorf("postgres: log audit event %s: %w", event, err)
	}
	return nil
}

var (
	_ domain.TxRunner    = (*TxRunner)(nil)
	_ domain.ReconcileTx = (*reconcileTx)(nil)
)
