package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a new SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const portfolioSnapshotCols = `id, timestamp, cash_balance, position_value, total_value,
	daily_pnl, daily_pnl_pct, granularity, created_at`

func scanPortfolioSnapshot(row pgx.Row) (domain.PortfolioSnapshot, error) {
	var s domain.PortfolioSnapshot
	err := row.Scan(
		&s.ID, &s.Timestamp, &s.CashBalance, &s.PositionValue, &s.TotalValue,
		&s.DailyPnL, &s.DailyPnLPct, &s.Granularity, &s.CreatedAt,
	)
	if err != nil {
		return domain.PortfolioSnapshot{}, err
	}
	return s, nil
}

// LatestPortfolio returns the most recent portfolio snapshot.
func (s *SnapshotStore) LatestPortfolio(ctx context.Context) (domain.PortfolioSnapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+portfolioSnapshotCols+` FROM portfolio_snapshots
		 ORDER BY timestamp DESC LIMIT 1`)
	snap, err := scanPortfolioSnapshot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.PortfolioSnapshot{}, domain.ErrNotFound
		}
		return domain.PortfolioSnapshot{}, fmt.Errorf("postgres: latest portfolio snapshot: %w", err)
	}
	return snap, nil
}

// ListPortfolioBetween returns portfolio snapshots with from <= timestamp < to,
// oldest first.
func (s *SnapshotStore) ListPortfolioBetween(ctx context.Context, from, to time.Time) ([]domain.PortfolioSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+portfolioSnapshotCols+` FROM portfolio_snapshots
		 WHERE timestamp >= $1 AND timestamp < $2 ORDER BY timestamp`, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: list portfolio snapshots %s..%s: %w", from, to, err)
	}
	defer rows.Close()

	var snaps []domain.PortfolioSnapshot
	for rows.Next() {
		snap, err := scanPortfolioSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan portfolio snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list portfolio snapshots rows: %w", err)
	}
	return snaps, nil
}

const positionSnapshotCols = `id, position_id, timestamp, price, value,
	bid, ask, spread, created_at`

func scanPositionSnapshot(row pgx.Row) (domain.PositionSnapshot, error) {
	var s domain.PositionSnapshot
	err := row.Scan(
		&s.ID, &s.PositionID, &s.Timestamp, &s.Price, &s.Value,
		&s.Bid, &s.Ask, &s.Spread, &s.CreatedAt,
	)
	if err != nil {
		return domain.PositionSnapshot{}, err
	}
	return s, nil
}

// ListPositionBetween returns position snapshots with from <= timestamp < to,
// oldest first.
func (s *SnapshotStore) ListPositionBetween(ctx context.Context, from, to time.Time) ([]domain.PositionSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionSnapshotCols+` FROM position_snapshots
		 WHERE timestamp >= $1 AND timestamp < $2 ORDER BY timestamp`, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: list position snapshots %s..%s: %w", from, to, err)
	}
	defer rows.Close()

	var snaps []domain.PositionSnapshot
	for rows.Next() {
		snap, err := scanPositionSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan position snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list position snapshots rows: %w", err)
	}
	return snaps, nil
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)
