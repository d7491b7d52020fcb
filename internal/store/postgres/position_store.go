package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL. New rows are
// created by the backfill path; updates to existing rows go through the
// reconciliation transaction.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Create inserts a new position.
func (s *PositionStore) Create(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			id, market_id, direction, shares, entry_price, entry_date,
			cost_basis, current_price, current_value, unrealized_pnl,
			realized_pnl, exit_price, exit_date, exit_reasoning,
			status, thesis_status, entry_reasoning, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.MarketID, string(p.Direction),
		p.Shares, p.EntryPrice, p.EntryDate,
		p.CostBasis, p.CurrentPrice, p.CurrentValue, p.UnrealizedPnL,
		p.RealizedPnL, p.ExitPrice, p.ExitDate, p.ExitReasoning,
		string(p.Status), p.ThesisStatus, p.EntryReasoning,
	)
	if err != nil {
		return fmt.Errorf("postgres: create position %s: %w", p.ID, err)
	}
	return nil
}

// ListOpenWithMarkets returns every open position joined with its market.
func (s *PositionStore) ListOpenWithMarkets(ctx context.Context) ([]domain.OpenPosition, error) {
	const query = `
		SELECT
			p.id, p.market_id, p.direction, p.shares, p.entry_price, p.entry_date,
			p.cost_basis, p.current_price, p.current_value, p.unrealized_pnl,
			p.realized_pnl, p.exit_price, p.exit_date, p.exit_reasoning,
			p.status, p.thesis_status, p.entry_reasoning, p.created_at, p.updated_at,
			m.id, m.slug, m.title, m.condition_id, m.token_id_yes, m.token_id_no,
			m.end_date, m.resolved_at, m.resolution_outcome, m.created_at, m.updated_at
		FROM positions p
		JOIN markets m ON m.id = p.market_id
		WHERE p.status = 'open'
		ORDER BY p.entry_date`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list open positions: %w", err)
	}
	defer rows.Close()

	var out []domain.OpenPosition
	for rows.Next() {
		var op domain.OpenPosition
		var direction, status string
		if err := rows.Scan(
			&op.Position.ID, &op.Position.MarketID, &direction,
			&op.Position.Shares, &op.Position.EntryPrice, &op.Position.EntryDate,
			&op.Position.CostBasis, &op.Position.CurrentPrice,
			&op.Position.CurrentValue, &op.Position.UnrealizedPnL,
			&op.Position.RealizedPnL, &op.Position.ExitPrice,
			&op.Position.ExitDate, &op.Position.ExitReasoning,
			&status, &op.Position.ThesisStatus, &op.Position.EntryReasoning,
			&op.Position.CreatedAt, &op.Position.UpdatedAt,
			&op.Market.ID, &op.Market.Slug, &op.Market.Title, &op.Market.ConditionID,
			&op.Market.TokenIDYes, &op.Market.TokenIDNo,
			&op.Market.EndDate, &op.Market.ResolvedAt, &op.Market.ResolutionOutcome,
			&op.Market.CreatedAt, &op.Market.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan open position: %w", err)
		}
		op.Position.Direction = domain.Direction(direction)
		op.Position.Status = domain.PositionStatus(status)
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list open positions rows: %w", err)
	}
	return out, nil
}

var _ domain.PositionStore = (*PositionStore)(nil)
