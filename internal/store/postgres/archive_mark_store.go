package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// ArchiveMarkStore implements domain.ArchiveMarkStore using PostgreSQL. One
// row per snapshot kind records how far the cold-storage export has advanced,
// so each archive sweep only queries rows it has not exported yet.
type ArchiveMarkStore struct {
	pool *pgxpool.Pool
}

// NewArchiveMarkStore creates a new ArchiveMarkStore backed by the given
// connection pool.
func NewArchiveMarkStore(pool *pgxpool.Pool) *ArchiveMarkStore {
	return &ArchiveMarkStore{pool: pool}
}

// ArchivedThrough returns the exclusive upper bound of the last export for the
// kind, or the zero time when nothing has been exported yet.
func (s *ArchiveMarkStore) ArchivedThrough(ctx context.Context, kind string) (time.Time, error) {
	var through time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT archived_through FROM archive_watermarks WHERE kind = $1`, kind,
	).Scan(&through)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: get archive watermark %s: %w", kind, err)
	}
	return through, nil
}

// SetArchivedThrough advances the export watermark for the kind.
func (s *ArchiveMarkStore) SetArchivedThrough(ctx context.Context, kind string, through time.Time) error {
	const query = `
		INSERT INTO archive_watermarks (kind, archived_through)
		VALUES ($1, $2)
		ON CONFLICT (kind) DO UPDATE SET archived_through = EXCLUDED.archived_through`

	_, err := s.pool.Exec(ctx, query, kind, through)
	if err != nil {
		return fmt.Errorf("postgres: set archive watermark %s: %w", kind, err)
	}
	return nil
}

var _ domain.ArchiveMarkStore = (*ArchiveMarkStore)(nil)
