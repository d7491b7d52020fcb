package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

// Snapshot kinds, used both as watermark keys and as archive path segments.
const (
	kindPortfolio = "portfolio_snapshots"
	kindPosition  = "position_snapshots"
)

// PortfolioArchiveStore provides read access to portfolio snapshots for
// archival purposes.
type PortfolioArchiveStore interface {
	ListPortfolioBetween(ctx context.Context, from, to time.Time) ([]domain.PortfolioSnapshot, error)
}

// PositionArchiveStore provides read access to position snapshots for
// archival purposes.
type PositionArchiveStore interface {
	ListPositionBetween(ctx context.Context, from, to time.Time) ([]domain.PositionSnapshot, error)
}

// ArchiveImpl implements domain.Archiver. Each sweep exports only the rows
// between the persisted watermark and the start of the cutoff's month, grouped
// into one JSONL object per calendar month of the rows themselves. A month is
// exported once: snapshot timestamps are pass times, so no row can land in a
// month that has already closed.
//
// Deletion of the archived rows from the primary store is intentionally NOT
// performed here -- that is a separate, explicit step to be executed after
// the archive has been verified.
type ArchiveImpl struct {
	writer    domain.BlobWriter
	portfolio PortfolioArchiveStore
	positions PositionArchiveStore
	marks     domain.ArchiveMarkStore
	audit     domain.AuditStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(
	writer domain.BlobWriter,
	portfolio PortfolioArchiveStore,
	positions PositionArchiveStore,
	marks domain.ArchiveMarkStore,
	audit domain.AuditStore,
) *ArchiveImpl {
	return &ArchiveImpl{
		writer:    writer,
		portfolio: portfolio,
		positions: positions,
		marks:     marks,
		audit:     audit,
	}
}

// ArchivePortfolioSnapshots exports the portfolio snapshots not yet archived
// that fall in months completed before the cutoff, and advances the watermark.
// Returns the count of exported rows.
func (a *ArchiveImpl) ArchivePortfolioSnapshots(ctx context.Context, before time.Time) (int64, error) {
	from, to, err := a.window(ctx, kindPortfolio, before)
	if err != nil || !from.Before(to) {
		return 0, err
	}

	snaps, err := a.portfolio.ListPortfolioBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive portfolio snapshots query: %w", err)
	}

	months, err := exportMonths(ctx, a.writer, kindPortfolio, snaps,
		func(s domain.PortfolioSnapshot) time.Time { return s.Timestamp })
	if err != nil {
		return 0, err
	}

	return a.finish(ctx, kindPortfolio, to, months, int64(len(snaps)))
}

// ArchivePositionSnapshots exports the position snapshots not yet archived
// that fall in months completed before the cutoff, and advances the watermark.
// Returns the count of exported rows.
func (a *ArchiveImpl) ArchivePositionSnapshots(ctx context.Context, before time.Time) (int64, error) {
	from, to, err := a.window(ctx, kindPosition, before)
	if err != nil || !from.Before(to) {
		return 0, err
	}

	snaps, err := a.positions.ListPositionBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive position snapshots query: %w", err)
	}

	months, err := exportMonths(ctx, a.writer, kindPosition, snaps,
		func(s domain.PositionSnapshot) time.Time { return s.Timestamp })
	if err != nil {
		return 0, err
	}

	return a.finish(ctx, kindPosition, to, months, int64(len(snaps)))
}

// window returns the half-open export range [from, to): from the persisted
// watermark (zero time when none) up to the start of the cutoff's month, so
// only rows from completed months leave the primary store.
func (a *ArchiveImpl) window(ctx context.Context, kind string, before time.Time) (time.Time, time.Time, error) {
	from, err := a.marks.ArchivedThrough(ctx, kind)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("s3blob: archive watermark %s: %w", kind, err)
	}
	return from, monthStart(before.UTC()), nil
}

// finish advances the watermark, records the sweep in the audit log when rows
// were exported, and returns the exported count. The watermark moves even on
// an empty window so later sweeps stay narrow.
func (a *ArchiveImpl) finish(ctx context.Context, kind string, through time.Time, months []string, count int64) (int64, error) {
	if err := a.marks.SetArchivedThrough(ctx, kind, through); err != nil {
		return count, fmt.Errorf("s3blob: archive %s: %w", kind, err)
	}
	if count == 0 {
		return 0, nil
	}

	err := a.audit.Log(ctx, "archive."+kind, map[string]any{
		"months":  months,
		"count":   count,
		"through": through.Format(time.RFC3339),
	})
	if err != nil {
		return count, fmt.Errorf("s3blob: archive %s audit log: %w", kind, err)
	}
	return count, nil
}

// exportMonths groups rows by the calendar month of their own timestamp and
// uploads one JSONL object per month at archive/<kind>/<YYYY-MM>.jsonl.
// Returns the months written, in order.
func exportMonths[T any](ctx context.Context, writer domain.BlobWriter, kind string, rows []T, ts func(T) time.Time) ([]string, error) {
	byMonth := make(map[string][]T)
	for _, row := range rows {
		month := ts(row).UTC().Format("2006-01")
		byMonth[month] = append(byMonth[month], row)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		buf, err := marshalJSONL(byMonth[month])
		if err != nil {
			return nil, fmt.Errorf("s3blob: archive %s %s marshal: %w", kind, month, err)
		}
		path := fmt.Sprintf("archive/%s/%s.jsonl", kind, month)
		if err := writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return nil, fmt.Errorf("s3blob: archive %s %s upload: %w", kind, month, err)
		}
	}
	return months, nil
}

// monthStart truncates t to the first instant of its calendar month in UTC.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*ArchiveImpl)(nil)
