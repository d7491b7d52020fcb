package s3blob

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polytrack/internal/domain"
)

type upload struct {
	path        string
	contentType string
	body        []byte
}

type fakeWriter struct {
	uploads []upload
}

func (w *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.uploads = append(w.uploads, upload{path: path, contentType: contentType, body: body})
	return nil
}

// fakeStore serves only rows inside the queried window, like the real store.
type fakeStore struct {
	portfolio []domain.PortfolioSnapshot
	positions []domain.PositionSnapshot
}

func (s *fakeStore) ListPortfolioBetween(ctx context.Context, from, to time.Time) ([]domain.PortfolioSnapshot, error) {
	var out []domain.PortfolioSnapshot
	for _, snap := range s.portfolio {
		if !snap.Timestamp.Before(from) && snap.Timestamp.Before(to) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *fakeStore) ListPositionBetween(ctx context.Context, from, to time.Time) ([]domain.PositionSnapshot, error) {
	var out []domain.PositionSnapshot
	for _, snap := range s.positions {
		if !snap.Timestamp.Before(from) && snap.Timestamp.Before(to) {
			out = append(out, snap)
		}
	}
	return out, nil
}

type fakeMarks struct {
	marks map[string]time.Time
}

func newFakeMarks() *fakeMarks {
	return &fakeMarks{marks: make(map[string]time.Time)}
}

func (m *fakeMarks) ArchivedThrough(ctx context.Context, kind string) (time.Time, error) {
	return m.marks[kind], nil
}

func (m *fakeMarks) SetArchivedThrough(ctx context.Context, kind string, through time.Time) error {
	m.marks[kind] = through
	return nil
}

type auditEntry struct {
	event  string
	detail map[string]any
}

type fakeAudit struct {
	entries []auditEntry
}

func (a *fakeAudit) Log(ctx context.Context, event string, detail map[string]any) error {
	a.entries = append(a.entries, auditEntry{event: event, detail: detail})
	return nil
}

func ts(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestArchivePortfolioSnapshotsGroupsByRowMonth(t *testing.T) {
	t.Parallel()

	store := &fakeStore{portfolio: []domain.PortfolioSnapshot{
		{ID: 1, TotalValue: 100, Timestamp: ts(2025, time.January, 10)},
		{ID: 2, TotalValue: 110, Timestamp: ts(2025, time.January, 20)},
		{ID: 3, TotalValue: 120, Timestamp: ts(2025, time.February, 5)},
	}}
	writer := &fakeWriter{}
	marks := newFakeMarks()
	audit := &fakeAudit{}

	a := NewArchiver(writer, store, store, marks, audit)
	before := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	count, err := a.ArchivePortfolioSnapshots(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.Len(t, writer.uploads, 2)
	jan, feb := writer.uploads[0], writer.uploads[1]
	assert.Equal(t, "archive/portfolio_snapshots/2025-01.jsonl", jan.path)
	assert.Equal(t, "archive/portfolio_snapshots/2025-02.jsonl", feb.path)
	assert.Equal(t, "application/x-ndjson", jan.contentType)

	// One JSON object per line, rows in their own month's file.
	assert.Len(t, strings.Split(strings.TrimRight(string(jan.body), "\n"), "\n"), 2)
	assert.Len(t, strings.Split(strings.TrimRight(string(feb.body), "\n"), "\n"), 1)

	// Watermark advances to the start of the cutoff's month.
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), marks.marks[kindPortfolio])

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "archive.portfolio_snapshots", audit.entries[0].event)
	assert.Equal(t, int64(3), audit.entries[0].detail["count"])
	assert.Equal(t, []string{"2025-01", "2025-02"}, audit.entries[0].detail["months"])
}

func TestArchiveSweepExportsEachRowOnce(t *testing.T) {
	t.Parallel()

	store := &fakeStore{portfolio: []domain.PortfolioSnapshot{
		{ID: 1, Timestamp: ts(2025, time.January, 10)},
	}}
	writer := &fakeWriter{}
	marks := newFakeMarks()

	a := NewArchiver(writer, store, store, marks, &fakeAudit{})
	before := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	count, err := a.ArchivePortfolioSnapshots(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, writer.uploads, 1)

	// The next sweep starts at the watermark: nothing re-queried, nothing
	// re-uploaded, even with a later cutoff.
	count, err = a.ArchivePortfolioSnapshots(context.Background(), before.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, writer.uploads, 1)

	// A row landing in a newly completed month exports alone.
	store.portfolio = append(store.portfolio, domain.PortfolioSnapshot{
		ID: 2, Timestamp: ts(2025, time.March, 2),
	})
	count, err = a.ArchivePortfolioSnapshots(context.Background(), time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, writer.uploads, 2)
	assert.Equal(t, "archive/portfolio_snapshots/2025-03.jsonl", writer.uploads[1].path)
	assert.Len(t, strings.Split(strings.TrimRight(string(writer.uploads[1].body), "\n"), "\n"), 1,
		"a new month's file must not repeat earlier months' rows")
}

func TestArchiveHoldsBackCutoffMonth(t *testing.T) {
	t.Parallel()

	// The cutoff's own month is still accumulating rows; it stays in the
	// primary store until it has closed.
	store := &fakeStore{positions: []domain.PositionSnapshot{
		{ID: 1, PositionID: "p1", Timestamp: ts(2025, time.March, 3)},
	}}
	writer := &fakeWriter{}
	marks := newFakeMarks()

	a := NewArchiver(writer, store, store, marks, &fakeAudit{})
	before := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	count, err := a.ArchivePositionSnapshots(context.Background(), before)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, writer.uploads)
}

func TestArchiveEmptyWindowAdvancesWatermark(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	marks := newFakeMarks()
	audit := &fakeAudit{}
	a := NewArchiver(writer, &fakeStore{}, &fakeStore{}, marks, audit)

	before := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	count, err := a.ArchivePositionSnapshots(context.Background(), before)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Empty(t, writer.uploads, "nothing to archive means no upload")
	assert.Empty(t, audit.entries)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), marks.marks[kindPosition])
}
