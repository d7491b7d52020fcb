package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports old snapshot rows to cold storage. Export only; rows are
// never deleted from the primary store here.
type Archiver interface {
	ArchivePortfolioSnapshots(ctx context.Context, before time.Time) (int64, error)
	ArchivePositionSnapshots(ctx context.Context, before time.Time) (int64, error)
}
