package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// FileStore persists monitored file records.
// There is at most one record per (directory, path).
type FileStore interface {
	// Save creates or updates a record, keyed by directory and path.
	Save(ctx context.Context, file *domain.MonitoredFile) error

	// Get retrieves a record by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.MonitoredFile, error)

	// ListByDirectory returns all records of a directory ordered by path.
	ListByDirectory(ctx context.Context, directoryID string) ([]domain.MonitoredFile, error)

	// ListProcessedSince returns records processed at or after since,
	// most recent first. An empty directoryID matches all directories.
	ListProcessedSince(ctx context.Context, directoryID string, since time.Time) ([]domain.MonitoredFile, error)

	// Delete removes a record.
	Delete(ctx context.Context, id string) error

	// Stats counts the records of a directory by status.
	// An empty directoryID counts all directories.
	Stats(ctx context.Context, directoryID string) (domain.DirectoryStats, error)
}
