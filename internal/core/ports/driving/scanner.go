package driving

import (
	"context"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// Scanner reconciles watched directories with the files on disk.
type Scanner interface {
	// ScanDirectory scans one directory regardless of its due time.
	// Returns domain.ErrScanInProgress if the directory is already being scanned.
	ScanDirectory(ctx context.Context, directoryID string) (*domain.ScanResult, error)

	// ScanAll scans enabled directories. When onlyDue is true, directories
	// whose scan interval has not elapsed are skipped. Directory failures
	// are joined into the returned error; the results of successful scans
	// are still returned.
	ScanAll(ctx context.Context, onlyDue bool) ([]domain.ScanResult, error)
}
