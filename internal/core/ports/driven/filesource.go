package driven

import (
	"context"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// FileSource gives the scanner access to a watched tree.
type FileSource interface {
	// List returns the regular files under root in enumeration order.
	// An unreadable root returns domain.ErrDirectoryUnavailable.
	List(ctx context.Context, root string) ([]string, error)

	// Fingerprint computes the content identity of a file.
	// Failures are returned as *domain.FingerprintError.
	Fingerprint(ctx context.Context, path string) (domain.Fingerprint, error)

	// Read returns the full content of a file.
	Read(ctx context.Context, path string) ([]byte, error)
}
