package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// ExtractionCache stores derived records per content identity so that
// unchanged content is never sent to the extractor twice.
// Failures are reported as *domain.CacheIOError.
type ExtractionCache interface {
	// Get returns the entry for key, or nil and no error on a miss.
	// An entry is only returned when both document ID and content hash match.
	Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error)

	// Put stores an entry, overwriting any previous entry for the document.
	Put(ctx context.Context, entry domain.CacheEntry) error

	// NeedsReprocessing reports whether the document was never processed
	// or was last processed with a different hash.
	NeedsReprocessing(ctx context.Context, documentID, hash string) (bool, error)

	// Invalidate removes the entry for a document. A missing entry is not an error.
	Invalidate(ctx context.Context, documentID string) error

	// InvalidateOlderThan removes entries computed more than age ago
	// and returns how many were removed.
	InvalidateOlderThan(ctx context.Context, age time.Duration) (int, error)
}
