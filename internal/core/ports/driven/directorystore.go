package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// DirectoryStore persists watched directory configurations.
type DirectoryStore interface {
	// Save stores or updates a directory.
	Save(ctx context.Context, dir domain.WatchedDirectory) error

	// Get retrieves a directory by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.WatchedDirectory, error)

	// List returns all directories ordered by name.
	List(ctx context.Context) ([]domain.WatchedDirectory, error)

	// ListEnabled returns the enabled directories ordered by name.
	ListEnabled(ctx context.Context) ([]domain.WatchedDirectory, error)

	// Delete removes a directory and all its monitored files.
	Delete(ctx context.Context, id string) error

	// UpdateLastScan records when the directory was last scanned.
	UpdateLastScan(ctx context.Context, id string, at time.Time) error
}
