package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// DirectoryService manages watched directories.
type DirectoryService interface {
	// Add validates and stores a new directory. The ID is assigned here.
	// Returns domain.ErrAlreadyExists if the path is already watched.
	Add(ctx context.Context, dir domain.WatchedDirectory) (*domain.WatchedDirectory, error)

	// Update replaces the configuration of an existing directory.
	Update(ctx context.Context, dir domain.WatchedDirectory) (*domain.WatchedDirectory, error)

	// Remove deletes a directory and its monitored files.
	Remove(ctx context.Context, id string) error

	// Get retrieves a directory by ID.
	Get(ctx context.Context, id string) (*domain.WatchedDirectory, error)

	// List returns all directories.
	List(ctx context.Context) ([]domain.WatchedDirectory, error)

	// ListFiles returns the monitored files of a directory.
	ListFiles(ctx context.Context, id string) ([]domain.MonitoredFile, error)

	// RecentFiles returns files processed at or after since, most recent
	// first. An empty id covers every directory.
	RecentFiles(ctx context.Context, id string, since time.Time) ([]domain.MonitoredFile, error)

	// Stats counts the files of a directory by status.
	Stats(ctx context.Context, id string) (domain.DirectoryStats, error)

	// Overview summarises all directories.
	Overview(ctx context.Context) (*domain.Overview, error)
}
