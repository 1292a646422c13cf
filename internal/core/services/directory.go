package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// Ensure DirectoryService implements the interface.
var _ driving.DirectoryService = (*DirectoryService)(nil)

// DirectoryService manages watched directory configurations.
type DirectoryService struct {
	dirs      driven.DirectoryStore
	files     driven.FileStore
	cache     driven.ExtractionCache // optional
	scanner   *Scanner               // optional
	now       domain.Clock
	newID     func() string
	checkPath func(path string) error
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(dirs driven.DirectoryStore, files driven.FileStore) *DirectoryService {
	return &DirectoryService{
		dirs:      dirs,
		files:     files,
		now:       time.Now,
		newID:     uuid.NewString,
		checkPath: checkDirectory,
	}
}

// WithClock replaces the clock used for timestamps.
func (s *DirectoryService) WithClock(clock domain.Clock) *DirectoryService {
	s.now = clock
	return s
}

// WithCache sets the cache whose entries are dropped when a directory is removed.
func (s *DirectoryService) WithCache(cache driven.ExtractionCache) *DirectoryService {
	s.cache = cache
	return s
}

// WithScanner makes Remove refuse a directory the scanner is working on.
func (s *DirectoryService) WithScanner(scanner *Scanner) *DirectoryService {
	s.scanner = scanner
	return s
}

// checkDirectory reports whether path is an existing directory.
func checkDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: not a directory: %s", domain.ErrDirectoryUnavailable, path)
	}
	return nil
}

// Add validates and stores a new directory with a fresh ID.
func (s *DirectoryService) Add(ctx context.Context, dir domain.WatchedDirectory) (*domain.WatchedDirectory, error) {
	dir.Path = filepath.Clean(dir.Path)
	if dir.Name == "" {
		dir.Name = filepath.Base(dir.Path)
	}
	dir.FileFilters.AllowedExtensions = domain.NormaliseExtensions(dir.FileFilters.AllowedExtensions)
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkPath(dir.Path); err != nil {
		return nil, err
	}
	if err := s.ensureUniquePath(ctx, "", dir.Path); err != nil {
		return nil, err
	}

	now := s.now()
	dir.ID = s.newID()
	dir.LastScanAt = nil
	dir.CreatedAt = now
	dir.UpdatedAt = now

	if err := s.dirs.Save(ctx, dir); err != nil {
		return nil, fmt.Errorf("save directory: %w", err)
	}
	return &dir, nil
}

// Update replaces the configuration of an existing directory.
// ID, creation time and last scan time are preserved.
func (s *DirectoryService) Update(ctx context.Context, dir domain.WatchedDirectory) (*domain.WatchedDirectory, error) {
	existing, err := s.dirs.Get(ctx, dir.ID)
	if err != nil {
		return nil, err
	}

	dir.Path = filepath.Clean(dir.Path)
	if dir.Name == "" {
		dir.Name = filepath.Base(dir.Path)
	}
	dir.FileFilters.AllowedExtensions = domain.NormaliseExtensions(dir.FileFilters.AllowedExtensions)
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	if dir.Path != existing.Path {
		if err := s.checkPath(dir.Path); err != nil {
			return nil, err
		}
		if err := s.ensureUniquePath(ctx, dir.ID, dir.Path); err != nil {
			return nil, err
		}
	}

	dir.CreatedAt = existing.CreatedAt
	dir.LastScanAt = existing.LastScanAt
	dir.UpdatedAt = s.now()

	if err := s.dirs.Save(ctx, dir); err != nil {
		return nil, fmt.Errorf("save directory: %w", err)
	}
	return &dir, nil
}

func (s *DirectoryService) ensureUniquePath(ctx context.Context, id, path string) error {
	dirs, err := s.dirs.List(ctx)
	if err != nil {
		return fmt.Errorf("list directories: %w", err)
	}
	for i := range dirs {
		if dirs[i].ID != id && dirs[i].Path == path {
			return fmt.Errorf("%w: %s is already watched as %s", domain.ErrAlreadyExists, path, dirs[i].Name)
		}
	}
	return nil
}

// Remove deletes a directory, its monitored files and their cache entries.
// Returns domain.ErrScanInProgress while the directory is being scanned.
func (s *DirectoryService) Remove(ctx context.Context, id string) error {
	dir, err := s.dirs.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.scanner != nil {
		if !s.scanner.acquire(id) {
			return fmt.Errorf("%w: %s", domain.ErrScanInProgress, dir.Name)
		}
		defer s.scanner.release(id)
	}

	var files []domain.MonitoredFile
	if s.cache != nil {
		files, err = s.files.ListByDirectory(ctx, id)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
	}
	if err := s.dirs.Delete(ctx, id); err != nil {
		return err
	}

	dropped := 0
	for i := range files {
		if err := s.cache.Invalidate(ctx, files[i].ID); err != nil {
			logger.Warn("Failed to drop cache entry for %s: %v", files[i].FilePath, err)
			continue
		}
		dropped++
	}
	logger.Info("Removed directory %s, dropped %d cache entries", dir.Name, dropped)
	return nil
}

// Get retrieves a directory by ID.
func (s *DirectoryService) Get(ctx context.Context, id string) (*domain.WatchedDirectory, error) {
	return s.dirs.Get(ctx, id)
}

// List returns all directories.
func (s *DirectoryService) List(ctx context.Context) ([]domain.WatchedDirectory, error) {
	return s.dirs.List(ctx)
}

// ListFiles returns the monitored files of a directory.
func (s *DirectoryService) ListFiles(ctx context.Context, id string) ([]domain.MonitoredFile, error) {
	if _, err := s.dirs.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.files.ListByDirectory(ctx, id)
}

// RecentFiles returns files processed at or after since, most recent first.
// An empty id covers every directory.
func (s *DirectoryService) RecentFiles(ctx context.Context, id string, since time.Time) ([]domain.MonitoredFile, error) {
	if id != "" {
		if _, err := s.dirs.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.files.ListProcessedSince(ctx, id, since)
}

// Stats counts the files of a directory by status.
func (s *DirectoryService) Stats(ctx context.Context, id string) (domain.DirectoryStats, error) {
	if _, err := s.dirs.Get(ctx, id); err != nil {
		return domain.DirectoryStats{}, err
	}
	return s.files.Stats(ctx, id)
}

// Overview summarises all directories.
func (s *DirectoryService) Overview(ctx context.Context) (*domain.Overview, error) {
	dirs, err := s.dirs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}
	stats, err := s.files.Stats(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("file stats: %w", err)
	}

	overview := &domain.Overview{TotalDirectories: len(dirs), Files: stats}
	for i := range dirs {
		if dirs[i].Enabled {
			overview.ActiveDirectories++
		}
		if at := dirs[i].LastScanAt; at != nil {
			if overview.LastScanAt == nil || at.After(*overview.LastScanAt) {
				last := *at
				overview.LastScanAt = &last
			}
		}
	}
	return overview, nil
}
