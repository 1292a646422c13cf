package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure DirectoryStore implements the interface.
var _ driven.DirectoryStore = (*DirectoryStore)(nil)

// DirectoryStore is an in-memory implementation of driven.DirectoryStore.
type DirectoryStore struct {
	mu    sync.RWMutex
	dirs  map[string]domain.WatchedDirectory
	files *FileStore
}

// NewDirectoryStore creates a new in-memory directory store.
// When files is non-nil, deleting a directory also deletes its records there.
func NewDirectoryStore(files *FileStore) *DirectoryStore {
	return &DirectoryStore{
		dirs:  make(map[string]domain.WatchedDirectory),
		files: files,
	}
}

// Save stores or updates a directory.
// Returns domain.ErrAlreadyExists if another directory watches the same path.
func (s *DirectoryStore) Save(_ context.Context, dir domain.WatchedDirectory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.dirs {
		if id != dir.ID && existing.Path == dir.Path {
			return fmt.Errorf("%w: directory %s", domain.ErrAlreadyExists, dir.Path)
		}
	}
	s.dirs[dir.ID] = cloneDirectory(dir)
	return nil
}

// Get retrieves a directory by ID.
func (s *DirectoryStore) Get(_ context.Context, id string) (*domain.WatchedDirectory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dir, ok := s.dirs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	dir = cloneDirectory(dir)
	return &dir, nil
}

// List returns all directories ordered by name.
func (s *DirectoryStore) List(_ context.Context) ([]domain.WatchedDirectory, error) {
	return s.list(false), nil
}

// ListEnabled returns the enabled directories ordered by name.
func (s *DirectoryStore) ListEnabled(_ context.Context) ([]domain.WatchedDirectory, error) {
	return s.list(true), nil
}

func (s *DirectoryStore) list(enabledOnly bool) []domain.WatchedDirectory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.WatchedDirectory, 0, len(s.dirs))
	for _, dir := range s.dirs {
		if enabledOnly && !dir.Enabled {
			continue
		}
		result = append(result, cloneDirectory(dir))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Path < result[j].Path
	})
	return result
}

// Delete removes a directory and its monitored files.
func (s *DirectoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.dirs, id)
	s.mu.Unlock()

	if s.files != nil {
		s.files.deleteDirectory(id)
	}
	return nil
}

// UpdateLastScan records when the directory was last scanned.
func (s *DirectoryStore) UpdateLastScan(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, ok := s.dirs[id]
	if !ok {
		return domain.ErrNotFound
	}
	dir.LastScanAt = &at
	dir.UpdatedAt = at
	s.dirs[id] = dir
	return nil
}

// cloneDirectory copies the slices and pointers so callers cannot mutate
// stored state.
func cloneDirectory(dir domain.WatchedDirectory) domain.WatchedDirectory {
	if dir.LastScanAt != nil {
		at := *dir.LastScanAt
		dir.LastScanAt = &at
	}
	dir.FileFilters.AllowedExtensions = cloneStrings(dir.FileFilters.AllowedExtensions)
	dir.FileFilters.ExcludePatterns = cloneStrings(dir.FileFilters.ExcludePatterns)
	dir.ContentFilters.ExcludeKeywords = cloneStrings(dir.ContentFilters.ExcludeKeywords)
	dir.ContentFilters.RequireKeywords = cloneStrings(dir.ContentFilters.RequireKeywords)
	return dir
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
