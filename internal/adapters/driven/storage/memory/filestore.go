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

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore is an in-memory implementation of driven.FileStore.
type FileStore struct {
	mu    sync.RWMutex
	files map[string]domain.MonitoredFile
}

// NewFileStore creates a new in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[string]domain.MonitoredFile),
	}
}

// Save creates or updates a record.
// Returns domain.ErrAlreadyExists if another record holds the same directory and path.
func (s *FileStore) Save(_ context.Context, file *domain.MonitoredFile) error {
	if file == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.files {
		if id != file.ID &&
			existing.WatchedDirectoryID == file.WatchedDirectoryID &&
			existing.FilePath == file.FilePath {
			return fmt.Errorf("%w: file %s", domain.ErrAlreadyExists, file.FilePath)
		}
	}
	s.files[file.ID] = cloneFile(*file)
	return nil
}

// Get retrieves a record by ID.
func (s *FileStore) Get(_ context.Context, id string) (*domain.MonitoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, ok := s.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	file = cloneFile(file)
	return &file, nil
}

// ListByDirectory returns all records of a directory ordered by path.
func (s *FileStore) ListByDirectory(_ context.Context, directoryID string) ([]domain.MonitoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.MonitoredFile
	for _, file := range s.files {
		if file.WatchedDirectoryID == directoryID {
			result = append(result, cloneFile(file))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FilePath < result[j].FilePath
	})
	return result, nil
}

// ListProcessedSince returns records processed at or after since, most recent first.
func (s *FileStore) ListProcessedSince(
	_ context.Context, directoryID string, since time.Time,
) ([]domain.MonitoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.MonitoredFile
	for _, file := range s.files {
		if directoryID != "" && file.WatchedDirectoryID != directoryID {
			continue
		}
		if file.ProcessedAt == nil || file.ProcessedAt.Before(since) {
			continue
		}
		result = append(result, cloneFile(file))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProcessedAt.After(*result[j].ProcessedAt)
	})
	return result, nil
}

// Delete removes a record.
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	return nil
}

// Stats counts the records of a directory by status.
func (s *FileStore) Stats(_ context.Context, directoryID string) (domain.DirectoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.DirectoryStats{DirectoryID: directoryID}
	for _, file := range s.files {
		if directoryID == "" || file.WatchedDirectoryID == directoryID {
			stats.Add(file.Status)
		}
	}
	return stats, nil
}

func (s *FileStore) deleteDirectory(directoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, file := range s.files {
		if file.WatchedDirectoryID == directoryID {
			delete(s.files, id)
		}
	}
}

func cloneFile(file domain.MonitoredFile) domain.MonitoredFile {
	if file.ProcessedAt != nil {
		at := *file.ProcessedAt
		file.ProcessedAt = &at
	}
	if file.Analysis != nil {
		a := *file.Analysis
		file.Analysis = &a
	}
	return file
}
