package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

func newTestDirectoryService() (*DirectoryService, *memory.FileStore, *testClock) {
	clock := newTestClock()
	files := memory.NewFileStore()
	svc := NewDirectoryService(memory.NewDirectoryStore(files), files).WithClock(clock.Now)

	next := 0
	svc.newID = func() string {
		next++
		return fmt.Sprintf("dir-%d", next)
	}
	svc.checkPath = func(string) error { return nil }
	return svc, files, clock
}

func TestDirectoryService_Add(t *testing.T) {
	svc, _, clock := newTestDirectoryService()

	dir := domain.NewWatchedDirectory("/data/handbook/", "", time.Time{})
	dir.FileFilters.AllowedExtensions = []string{"TXT", ".md"}

	added, err := svc.Add(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, "dir-1", added.ID)
	assert.Equal(t, "/data/handbook", added.Path)
	assert.Equal(t, "handbook", added.Name)
	assert.Equal(t, []string{".txt", ".md"}, added.FileFilters.AllowedExtensions)
	assert.Equal(t, clock.Now(), added.CreatedAt)
	assert.Nil(t, added.LastScanAt)

	got, err := svc.Get(context.Background(), "dir-1")
	require.NoError(t, err)
	assert.Equal(t, added.Path, got.Path)
}

func TestDirectoryService_Add_DuplicatePath(t *testing.T) {
	svc, _, _ := newTestDirectoryService()
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/handbook", "Handbook", time.Time{}))
	require.NoError(t, err)

	_, err = svc.Add(ctx, domain.NewWatchedDirectory("/data/handbook/", "Again", time.Time{}))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestDirectoryService_Add_Invalid(t *testing.T) {
	svc, _, _ := newTestDirectoryService()

	dir := domain.NewWatchedDirectory("/data/handbook", "Handbook", time.Time{})
	dir.ScanInterval = 0

	_, err := svc.Add(context.Background(), dir)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDirectoryService_Add_UnavailablePath(t *testing.T) {
	files := memory.NewFileStore()
	svc := NewDirectoryService(memory.NewDirectoryStore(files), files)

	_, err := svc.Add(context.Background(), domain.NewWatchedDirectory("/definitely/not/here", "", time.Time{}))
	assert.ErrorIs(t, err, domain.ErrDirectoryUnavailable)

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = svc.Add(context.Background(), domain.NewWatchedDirectory(file, "", time.Time{}))
	assert.ErrorIs(t, err, domain.ErrDirectoryUnavailable)

	added, err := svc.Add(context.Background(), domain.NewWatchedDirectory(t.TempDir(), "", time.Time{}))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
}

func TestDirectoryService_Update(t *testing.T) {
	svc, _, clock := newTestDirectoryService()
	ctx := context.Background()

	added, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/handbook", "Handbook", time.Time{}))
	require.NoError(t, err)
	require.NoError(t, svc.dirs.UpdateLastScan(ctx, added.ID, clock.Now()))

	clock.Advance(time.Hour)
	change := *added
	change.Name = "Team handbook"
	change.ScanInterval = 30 * time.Minute
	change.CreatedAt = time.Time{}

	updated, err := svc.Update(ctx, change)

	require.NoError(t, err)
	assert.Equal(t, "Team handbook", updated.Name)
	assert.Equal(t, 30*time.Minute, updated.ScanInterval)
	assert.Equal(t, added.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.LastScanAt)
	assert.Equal(t, clock.Now(), updated.UpdatedAt)
}

func TestDirectoryService_Update_PathCollision(t *testing.T) {
	svc, _, _ := newTestDirectoryService()
	ctx := context.Background()

	_, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	require.NoError(t, err)
	b, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/b", "B", time.Time{}))
	require.NoError(t, err)

	b.Path = "/data/a"
	_, err = svc.Update(ctx, *b)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestDirectoryService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestDirectoryService()

	_, err := svc.Update(context.Background(), domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectoryService_RemoveCascades(t *testing.T) {
	svc, files, _ := newTestDirectoryService()
	ctx := context.Background()

	added, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	require.NoError(t, err)
	require.NoError(t, files.Save(ctx, &domain.MonitoredFile{
		ID: "f1", WatchedDirectoryID: added.ID, FilePath: "/data/a/x.txt", Status: domain.StatusPending,
	}))

	require.NoError(t, svc.Remove(ctx, added.ID))

	_, err = svc.Get(ctx, added.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = files.Get(ctx, "f1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Remove(ctx, added.ID), domain.ErrNotFound)
}

func TestDirectoryService_RemoveDropsCacheEntries(t *testing.T) {
	svc, files, _ := newTestDirectoryService()
	cache := memory.NewExtractionCache()
	svc.WithCache(cache)
	ctx := context.Background()

	a, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	require.NoError(t, err)
	b, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/b", "B", time.Time{}))
	require.NoError(t, err)
	for _, f := range []domain.MonitoredFile{
		{ID: "fa", WatchedDirectoryID: a.ID, FilePath: "/data/a/x.txt", ContentHash: "h1", Status: domain.StatusProcessed},
		{ID: "fb", WatchedDirectoryID: b.ID, FilePath: "/data/b/y.txt", ContentHash: "h2", Status: domain.StatusProcessed},
	} {
		require.NoError(t, files.Save(ctx, &f))
		require.NoError(t, cache.Put(ctx, domain.CacheEntry{Key: domain.CacheKey{DocumentID: f.ID, ContentHash: f.ContentHash}}))
	}

	require.NoError(t, svc.Remove(ctx, a.ID))

	needs, err := cache.NeedsReprocessing(ctx, "fa", "h1")
	require.NoError(t, err)
	assert.True(t, needs)
	needs, err = cache.NeedsReprocessing(ctx, "fb", "h2")
	require.NoError(t, err)
	assert.False(t, needs)
	assert.Equal(t, 1, cache.Len())
}

func TestDirectoryService_RemoveDuringScan(t *testing.T) {
	svc, _, _ := newTestDirectoryService()
	scanner := NewScanner(nil, nil, nil, nil, nil, nil, ScannerConfig{})
	svc.WithScanner(scanner)
	ctx := context.Background()

	added, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	require.NoError(t, err)
	require.True(t, scanner.acquire(added.ID))

	err = svc.Remove(ctx, added.ID)
	assert.ErrorIs(t, err, domain.ErrScanInProgress)
	_, err = svc.Get(ctx, added.ID)
	require.NoError(t, err)

	scanner.release(added.ID)
	require.NoError(t, svc.Remove(ctx, added.ID))

	// The guard is released after a successful removal.
	assert.True(t, scanner.acquire(added.ID))
}

func TestDirectoryService_RecentFiles(t *testing.T) {
	svc, files, clock := newTestDirectoryService()
	ctx := context.Background()

	a, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	require.NoError(t, err)
	b, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/b", "B", time.Time{}))
	require.NoError(t, err)

	at := func(ago time.Duration) *time.Time {
		ts := clock.Now().Add(-ago)
		return &ts
	}
	for _, f := range []domain.MonitoredFile{
		{ID: "old", WatchedDirectoryID: a.ID, FilePath: "/data/a/old.txt", Status: domain.StatusProcessed, ProcessedAt: at(48 * time.Hour)},
		{ID: "new", WatchedDirectoryID: a.ID, FilePath: "/data/a/new.txt", Status: domain.StatusProcessed, ProcessedAt: at(time.Hour)},
		{ID: "newer", WatchedDirectoryID: b.ID, FilePath: "/data/b/newer.txt", Status: domain.StatusProcessed, ProcessedAt: at(time.Minute)},
		{ID: "never", WatchedDirectoryID: a.ID, FilePath: "/data/a/never.txt", Status: domain.StatusPending},
	} {
		require.NoError(t, files.Save(ctx, &f))
	}
	since := clock.Now().Add(-24 * time.Hour)

	tests := []struct {
		name    string
		id      string
		wantIDs []string
	}{
		{name: "one directory", id: a.ID, wantIDs: []string{"new"}},
		{name: "all directories", id: "", wantIDs: []string{"newer", "new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recent, err := svc.RecentFiles(ctx, tt.id, since)
			require.NoError(t, err)

			ids := make([]string, len(recent))
			for i := range recent {
				ids[i] = recent[i].ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	_, err = svc.RecentFiles(ctx, "nope", since)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectoryService_ListFilesAndStats(t *testing.T) {
	svc, files, _ := newTestDirectoryService()
	ctx := context.Background()

	added, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	require.NoError(t, err)
	for i, status := range []domain.FileStatus{domain.StatusProcessed, domain.StatusProcessed, domain.StatusExcluded} {
		require.NoError(t, files.Save(ctx, &domain.MonitoredFile{
			ID:                 fmt.Sprintf("f%d", i),
			WatchedDirectoryID: added.ID,
			FilePath:           fmt.Sprintf("/data/a/%d.txt", i),
			Status:             status,
		}))
	}

	list, err := svc.ListFiles(ctx, added.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	stats, err := svc.Stats(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Excluded)

	_, err = svc.ListFiles(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Stats(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectoryService_Overview(t *testing.T) {
	svc, files, clock := newTestDirectoryService()
	ctx := context.Background()

	a, err := svc.Add(ctx, domain.NewWatchedDirectory("/data/a", "A", time.Time{}))
	require.NoError(t, err)
	disabled := domain.NewWatchedDirectory("/data/b", "B", time.Time{})
	disabled.Enabled = false
	b, err := svc.Add(ctx, disabled)
	require.NoError(t, err)

	older := clock.Now().Add(-time.Hour)
	require.NoError(t, svc.dirs.UpdateLastScan(ctx, a.ID, older))
	require.NoError(t, svc.dirs.UpdateLastScan(ctx, b.ID, clock.Now()))
	require.NoError(t, files.Save(ctx, &domain.MonitoredFile{
		ID: "f1", WatchedDirectoryID: a.ID, FilePath: "/data/a/x.txt", Status: domain.StatusProcessed,
	}))

	overview, err := svc.Overview(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalDirectories)
	assert.Equal(t, 1, overview.ActiveDirectories)
	assert.Equal(t, 1, overview.Files.Total)
	require.NotNil(t, overview.LastScanAt)
	assert.Equal(t, clock.Now(), *overview.LastScanAt)
}
