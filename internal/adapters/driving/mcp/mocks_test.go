package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// mockDirectoryService is a mock implementation of driving.DirectoryService.
type mockDirectoryService struct {
	dirs     []domain.WatchedDirectory
	files    []domain.MonitoredFile
	err      error
	filesErr error
}

func (m *mockDirectoryService) Add(_ context.Context, dir domain.WatchedDirectory) (*domain.WatchedDirectory, error) {
	return &dir, m.err
}

func (m *mockDirectoryService) Update(_ context.Context, dir domain.WatchedDirectory) (*domain.WatchedDirectory, error) {
	return &dir, m.err
}

func (m *mockDirectoryService) Remove(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDirectoryService) Get(_ context.Context, id string) (*domain.WatchedDirectory, error) {
	for i := range m.dirs {
		if m.dirs[i].ID == id {
			return &m.dirs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDirectoryService) List(_ context.Context) ([]domain.WatchedDirectory, error) {
	return m.dirs, m.err
}

func (m *mockDirectoryService) ListFiles(_ context.Context, _ string) ([]domain.MonitoredFile, error) {
	return m.files, m.filesErr
}

func (m *mockDirectoryService) RecentFiles(_ context.Context, _ string, _ time.Time) ([]domain.MonitoredFile, error) {
	return m.files, m.filesErr
}

func (m *mockDirectoryService) Stats(_ context.Context, _ string) (domain.DirectoryStats, error) {
	return domain.DirectoryStats{}, m.err
}

func (m *mockDirectoryService) Overview(_ context.Context) (*domain.Overview, error) {
	return &domain.Overview{}, m.err
}

// mockScanner is a mock implementation of driving.Scanner.
type mockScanner struct {
	result  *domain.ScanResult
	err     error
	scanned []string
}

func (m *mockScanner) ScanDirectory(_ context.Context, directoryID string) (*domain.ScanResult, error) {
	m.scanned = append(m.scanned, directoryID)
	return m.result, m.err
}

func (m *mockScanner) ScanAll(_ context.Context, _ bool) ([]domain.ScanResult, error) {
	if m.result == nil {
		return nil, m.err
	}
	return []domain.ScanResult{*m.result}, m.err
}

// mockScheduler is a mock implementation of driving.MonitoringScheduler.
type mockScheduler struct {
	status domain.SchedulerStatus
	run    domain.RunResult
	forced int
}

func (m *mockScheduler) Start(_ context.Context) error { return nil }
func (m *mockScheduler) Stop() error                   { return nil }

func (m *mockScheduler) ForceRun(_ context.Context) domain.RunResult {
	m.forced++
	return m.run
}

func (m *mockScheduler) RunCycle(_ context.Context) domain.CycleResult {
	return domain.CycleResult{Trigger: domain.TriggerTimer, Success: true}
}

func (m *mockScheduler) SetCheckInterval(d time.Duration) error {
	m.status.CheckInterval = d
	return nil
}

func (m *mockScheduler) Status() domain.SchedulerStatus {
	return m.status
}
