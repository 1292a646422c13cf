package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/services"
)

// mockScanner implements driving.Scanner for testing.
type mockScanner struct {
	result  *domain.ScanResult
	results []domain.ScanResult
	err     error
	scanned []string
	onlyDue []bool
}

func (m *mockScanner) ScanDirectory(_ context.Context, id string) (*domain.ScanResult, error) {
	m.scanned = append(m.scanned, id)
	return m.result, m.err
}

func (m *mockScanner) ScanAll(_ context.Context, onlyDue bool) ([]domain.ScanResult, error) {
	m.onlyDue = append(m.onlyDue, onlyDue)
	return m.results, m.err
}

// mockScheduler implements driving.MonitoringScheduler for testing.
type mockScheduler struct {
	mu       sync.Mutex
	status   domain.SchedulerStatus
	run      domain.RunResult
	startErr error
	started  int
	stopped  int
	forced   int
}

func (m *mockScheduler) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
	return m.startErr
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	return nil
}

func (m *mockScheduler) ForceRun(_ context.Context) domain.RunResult {
	m.forced++
	return m.run
}

func (m *mockScheduler) RunCycle(_ context.Context) domain.CycleResult {
	return domain.CycleResult{}
}

func (m *mockScheduler) SetCheckInterval(d time.Duration) error {
	m.status.CheckInterval = d
	return nil
}

func (m *mockScheduler) Status() domain.SchedulerStatus {
	return m.status
}

// mockHistory implements HistoryReader for testing.
type mockHistory struct {
	cycles []domain.CycleResult
	limit  int
}

func (m *mockHistory) History(_ context.Context, limit int) ([]domain.CycleResult, error) {
	m.limit = limit
	return m.cycles, nil
}

// mockWatcher implements Runner for testing. It blocks until ctx is cancelled.
type mockWatcher struct {
	started chan struct{}
}

func (m *mockWatcher) Run(ctx context.Context) error {
	close(m.started)
	<-ctx.Done()
	return nil
}

// testServices are real services over memory stores plus mocks for the
// scanner and scheduler.
type testServices struct {
	dirs      *services.DirectoryService
	files     *memory.FileStore
	settings  *services.SettingsService
	cache     *memory.ExtractionCache
	scanner   *mockScanner
	scheduler *mockScheduler
	history   *mockHistory
}

// setupServices installs test services and restores the previous ones on cleanup.
func setupServices(t *testing.T) *testServices {
	t.Helper()
	files := memory.NewFileStore()
	ts := &testServices{
		dirs:      services.NewDirectoryService(memory.NewDirectoryStore(files), files),
		files:     files,
		settings:  services.NewSettingsService(memory.NewConfigStore()),
		cache:     memory.NewExtractionCache(),
		scanner:   &mockScanner{},
		scheduler: &mockScheduler{},
		history:   &mockHistory{},
	}
	useServices(&Services{
		Directories: ts.dirs,
		Scanner:     ts.scanner,
		Scheduler:   ts.scheduler,
		Settings:    ts.settings,
		Cache:       ts.cache,
		History:     ts.history,
	})
	t.Cleanup(func() { useServices(&Services{}) })
	return ts
}

// addDir adds a watched directory backed by a temporary directory.
func (ts *testServices) addDir(t *testing.T, name string) *domain.WatchedDirectory {
	t.Helper()
	dir := domain.NewWatchedDirectory(t.TempDir(), name, time.Now())
	added, err := ts.dirs.Add(context.Background(), dir)
	require.NoError(t, err)
	return added
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

// executeContext runs the root command with ctx. Flag values and contexts
// are reset first since commands are package-level.
func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetCommands(ctx, rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetCommands(ctx context.Context, cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		resetCommands(ctx, c)
	}
}
