package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

type appFixture struct {
	app       *App
	dirs      *mockDirectoryService
	scanner   *mockScanner
	scheduler *mockScheduler
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	dirs := &mockDirectoryService{
		dirs: []domain.WatchedDirectory{
			{ID: "dir-1", Name: "Docs", Path: "/data/docs", Enabled: true},
			{ID: "dir-2", Name: "Policies", Path: "/data/policies", Enabled: true},
		},
		files: map[string][]domain.MonitoredFile{
			"dir-1": {
				{ID: "f-1", FilePath: "/data/docs/a.txt", Status: domain.StatusProcessed},
				{ID: "f-2", FilePath: "/data/docs/b.txt", Status: domain.StatusError, LastError: "model unavailable"},
			},
		},
	}
	f := &appFixture{
		dirs:    dirs,
		scanner: &mockScanner{result: &domain.ScanResult{DirectoryName: "Docs", New: 1, Processed: 1}},
		scheduler: &mockScheduler{
			status: domain.SchedulerStatus{Running: true, CheckInterval: 5 * time.Minute},
			run:    domain.RunResult{Success: true, Scans: []domain.ScanResult{{Processed: 2}, {Processed: 1}}},
		},
	}

	app, err := NewApp(&Ports{Directories: f.dirs, Scanner: f.scanner, Scheduler: f.scheduler})
	require.NoError(t, err)
	f.app = app.WithRefreshInterval(0)
	f.app.SetDimensions(120, 40)
	return f
}

// send delivers msg and then every message produced by the resulting
// commands, the way the Bubbletea runtime would.
func (f *appFixture) send(msg tea.Msg) {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		_, cmd := f.app.Update(next)
		queue = append(queue, runCmd(cmd)...)
	}
}

func (f *appFixture) key(s string) {
	f.send(keyMsg(s))
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// runCmd executes cmd and flattens batches. Only dashboard messages are
// returned; program-level messages such as quit are dropped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, runCmd(c)...)
		}
		return out
	case messages.ViewChanged, messages.DirectorySelected, messages.DirectoriesLoaded,
		messages.FilesLoaded, messages.ScanRequested, messages.RunRequested,
		messages.ScanCompleted, messages.RunCompleted, messages.StatusLoaded,
		messages.ErrorOccurred, messages.Quit, messages.Tick:
		return []tea.Msg{msg}
	default:
		return nil
	}
}

func TestNewApp_Validation(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingDirectoryService)

	_, err = NewApp(nil)
	assert.ErrorIs(t, err, ErrInvalidPorts)
}

func TestApp_NotReadyBeforeWindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Directories: &mockDirectoryService{}})
	require.NoError(t, err)

	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.True(t, app.Ready())
	assert.Equal(t, 100, app.StatusBar().Width())
}

func TestApp_Init_LoadsDirectoriesAndStatus(t *testing.T) {
	f := newAppFixture(t)

	for _, msg := range runCmd(f.app.Init()) {
		f.send(msg)
	}

	rows := f.app.DirectoriesView().Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Stats.Total)
	assert.Equal(t, 1, rows[0].Stats.Errors)

	view := f.app.View()
	assert.Contains(t, view, "Watched directories")
	assert.Contains(t, view, "Docs")
	assert.Contains(t, view, "scheduler every 5m0s")
}

func TestApp_OpenDirectoryShowsFiles(t *testing.T) {
	f := newAppFixture(t)
	f.send(f.app.DirectoriesView().Load()())

	f.key("enter")

	assert.Equal(t, messages.ViewFiles, f.app.CurrentView())
	require.NotNil(t, f.app.FilesView().Directory())
	assert.Equal(t, "dir-1", f.app.FilesView().Directory().ID)
	assert.Len(t, f.app.FilesView().Files(), 2)
	assert.Contains(t, f.app.View(), "Files - Docs (2)")

	f.key("esc")
	assert.Equal(t, messages.ViewDirectories, f.app.CurrentView())
}

func TestApp_ScanSelectedDirectory(t *testing.T) {
	f := newAppFixture(t)
	f.send(f.app.DirectoriesView().Load()())

	f.key("j")
	f.key("s")

	assert.Equal(t, []string{"dir-2"}, f.scanner.scanned)
	assert.False(t, f.app.Scanning())
	assert.Equal(t, status.StateReady, f.app.StatusBar().State())
	assert.Equal(t, "Docs: 1 new, 0 modified, 1 processed, 0 errors", f.app.StatusBar().Message())
}

func TestApp_ScanFailure(t *testing.T) {
	f := newAppFixture(t)
	f.scanner.err = domain.ErrScanInProgress
	f.send(f.app.DirectoriesView().Load()())

	f.key("s")

	assert.ErrorIs(t, f.app.Err(), domain.ErrScanInProgress)
	assert.Equal(t, status.StateError, f.app.StatusBar().State())
}

func TestApp_ScanWhileScanningIsIgnored(t *testing.T) {
	f := newAppFixture(t)
	dir := domain.WatchedDirectory{ID: "dir-1", Name: "Docs"}

	first := f.app.scan(dir)
	require.NotNil(t, first)
	assert.True(t, f.app.Scanning())

	assert.Nil(t, f.app.scan(dir))
	assert.Equal(t, "a scan is already running", f.app.StatusBar().Message())
}

func TestApp_ScanWithoutScanner(t *testing.T) {
	app, err := NewApp(&Ports{Directories: &mockDirectoryService{}})
	require.NoError(t, err)

	cmd := app.scan(domain.WatchedDirectory{ID: "dir-1"})

	assert.Nil(t, cmd)
	assert.EqualError(t, app.Err(), "scanner not available")
}

func TestApp_ForceRun(t *testing.T) {
	f := newAppFixture(t)

	f.key("R")

	assert.Equal(t, 1, f.scheduler.forced)
	assert.Equal(t, "Run finished: 2 directories, 3 files processed", f.app.StatusBar().Message())
}

func TestApp_ForceRunFailure(t *testing.T) {
	f := newAppFixture(t)
	f.scheduler.run = domain.RunResult{Success: false, Error: "directory unavailable"}

	f.key("R")

	assert.EqualError(t, f.app.Err(), "directory unavailable")
	assert.Equal(t, status.StateError, f.app.StatusBar().State())
}

func TestApp_ForceRunWithoutScheduler(t *testing.T) {
	app, err := NewApp(&Ports{Directories: &mockDirectoryService{}})
	require.NoError(t, err)

	_, cmd := app.Update(keyMsg("R"))

	assert.Nil(t, cmd)
	assert.EqualError(t, app.Err(), "scheduler not available")
}

func TestApp_HelpToggle(t *testing.T) {
	f := newAppFixture(t)

	f.key("?")
	assert.Equal(t, messages.ViewHelp, f.app.CurrentView())
	assert.Contains(t, f.app.View(), "run all")

	f.key("esc")
	assert.Equal(t, messages.ViewDirectories, f.app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	f := newAppFixture(t)

	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := f.app.Update(keyMsg(k))
		require.NotNil(t, cmd, k)
		assert.IsType(t, tea.QuitMsg{}, cmd(), k)
	}

	_, cmd := f.app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ErrorOccurred(t *testing.T) {
	f := newAppFixture(t)

	f.send(messages.ErrorOccurred{Err: errors.New("disk full")})

	assert.EqualError(t, f.app.Err(), "disk full")
	assert.Contains(t, f.app.View(), "Error: disk full")
}

func TestApp_TickReloads(t *testing.T) {
	f := newAppFixture(t)
	f.send(messages.Tick{})

	assert.Len(t, f.app.DirectoriesView().Rows(), 2)
	assert.Nil(t, f.app.tick())

	f.app.WithRefreshInterval(time.Second)
	assert.NotNil(t, f.app.tick())
}

func TestApp_WithContext(t *testing.T) {
	f := newAppFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Same(t, f.app, f.app.WithContext(ctx))
	assert.Equal(t, ctx, f.app.ctx)
}
