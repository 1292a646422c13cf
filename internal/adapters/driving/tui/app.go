package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/views/directories"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/views/files"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// DefaultRefreshInterval is how often the dashboard reloads counts and
// the scheduler status.
const DefaultRefreshInterval = 5 * time.Second

// App is the dashboard application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	statusBar       *status.Bar
	directoriesView *directories.View
	filesView       *files.View

	// currentView tracks which view is active; previousView is restored
	// when the help view closes.
	currentView  messages.ViewType
	previousView messages.ViewType

	refreshInterval time.Duration

	// scanning is true while a scan or forced run is in flight.
	scanning bool

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new dashboard with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetHints(km.DirectoriesHelp())

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		keymap:          km,
		statusBar:       bar,
		directoriesView: directories.NewView(s, ports.Directories),
		filesView:       files.NewView(s, ports.Directories),
		currentView:     messages.ViewDirectories,
		refreshInterval: DefaultRefreshInterval,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.directoriesView.SetContext(ctx)
	a.filesView.SetContext(ctx)
	return a
}

// WithRefreshInterval sets the periodic refresh. Zero disables it.
func (a *App) WithRefreshInterval(d time.Duration) *App {
	a.refreshInterval = d
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("corpuswatch"),
		a.directoriesView.Init(),
		a.loadStatus(),
		a.tick(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.DirectorySelected:
		a.currentView = messages.ViewFiles
		a.statusBar.SetHints(a.keymap.FilesHelp())
		return a, a.filesView.SetDirectory(msg.Directory)

	case messages.DirectoriesLoaded:
		a.directoriesView, cmd = a.directoriesView.Update(msg)
		return a, cmd

	case messages.FilesLoaded:
		a.filesView, cmd = a.filesView.Update(msg)
		return a, cmd

	case messages.ScanRequested:
		return a, a.scan(msg.Directory)

	case messages.RunRequested:
		return a, a.forceRun()

	case messages.ScanCompleted:
		a.scanning = false
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.statusBar.SetState(status.StateReady)
			a.statusBar.SetMessage(summariseScan(msg.Result))
		}
		return a, a.reload()

	case messages.RunCompleted:
		a.scanning = false
		if !msg.Run.Success {
			a.setError(errors.New(msg.Run.Error))
		} else {
			a.statusBar.SetState(status.StateReady)
			a.statusBar.SetMessage(summariseRun(msg.Run))
		}
		return a, a.reload()

	case messages.StatusLoaded:
		a.statusBar.SetScheduler(msg.Status)
		return a, nil

	case messages.Tick:
		if a.scanning {
			return a, tea.Batch(a.loadStatus(), a.tick())
		}
		return a, tea.Batch(a.reload(), a.tick())

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

// handleKeyMsg handles global keys and forwards the rest to the active view.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if keymap.Matches(keyStr, a.keymap.Back) || keymap.Matches(keyStr, a.keymap.Help) {
			return a, a.switchView(a.previousView)
		}
		if keymap.Matches(keyStr, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, nil
	}

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(keyStr, a.keymap.Help):
		a.previousView = a.currentView
		a.currentView = messages.ViewHelp
		a.statusBar.SetHints(nil)
		return a, nil
	case keymap.Matches(keyStr, a.keymap.RunAll):
		return a, a.forceRun()
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewDirectories:
		a.directoriesView, cmd = a.directoriesView.Update(msg)
	case messages.ViewFiles:
		a.filesView, cmd = a.filesView.Update(msg)
	case messages.ViewHelp:
		// handled above
	}
	return a, cmd
}

// switchView activates a view and refreshes it.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewDirectories:
		a.statusBar.SetHints(a.keymap.DirectoriesHelp())
		return a.directoriesView.Load()
	case messages.ViewFiles:
		a.statusBar.SetHints(a.keymap.FilesHelp())
		if a.filesView.Directory() != nil {
			return a.filesView.Load()
		}
	case messages.ViewHelp:
		a.statusBar.SetHints(nil)
	}
	return nil
}

// scan returns a command that scans one directory.
func (a *App) scan(dir domain.WatchedDirectory) tea.Cmd {
	if a.ports.Scanner == nil {
		a.setError(errors.New("scanner not available"))
		return nil
	}
	if a.scanning {
		a.statusBar.SetMessage("a scan is already running")
		return nil
	}
	a.scanning = true
	a.statusBar.SetState(status.StateScanning)
	a.statusBar.SetMessage(dir.Name)

	ctx, scanner := a.ctx, a.ports.Scanner
	return func() tea.Msg {
		result, err := scanner.ScanDirectory(ctx, dir.ID)
		return messages.ScanCompleted{DirectoryID: dir.ID, Result: result, Err: err}
	}
}

// forceRun returns a command that scans every enabled directory now.
func (a *App) forceRun() tea.Cmd {
	if a.ports.Scheduler == nil {
		a.setError(errors.New("scheduler not available"))
		return nil
	}
	if a.scanning {
		a.statusBar.SetMessage("a scan is already running")
		return nil
	}
	a.scanning = true
	a.statusBar.SetState(status.StateScanning)
	a.statusBar.SetMessage("all directories")

	ctx, scheduler := a.ctx, a.ports.Scheduler
	return func() tea.Msg {
		return messages.RunCompleted{Run: scheduler.ForceRun(ctx)}
	}
}

// loadStatus returns a command that reads the scheduler status.
func (a *App) loadStatus() tea.Cmd {
	if a.ports.Scheduler == nil {
		return nil
	}
	scheduler := a.ports.Scheduler
	return func() tea.Msg {
		return messages.StatusLoaded{Status: scheduler.Status()}
	}
}

// reload refreshes the active view and the scheduler status.
func (a *App) reload() tea.Cmd {
	cmds := []tea.Cmd{a.loadStatus(), a.directoriesView.Load()}
	if a.filesView.Directory() != nil {
		cmds = append(cmds, a.filesView.Load())
	}
	return tea.Batch(cmds...)
}

func (a *App) tick() tea.Cmd {
	if a.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(a.refreshInterval, func(time.Time) tea.Msg {
		return messages.Tick{}
	})
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(err.Error())
}

func summariseScan(r *domain.ScanResult) string {
	if r == nil {
		return "Scan finished"
	}
	return fmt.Sprintf("%s: %d new, %d modified, %d processed, %d errors",
		r.DirectoryName, r.New, r.Modified, r.Processed, r.Errors)
}

func summariseRun(run domain.RunResult) string {
	processed := 0
	for i := range run.Scans {
		processed += run.Scans[i].Processed
	}
	return fmt.Sprintf("Run finished: %d directories, %d files processed", len(run.Scans), processed)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewFiles:
		body = a.filesView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.directoriesView.View()
	}

	return body + "\n\n" + a.statusBar.View()
}

// viewHelp renders the help view from the key map.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(a.styles.Subtitle.Render(fmt.Sprintf("  %-8s", h.Key)))
			b.WriteString(a.styles.Normal.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the dashboard and blocks until it exits or ctx is cancelled.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// Scanning reports whether a scan is in flight.
func (a *App) Scanning() bool {
	return a.scanning
}

// StatusBar returns the status bar component.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// DirectoriesView returns the directories view.
func (a *App) DirectoriesView() *directories.View {
	return a.directoriesView
}

// FilesView returns the files view.
func (a *App) FilesView() *files.View {
	return a.filesView
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.statusBar.SetWidth(width)
	a.directoriesView.SetDimensions(width, height-2)
	a.filesView.SetDimensions(width, height-2)
}
