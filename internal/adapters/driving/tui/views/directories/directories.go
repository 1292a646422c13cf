// Package directories provides the watched directories view of the dashboard.
package directories

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
)

// View lists the watched directories with their file counts.
type View struct {
	ctx              context.Context
	styles           *styles.Styles
	directoryService driving.DirectoryService

	rows     []messages.DirectoryRow
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new directories view.
func NewView(s *styles.Styles, directoryService driving.DirectoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:              context.Background(),
		styles:           s,
		directoryService: directoryService,
		rows:             []messages.DirectoryRow{},
	}
}

// SetContext sets the context used by service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init initialises the view and loads the directories.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.Load()
}

// Load returns a command that reads the directories and their counts.
func (v *View) Load() tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.directoryService == nil {
			return messages.DirectoriesLoaded{Err: fmt.Errorf("directory service not available")}
		}

		dirs, err := v.directoryService.List(ctx)
		if err != nil {
			return messages.DirectoriesLoaded{Err: err}
		}

		rows := make([]messages.DirectoryRow, len(dirs))
		for i := range dirs {
			rows[i].Directory = dirs[i]
			stats, err := v.directoryService.Stats(ctx, dirs[i].ID)
			if err != nil {
				return messages.DirectoriesLoaded{Err: fmt.Errorf("stats for %s: %w", dirs[i].Name, err)}
			}
			rows[i].Stats = stats
		}
		return messages.DirectoriesLoaded{Rows: rows}
	}
}

// Update handles messages for the directories view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DirectoriesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.rows = msg.Rows
		v.err = nil
		if v.selected >= len(v.rows) {
			v.selected = max(len(v.rows)-1, 0)
		}
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.rows)-1 {
			v.selected++
		}
	case "enter":
		if dir := v.SelectedDirectory(); dir != nil {
			selected := *dir
			return v, func() tea.Msg {
				return messages.DirectorySelected{Directory: selected}
			}
		}
	case "s":
		if dir := v.SelectedDirectory(); dir != nil {
			selected := *dir
			return v, func() tea.Msg {
				return messages.ScanRequested{Directory: selected}
			}
		}
	case "r":
		v.loading = true
		return v, v.Load()
	}

	return v, nil
}

// View renders the directories view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Watched directories"))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.rows) == 0:
		b.WriteString(v.styles.Muted.Render("Loading directories..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.rows) == 0:
		b.WriteString(v.styles.Muted.Render("No directories watched. Add one with: corpuswatch dir add <path>"))
	default:
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("  %-20s %9s %6s %6s  %s", "NAME", "PROCESSED", "ERRORS", "MISS", "LAST SCAN")))
		b.WriteString("\n")
		for i := range v.rows {
			b.WriteString(v.renderRow(i, &v.rows[i]))
			b.WriteString("\n")
		}
		if dir := v.SelectedDirectory(); dir != nil {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(dir.Path))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// renderRow renders a single directory line.
func (v *View) renderRow(index int, row *messages.DirectoryRow) string {
	dir := &row.Directory
	name := dir.Name
	if name == "" {
		name = dir.ID
	}
	if len([]rune(name)) > 20 {
		name = string([]rune(name)[:17]) + "..."
	}
	if !dir.Enabled {
		name += " (off)"
	}

	processed := fmt.Sprintf("%d/%d", row.Stats.Processed, row.Stats.Total)
	line := fmt.Sprintf("%-20s %9s %6d %6d  %s",
		name, processed, row.Stats.Errors, row.Stats.Missing, lastScan(dir.LastScanAt))

	if index == v.selected {
		return v.styles.Selected.Render("> " + line)
	}
	if row.Stats.Errors > 0 {
		return v.styles.Normal.Render("  ") + v.styles.Error.Render(line)
	}
	return v.styles.Normal.Render("  " + line)
}

func lastScan(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] files  [s] scan  [R] run all  [r] reload  [?] help  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Rows returns the loaded directories.
func (v *View) Rows() []messages.DirectoryRow {
	return v.rows
}

// SelectedIndex returns the currently selected row index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDirectory returns the selected directory, or nil when empty.
func (v *View) SelectedDirectory() *domain.WatchedDirectory {
	if v.selected < len(v.rows) {
		return &v.rows[v.selected].Directory
	}
	return nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
