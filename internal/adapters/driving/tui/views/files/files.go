// Package files provides the monitored files view of the dashboard.
package files

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
)

// filterOrder is the cycle of the status filter. The empty status shows all files.
var filterOrder = []domain.FileStatus{
	"",
	domain.StatusProcessed,
	domain.StatusPending,
	domain.StatusError,
	domain.StatusExcluded,
	domain.StatusMissing,
}

// View lists the monitored files of one directory.
type View struct {
	ctx              context.Context
	styles           *styles.Styles
	directoryService driving.DirectoryService

	directory    *domain.WatchedDirectory
	files        []domain.MonitoredFile
	filter       int
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new files view.
func NewView(s *styles.Styles, directoryService driving.DirectoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:              context.Background(),
		styles:           s,
		directoryService: directoryService,
		files:            []domain.MonitoredFile{},
	}
}

// SetContext sets the context used by service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetDirectory switches to a directory and loads its files.
func (v *View) SetDirectory(dir domain.WatchedDirectory) tea.Cmd {
	v.directory = &dir
	v.files = []domain.MonitoredFile{}
	v.filter = 0
	v.selected = 0
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.Load()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that reads the files of the current directory.
func (v *View) Load() tea.Cmd {
	ctx := v.ctx
	dir := v.directory
	return func() tea.Msg {
		if dir == nil || v.directoryService == nil {
			return messages.FilesLoaded{Err: fmt.Errorf("directory service not available")}
		}

		files, err := v.directoryService.ListFiles(ctx, dir.ID)
		return messages.FilesLoaded{
			DirectoryID: dir.ID,
			Files:       files,
			Err:         err,
		}
	}
}

// Update handles messages for the files view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.FilesLoaded:
		if v.directory == nil || msg.DirectoryID != v.directory.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.files = msg.Files
		v.err = nil
		v.clampSelection()
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
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.Visible())-1 {
			v.selected++
			v.adjustScroll()
		}
	case "f":
		v.filter = (v.filter + 1) % len(filterOrder)
		v.selected = 0
		v.scrollOffset = 0
	case "s":
		if v.directory != nil {
			dir := *v.directory
			return v, func() tea.Msg {
				return messages.ScanRequested{Directory: dir}
			}
		}
	case "r":
		v.loading = true
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDirectories}
		}
	}

	return v, nil
}

// Filter returns the active status filter, empty for all files.
func (v *View) Filter() domain.FileStatus {
	return filterOrder[v.filter]
}

// Visible returns the files matching the active filter.
func (v *View) Visible() []domain.MonitoredFile {
	status := v.Filter()
	if status == "" {
		return v.files
	}
	visible := make([]domain.MonitoredFile, 0, len(v.files))
	for i := range v.files {
		if v.files[i].Status == status {
			visible = append(visible, v.files[i])
		}
	}
	return visible
}

func (v *View) clampSelection() {
	if n := len(v.Visible()); v.selected >= n {
		v.selected = max(n-1, 0)
	}
	v.adjustScroll()
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of rows that fit on screen.
func (v *View) visibleItemCount() int {
	// title, filter line, header, detail, help and padding
	const reserved = 9
	return max(v.height-reserved, 1)
}

// View renders the files view.
func (v *View) View() string {
	var b strings.Builder

	name := "Unknown"
	if v.directory != nil {
		name = v.directory.Name
	}
	visible := v.Visible()
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Files - %s (%d)", name, len(v.files))))
	b.WriteString("\n")
	filter := "all"
	if status := v.Filter(); status != "" {
		filter = status.String()
	}
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Filter: %s (%d shown)", filter, len(visible))))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.files) == 0:
		b.WriteString(v.styles.Muted.Render("Loading files..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(visible) == 0:
		b.WriteString(v.styles.Muted.Render("No files to show."))
	default:
		v.renderList(&b, visible)
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderList(b *strings.Builder, visible []domain.MonitoredFile) {
	visibleItems := v.visibleItemCount()
	end := min(v.scrollOffset+visibleItems, len(visible))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderFile(i, &visible[i]))
		b.WriteString("\n")
	}

	if len(visible) > visibleItems {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(visible))))
		b.WriteString("\n")
	}

	if v.selected < len(visible) {
		b.WriteString("\n")
		b.WriteString(v.renderDetail(&visible[v.selected]))
	}
}

// renderFile renders a single file line.
func (v *View) renderFile(index int, f *domain.MonitoredFile) string {
	path := v.relPath(f)
	maxPathLen := max(v.width-24, 20)
	if runes := []rune(path); len(runes) > maxPathLen {
		path = "..." + string(runes[len(runes)-maxPathLen+3:])
	}

	status := fmt.Sprintf("%-10s", f.Status)
	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %s %s", status, path))
	}
	return v.styles.Normal.Render("  ") +
		v.styles.ForStatus(f.Status).Render(status) +
		v.styles.Normal.Render(" "+path)
}

// renderDetail describes the selected file below the list.
func (v *View) renderDetail(f *domain.MonitoredFile) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d bytes", f.FileSizeBytes))
	if a := f.Analysis; a != nil {
		parts = append(parts,
			a.ContentType,
			fmt.Sprintf("quality %d", a.QualityScore),
			fmt.Sprintf("%d records", a.DerivedCount),
		)
		if a.CacheHit {
			parts = append(parts, "cached")
		}
	}
	if f.ProcessedAt != nil {
		parts = append(parts, "processed "+f.ProcessedAt.Local().Format("2006-01-02 15:04"))
	}
	detail := v.styles.Muted.Render(strings.Join(parts, " · "))
	if f.LastError != "" {
		detail += "\n" + v.styles.ForStatus(f.Status).Render(f.LastError)
	}
	return detail
}

func (v *View) relPath(f *domain.MonitoredFile) string {
	if v.directory == nil {
		return f.FilePath
	}
	rel, err := filepath.Rel(v.directory.Path, f.FilePath)
	if err != nil {
		return f.FilePath
	}
	return rel
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [f] filter  [s] scan  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Directory returns the directory being shown.
func (v *View) Directory() *domain.WatchedDirectory {
	return v.directory
}

// Files returns all loaded files.
func (v *View) Files() []domain.MonitoredFile {
	return v.files
}

// SelectedIndex returns the selected index within the visible files.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
