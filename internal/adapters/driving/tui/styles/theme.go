// Package styles provides colour themes and styling for the dashboard.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// Theme defines the colour palette of the dashboard.
type Theme struct {
	// Accent highlights titles and the selected row.
	Accent lipgloss.Color

	// Info marks section headers and in-flight work.
	Info lipgloss.Color

	// Text is the default text colour.
	Text lipgloss.Color

	// Dim is for secondary text.
	Dim lipgloss.Color

	// Good marks processed files and successful runs.
	Good lipgloss.Color

	// Caution marks pending and excluded files.
	Caution lipgloss.Color

	// Bad marks errors and missing files.
	Bad lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#0EA5E9"), // Sky
		Info:    lipgloss.Color("#A78BFA"), // Violet
		Text:    lipgloss.Color("#E2E8F0"),
		Dim:     lipgloss.Color("#64748B"),
		Good:    lipgloss.Color("#4ADE80"),
		Caution: lipgloss.Color("#FACC15"),
		Bad:     lipgloss.Color("#F87171"),
		Bar:     lipgloss.Color("#0F172A"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style

	// Panel frames the scheduler summary.
	Panel lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Info),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Text),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Dim),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Bar).
			Background(theme.Accent),

		Error: lipgloss.NewStyle().
			Foreground(theme.Bad),

		Success: lipgloss.NewStyle().
			Foreground(theme.Good),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Caution),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Dim).
			Background(theme.Bar).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Dim),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Dim).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForStatus returns the style used to render a file status.
func (s *Styles) ForStatus(status domain.FileStatus) lipgloss.Style {
	switch status {
	case domain.StatusProcessed:
		return s.Success
	case domain.StatusPending, domain.StatusExcluded:
		return s.Warning
	case domain.StatusError, domain.StatusMissing:
		return s.Error
	case domain.StatusProcessing:
		return s.Subtitle
	default:
		return s.Muted
	}
}
