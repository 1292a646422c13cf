// Package status renders the bottom line of the dashboard: the current
// activity, a scheduler summary and the key hints of the active view.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// State is the activity shown on the left.
type State string

const (
	StateReady    State = "ready"
	StateScanning State = "scanning"
	StateError    State = "error"
	StateHelp     State = "help"
)

const separator = "  |  "

// Bar is a passive component. The app sets its fields and renders it.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	now    func() time.Time

	state     State
	message   string
	scheduler *domain.SchedulerStatus
	hints     []key.Binding
	width     int
}

// NewBar returns a ready bar showing the short help. Nil arguments select
// the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		now:    time.Now,
		state:  StateReady,
		hints:  km.ShortHelp(),
		width:  80,
	}
}

// View renders the bar padded to its width. Hints are dropped when they
// do not fit.
func (s *Bar) View() string {
	left := s.activity()
	if sched := s.schedulerSummary(); sched != "" {
		left += s.styles.Muted.Render(separator) + sched
	}

	inner := s.width - s.styles.StatusBar.GetHorizontalPadding()
	right := s.styles.Muted.Render(s.hintLine())
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right, gap = "", max(inner-lipgloss.Width(left), 1)
	}

	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) activity() string {
	switch s.state {
	case StateScanning:
		if s.message == "" {
			return s.styles.Subtitle.Render("Scanning...")
		}
		return s.styles.Subtitle.Render("Scanning " + s.message + "...")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	}
	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

// schedulerSummary reads like "scheduler every 5m0s, next in 2m, last ok".
func (s *Bar) schedulerSummary() string {
	st := s.scheduler
	if st == nil {
		return ""
	}
	if !st.Running {
		return s.styles.Warning.Render("scheduler stopped")
	}

	parts := []string{fmt.Sprintf("scheduler every %s", st.CheckInterval)}
	if st.NextRunEstimate != nil {
		wait := max(st.NextRunEstimate.Sub(s.now()), 0).Round(time.Second)
		parts = append(parts, "next in "+wait.String())
	}
	text := strings.Join(parts, ", ")

	if c := st.LastCycle; c != nil {
		if !c.Success {
			return s.styles.Success.Render(text+", ") + s.styles.Error.Render("last failed")
		}
		text += ", last ok"
	}
	return s.styles.Success.Render(text)
}

func (s *Bar) hintLine() string {
	hints := make([]string, len(s.hints))
	for i, b := range s.hints {
		h := b.Help()
		hints[i] = h.Key + ": " + h.Desc
	}
	return strings.Join(hints, " | ")
}

// SetState sets the activity.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the activity.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the text shown with the activity.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the text shown with the activity.
func (s *Bar) Message() string {
	return s.message
}

// SetScheduler records the latest scheduler snapshot.
func (s *Bar) SetScheduler(status domain.SchedulerStatus) {
	s.scheduler = &status
}

// SetHints replaces the key hints. Nil restores the short help.
func (s *Bar) SetHints(bindings []key.Binding) {
	if bindings == nil {
		bindings = s.keymap.ShortHelp()
	}
	s.hints = bindings
}

// SetWidth sets the rendered width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the rendered width.
func (s *Bar) Width() int {
	return s.width
}

// Clear returns to the ready state without a message.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
