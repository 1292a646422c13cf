// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDirectories lists the watched directories.
	ViewDirectories ViewType = iota
	// ViewFiles lists the monitored files of one directory.
	ViewFiles
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDirectories:
		return "directories"
	case ViewFiles:
		return "files"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DirectoryRow is a watched directory with its file counts.
type DirectoryRow struct {
	Directory domain.WatchedDirectory
	Stats     domain.DirectoryStats
}

// DirectoriesLoaded carries the watched directories and their counts.
type DirectoriesLoaded struct {
	Rows []DirectoryRow
	Err  error
}

// DirectorySelected signals a directory was opened.
type DirectorySelected struct {
	Directory domain.WatchedDirectory
}

// FilesLoaded carries the monitored files of a directory.
type FilesLoaded struct {
	DirectoryID string
	Files       []domain.MonitoredFile
	Err         error
}

// ScanRequested asks for an immediate scan of one directory.
type ScanRequested struct {
	Directory domain.WatchedDirectory
}

// RunRequested asks for a forced run over all enabled directories.
type RunRequested struct{}

// ScanCompleted carries the outcome of a single directory scan.
type ScanCompleted struct {
	DirectoryID string
	Result      *domain.ScanResult
	Err         error
}

// RunCompleted carries the outcome of a forced run over all directories.
type RunCompleted struct {
	Run domain.RunResult
}

// StatusLoaded carries a scheduler snapshot.
type StatusLoaded struct {
	Status domain.SchedulerStatus
}

// Tick triggers a periodic refresh.
type Tick struct{}
