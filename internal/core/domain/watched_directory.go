package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied to new watched directories.
const (
	DefaultScanInterval     = time.Hour
	DefaultMaxFileSizeBytes = 50 * 1024 * 1024
	DefaultMinContentLength = 100
	DefaultMaxContentLength = 1_000_000
)

// WatchedDirectory is a filesystem root that is scanned on a schedule.
type WatchedDirectory struct {
	// ID is the unique identifier for the directory.
	ID string

	// Path is the absolute filesystem root.
	Path string

	// Name is a human-readable label.
	Name string

	// Enabled indicates whether the directory is scanned at all.
	Enabled bool

	// ScanInterval is the minimum time between two scheduled scans.
	ScanInterval time.Duration

	// LastScanAt is when the last scan completed. Nil if never scanned.
	LastScanAt *time.Time

	// AutoRefresh triggers the corpus refresh after files are processed.
	AutoRefresh bool

	// FileFilters is the cheap, path-level admission policy.
	FileFilters FileFilters

	// ContentFilters is the content-level admission policy.
	ContentFilters ContentFilters

	// CreatedAt is when the directory was added.
	CreatedAt time.Time

	// UpdatedAt is when the directory was last modified.
	UpdatedAt time.Time
}

// FileFilters decide admission from the path and size alone.
type FileFilters struct {
	// AllowedExtensions lists accepted extensions (".txt"). Empty admits any.
	AllowedExtensions []string

	// MaxFileSizeBytes rejects larger files. Zero or negative means unlimited.
	MaxFileSizeBytes int64

	// ExcludePatterns are glob patterns matched against the filename
	// (or the root-relative path for patterns containing a slash).
	ExcludePatterns []string
}

// ContentFilters decide admission from extracted text.
type ContentFilters struct {
	// MinContentLength rejects shorter content, in characters.
	MinContentLength int

	// MaxContentLength rejects longer content. Zero or negative means unlimited.
	MaxContentLength int

	// ExcludeKeywords rejects content containing any of them (case-insensitive).
	ExcludeKeywords []string

	// RequireKeywords, when non-empty, requires at least one to appear.
	RequireKeywords []string
}

// DefaultFileFilters returns the file filters applied to new directories.
func DefaultFileFilters() FileFilters {
	return FileFilters{
		AllowedExtensions: []string{".pdf", ".txt", ".md", ".docx", ".csv", ".html", ".eml"},
		MaxFileSizeBytes:  DefaultMaxFileSizeBytes,
		ExcludePatterns:   []string{"*.tmp", "*.log", "*.cache"},
	}
}

// DefaultContentFilters returns the content filters applied to new directories.
func DefaultContentFilters() ContentFilters {
	return ContentFilters{
		MinContentLength: DefaultMinContentLength,
		MaxContentLength: DefaultMaxContentLength,
		ExcludeKeywords:  []string{"confidential", "private", "secret"},
	}
}

// NewWatchedDirectory creates an enabled directory with default filters.
// The caller assigns the ID.
func NewWatchedDirectory(path, name string, now time.Time) WatchedDirectory {
	if name == "" {
		name = filepath.Base(path)
	}
	return WatchedDirectory{
		Path:           filepath.Clean(path),
		Name:           name,
		Enabled:        true,
		ScanInterval:   DefaultScanInterval,
		AutoRefresh:    true,
		FileFilters:    DefaultFileFilters(),
		ContentFilters: DefaultContentFilters(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks the directory invariants.
func (d *WatchedDirectory) Validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	if !filepath.IsAbs(d.Path) {
		return fmt.Errorf("%w: path must be absolute: %s", ErrInvalidInput, d.Path)
	}
	if d.Enabled && d.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan interval must be positive for an enabled directory", ErrInvalidInput)
	}
	if d.ScanInterval < 0 {
		return fmt.Errorf("%w: scan interval cannot be negative", ErrInvalidInput)
	}
	cf := d.ContentFilters
	if cf.MinContentLength < 0 {
		return fmt.Errorf("%w: min content length cannot be negative", ErrInvalidInput)
	}
	if cf.MaxContentLength > 0 && cf.MaxContentLength < cf.MinContentLength {
		return fmt.Errorf("%w: max content length is below min content length", ErrInvalidInput)
	}
	return nil
}

// ShouldScan reports whether the directory is due for a scheduled scan.
func (d *WatchedDirectory) ShouldScan(now time.Time) bool {
	if !d.Enabled {
		return false
	}
	if d.LastScanAt == nil {
		return true
	}
	return now.Sub(*d.LastScanAt) >= d.ScanInterval
}

// NextScanAt estimates when the directory becomes due.
// Returns the zero time if the directory is disabled.
func (d *WatchedDirectory) NextScanAt() time.Time {
	if !d.Enabled {
		return time.Time{}
	}
	if d.LastScanAt == nil {
		return d.CreatedAt
	}
	return d.LastScanAt.Add(d.ScanInterval)
}

// NormaliseExtensions lower-cases extensions and ensures a leading dot.
// Blank entries and duplicates are dropped.
func NormaliseExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
