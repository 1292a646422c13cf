package domain

import "time"

// FileStatus is the lifecycle state of a monitored file.
type FileStatus string

// File statuses.
const (
	// StatusPending is a file discovered (or changed) but not yet evaluated.
	StatusPending FileStatus = "pending"

	// StatusProcessing is a file admitted and being extracted.
	StatusProcessing FileStatus = "processing"

	// StatusProcessed is a file whose current content has been extracted.
	StatusProcessed FileStatus = "processed"

	// StatusError is a file whose fingerprint or extraction failed.
	StatusError FileStatus = "error"

	// StatusExcluded is a file rejected by the admission filters.
	StatusExcluded FileStatus = "excluded"

	// StatusMissing is a file no longer found on disk for several scans.
	StatusMissing FileStatus = "missing"
)

// IsValid returns true if the status is recognised.
func (s FileStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusProcessed, StatusError, StatusExcluded, StatusMissing:
		return true
	default:
		return false
	}
}

// IsSettled returns true for statuses only revisited on a fingerprint change.
func (s FileStatus) IsSettled() bool {
	return s == StatusProcessed || s == StatusError || s == StatusExcluded
}

// String returns the string representation.
func (s FileStatus) String() string {
	return string(s)
}

// MonitoredFile is the persisted lifecycle record of one discovered file.
// There is exactly one record per (WatchedDirectoryID, FilePath).
type MonitoredFile struct {
	// ID is the unique identifier, also used as the cache document ID.
	ID string

	// WatchedDirectoryID links to the owning WatchedDirectory.
	WatchedDirectoryID string

	// FilePath is the absolute path of the file.
	FilePath string

	// Filename is the base name of FilePath.
	Filename string

	// FileSizeBytes is the size at the last fingerprint.
	FileSizeBytes int64

	// LastModifiedAt is the modification time at the last fingerprint.
	LastModifiedAt time.Time

	// ContentHash is the digest of the file bytes. It is authoritative
	// for change detection.
	ContentHash string

	// Status is the lifecycle state.
	Status FileStatus

	// LastError holds the error message or the exclusion reason.
	LastError string

	// Analysis is the content analysis from the last successful processing.
	Analysis *ContentAnalysis

	// MissingScans counts consecutive scans that did not find the file.
	MissingScans int

	// ProcessedAt is when the file last reached StatusProcessed.
	ProcessedAt *time.Time

	// CreatedAt is when the file was first discovered.
	CreatedAt time.Time

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time
}

// ContentAnalysis summarises the content of a processed file.
type ContentAnalysis struct {
	// ContentType is a coarse type derived from the extension (e.g. "markdown").
	ContentType string `json:"content_type"`

	// ContentLength is the length of the extracted text in characters.
	ContentLength int `json:"content_length"`

	// QualityScore is a 0-100 heuristic score of the text.
	QualityScore int `json:"quality_score"`

	// QualityMetrics are the raw measurements behind QualityScore.
	QualityMetrics QualityMetrics `json:"quality_metrics"`

	// DerivedCount is the number of records the extractor produced.
	DerivedCount int `json:"derived_count"`

	// SuggestedDescription is passed to the extractor with the preview.
	SuggestedDescription string `json:"suggested_description"`

	// CacheHit is true when the records were reused from the cache.
	CacheHit bool `json:"cache_hit"`
}

// QualityMetrics are the text measurements used for quality scoring.
type QualityMetrics struct {
	Length          int     `json:"length"`
	Lines           int     `json:"lines"`
	Words           int     `json:"words"`
	Sentences       int     `json:"sentences"`
	Paragraphs      int     `json:"paragraphs"`
	HasNumbers      bool    `json:"has_numbers"`
	HasSpecialChars bool    `json:"has_special_chars"`
	Readability     float64 `json:"readability"`
}

// HasChanged reports whether a fingerprint differs from the recorded content.
// Only the content hash is compared; a touched file with identical bytes is unchanged.
func (f *MonitoredFile) HasChanged(fp Fingerprint) bool {
	return f.ContentHash != fp.ContentHash
}

// ApplyFingerprint records a new fingerprint on the file.
func (f *MonitoredFile) ApplyFingerprint(fp Fingerprint) {
	f.FileSizeBytes = fp.SizeBytes
	f.LastModifiedAt = fp.ModifiedAt
	f.ContentHash = fp.ContentHash
}

// DirectoryStats counts the files of a directory by status.
type DirectoryStats struct {
	DirectoryID string
	Total       int
	Pending     int
	Processing  int
	Processed   int
	Errors      int
	Excluded    int
	Missing     int
}

// Add counts one file with the given status.
func (s *DirectoryStats) Add(status FileStatus) {
	s.Total++
	switch status {
	case StatusPending:
		s.Pending++
	case StatusProcessing:
		s.Processing++
	case StatusProcessed:
		s.Processed++
	case StatusError:
		s.Errors++
	case StatusExcluded:
		s.Excluded++
	case StatusMissing:
		s.Missing++
	}
}

// Overview summarises all monitored directories.
type Overview struct {
	ActiveDirectories int
	TotalDirectories  int
	Files             DirectoryStats
	LastScanAt        *time.Time
}
