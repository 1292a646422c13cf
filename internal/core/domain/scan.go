package domain

import "time"

// Classification is the outcome of one file in one scan.
type Classification string

// Scan classifications.
const (
	ClassNew       Classification = "new"
	ClassModified  Classification = "modified"
	ClassUnchanged Classification = "unchanged"
	ClassExcluded  Classification = "excluded"
	ClassError     Classification = "error"

	// ClassMissing is reported for records whose file was not enumerated.
	// Missing files are not part of the Total count.
	ClassMissing Classification = "missing"
)

// FileScanResult is the classification of one file.
type FileScanResult struct {
	FilePath       string
	Filename       string
	Classification Classification

	// FileID is the monitored file record, empty if none was created.
	FileID string

	// Status is the record status after the scan.
	Status FileStatus

	// Reason is the exclusion reason or error message.
	Reason string

	// ContentType is set for processed files.
	ContentType string

	// Processed is true when the file reached StatusProcessed in this scan.
	Processed bool
}

// ScanResult aggregates the classification of one directory scan.
// Counts are order-independent; Files follows enumeration order.
type ScanResult struct {
	DirectoryID   string
	DirectoryName string
	StartedAt     time.Time
	Duration      time.Duration

	Total     int
	New       int
	Modified  int
	Unchanged int
	Excluded  int
	Errors    int
	Missing   int

	// Processed counts files that reached StatusProcessed in this scan.
	Processed int

	Files []FileScanResult
}

// Add records one file result and updates the counters.
func (r *ScanResult) Add(fr FileScanResult) {
	r.Files = append(r.Files, fr)

	switch fr.Classification {
	case ClassNew:
		r.New++
	case ClassModified:
		r.Modified++
	case ClassUnchanged:
		r.Unchanged++
	case ClassExcluded:
		r.Excluded++
	case ClassError:
		r.Errors++
	case ClassMissing:
		r.Missing++
		return
	}
	r.Total++

	if fr.Processed {
		r.Processed++
	}
}

// ProcessedFiles returns the paths of files processed in this scan.
func (r *ScanResult) ProcessedFiles() []string {
	var paths []string
	for _, f := range r.Files {
		if f.Processed {
			paths = append(paths, f.FilePath)
		}
	}
	return paths
}
