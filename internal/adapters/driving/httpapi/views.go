package httpapi

import (
	"fmt"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

type fileFiltersView struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxFileSizeBytes  int64    `json:"max_file_size_bytes"`
	ExcludePatterns   []string `json:"exclude_patterns"`
}

type contentFiltersView struct {
	MinContentLength int      `json:"min_content_length"`
	MaxContentLength int      `json:"max_content_length"`
	ExcludeKeywords  []string `json:"exclude_keywords"`
	RequireKeywords  []string `json:"require_keywords"`
}

type directoryView struct {
	ID             string             `json:"id"`
	Path           string             `json:"path"`
	Name           string             `json:"name"`
	Enabled        bool               `json:"enabled"`
	ScanInterval   string             `json:"scan_interval"`
	LastScanAt     *time.Time         `json:"last_scan_at,omitempty"`
	AutoRefresh    bool               `json:"auto_refresh"`
	FileFilters    fileFiltersView    `json:"file_filters"`
	ContentFilters contentFiltersView `json:"content_filters"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func toDirectoryView(d *domain.WatchedDirectory) directoryView {
	return directoryView{
		ID:           d.ID,
		Path:         d.Path,
		Name:         d.Name,
		Enabled:      d.Enabled,
		ScanInterval: d.ScanInterval.String(),
		LastScanAt:   d.LastScanAt,
		AutoRefresh:  d.AutoRefresh,
		FileFilters: fileFiltersView{
			AllowedExtensions: d.FileFilters.AllowedExtensions,
			MaxFileSizeBytes:  d.FileFilters.MaxFileSizeBytes,
			ExcludePatterns:   d.FileFilters.ExcludePatterns,
		},
		ContentFilters: contentFiltersView{
			MinContentLength: d.ContentFilters.MinContentLength,
			MaxContentLength: d.ContentFilters.MaxContentLength,
			ExcludeKeywords:  d.ContentFilters.ExcludeKeywords,
			RequireKeywords:  d.ContentFilters.RequireKeywords,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// directoryRequest is the body of POST and PUT /directories.
// Absent fields keep their current (or default) value.
type directoryRequest struct {
	Path           *string             `json:"path"`
	Name           *string             `json:"name"`
	Enabled        *bool               `json:"enabled"`
	ScanInterval   *string             `json:"scan_interval"`
	AutoRefresh    *bool               `json:"auto_refresh"`
	FileFilters    *fileFiltersView    `json:"file_filters"`
	ContentFilters *contentFiltersView `json:"content_filters"`
}

func (req *directoryRequest) apply(d *domain.WatchedDirectory) error {
	if req.Path != nil {
		d.Path = *req.Path
	}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Enabled != nil {
		d.Enabled = *req.Enabled
	}
	if req.ScanInterval != nil {
		interval, err := time.ParseDuration(*req.ScanInterval)
		if err != nil {
			return fmt.Errorf("%w: scan_interval: %v", domain.ErrInvalidInput, err)
		}
		d.ScanInterval = interval
	}
	if req.AutoRefresh != nil {
		d.AutoRefresh = *req.AutoRefresh
	}
	if f := req.FileFilters; f != nil {
		d.FileFilters = domain.FileFilters{
			AllowedExtensions: f.AllowedExtensions,
			MaxFileSizeBytes:  f.MaxFileSizeBytes,
			ExcludePatterns:   f.ExcludePatterns,
		}
	}
	if c := req.ContentFilters; c != nil {
		d.ContentFilters = domain.ContentFilters{
			MinContentLength: c.MinContentLength,
			MaxContentLength: c.MaxContentLength,
			ExcludeKeywords:  c.ExcludeKeywords,
			RequireKeywords:  c.RequireKeywords,
		}
	}
	return nil
}

type fileView struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	Filename     string     `json:"filename"`
	SizeBytes    int64      `json:"size_bytes"`
	ContentHash  string     `json:"content_hash,omitempty"`
	Status       string     `json:"status"`
	LastError    string     `json:"last_error,omitempty"`
	ContentType  string     `json:"content_type,omitempty"`
	QualityScore int        `json:"quality_score,omitempty"`
	MissingScans int        `json:"missing_scans,omitempty"`
	LastModified time.Time  `json:"last_modified_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

func toFileView(f *domain.MonitoredFile) fileView {
	v := fileView{
		ID:           f.ID,
		Path:         f.FilePath,
		Filename:     f.Filename,
		SizeBytes:    f.FileSizeBytes,
		ContentHash:  f.ContentHash,
		Status:       f.Status.String(),
		LastError:    f.LastError,
		MissingScans: f.MissingScans,
		LastModified: f.LastModifiedAt,
		ProcessedAt:  f.ProcessedAt,
	}
	if f.Analysis != nil {
		v.ContentType = f.Analysis.ContentType
		v.QualityScore = f.Analysis.QualityScore
	}
	return v
}

type fileResultView struct {
	Path           string `json:"path"`
	Classification string `json:"classification"`
	Status         string `json:"status,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Processed      bool   `json:"processed"`
}

type scanView struct {
	DirectoryID   string           `json:"directory_id"`
	DirectoryName string           `json:"directory_name"`
	StartedAt     time.Time        `json:"started_at"`
	DurationMS    int64            `json:"duration_ms"`
	Total         int              `json:"total"`
	New           int              `json:"new"`
	Modified      int              `json:"modified"`
	Unchanged     int              `json:"unchanged"`
	Excluded      int              `json:"excluded"`
	Errors        int              `json:"errors"`
	Missing       int              `json:"missing"`
	Processed     int              `json:"processed"`
	Files         []fileResultView `json:"files"`
}

func toScanView(r *domain.ScanResult) scanView {
	v := scanView{
		DirectoryID:   r.DirectoryID,
		DirectoryName: r.DirectoryName,
		StartedAt:     r.StartedAt,
		DurationMS:    r.Duration.Milliseconds(),
		Total:         r.Total,
		New:           r.New,
		Modified:      r.Modified,
		Unchanged:     r.Unchanged,
		Excluded:      r.Excluded,
		Errors:        r.Errors,
		Missing:       r.Missing,
		Processed:     r.Processed,
		Files:         make([]fileResultView, len(r.Files)),
	}
	for i, f := range r.Files {
		v.Files[i] = fileResultView{
			Path:           f.FilePath,
			Classification: string(f.Classification),
			Status:         f.Status.String(),
			Reason:         f.Reason,
			Processed:      f.Processed,
		}
	}
	return v
}

type cycleView struct {
	Trigger            string    `json:"trigger"`
	StartedAt          time.Time `json:"started_at"`
	EndedAt            time.Time `json:"ended_at"`
	Success            bool      `json:"success"`
	Error              string    `json:"error,omitempty"`
	DirectoriesScanned int       `json:"directories_scanned"`
	FilesProcessed     int       `json:"files_processed"`
	Refreshes          int       `json:"refreshes"`
}

type statusView struct {
	Running         bool       `json:"running"`
	CheckInterval   string     `json:"check_interval"`
	NextRunEstimate *time.Time `json:"next_run_estimate,omitempty"`
	LastCycle       *cycleView `json:"last_cycle,omitempty"`
}

func toStatusView(s domain.SchedulerStatus) statusView {
	v := statusView{
		Running:         s.Running,
		CheckInterval:   s.CheckInterval.String(),
		NextRunEstimate: s.NextRunEstimate,
	}
	if c := s.LastCycle; c != nil {
		v.LastCycle = &cycleView{
			Trigger:            string(c.Trigger),
			StartedAt:          c.StartedAt,
			EndedAt:            c.EndedAt,
			Success:            c.Success,
			Error:              c.Error,
			DirectoriesScanned: c.DirectoriesScanned,
			FilesProcessed:     c.FilesProcessed,
			Refreshes:          c.Refreshes,
		}
	}
	return v
}

type statsView struct {
	ActiveDirectories int        `json:"active_directories"`
	TotalDirectories  int        `json:"total_directories"`
	TotalFiles        int        `json:"total_files"`
	Pending           int        `json:"pending"`
	Processing        int        `json:"processing"`
	Processed         int        `json:"processed"`
	Errors            int        `json:"errors"`
	Excluded          int        `json:"excluded"`
	Missing           int        `json:"missing"`
	LastScanAt        *time.Time `json:"last_scan_at,omitempty"`
}

type directoryStatsView struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Processed  int `json:"processed"`
	Errors     int `json:"errors"`
	Excluded   int `json:"excluded"`
	Missing    int `json:"missing"`
}

func toDirectoryStatsView(s domain.DirectoryStats) directoryStatsView {
	return directoryStatsView{
		Total:      s.Total,
		Pending:    s.Pending,
		Processing: s.Processing,
		Processed:  s.Processed,
		Errors:     s.Errors,
		Excluded:   s.Excluded,
		Missing:    s.Missing,
	}
}
