package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/corpuswatch/internal/admission"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// Ensure Scanner implements the interface.
var _ driving.Scanner = (*Scanner)(nil)

// defaultMissingThreshold applies when the configured threshold is not positive.
const defaultMissingThreshold = 3

// ScannerConfig holds directory scanner configuration.
type ScannerConfig struct {
	// ExtractionTimeout bounds a single extractor call. Zero means no timeout.
	ExtractionTimeout time.Duration

	// MissingThreshold is the number of consecutive scans a file may be
	// absent before it is marked missing.
	MissingThreshold int

	// MaxRecords caps how many records are requested per file.
	MaxRecords int

	// ParallelDirectories bounds concurrent directory scans in ScanAll.
	ParallelDirectories int
}

// ScannerConfigFromSettings builds a scanner configuration from settings.
func ScannerConfigFromSettings(s domain.AppSettings) ScannerConfig {
	return ScannerConfig{
		ExtractionTimeout:   s.Scanner.ExtractionTimeout,
		MissingThreshold:    s.Scanner.MissingThreshold,
		MaxRecords:          s.Scanner.MaxRecords,
		ParallelDirectories: s.Scheduler.ParallelDirectories,
	}
}

// Scanner reconciles watched directories with the files on disk.
// Files within a directory are processed sequentially; a directory is
// never scanned twice at the same time.
type Scanner struct {
	dirs      driven.DirectoryStore
	files     driven.FileStore
	source    driven.FileSource
	registry  driven.NormaliserRegistry
	cache     driven.ExtractionCache
	extractor driven.Extractor
	pipeline  driven.RecordPipeline
	config    ScannerConfig
	now       domain.Clock
	newID     func() string

	mu       sync.Mutex
	scanning map[string]bool
}

// NewScanner creates a directory scanner.
func NewScanner(
	dirs driven.DirectoryStore,
	files driven.FileStore,
	source driven.FileSource,
	registry driven.NormaliserRegistry,
	cache driven.ExtractionCache,
	extractor driven.Extractor,
	config ScannerConfig,
) *Scanner {
	if config.MissingThreshold <= 0 {
		config.MissingThreshold = defaultMissingThreshold
	}
	if config.ParallelDirectories <= 0 {
		config.ParallelDirectories = 1
	}
	return &Scanner{
		dirs:      dirs,
		files:     files,
		source:    source,
		registry:  registry,
		cache:     cache,
		extractor: extractor,
		config:    config,
		now:       time.Now,
		newID:     uuid.NewString,
		scanning:  make(map[string]bool),
	}
}

// WithClock replaces the clock used for timestamps and due checks.
func (s *Scanner) WithClock(clock domain.Clock) *Scanner {
	s.now = clock
	return s
}

// WithPipeline sets the processors applied to extracted records before
// they are cached.
func (s *Scanner) WithPipeline(p driven.RecordPipeline) *Scanner {
	s.pipeline = p
	return s
}

// ScanDirectory scans one directory regardless of its due time.
func (s *Scanner) ScanDirectory(ctx context.Context, directoryID string) (*domain.ScanResult, error) {
	if !s.acquire(directoryID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrScanInProgress, directoryID)
	}
	defer s.release(directoryID)

	dir, err := s.dirs.Get(ctx, directoryID)
	if err != nil {
		return nil, fmt.Errorf("get directory: %w", err)
	}
	return s.scan(ctx, dir)
}

// ScanAll scans enabled directories, at most ParallelDirectories at a time.
// A directory that fails or is already being scanned does not stop the others.
func (s *Scanner) ScanAll(ctx context.Context, onlyDue bool) ([]domain.ScanResult, error) {
	dirs, err := s.dirs.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}

	now := s.now()
	var due []domain.WatchedDirectory
	for i := range dirs {
		if onlyDue && !dirs[i].ShouldScan(now) {
			logger.Debug("Directory %s not due until %s", dirs[i].Name, dirs[i].NextScanAt().Format(time.RFC3339))
			continue
		}
		due = append(due, dirs[i])
	}
	logger.Info("Scanning %d of %d enabled directories", len(due), len(dirs))

	results := make([]*domain.ScanResult, len(due))
	errs := make([]error, len(due))

	var g errgroup.Group
	g.SetLimit(s.config.ParallelDirectories)
	for i := range due {
		dir := due[i]
		g.Go(func() error {
			if !s.acquire(dir.ID) {
				errs[i] = fmt.Errorf("scan %s: %w", dir.Name, domain.ErrScanInProgress)
				return nil
			}
			defer s.release(dir.ID)

			result, err := s.scan(ctx, &dir)
			if err != nil {
				errs[i] = fmt.Errorf("scan %s: %w", dir.Name, err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	scans := make([]domain.ScanResult, 0, len(due))
	for _, r := range results {
		if r != nil {
			scans = append(scans, *r)
		}
	}
	return scans, errors.Join(errs...)
}

func (s *Scanner) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning[id] {
		return false
	}
	s.scanning[id] = true
	return true
}

func (s *Scanner) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scanning, id)
}

// scan runs one directory scan. The caller holds the directory lock.
func (s *Scanner) scan(ctx context.Context, dir *domain.WatchedDirectory) (*domain.ScanResult, error) {
	started := s.now()
	logger.Section("Scan " + dir.Name)
	logger.Info("Scanning %s (%s)", dir.Name, dir.Path)

	paths, err := s.source.List(ctx, dir.Path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d files", len(paths))

	records, err := s.files.ListByDirectory(ctx, dir.ID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	byPath := make(map[string]*domain.MonitoredFile, len(records))
	for i := range records {
		byPath[records[i].FilePath] = &records[i]
	}

	result := &domain.ScanResult{
		DirectoryID:   dir.ID,
		DirectoryName: dir.Name,
		StartedAt:     started,
	}

	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[path] = true
		result.Add(s.scanFile(ctx, dir, path, byPath[path]))
	}

	s.markMissing(ctx, records, seen, result)

	ended := s.now()
	if err := s.dirs.UpdateLastScan(ctx, dir.ID, ended); err != nil {
		logger.Warn("Failed to record scan time for %s: %v", dir.Name, err)
	}
	result.Duration = ended.Sub(started)

	logger.Info("Scanned %s: total=%d new=%d modified=%d unchanged=%d excluded=%d errors=%d missing=%d processed=%d",
		dir.Name, result.Total, result.New, result.Modified, result.Unchanged,
		result.Excluded, result.Errors, result.Missing, result.Processed)
	return result, nil
}

// scanFile classifies one enumerated path and, when new or changed,
// runs admission and processing.
func (s *Scanner) scanFile(
	ctx context.Context,
	dir *domain.WatchedDirectory,
	path string,
	rec *domain.MonitoredFile,
) domain.FileScanResult {
	fr := domain.FileScanResult{FilePath: path, Filename: filepath.Base(path)}

	fp, err := s.source.Fingerprint(ctx, path)
	if err != nil {
		logger.Warn("Fingerprint failed: %v", err)
		fr.Classification = domain.ClassError
		fr.Reason = err.Error()
		if rec != nil {
			if ctx.Err() == nil {
				s.markUnreadable(ctx, rec, err)
			}
			fr.FileID = rec.ID
			fr.Status = rec.Status
		}
		return fr
	}

	now := s.now()
	var class domain.Classification

	switch {
	case rec == nil:
		rec = &domain.MonitoredFile{
			ID:                 s.newID(),
			WatchedDirectoryID: dir.ID,
			FilePath:           path,
			Filename:           fr.Filename,
			Status:             domain.StatusPending,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		class = domain.ClassNew

	case rec.Status == domain.StatusMissing:
		s.apply(rec, domain.EventReappear, "", now)
		class = domain.ClassModified

	case rec.Status == domain.StatusProcessing:
		// Left behind by an interrupted scan.
		s.apply(rec, domain.EventRetry, "", now)
		class = retryClass(rec)

	case rec.Status == domain.StatusPending:
		class = retryClass(rec)

	case rec.HasChanged(fp):
		s.apply(rec, domain.EventContentChanged, "", now)
		class = domain.ClassModified

	case rec.Status == domain.StatusError:
		s.apply(rec, domain.EventRetry, "", now)
		class = retryClass(rec)

	default:
		if rec.MissingScans > 0 {
			rec.MissingScans = 0
			s.save(ctx, rec)
		}
		logger.Debug("Unchanged: %s", path)
		fr.Classification = domain.ClassUnchanged
		fr.FileID = rec.ID
		fr.Status = rec.Status
		return fr
	}

	rec.ApplyFingerprint(fp)
	rec.MissingScans = 0
	fr.FileID = rec.ID
	return s.process(ctx, dir, rec, class, fr)
}

// retryClass classifies a record that is re-evaluated without a content change.
func retryClass(rec *domain.MonitoredFile) domain.Classification {
	if rec.ProcessedAt == nil {
		return domain.ClassNew
	}
	return domain.ClassModified
}

// process admits a pending record and derives its records.
func (s *Scanner) process(
	ctx context.Context,
	dir *domain.WatchedDirectory,
	rec *domain.MonitoredFile,
	class domain.Classification,
	fr domain.FileScanResult,
) domain.FileScanResult {
	relPath, err := filepath.Rel(dir.Path, rec.FilePath)
	if err != nil {
		relPath = rec.Filename
	}

	if d := admission.CheckPath(relPath, rec.FileSizeBytes, dir.FileFilters); !d.Accepted {
		return s.reject(ctx, rec, d, fr)
	}

	data, err := s.source.Read(ctx, rec.FilePath)
	if err != nil {
		return s.fail(ctx, rec, err, fr)
	}

	ext := strings.ToLower(filepath.Ext(rec.FilePath))
	content, err := s.registry.Normalise(ctx, &domain.RawFile{Path: rec.FilePath, Extension: ext, Content: data})
	if err != nil {
		return s.reject(ctx, rec, admission.Reject(admission.ReasonUnreadableContent, err.Error()), fr)
	}

	if d := admission.CheckContent(content.Text, dir.ContentFilters); !d.Accepted {
		return s.reject(ctx, rec, d, fr)
	}

	s.apply(rec, domain.EventAdmit, "", s.now())
	s.save(ctx, rec)

	analysis := admission.Analyse(ext, content.Text)
	records, hit, err := s.derive(ctx, rec, content.Text, analysis)
	if err != nil {
		return s.fail(ctx, rec, err, fr)
	}
	analysis.DerivedCount = len(records)
	analysis.CacheHit = hit
	rec.Analysis = &analysis

	s.apply(rec, domain.EventSucceed, "", s.now())
	s.save(ctx, rec)

	logger.Debug("Processed %s: %d records (cache hit: %t)", rec.FilePath, len(records), hit)
	fr.Classification = class
	fr.Status = rec.Status
	fr.ContentType = analysis.ContentType
	fr.Processed = true
	return fr
}

// derive returns the records for the record's current content, from the
// cache when possible. Cache failures are treated as misses.
func (s *Scanner) derive(
	ctx context.Context,
	rec *domain.MonitoredFile,
	text string,
	analysis domain.ContentAnalysis,
) ([]domain.DerivedRecord, bool, error) {
	key := domain.CacheKey{DocumentID: rec.ID, ContentHash: rec.ContentHash}

	if s.cache != nil && !s.needsReprocessing(ctx, key) {
		entry, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Cache read failed, treating as miss: %v", err)
		} else if entry != nil {
			return entry.Records, true, nil
		}
	}

	req := domain.ExtractionRequest{
		DocumentID:           rec.ID,
		Filename:             rec.Filename,
		ContentPreview:       admission.Preview(text, admission.PreviewLength),
		SuggestedDescription: analysis.SuggestedDescription,
		MaxRecords:           s.config.MaxRecords,
	}

	records, err := s.extract(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if s.pipeline != nil {
		records, err = s.pipeline.Process(ctx, req, records)
		if err != nil {
			return nil, false, &domain.ExtractionError{DocumentID: rec.ID, Err: err}
		}
	}

	if s.cache != nil {
		entry := domain.CacheEntry{Key: key, Records: records, ComputedAt: s.now()}
		if err := s.cache.Put(ctx, entry); err != nil {
			logger.Warn("Cache write failed: %v", err)
		}
	}
	return records, false, nil
}

// needsReprocessing reports whether the cache certainly has no entry for
// key. Errors are left to Get.
func (s *Scanner) needsReprocessing(ctx context.Context, key domain.CacheKey) bool {
	needs, err := s.cache.NeedsReprocessing(ctx, key.DocumentID, key.ContentHash)
	if err != nil {
		logger.Debug("Cache check failed for %s: %v", key.DocumentID, err)
		return false
	}
	return needs
}

// extract calls the extractor under the per-file timeout.
func (s *Scanner) extract(ctx context.Context, req domain.ExtractionRequest) ([]domain.DerivedRecord, error) {
	if s.extractor == nil {
		return nil, &domain.ExtractionError{DocumentID: req.DocumentID, Err: errors.New("extractor not configured")}
	}

	callCtx := ctx
	if s.config.ExtractionTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.config.ExtractionTimeout)
		defer cancel()
	}

	records, err := s.extractor.Extract(callCtx, req)
	if err == nil {
		return records, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", s.config.ExtractionTimeout, err)
	}
	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		err = &domain.ExtractionError{DocumentID: req.DocumentID, Err: err}
	}
	return nil, err
}

func (s *Scanner) reject(
	ctx context.Context,
	rec *domain.MonitoredFile,
	d admission.Decision,
	fr domain.FileScanResult,
) domain.FileScanResult {
	logger.Debug("Excluded %s: %s", rec.FilePath, d.Reason)
	s.apply(rec, domain.EventReject, d.Reason, s.now())
	s.save(ctx, rec)

	fr.Classification = domain.ClassExcluded
	fr.Reason = d.Reason
	fr.Status = rec.Status
	return fr
}

func (s *Scanner) fail(
	ctx context.Context,
	rec *domain.MonitoredFile,
	err error,
	fr domain.FileScanResult,
) domain.FileScanResult {
	if ctx.Err() != nil {
		return s.interrupt(ctx, rec, err, fr)
	}

	logger.Warn("Processing failed for %s: %v", rec.FilePath, err)
	s.apply(rec, domain.EventFail, err.Error(), s.now())
	s.save(ctx, rec)

	fr.Classification = domain.ClassError
	fr.Reason = err.Error()
	fr.Status = rec.Status
	return fr
}

// interrupt handles a failure caused by the caller cancelling the scan.
// The record goes back to pending so the next scan processes it.
func (s *Scanner) interrupt(
	ctx context.Context,
	rec *domain.MonitoredFile,
	err error,
	fr domain.FileScanResult,
) domain.FileScanResult {
	logger.Warn("Processing interrupted for %s: %v", rec.FilePath, err)
	if rec.Status == domain.StatusProcessing {
		s.apply(rec, domain.EventRetry, "", s.now())
	}
	s.save(context.WithoutCancel(ctx), rec)

	fr.Classification = domain.ClassError
	fr.Reason = "interrupted: " + err.Error()
	fr.Status = rec.Status
	return fr
}

// markUnreadable moves an existing record to error when its file could
// not be fingerprinted. The next scan retries it.
func (s *Scanner) markUnreadable(ctx context.Context, rec *domain.MonitoredFile, err error) {
	now := s.now()
	switch rec.Status {
	case domain.StatusMissing:
		s.apply(rec, domain.EventReappear, "", now)
	case domain.StatusProcessing:
		s.apply(rec, domain.EventRetry, "", now)
	}
	s.apply(rec, domain.EventFail, err.Error(), now)
	rec.MissingScans = 0
	s.save(ctx, rec)
}

// markMissing counts consecutive absences of records that were not
// enumerated and moves them to missing at the threshold. Records are
// never deleted, so their cache history survives a reappearance.
func (s *Scanner) markMissing(
	ctx context.Context,
	records []domain.MonitoredFile,
	seen map[string]bool,
	result *domain.ScanResult,
) {
	for i := range records {
		rec := &records[i]
		if seen[rec.FilePath] || rec.Status == domain.StatusMissing {
			continue
		}

		rec.MissingScans++
		if rec.MissingScans >= s.config.MissingThreshold {
			now := s.now()
			if rec.Status == domain.StatusProcessing {
				s.apply(rec, domain.EventRetry, "", now)
			}
			s.apply(rec, domain.EventVanish, "", now)
			logger.Info("Marked missing after %d scans: %s", rec.MissingScans, rec.FilePath)
			result.Add(domain.FileScanResult{
				FilePath:       rec.FilePath,
				Filename:       rec.Filename,
				Classification: domain.ClassMissing,
				FileID:         rec.ID,
				Status:         rec.Status,
			})
		}
		s.save(ctx, rec)
	}
}

// apply performs a lifecycle transition. The scanner only raises events
// valid for the record's status, so a failure is a bug worth logging.
func (s *Scanner) apply(rec *domain.MonitoredFile, ev domain.FileEvent, detail string, now time.Time) {
	if err := domain.ApplyEvent(rec, ev, detail, now); err != nil {
		logger.Error("lifecycle: %s: %v", rec.FilePath, err)
	}
}

// save persists a record. Failures are logged and the scan continues.
func (s *Scanner) save(ctx context.Context, rec *domain.MonitoredFile) {
	if err := s.files.Save(ctx, rec); err != nil {
		logger.Warn("Failed to save %s: %v", rec.FilePath, err)
	}
}
