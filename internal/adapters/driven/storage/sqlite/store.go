package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// timeLayout is a fixed-width UTC layout, so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.corpuswatch/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corpuswatch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DirectoryStore returns a DirectoryStore interface backed by this store.
func (s *Store) DirectoryStore() driven.DirectoryStore {
	return &directoryStore{store: s}
}

// FileStore returns a FileStore interface backed by this store.
func (s *Store) FileStore() driven.FileStore {
	return &fileStore{store: s}
}

// ExtractionCache returns an ExtractionCache interface backed by this store.
func (s *Store) ExtractionCache() driven.ExtractionCache {
	return &cacheStore{store: s, now: time.Now}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Directory Store ====================

// directoryStore implements driven.DirectoryStore.
type directoryStore struct {
	store *Store
}

var _ driven.DirectoryStore = (*directoryStore)(nil)

const directoryColumns = `id, path, name, enabled, scan_interval_ms, last_scan_at, auto_refresh,
	file_filters, content_filters, created_at, updated_at`

// Save stores or updates a directory.
func (s *directoryStore) Save(ctx context.Context, dir domain.WatchedDirectory) error {
	fileFilters, err := json.Marshal(fileFiltersJSON(dir.FileFilters))
	if err != nil {
		return fmt.Errorf("marshalling file filters: %w", err)
	}
	contentFilters, err := json.Marshal(contentFiltersJSON(dir.ContentFilters))
	if err != nil {
		return fmt.Errorf("marshalling content filters: %w", err)
	}

	now := time.Now().UTC()
	if dir.CreatedAt.IsZero() {
		dir.CreatedAt = now
	}
	if dir.UpdatedAt.IsZero() {
		dir.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO watched_directories (`+directoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			name = excluded.name,
			enabled = excluded.enabled,
			scan_interval_ms = excluded.scan_interval_ms,
			last_scan_at = excluded.last_scan_at,
			auto_refresh = excluded.auto_refresh,
			file_filters = excluded.file_filters,
			content_filters = excluded.content_filters,
			updated_at = excluded.updated_at
	`, dir.ID, dir.Path, dir.Name, boolToInt(dir.Enabled), dir.ScanInterval.Milliseconds(),
		formatTimePtr(dir.LastScanAt), boolToInt(dir.AutoRefresh),
		string(fileFilters), string(contentFilters),
		formatTime(dir.CreatedAt), formatTime(dir.UpdatedAt))

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: directory %s", domain.ErrAlreadyExists, dir.Path)
		}
		return fmt.Errorf("saving directory: %w", err)
	}
	return nil
}

// Get retrieves a directory by ID.
func (s *directoryStore) Get(ctx context.Context, id string) (*domain.WatchedDirectory, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+directoryColumns+" FROM watched_directories WHERE id = ?", id)

	dir, err := scanDirectory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dir, nil
}

// List returns all directories ordered by name.
func (s *directoryStore) List(ctx context.Context) ([]domain.WatchedDirectory, error) {
	return s.query(ctx, "SELECT "+directoryColumns+" FROM watched_directories ORDER BY name, path")
}

// ListEnabled returns the enabled directories ordered by name.
func (s *directoryStore) ListEnabled(ctx context.Context) ([]domain.WatchedDirectory, error) {
	return s.query(ctx,
		"SELECT "+directoryColumns+" FROM watched_directories WHERE enabled = 1 ORDER BY name, path")
}

func (s *directoryStore) query(ctx context.Context, query string) ([]domain.WatchedDirectory, error) {
	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying directories: %w", err)
	}
	defer rows.Close()

	var dirs []domain.WatchedDirectory //nolint:prealloc // size unknown from query
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, *dir)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating directories: %w", err)
	}
	return dirs, nil
}

// Delete removes a directory. Its monitored files are removed by cascade.
func (s *directoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM watched_directories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting directory: %w", err)
	}
	return nil
}

// UpdateLastScan records when the directory was last scanned.
func (s *directoryStore) UpdateLastScan(ctx context.Context, id string, at time.Time) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE watched_directories SET last_scan_at = ?, updated_at = ? WHERE id = ?
	`, formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("updating last scan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// filtersFileJSON and filtersContentJSON mirror the filter structs with
// stable JSON names.
type filtersFileJSON struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxFileSizeBytes  int64    `json:"max_file_size_bytes"`
	ExcludePatterns   []string `json:"exclude_patterns"`
}

type filtersContentJSON struct {
	MinContentLength int      `json:"min_content_length"`
	MaxContentLength int      `json:"max_content_length"`
	ExcludeKeywords  []string `json:"exclude_keywords"`
	RequireKeywords  []string `json:"require_keywords"`
}

func fileFiltersJSON(f domain.FileFilters) filtersFileJSON {
	return filtersFileJSON(f)
}

func contentFiltersJSON(f domain.ContentFilters) filtersContentJSON {
	return filtersContentJSON(f)
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDirectory(row rowScanner) (*domain.WatchedDirectory, error) {
	var dir domain.WatchedDirectory
	var enabled, autoRefresh int
	var intervalMs int64
	var lastScanAt sql.NullString
	var fileFilters, contentFilters, createdAt, updatedAt string

	if err := row.Scan(&dir.ID, &dir.Path, &dir.Name, &enabled, &intervalMs, &lastScanAt,
		&autoRefresh, &fileFilters, &contentFilters, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning directory: %w", err)
	}

	var ff filtersFileJSON
	if err := json.Unmarshal([]byte(fileFilters), &ff); err != nil {
		return nil, fmt.Errorf("unmarshalling file filters: %w", err)
	}
	var cf filtersContentJSON
	if err := json.Unmarshal([]byte(contentFilters), &cf); err != nil {
		return nil, fmt.Errorf("unmarshalling content filters: %w", err)
	}

	dir.Enabled = enabled == 1
	dir.AutoRefresh = autoRefresh == 1
	dir.ScanInterval = time.Duration(intervalMs) * time.Millisecond
	dir.LastScanAt = parseTimePtr(lastScanAt)
	dir.FileFilters = domain.FileFilters(ff)
	dir.ContentFilters = domain.ContentFilters(cf)
	dir.CreatedAt = parseTime(createdAt)
	dir.UpdatedAt = parseTime(updatedAt)

	return &dir, nil
}

// ==================== File Store ====================

// fileStore implements driven.FileStore.
type fileStore struct {
	store *Store
}

var _ driven.FileStore = (*fileStore)(nil)

const fileColumns = `id, watched_directory_id, file_path, filename, file_size_bytes, last_modified_at,
	content_hash, status, last_error, analysis, missing_scans, processed_at, created_at, updated_at`

// Save creates or updates a record.
// A second record for an existing (directory, path) is rejected with domain.ErrAlreadyExists.
func (s *fileStore) Save(ctx context.Context, file *domain.MonitoredFile) error {
	if file == nil {
		return domain.ErrInvalidInput
	}

	var analysis any
	if file.Analysis != nil {
		data, err := json.Marshal(file.Analysis)
		if err != nil {
			return fmt.Errorf("marshalling analysis: %w", err)
		}
		analysis = string(data)
	}

	now := time.Now().UTC()
	createdAt := file.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := file.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO monitored_files (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path,
			filename = excluded.filename,
			file_size_bytes = excluded.file_size_bytes,
			last_modified_at = excluded.last_modified_at,
			content_hash = excluded.content_hash,
			status = excluded.status,
			last_error = excluded.last_error,
			analysis = excluded.analysis,
			missing_scans = excluded.missing_scans,
			processed_at = excluded.processed_at,
			updated_at = excluded.updated_at
	`, file.ID, file.WatchedDirectoryID, file.FilePath, file.Filename, file.FileSizeBytes,
		formatNullableTime(file.LastModifiedAt), file.ContentHash, string(file.Status),
		nullString(file.LastError), analysis, file.MissingScans, formatTimePtr(file.ProcessedAt),
		formatTime(createdAt), formatTime(updatedAt))

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: file %s", domain.ErrAlreadyExists, file.FilePath)
		}
		return fmt.Errorf("saving file: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *fileStore) Get(ctx context.Context, id string) (*domain.MonitoredFile, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM monitored_files WHERE id = ?", id)

	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ListByDirectory returns all records of a directory ordered by path.
func (s *fileStore) ListByDirectory(ctx context.Context, directoryID string) ([]domain.MonitoredFile, error) {
	return s.query(ctx, "SELECT "+fileColumns+` FROM monitored_files
		WHERE watched_directory_id = ? ORDER BY file_path`, directoryID)
}

// ListProcessedSince returns records processed at or after since, most recent first.
func (s *fileStore) ListProcessedSince(
	ctx context.Context,
	directoryID string,
	since time.Time,
) ([]domain.MonitoredFile, error) {
	return s.query(ctx, "SELECT "+fileColumns+` FROM monitored_files
		WHERE processed_at IS NOT NULL AND processed_at >= ?
		AND (? = '' OR watched_directory_id = ?)
		ORDER BY processed_at DESC`, formatTime(since), directoryID, directoryID)
}

func (s *fileStore) query(ctx context.Context, query string, args ...any) ([]domain.MonitoredFile, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []domain.MonitoredFile //nolint:prealloc // size unknown from query
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// Delete removes a record.
func (s *fileStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM monitored_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Stats counts the records of a directory by status.
func (s *fileStore) Stats(ctx context.Context, directoryID string) (domain.DirectoryStats, error) {
	stats := domain.DirectoryStats{DirectoryID: directoryID}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM monitored_files
		WHERE (? = '' OR watched_directory_id = ?)
		GROUP BY status
	`, directoryID, directoryID)
	if err != nil {
		return stats, fmt.Errorf("querying file stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("scanning file stats: %w", err)
		}
		for range count {
			stats.Add(domain.FileStatus(status))
		}
	}

	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterating file stats: %w", err)
	}
	return stats, nil
}

func scanFile(row rowScanner) (*domain.MonitoredFile, error) {
	var file domain.MonitoredFile
	var status string
	var lastModifiedAt, lastError, analysis, processedAt sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&file.ID, &file.WatchedDirectoryID, &file.FilePath, &file.Filename,
		&file.FileSizeBytes, &lastModifiedAt, &file.ContentHash, &status, &lastError,
		&analysis, &file.MissingScans, &processedAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}

	if analysis.Valid && analysis.String != "" {
		var a domain.ContentAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return nil, fmt.Errorf("unmarshalling analysis: %w", err)
		}
		file.Analysis = &a
	}

	file.Status = domain.FileStatus(status)
	file.LastModifiedAt = parseNullableTime(lastModifiedAt)
	file.LastError = lastError.String
	file.ProcessedAt = parseTimePtr(processedAt)
	file.CreatedAt = parseTime(createdAt)
	file.UpdatedAt = parseTime(updatedAt)

	return &file, nil
}

// ==================== Helper Functions ====================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatNullableTime formats a time, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime parses a nullable time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	return parseTime(s.String)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatNullableTime(*t)
}

func parseTimePtr(s sql.NullString) *time.Time {
	t := parseNullableTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
