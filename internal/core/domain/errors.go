package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no normaliser handles a file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTransition indicates a lifecycle event that is not allowed
	// from the record's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrScanInProgress indicates the directory is already being scanned.
	ErrScanInProgress = errors.New("scan in progress")

	// ErrDirectoryUnavailable indicates the watched root cannot be read.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// Scheduler conditions. These are no-ops, not failures.

	// ErrSchedulerAlreadyRunning is reported when Start is called twice.
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")

	// ErrSchedulerNotRunning is reported when Stop is called on an idle scheduler.
	ErrSchedulerNotRunning = errors.New("scheduler not running")
)

// FingerprintError reports a file that could not be stat'ed or read
// while computing its fingerprint.
type FingerprintError struct {
	Path string
	Err  error
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("fingerprint %s: %v", e.Path, e.Err)
}

func (e *FingerprintError) Unwrap() error { return e.Err }

// ExtractionError reports a failure of the extraction collaborator,
// including output that could not be parsed.
type ExtractionError struct {
	DocumentID string
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.DocumentID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// CacheIOError reports a failure of the incremental cache backend.
type CacheIOError struct {
	// Op is the cache operation, e.g. "get", "put", "prune".
	Op  string
	Key string
	Err error
}

func (e *CacheIOError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }
