package domain

import (
	"fmt"
	"time"
)

// FileEvent is something that happens to a monitored file during a scan.
type FileEvent string

// File events.
const (
	// EventAdmit is raised when the admission filters accept the file.
	EventAdmit FileEvent = "admit"

	// EventReject is raised when the admission filters reject the file.
	EventReject FileEvent = "reject"

	// EventSucceed is raised when extraction completes.
	EventSucceed FileEvent = "succeed"

	// EventFail is raised when fingerprinting or extraction fails.
	EventFail FileEvent = "fail"

	// EventContentChanged is raised when a scan sees a different content hash.
	EventContentChanged FileEvent = "content_changed"

	// EventVanish is raised when a file has been absent for too many scans.
	EventVanish FileEvent = "vanish"

	// EventReappear is raised when a missing file is found again.
	EventReappear FileEvent = "reappear"

	// EventRetry returns a record to pending: one left in processing by an
	// interrupted scan, or one in error that a later scan tries again.
	EventRetry FileEvent = "retry"
)

// transitions is the lifecycle table. Missing entries are invalid.
var transitions = map[FileStatus]map[FileEvent]FileStatus{
	StatusPending: {
		EventAdmit:  StatusProcessing,
		EventReject: StatusExcluded,
		EventFail:   StatusError,
		EventVanish: StatusMissing,
	},
	StatusProcessing: {
		EventSucceed: StatusProcessed,
		EventFail:    StatusError,
		EventRetry:   StatusPending,
	},
	StatusProcessed: {
		EventContentChanged: StatusPending,
		EventFail:           StatusError,
		EventVanish:         StatusMissing,
	},
	StatusError: {
		EventContentChanged: StatusPending,
		EventFail:           StatusError,
		EventRetry:          StatusPending,
		EventVanish:         StatusMissing,
	},
	StatusExcluded: {
		EventContentChanged: StatusPending,
		EventFail:           StatusError,
		EventVanish:         StatusMissing,
	},
	StatusMissing: {
		EventReappear: StatusPending,
	},
}

// Transition returns the status reached from 'from' on event 'ev'.
// Exclusion is only decided from pending, so there is no
// processing -> excluded edge.
func Transition(from FileStatus, ev FileEvent) (FileStatus, error) {
	next, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	return next, nil
}

// ApplyEvent moves the file to its next status and updates bookkeeping.
// For EventReject and EventFail, detail is stored in LastError.
func ApplyEvent(f *MonitoredFile, ev FileEvent, detail string, now time.Time) error {
	next, err := Transition(f.Status, ev)
	if err != nil {
		return err
	}

	f.Status = next
	f.UpdatedAt = now

	switch ev {
	case EventReject, EventFail:
		f.LastError = detail
	case EventSucceed:
		f.LastError = ""
		processedAt := now
		f.ProcessedAt = &processedAt
	case EventContentChanged, EventReappear:
		f.MissingScans = 0
	}
	return nil
}
