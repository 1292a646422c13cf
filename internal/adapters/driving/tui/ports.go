// Package tui provides the interactive terminal dashboard for corpuswatch.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the dashboard.
type Ports struct {
	// Directories lists watched directories and their files. Required.
	Directories driving.DirectoryService

	// Scanner scans a single directory on demand. Optional.
	Scanner driving.Scanner

	// Scheduler reports status and forces runs. Optional.
	Scheduler driving.MonitoringScheduler
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Directories == nil {
		return ErrMissingDirectoryService
	}
	return nil
}
