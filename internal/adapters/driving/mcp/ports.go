package mcp

import (
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Directories manages watched directories.
	Directories driving.DirectoryService

	// Scanner scans single directories on demand.
	Scanner driving.Scanner

	// Scheduler reports status and forces runs.
	Scheduler driving.MonitoringScheduler
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Directories == nil {
		return ErrMissingDirectoryService
	}
	// Scanner and Scheduler are optional; their tools report unavailability.
	return nil
}
