// Package mcp provides an MCP (Model Context Protocol) server adapter for corpuswatch.
// It lets AI assistants inspect watched directories and trigger scans.
package mcp

import "errors"

var (
	// ErrMissingDirectoryService is returned when the directory service is not provided.
	ErrMissingDirectoryService = errors.New("mcp: directory service is required")

	// ErrScannerUnavailable is returned by scan tools when no scanner is configured.
	ErrScannerUnavailable = errors.New("mcp: scanner not configured")

	// ErrSchedulerUnavailable is returned by scheduler tools when no scheduler is configured.
	ErrSchedulerUnavailable = errors.New("mcp: scheduler not configured")
)
