package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// ScanInput is the input schema for the scan_directory tool.
type ScanInput struct {
	DirectoryID string `json:"directory_id" jsonschema:"the ID of the watched directory to scan"`
}

// ScanOutput summarises one directory scan.
type ScanOutput struct {
	DirectoryID    string   `json:"directory_id"`
	DirectoryName  string   `json:"directory_name"`
	DurationMS     int64    `json:"duration_ms"`
	Total          int      `json:"total"`
	New            int      `json:"new"`
	Modified       int      `json:"modified"`
	Unchanged      int      `json:"unchanged"`
	Excluded       int      `json:"excluded"`
	Errors         int      `json:"errors"`
	Missing        int      `json:"missing"`
	Processed      int      `json:"processed"`
	ProcessedFiles []string `json:"processed_files,omitempty"`
}

// StatusInput is the (empty) input schema for the scheduler tools.
type StatusInput struct{}

// StatusOutput is the output schema for the scheduler_status tool.
type StatusOutput struct {
	Running         bool         `json:"running"`
	CheckInterval   string       `json:"check_interval"`
	NextRunEstimate *time.Time   `json:"next_run_estimate,omitempty"`
	LastCycle       *CycleOutput `json:"last_cycle,omitempty"`
}

// CycleOutput describes one completed monitoring cycle.
type CycleOutput struct {
	Trigger            string    `json:"trigger"`
	StartedAt          time.Time `json:"started_at"`
	EndedAt            time.Time `json:"ended_at"`
	Success            bool      `json:"success"`
	Error              string    `json:"error,omitempty"`
	DirectoriesScanned int       `json:"directories_scanned"`
	FilesProcessed     int       `json:"files_processed"`
}

// RunOutput is the output schema for the force_run tool.
type RunOutput struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Scans   []ScanOutput `json:"scans"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_directory",
		Description: "Scan one watched directory now and report what changed",
	}, s.handleScanDirectory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scheduler_status",
		Description: "Report whether the monitoring scheduler is running and its last cycle",
	}, s.handleSchedulerStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "force_run",
		Description: "Scan every enabled directory now, ignoring scan intervals",
	}, s.handleForceRun)
}

// handleScanDirectory handles the scan_directory tool invocation.
func (s *Server) handleScanDirectory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ScanInput,
) (*mcp.CallToolResult, ScanOutput, error) {
	if s.ports.Scanner == nil {
		return nil, ScanOutput{}, ErrScannerUnavailable
	}
	if input.DirectoryID == "" {
		return nil, ScanOutput{}, errors.New("directory_id is required")
	}

	result, err := s.ports.Scanner.ScanDirectory(ctx, input.DirectoryID)
	if err != nil {
		return nil, ScanOutput{}, err
	}
	return nil, toScanOutput(result), nil
}

// handleSchedulerStatus handles the scheduler_status tool invocation.
func (s *Server) handleSchedulerStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Scheduler == nil {
		return nil, StatusOutput{}, ErrSchedulerUnavailable
	}

	status := s.ports.Scheduler.Status()
	output := StatusOutput{
		Running:         status.Running,
		CheckInterval:   status.CheckInterval.String(),
		NextRunEstimate: status.NextRunEstimate,
	}
	if c := status.LastCycle; c != nil {
		output.LastCycle = &CycleOutput{
			Trigger:            string(c.Trigger),
			StartedAt:          c.StartedAt,
			EndedAt:            c.EndedAt,
			Success:            c.Success,
			Error:              c.Error,
			DirectoriesScanned: c.DirectoriesScanned,
			FilesProcessed:     c.FilesProcessed,
		}
	}
	return nil, output, nil
}

// handleForceRun handles the force_run tool invocation.
// A failed run is reported in the output, not as a tool error.
func (s *Server) handleForceRun(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, RunOutput, error) {
	if s.ports.Scheduler == nil {
		return nil, RunOutput{}, ErrSchedulerUnavailable
	}

	run := s.ports.Scheduler.ForceRun(ctx)
	output := RunOutput{
		Success: run.Success,
		Error:   run.Error,
		Scans:   make([]ScanOutput, len(run.Scans)),
	}
	for i := range run.Scans {
		output.Scans[i] = toScanOutput(&run.Scans[i])
	}
	return nil, output, nil
}

func toScanOutput(r *domain.ScanResult) ScanOutput {
	return ScanOutput{
		DirectoryID:    r.DirectoryID,
		DirectoryName:  r.DirectoryName,
		DurationMS:     r.Duration.Milliseconds(),
		Total:          r.Total,
		New:            r.New,
		Modified:       r.Modified,
		Unchanged:      r.Unchanged,
		Excluded:       r.Excluded,
		Errors:         r.Errors,
		Missing:        r.Missing,
		Processed:      r.Processed,
		ProcessedFiles: r.ProcessedFiles(),
	}
}
