package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for corpuswatch resources.
	uriScheme = "corpuswatch://"
)

// directoryInfo is the JSON form of a watched directory.
type directoryInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	Enabled      bool       `json:"enabled"`
	ScanInterval string     `json:"scan_interval"`
	LastScanAt   *time.Time `json:"last_scan_at,omitempty"`
	AutoRefresh  bool       `json:"auto_refresh"`
}

// fileInfo is the JSON form of a monitored file.
type fileInfo struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	Status       string     `json:"status"`
	SizeBytes    int64      `json:"size_bytes"`
	ContentType  string     `json:"content_type,omitempty"`
	QualityScore int        `json:"quality_score,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing directories.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "directories",
		Name:        "directories",
		Description: "List of all watched directories",
		MIMEType:    "application/json",
	}, s.handleDirectoriesResource)

	// Template for the files of a directory.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "directories/{directoryId}/files",
		Name:        "directory-files",
		Description: "Monitored files of a specific directory with their status",
		MIMEType:    "application/json",
	}, s.handleFilesResource)
}

// handleDirectoriesResource returns a list of all watched directories.
func (s *Server) handleDirectoriesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	dirs, err := s.ports.Directories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing directories: %w", err)
	}

	infos := make([]directoryInfo, len(dirs))
	for i := range dirs {
		d := &dirs[i]
		infos[i] = directoryInfo{
			ID:           d.ID,
			Name:         d.Name,
			Path:         d.Path,
			Enabled:      d.Enabled,
			ScanInterval: d.ScanInterval.String(),
			LastScanAt:   d.LastScanAt,
			AutoRefresh:  d.AutoRefresh,
		}
	}

	return jsonResult(req.Params.URI, infos)
}

// handleFilesResource returns the monitored files of a directory.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract directoryId from URI: corpuswatch://directories/{directoryId}/files
	directoryID := extractDirectoryID(req.Params.URI)
	if directoryID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	files, err := s.ports.Directories.ListFiles(ctx, directoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	infos := make([]fileInfo, len(files))
	for i := range files {
		f := &files[i]
		infos[i] = fileInfo{
			ID:          f.ID,
			Path:        f.FilePath,
			Status:      f.Status.String(),
			SizeBytes:   f.FileSizeBytes,
			LastError:   f.LastError,
			ProcessedAt: f.ProcessedAt,
		}
		if f.Analysis != nil {
			infos[i].ContentType = f.Analysis.ContentType
			infos[i].QualityScore = f.Analysis.QualityScore
		}
	}

	return jsonResult(req.Params.URI, infos)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDirectoryID extracts the directory ID from a URI like
// corpuswatch://directories/{directoryId}/files.
func extractDirectoryID(uri string) string {
	const prefix = uriScheme + "directories/"
	const suffix = "/files"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
