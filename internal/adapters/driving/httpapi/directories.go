package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

func handleListDirectories(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dirs, err := deps.Directories.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		views := make([]directoryView, len(dirs))
		for i := range dirs {
			views[i] = toDirectoryView(&dirs[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{"directories": views})
	}
}

func handleAddDirectory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directoryRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if req.Path == nil || *req.Path == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "path is required")
			return
		}

		dir := domain.NewWatchedDirectory(*req.Path, "", time.Now())
		if err := req.apply(&dir); err != nil {
			writeDomainError(w, err)
			return
		}

		created, err := deps.Directories.Add(r.Context(), dir)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDirectoryView(created))
	}
}

func handleGetDirectory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, err := deps.Directories.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		stats, err := deps.Directories.Stats(r.Context(), dir.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"directory": toDirectoryView(dir),
			"stats":     toDirectoryStatsView(stats),
		})
	}
}

func handleUpdateDirectory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directoryRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		existing, err := deps.Directories.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		dir := *existing
		if err := req.apply(&dir); err != nil {
			writeDomainError(w, err)
			return
		}

		updated, err := deps.Directories.Update(r.Context(), dir)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDirectoryView(updated))
	}
}

func handleRemoveDirectory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Directories.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListFiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := deps.Directories.ListFiles(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		status := r.URL.Query().Get("status")
		if status != "" && !domain.FileStatus(status).IsValid() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown status %q", status)
			return
		}

		views := make([]fileView, 0, len(files))
		for i := range files {
			if status != "" && files[i].Status.String() != status {
				continue
			}
			views = append(views, toFileView(&files[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": views})
	}
}

// defaultRecentWindow applies when ?since= is absent.
const defaultRecentWindow = 24 * time.Hour

// handleRecentFiles lists files processed since a point in time. since is a
// duration back from now ("6h") or an RFC 3339 timestamp; directory narrows
// the list to one directory.
func handleRecentFiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, err := parseSince(r.URL.Query().Get("since"), time.Now())
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		files, err := deps.Directories.RecentFiles(r.Context(), r.URL.Query().Get("directory"), since)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		views := make([]fileView, 0, len(files))
		for i := range files {
			views = append(views, toFileView(&files[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"since": since.UTC(), "files": views})
	}
}

func parseSince(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.Add(-defaultRecentWindow), nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("since must not be negative: %s", raw)
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("since must be a duration or an RFC 3339 time: %q", raw)
	}
	return t, nil
}

// handleScanDirectory forces a scan of one directory regardless of its interval.
func handleScanDirectory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Scanner == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "scanner not configured")
			return
		}

		result, err := deps.Scanner.ScanDirectory(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeDomainError(w, err)
			return
		case errors.Is(err, domain.ErrScanInProgress):
			writeFailure(w, http.StatusConflict, err)
			return
		case err != nil:
			writeFailure(w, http.StatusInternalServerError, fmt.Errorf("scan failed: %w", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"scan":    toScanView(result),
		})
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := deps.Directories.Overview(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, statsView{
			ActiveDirectories: overview.ActiveDirectories,
			TotalDirectories:  overview.TotalDirectories,
			TotalFiles:        overview.Files.Total,
			Pending:           overview.Files.Pending,
			Processing:        overview.Files.Processing,
			Processed:         overview.Files.Processed,
			Errors:            overview.Files.Errors,
			Excluded:          overview.Files.Excluded,
			Missing:           overview.Files.Missing,
			LastScanAt:        overview.LastScanAt,
		})
	}
}
