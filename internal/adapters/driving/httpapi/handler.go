// Package httpapi exposes the administrative surface of corpuswatch over HTTP.
// Routes are served by a chi router and optionally protected by a bearer token.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
)

const maxBodySize = 1 << 20 // 1MB

// ErrMissingDirectoryService is returned when the directory service is not provided.
var ErrMissingDirectoryService = errors.New("httpapi: directory service is required")

// Deps holds the driving ports served by the API.
type Deps struct {
	// Directories manages watched directories. Required.
	Directories driving.DirectoryService

	// Scanner serves forced directory scans. Optional.
	Scanner driving.Scanner

	// Scheduler serves status and forced runs. Optional.
	Scheduler driving.MonitoringScheduler

	// Token enables bearer authentication when non-empty.
	Token string
}

// NewHandler builds the admin API router.
func NewHandler(deps Deps) (http.Handler, error) {
	if deps.Directories == nil {
		return nil, ErrMissingDirectoryService
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}

		r.Get("/directories", handleListDirectories(deps))
		r.Post("/directories", handleAddDirectory(deps))
		r.Get("/directories/{id}", handleGetDirectory(deps))
		r.Put("/directories/{id}", handleUpdateDirectory(deps))
		r.Delete("/directories/{id}", handleRemoveDirectory(deps))
		r.Get("/directories/{id}/files", handleListFiles(deps))
		r.Post("/directories/{id}/scan", handleScanDirectory(deps))
		r.Get("/files/recent", handleRecentFiles(deps))

		r.Get("/scheduler/status", handleSchedulerStatus(deps))
		r.Post("/scheduler/run", handleForceRun(deps))
		r.Put("/scheduler/interval", handleSetInterval(deps))

		r.Get("/stats", handleStats(deps))
	})

	return r, nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
