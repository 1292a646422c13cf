package httpapi

import (
	"errors"
	"net/http"
	"time"
)

type intervalRequest struct {
	Interval string `json:"interval"`
}

func handleSchedulerStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if deps.Scheduler == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "scheduler not configured")
			return
		}
		writeJSON(w, http.StatusOK, toStatusView(deps.Scheduler.Status()))
	}
}

// handleForceRun scans every enabled directory now.
func handleForceRun(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Scheduler == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "scheduler not configured")
			return
		}

		run := deps.Scheduler.ForceRun(r.Context())
		if !run.Success {
			writeFailure(w, http.StatusInternalServerError, errors.New(run.Error))
			return
		}

		scans := make([]scanView, len(run.Scans))
		for i := range run.Scans {
			scans[i] = toScanView(&run.Scans[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"scans":   scans,
		})
	}
}

func handleSetInterval(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Scheduler == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "scheduler not configured")
			return
		}

		var req intervalRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		interval, err := time.ParseDuration(req.Interval)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid interval: %v", err)
			return
		}

		if err := deps.Scheduler.SetCheckInterval(interval); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStatusView(deps.Scheduler.Status()))
	}
}
