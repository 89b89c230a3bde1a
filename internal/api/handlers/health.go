package handlers

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthCheck is the readiness response body.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// BackendState is implemented by the shared queue handle.
type BackendState interface {
	Poisoned() bool
}

// HealthChecker answers liveness and readiness probes. Readiness fails while
// the server drains for shutdown and after the queue backend handle has been
// poisoned, so a load balancer stops routing events to this instance.
type HealthChecker struct {
	backend      BackendState
	backendName  string
	version      string
	gitCommit    string
	shuttingDown atomic.Bool
	now          func() time.Time
}

// NewHealthChecker reports backendName in readiness details. Queue addresses
// stay out of the probe body since it is served unauthenticated.
func NewHealthChecker(backend BackendState, backendName, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		backend:     backend,
		backendName: backendName,
		version:     version,
		gitCommit:   gitCommit,
		now:         time.Now,
	}
}

// SetShuttingDown flips readiness to failing for the rest of the process lifetime.
func (h *HealthChecker) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// Healthz is the liveness probe. It succeeds whenever the process can serve HTTP.
func (h *HealthChecker) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// Readyz is the readiness probe.
func (h *HealthChecker) Readyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]CheckResult{
			"shutdown":      h.checkShutdown(),
			"queue_backend": h.checkBackend(),
		}

		status := "ready"
		code := http.StatusOK
		for _, c := range checks {
			if c.Status == "fail" {
				status = "unavailable"
				code = http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, code, HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: h.now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkShutdown() CheckResult {
	if h.shuttingDown.Load() {
		return CheckResult{Status: "fail", Message: "Server is shutting down"}
	}
	return CheckResult{Status: "pass"}
}

func (h *HealthChecker) checkBackend() CheckResult {
	details := map[string]any{
		"backend": h.backendName,
	}
	if h.backend != nil && h.backend.Poisoned() {
		details["remediation"] = "Restart the process; the backend client state is no longer trusted"
		return CheckResult{
			Status:  "fail",
			Message: "Queue backend disabled after an internal panic",
			Details: details,
		}
	}
	return CheckResult{Status: "pass", Details: details}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
