package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
)

// checkTimeout bounds each dependency probe so a stuck dependency cannot
// hang the health endpoint.
const checkTimeout = 2 * time.Second

// Checker probes one dependency.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

// CheckHealth implements Checker.
func (f CheckerFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// HealthResponse is the body of a successful health probe.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// HealthManager runs registered dependency checks and serves the
// Kubernetes-style probe endpoints.
type HealthManager struct {
	version  string
	checkers map[string]Checker
}

// NewHealthManager builds a manager reporting the given service version.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		version:  version,
		checkers: make(map[string]Checker),
	}
}

// RegisterChecker adds a named dependency probe.
func (m *HealthManager) RegisterChecker(name string, checker Checker) {
	m.checkers[name] = checker
}

// runChecks probes every dependency with a per-check timeout.
func (m *HealthManager) runChecks(ctx context.Context) map[string]string {
	results := make(map[string]string, len(m.checkers))
	for name, checker := range m.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checker.CheckHealth(checkCtx)
		cancel()

		switch {
		case err == nil:
			results[name] = "healthy"
		case errors.Is(err, context.DeadlineExceeded):
			results[name] = "timeout"
		default:
			results[name] = "unhealthy"
		}
	}
	return results
}

// determineOverallStatus folds per-check results into one status. A
// timeout degrades the service; a hard failure makes it unhealthy.
func (m *HealthManager) determineOverallStatus(checks map[string]string) string {
	status := "healthy"
	for _, result := range checks {
		switch result {
		case "unhealthy":
			return "unhealthy"
		case "timeout":
			status = "degraded"
		}
	}
	return status
}

// HealthHandler serves the full dependency health report. Unhealthy
// services answer 503 with the probe results in the error details.
func (m *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checks := m.runChecks(r.Context())
	status := m.determineOverallStatus(checks)

	if status == "unhealthy" {
		details := make(map[string]any, 1)
		checkDetails := make(map[string]any, len(checks))
		for name, result := range checks {
			checkDetails[name] = result
		}
		details["checks"] = checkDetails

		apperrors.WriteEnvelope(w, http.StatusServiceUnavailable, apperrors.HTTPErrorBody{
			Code:      "SERVICE_UNAVAILABLE",
			Message:   "one or more dependencies are unhealthy",
			Details:   details,
			RequestID: apperrors.RequestIDFromContext(r.Context()),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   m.version,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// LivenessHandler reports process liveness without probing dependencies.
func (m *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler reports whether the service can take traffic.
func (m *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	m.HealthHandler(w, r)
}

// StartupHandler reports whether startup has completed.
func (m *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	m.HealthHandler(w, r)
}

var globalHealthManager *HealthManager

// InitHealthManager installs the process-wide health manager.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the process-wide health manager, or nil
// before InitHealthManager.
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func withGlobalManager(w http.ResponseWriter, r *http.Request, serve func(*HealthManager, http.ResponseWriter, *http.Request)) {
	manager := GetHealthManager()
	if manager == nil {
		apperrors.WriteEnvelope(w, http.StatusServiceUnavailable, apperrors.HTTPErrorBody{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "health manager not initialized",
		})
		return
	}
	serve(manager, w, r)
}

// HealthHandler serves the global manager's health report.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).HealthHandler)
}

// LivenessHandler serves the global manager's liveness probe.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).LivenessHandler)
}

// ReadinessHandler serves the global manager's readiness probe.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).ReadinessHandler)
}

// StartupHandler serves the global manager's startup probe.
func StartupHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).StartupHandler)
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
