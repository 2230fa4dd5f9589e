package handlers

import (
	"net/http"
	"time"
)

// APIHealthResponse is the service-level health report for clients and
// dashboards. The infra probe endpoints under /health stay separate for
// orchestration.
type APIHealthResponse struct {
	Status              string         `json:"status"`
	Device              string         `json:"device"`
	Model               string         `json:"model"`
	PunctuatorAvailable bool           `json:"punctuator_available"`
	Jobs                map[string]int `json:"jobs"`
	OutputDir           string         `json:"output_dir"`
	TempDir             string         `json:"temp_dir"`
	Timestamp           time.Time      `json:"timestamp"`
}

// APIHealth handles GET /api/health. The engine is probed live; a
// failing engine reports "degraded" with 200 since the service itself is
// still answering.
func (s *Service) APIHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := s.engine.HealthCheck(r.Context()); err != nil {
		status = "degraded"
	}

	counts := s.registry.CountByState()
	jobs := make(map[string]int, len(counts))
	for state, n := range counts {
		jobs[string(state)] = n
	}

	writeJSON(w, http.StatusOK, APIHealthResponse{
		Status:              status,
		Device:              s.engine.Device(),
		Model:               s.cfg.ModelName,
		PunctuatorAvailable: s.cfg.PunctuatorAvailable,
		Jobs:                jobs,
		OutputDir:           s.cfg.OutputRoot,
		TempDir:             s.cfg.TempDir,
		Timestamp:           time.Now().UTC(),
	})
}
