package handlers

import "net/http"

// AdminCleanup handles POST /api/admin/cleanup: run a retention sweep on
// demand and report what it removed.
func (s *Service) AdminCleanup(w http.ResponseWriter, r *http.Request) {
	result := s.retention.Sweep()
	writeJSON(w, http.StatusOK, result)
}
