package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
	"github.com/Yass5002/Lyrebird/pkg/jobregistry"
	"github.com/Yass5002/Lyrebird/pkg/outputs"
)

// JobListResponse is the body of GET /api/jobs.
type JobListResponse struct {
	Jobs  []jobregistry.JobRecord `json:"jobs"`
	Total int                     `json:"total"`
}

// JobDeleteResponse acknowledges a deletion.
type JobDeleteResponse struct {
	JobID   string `json:"job_id"`
	Deleted bool   `json:"deleted"`
}

// JobStatus handles GET /api/jobs/{jobID}.
func (s *Service) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	rec, ok := s.registry.Get(jobID)
	if !ok {
		respondWithError(w, r, apperrors.NewJobNotFound(jobID))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListJobs handles GET /api/jobs?limit=N, newest first.
func (s *Service) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.JobListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, r, apperrors.NewValidation("limit must be a non-negative integer"))
			return
		}
		if parsed > 0 {
			limit = parsed
		}
	}

	jobs := s.registry.List(limit)
	writeJSON(w, http.StatusOK, JobListResponse{
		Jobs:  jobs,
		Total: s.registry.Len(),
	})
}

// DeleteJob handles DELETE /api/jobs/{jobID}. The job record and its
// artifact go together; repeating the deletion reports 404.
func (s *Service) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	rec, ok := s.registry.Delete(jobID)
	if !ok {
		respondWithError(w, r, apperrors.NewJobNotFound(jobID))
		return
	}

	if rec.ArtifactPath != "" {
		if err := outputs.Remove(rec.ArtifactPath); err != nil {
			s.log.Warn("failed to remove deleted job artifact",
				zap.String("job_id", jobID),
				zap.String("path", rec.ArtifactPath),
				zap.Error(err))
		}
	}

	s.log.Info("job deleted", zap.String("job_id", jobID))
	writeJSON(w, http.StatusOK, JobDeleteResponse{JobID: jobID, Deleted: true})
}
