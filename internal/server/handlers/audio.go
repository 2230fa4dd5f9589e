package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
	"github.com/Yass5002/Lyrebird/pkg/outputs"
)

// Audio handles GET /api/audio/{filename}. Artifacts live under dated
// language subdirectories, so the filename is located by glob search;
// anything that is not a bare safe filename is rejected before touching
// the filesystem.
func (s *Service) Audio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !outputs.SafeFilename(filename) {
		respondWithError(w, r, apperrors.NewValidation("invalid audio filename"))
		return
	}

	path := outputs.Find(s.cfg.OutputRoot, filename)
	if path == "" {
		respondWithError(w, r, apperrors.NewNotFound("audio file not found"))
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}
