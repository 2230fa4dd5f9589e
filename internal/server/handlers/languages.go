package handlers

import (
	"net/http"

	"github.com/Yass5002/Lyrebird/pkg/synth"
)

// LanguagesResponse is the body of GET /api/languages.
type LanguagesResponse struct {
	Languages []string `json:"languages"`
	Total     int      `json:"total"`
}

// Languages handles GET /api/languages.
func (s *Service) Languages(w http.ResponseWriter, r *http.Request) {
	names := synth.LanguageNames()
	writeJSON(w, http.StatusOK, LanguagesResponse{
		Languages: names,
		Total:     len(names),
	})
}
