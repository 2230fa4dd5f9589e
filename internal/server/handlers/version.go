package handlers

import "net/http"

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Model   string `json:"model"`
}

// Version returns a handler reporting the build version.
func Version(service, version, model string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{
			Service: service,
			Version: version,
			Model:   model,
		})
	}
}
