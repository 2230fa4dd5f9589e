package handlers

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	webassets "github.com/Yass5002/Lyrebird/internal/assets/web"
	"github.com/Yass5002/Lyrebird/pkg/synth"
)

var indexTemplate = template.Must(template.New("index").Parse(string(webassets.IndexPage)))

// Root handles GET /: the embedded landing page with live service facts.
func (s *Service) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Model         string
		Device        string
		LanguageCount int
	}{
		Model:         s.cfg.ModelName,
		Device:        s.engine.Device(),
		LanguageCount: len(synth.LanguageNames()),
	})
	if err != nil {
		s.log.Warn("render landing page", zap.Error(err))
	}
}
