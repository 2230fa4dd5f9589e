package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Yass5002/Lyrebird/pkg/synth"
)

// voicesCatalogFile is an optional YAML file inside the example-voice
// directory describing the bundled recordings.
const voicesCatalogFile = "voices.yaml"

// ExampleVoice is one bundled reference recording.
type ExampleVoice struct {
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
}

// ExamplesResponse is the body of GET /api/examples.
type ExamplesResponse struct {
	Examples []ExampleVoice `json:"examples"`
	Total    int            `json:"total"`
}

// voicesCatalog is the on-disk shape of voices.yaml.
type voicesCatalog struct {
	Voices map[string]string `yaml:"voices"`
}

// Examples handles GET /api/examples: list bundled reference recordings
// with their catalog descriptions. A missing or unreadable directory
// yields an empty list, never an error.
func (s *Service) Examples(w http.ResponseWriter, r *http.Request) {
	examples := s.listExamples()
	writeJSON(w, http.StatusOK, ExamplesResponse{
		Examples: examples,
		Total:    len(examples),
	})
}

func (s *Service) listExamples() []ExampleVoice {
	examples := make([]ExampleVoice, 0)
	if s.cfg.ExampleDir == "" {
		return examples
	}

	entries, err := os.ReadDir(s.cfg.ExampleDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read example voice dir",
				zap.String("dir", s.cfg.ExampleDir), zap.Error(err))
		}
		return examples
	}

	descriptions := s.loadVoiceDescriptions()
	for _, entry := range entries {
		if entry.IsDir() || !synth.AllowedAudioExtension(filepath.Ext(entry.Name())) {
			continue
		}
		examples = append(examples, ExampleVoice{
			Filename:    entry.Name(),
			Description: descriptions[entry.Name()],
		})
	}

	sort.Slice(examples, func(i, j int) bool {
		return strings.ToLower(examples[i].Filename) < strings.ToLower(examples[j].Filename)
	})
	return examples
}

func (s *Service) loadVoiceDescriptions() map[string]string {
	raw, err := os.ReadFile(filepath.Join(s.cfg.ExampleDir, voicesCatalogFile))
	if err != nil {
		return nil
	}

	var catalog voicesCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		s.log.Warn("malformed voices catalog", zap.Error(err))
		return nil
	}
	return catalog.Voices
}
