// Package synth orchestrates voice-cloning synthesis: input validation,
// punctuation restoration, progress estimation, and invocation of the
// external speech engine. The neural model itself is an external
// capability reached through the SpeechSynthesizer interface; this
// package never loads or runs a model.
package synth

import (
	"context"
	"strings"
)

// SynthesizeRequest carries one synthesis invocation to the engine.
type SynthesizeRequest struct {
	// Text is the punctuated text to speak.
	Text string

	// ReferenceAudioPath points at the voice sample to mimic.
	ReferenceAudioPath string

	// LanguageCode is the engine language code (e.g. "en").
	LanguageCode string

	// OutputPath is where the engine must write the WAV artifact.
	OutputPath string
}

// SpeechSynthesizer is the external text-to-speech capability. An
// implementation produces a cloned-voice WAV at req.OutputPath or
// returns an error describing why it could not.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) error

	// Device reports the compute device the engine runs on ("cpu",
	// "cuda", "mps"). Used only for first-run processing estimates.
	Device() string
}

// TextPunctuator is the external punctuation-restoration capability.
// The engine segments speech by punctuation, so unpunctuated input
// produces poor output without this step.
type TextPunctuator interface {
	Restore(ctx context.Context, text string) (string, error)
}

// Outcome classifies a clone result. Degraded means the artifact was
// produced but one or more optional steps fell back to simpler behavior;
// callers should treat it as success.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeDegraded
	OutcomeFailed
)

// Result is the explicit outcome of a clone operation. Degradations are
// listed so callers can distinguish silently-degraded success from true
// success without scraping logs.
type Result struct {
	Outcome Outcome

	// ArtifactPath is the absolute path of the placed artifact. Empty
	// when Outcome is OutcomeFailed.
	ArtifactPath string

	// RelativePath is the artifact path relative to the output root,
	// suitable for logging and responses.
	RelativePath string

	// Message is a human-readable summary (success detail or failure
	// reason).
	Message string

	// Degradations names the optional steps that fell back
	// ("punctuation", "duration-probe", "organization", "mirror").
	Degradations []string

	// ProcessingSeconds and AudioSeconds are the measured timings for
	// a successful synthesis.
	ProcessingSeconds float64
	AudioSeconds      float64
}

// Failed reports whether the clone produced no artifact.
func (r *Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// ProgressFunc receives staged progress in [0,1] with a short message.
// Implementations must be cheap; the orchestrator calls them inline.
type ProgressFunc func(progress float64, message string)

// FallbackPunctuate appends a terminal period when text does not already
// end in sentence punctuation. Used when no TextPunctuator is available
// or restoration fails.
func FallbackPunctuate(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return trimmed
	}
	return trimmed + "."
}
