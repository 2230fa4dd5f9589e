package synth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Yass5002/Lyrebird/pkg/audioinfo"
	"github.com/Yass5002/Lyrebird/pkg/outputs"
)

// Degradation reason labels reported in Result.Degradations.
const (
	DegradedPunctuation   = "punctuation"
	DegradedDurationProbe = "duration-probe"
	DegradedOrganization  = "organization"
	DegradedMirror        = "mirror"
)

// Progress milestones for the clone pipeline.
const (
	progressValidating = 0.10
	progressText       = 0.30
	progressSynthesis  = 0.50
	progressSaving     = 0.85
	progressCleanup    = 0.95
	progressDone       = 1.0
)

// defaultTempMaxAge bounds how long transient synthesis files survive
// between sweeps.
const defaultTempMaxAge = 2 * time.Hour

// ArtifactMirror replicates placed artifacts to remote storage.
// Mirroring failures are degradations, never clone failures.
type ArtifactMirror interface {
	Upload(ctx context.Context, path, key string) error
}

// CloneRequest is a validated-or-not clone invocation. Language is the
// human-readable name from the supported catalog.
type CloneRequest struct {
	Text               string
	ReferenceAudioPath string
	Language           string
}

// Cloner runs the voice-cloning pipeline against injected capabilities.
// All methods are safe for concurrent use, though callers are expected
// to serialize Clone invocations per compute device (see Dispatcher in
// pkg/jobregistry).
type Cloner struct {
	synth      SpeechSynthesizer
	punctuator TextPunctuator
	tracker    *RTFTracker
	organizer  *outputs.Organizer
	mirror     ArtifactMirror
	tempDir    string
	tempMaxAge time.Duration
	log        *zap.Logger
}

// ClonerOption customizes a Cloner.
type ClonerOption func(*Cloner)

// WithPunctuator injects the punctuation-restoration capability. Without
// it the orchestrator appends terminal punctuation as a trivial fallback.
func WithPunctuator(p TextPunctuator) ClonerOption {
	return func(c *Cloner) { c.punctuator = p }
}

// WithMirror enables artifact mirroring after placement.
func WithMirror(m ArtifactMirror) ClonerOption {
	return func(c *Cloner) { c.mirror = m }
}

// WithTempMaxAge overrides the transient-file expiry used by the cleanup
// stage.
func WithTempMaxAge(age time.Duration) ClonerOption {
	return func(c *Cloner) { c.tempMaxAge = age }
}

// NewCloner builds the orchestrator. synthesizer, organizer and log are
// required; tempDir is created on first use.
func NewCloner(synthesizer SpeechSynthesizer, tracker *RTFTracker, organizer *outputs.Organizer, tempDir string, log *zap.Logger, opts ...ClonerOption) *Cloner {
	c := &Cloner{
		synth:      synthesizer,
		tracker:    tracker,
		organizer:  organizer,
		tempDir:    tempDir,
		tempMaxAge: defaultTempMaxAge,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tracker exposes the RTF tracker for estimate reporting.
func (c *Cloner) Tracker() *RTFTracker {
	return c.tracker
}

// Clone runs the full pipeline: validation, punctuation restoration,
// synthesis, timing measurement, artifact placement, and transient
// cleanup. Progress is reported at fixed milestones when progress is
// non-nil. Synthesis errors are captured in the returned Result and
// never propagated as faults.
func (c *Cloner) Clone(ctx context.Context, req CloneRequest, progress ProgressFunc) Result {
	report := func(p float64, msg string) {
		if progress != nil {
			progress(p, msg)
		}
	}

	report(progressValidating, "validating inputs")

	text, err := ValidateText(req.Text)
	if err != nil {
		return failure(err.Error())
	}
	if err := ValidateReferenceAudio(req.ReferenceAudioPath); err != nil {
		return failure(err.Error())
	}
	langCode, err := ValidateLanguage(req.Language)
	if err != nil {
		return failure(err.Error())
	}

	report(progressText, "processing text")

	var degradations []string
	text, punctuated := c.restorePunctuation(ctx, text)
	if !punctuated {
		degradations = append(degradations, DegradedPunctuation)
	}

	estimatedAudio := EstimateAudioDuration(text, langCode)
	estimatedProcessing, learned := EstimateProcessingTime(estimatedAudio, c.tracker, c.synth.Device())
	c.log.Debug("processing estimate",
		zap.Float64("estimated_audio_seconds", estimatedAudio),
		zap.Float64("estimated_processing_seconds", estimatedProcessing),
		zap.Bool("learned_rtf", learned))

	report(progressSynthesis, fmt.Sprintf("generating %s speech", req.Language))

	if err := os.MkdirAll(c.tempDir, 0o755); err != nil {
		return failure(fmt.Sprintf("prepare temp dir: %v", err))
	}
	tempFile := filepath.Join(c.tempDir, fmt.Sprintf("temp_%s.wav", uuid.NewString()[:8]))

	start := time.Now()
	synthErr := c.synth.Synthesize(ctx, SynthesizeRequest{
		Text:               text,
		ReferenceAudioPath: req.ReferenceAudioPath,
		LanguageCode:       langCode,
		OutputPath:         tempFile,
	})
	processing := time.Since(start).Seconds()

	if synthErr != nil {
		_ = outputs.Remove(tempFile)
		c.log.Warn("synthesis failed",
			zap.String("language", req.Language),
			zap.Error(synthErr))
		return failure(fmt.Sprintf("generation failed: %v", synthErr))
	}
	if _, err := os.Stat(tempFile); err != nil {
		return failure("generation failed: engine produced no output")
	}

	audioSeconds := 0.0
	probe, probeErr := audioinfo.Duration(tempFile)
	switch {
	case probeErr != nil:
		degradations = append(degradations, DegradedDurationProbe)
	case probe.Estimated:
		audioSeconds = probe.Seconds
		degradations = append(degradations, DegradedDurationProbe)
	default:
		audioSeconds = probe.Seconds
	}
	if audioSeconds > 0 {
		rtf := c.tracker.Observe(processing, audioSeconds)
		avg, _ := c.tracker.Average()
		c.log.Debug("real-time factor updated",
			zap.Float64("rtf", rtf),
			zap.Float64("rtf_average", avg))
	}

	report(progressSaving, "saving file")

	placement := c.organizer.Place(tempFile, req.Language)
	if placement.Degraded {
		degradations = append(degradations, DegradedOrganization)
	}

	if c.mirror != nil && !placement.Degraded {
		if err := c.mirror.Upload(ctx, placement.AbsolutePath, filepath.ToSlash(placement.RelativePath)); err != nil {
			c.log.Warn("artifact mirror failed", zap.Error(err))
			degradations = append(degradations, DegradedMirror)
		}
	}

	report(progressCleanup, "cleaning up")
	outputs.SweepExpired(c.tempDir, c.tempMaxAge)

	report(progressDone, "complete")

	outcome := OutcomeOK
	if len(degradations) > 0 {
		outcome = OutcomeDegraded
	}
	return Result{
		Outcome:      outcome,
		ArtifactPath: placement.AbsolutePath,
		RelativePath: placement.RelativePath,
		Message: fmt.Sprintf("voice cloning completed: %s (%s, %.1fs audio in %.1fs)",
			placement.RelativePath, req.Language, audioSeconds, processing),
		Degradations:      degradations,
		ProcessingSeconds: processing,
		AudioSeconds:      audioSeconds,
	}
}

// restorePunctuation applies the external punctuator when available and
// falls back to appending terminal punctuation otherwise. The second
// return value is false when the fallback was used.
func (c *Cloner) restorePunctuation(ctx context.Context, text string) (string, bool) {
	if c.punctuator == nil {
		return FallbackPunctuate(text), false
	}
	restored, err := c.punctuator.Restore(ctx, text)
	if err != nil || strings.TrimSpace(restored) == "" {
		if err != nil {
			c.log.Warn("punctuation restoration failed", zap.Error(err))
		}
		return FallbackPunctuate(text), false
	}
	return restored, true
}

func failure(msg string) Result {
	return Result{Outcome: OutcomeFailed, Message: msg}
}
