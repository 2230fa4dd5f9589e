package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
	"github.com/Yass5002/Lyrebird/pkg/outputs"
	"github.com/Yass5002/Lyrebird/pkg/synth"
)

// textFieldLimit bounds non-file form fields so a hostile multipart body
// cannot balloon memory.
const textFieldLimit = 64 * 1024

// cloneSubmission is a parsed and validated clone form.
type cloneSubmission struct {
	Text       string
	Language   string
	UploadPath string
}

// CloneResponse is the body of a successful synchronous clone.
type CloneResponse struct {
	Success    bool   `json:"success"`
	AudioURL   string `json:"audio_url"`
	Message    string `json:"message"`
	Language   string `json:"language"`
	TextLength int    `json:"text_length"`
}

// CloneAsyncResponse acknowledges an accepted asynchronous clone.
type CloneAsyncResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
	Message   string `json:"message"`
}

// Clone handles POST /api/clone: parse the multipart form, run the
// pipeline through the shared dispatcher, and block until the result is
// ready. The dispatcher serializes synthesis, so a synchronous caller
// waits behind any queued async jobs.
func (s *Service) Clone(w http.ResponseWriter, r *http.Request) {
	sub, err := s.parseCloneForm(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	defer s.removeUpload(sub.UploadPath)

	results := make(chan synth.Result, 1)
	task := func(ctx context.Context) {
		results <- s.cloner.Clone(ctx, synth.CloneRequest{
			Text:               sub.Text,
			ReferenceAudioPath: sub.UploadPath,
			Language:           sub.Language,
		}, nil)
	}

	if err := s.dispatcher.Enqueue(task); err != nil {
		respondWithError(w, r, apperrors.NewQueueFull())
		return
	}

	var result synth.Result
	select {
	case result = <-results:
	case <-r.Context().Done():
		// The task still runs to completion; only the response is lost.
		s.log.Warn("client disconnected during synchronous clone")
		return
	}

	if result.Outcome == synth.OutcomeFailed {
		respondWithError(w, r, apperrors.NewSynthesisFailed(result.Message))
		return
	}

	writeJSON(w, http.StatusOK, CloneResponse{
		Success:    true,
		AudioURL:   audioURL(result.ArtifactPath),
		Message:    result.Message,
		Language:   sub.Language,
		TextLength: utf8.RuneCountInString(sub.Text),
	})
}

// CloneAsync handles POST /api/clone/async: validate, register a job,
// and enqueue the pipeline. Retention runs first so a burst of requests
// cannot grow the registry without bound.
func (s *Service) CloneAsync(w http.ResponseWriter, r *http.Request) {
	s.retention.Sweep()

	sub, err := s.parseCloneForm(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	rec := s.registry.Create(sub.Language, utf8.RuneCountInString(sub.Text))

	task := func(ctx context.Context) {
		defer s.removeUpload(sub.UploadPath)

		s.registry.Start(rec.JobID)
		result := s.cloner.Clone(ctx, synth.CloneRequest{
			Text:               sub.Text,
			ReferenceAudioPath: sub.UploadPath,
			Language:           sub.Language,
		}, func(progress float64, message string) {
			s.registry.SetProgress(rec.JobID, progress, message)
		})

		if result.Outcome == synth.OutcomeFailed {
			if err := s.registry.Fail(rec.JobID, result.Message); err != nil {
				s.log.Warn("record job failure", zap.String("job_id", rec.JobID), zap.Error(err))
			}
			return
		}
		if err := s.registry.Complete(rec.JobID, audioURL(result.ArtifactPath), result.ArtifactPath, result.Message); err != nil {
			s.log.Warn("record job completion", zap.String("job_id", rec.JobID), zap.Error(err))
		}
	}

	if err := s.dispatcher.Enqueue(task); err != nil {
		s.registry.Delete(rec.JobID)
		s.removeUpload(sub.UploadPath)
		respondWithError(w, r, apperrors.NewQueueFull())
		return
	}

	s.log.Info("clone job accepted",
		zap.String("job_id", rec.JobID),
		zap.String("language", sub.Language),
		zap.Int("text_length", utf8.RuneCountInString(sub.Text)))

	writeJSON(w, http.StatusOK, CloneAsyncResponse{
		JobID:     rec.JobID,
		Status:    string(rec.Status),
		StatusURL: "/api/jobs/" + rec.JobID,
		Message:   "voice cloning started, poll the status URL for progress",
	})
}

// parseCloneForm streams the multipart body, validating fields as they
// arrive. The upload is written to the temp directory and capped mid-copy
// so an oversized body is rejected without buffering it.
func (s *Service) parseCloneForm(r *http.Request) (cloneSubmission, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return cloneSubmission{}, apperrors.NewValidation("request must be multipart/form-data with text, language and audio fields")
	}

	var sub cloneSubmission
	cleanup := func() {
		s.removeUpload(sub.UploadPath)
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			cleanup()
			return cloneSubmission{}, apperrors.NewValidation("malformed multipart body")
		}

		switch part.FormName() {
		case "text":
			value, err := readFormValue(part)
			if err != nil {
				cleanup()
				return cloneSubmission{}, err
			}
			sub.Text = value
		case "language":
			value, err := readFormValue(part)
			if err != nil {
				cleanup()
				return cloneSubmission{}, err
			}
			sub.Language = value
		case "audio":
			path, err := s.saveUpload(part)
			if err != nil {
				cleanup()
				return cloneSubmission{}, err
			}
			sub.UploadPath = path
		}
		_ = part.Close()
	}

	trimmed, err := synth.ValidateText(sub.Text)
	if err != nil {
		cleanup()
		return cloneSubmission{}, apperrors.NewValidation(err.Error())
	}
	sub.Text = trimmed

	if sub.Language == "" {
		sub.Language = "English"
	}
	if _, err := synth.ValidateLanguage(sub.Language); err != nil {
		cleanup()
		return cloneSubmission{}, apperrors.NewValidation(err.Error())
	}
	if err := synth.ValidateReferenceAudio(sub.UploadPath); err != nil {
		cleanup()
		return cloneSubmission{}, apperrors.NewValidation(err.Error())
	}
	return sub, nil
}

// saveUpload streams one file part to the temp directory, enforcing the
// extension allow list and the size cap while copying.
func (s *Service) saveUpload(part *multipart.Part) (string, error) {
	filename := part.FileName()
	if filename == "" {
		return "", apperrors.NewValidation("please upload a voice reference audio file")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !synth.AllowedAudioExtension(ext) {
		return "", apperrors.NewValidation(
			fmt.Sprintf("unsupported audio format %q, use WAV, MP3, FLAC, OGG or M4A", ext))
	}

	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("prepare temp dir: %w", err)
	}
	path := filepath.Join(s.cfg.TempDir, fmt.Sprintf("upload_%s%s", uuid.NewString()[:8], ext))

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(part, s.cfg.MaxUploadBytes+1))
	closeErr := dst.Close()
	switch {
	case err != nil:
		_ = outputs.Remove(path)
		return "", fmt.Errorf("store upload: %w", err)
	case closeErr != nil:
		_ = outputs.Remove(path)
		return "", fmt.Errorf("store upload: %w", closeErr)
	case written > s.cfg.MaxUploadBytes:
		_ = outputs.Remove(path)
		return "", apperrors.NewValidation(
			fmt.Sprintf("audio file too large, maximum is %d MB", s.cfg.MaxUploadBytes/(1024*1024)))
	case written == 0:
		_ = outputs.Remove(path)
		return "", apperrors.NewValidation("uploaded audio file is empty")
	}
	return path, nil
}

func (s *Service) removeUpload(path string) {
	if path == "" {
		return
	}
	if err := outputs.Remove(path); err != nil {
		s.log.Warn("failed to remove uploaded reference audio",
			zap.String("path", path), zap.Error(err))
	}
}

func readFormValue(part *multipart.Part) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(part, textFieldLimit+1))
	if err != nil {
		return "", apperrors.NewValidation("malformed multipart body")
	}
	if len(raw) > textFieldLimit {
		return "", apperrors.NewValidation("form field too large")
	}
	return strings.TrimSpace(string(raw)), nil
}

// audioURL maps a placed artifact to its retrieval endpoint.
func audioURL(artifactPath string) string {
	if artifactPath == "" {
		return ""
	}
	return "/api/audio/" + filepath.Base(artifactPath)
}
