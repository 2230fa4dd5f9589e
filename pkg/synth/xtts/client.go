// Package xtts reaches the external XTTS v2 synthesis engine over HTTP.
// The engine runs as a local sidecar that shares the service filesystem;
// reference audio is passed by path and the produced WAV is returned in
// the response body. Nothing in this package touches the model itself.
package xtts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Yass5002/Lyrebird/pkg/synth"
)

const (
	apiSynthesize = "/v1/clone"
	apiHealth     = "/health"

	contentTypeJSON = "application/json"
	contentTypeWAV  = "audio/wav"

	filePermissions = 0o600
)

var (
	// ErrEmptyAudio indicates the engine responded OK with no payload.
	ErrEmptyAudio = errors.New("engine returned empty audio data")
)

// Client talks to the XTTS sidecar. It implements synth.SpeechSynthesizer.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	device string
}

// Compile-time check that Client implements the capability interface.
var _ synth.SpeechSynthesizer = (*Client)(nil)

// NewClient creates an engine client. baseURL includes protocol and port
// (e.g. "http://localhost:8020"); timeout applies to synthesis requests,
// which can run for minutes on CPU.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		device: "cpu",
	}
}

// synthesizeRequest is the engine's JSON contract.
type synthesizeRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav"`
	Language   string `json:"language"`
}

// engineError is the engine's structured error body.
type engineError struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// healthResponse is the engine's health body; Device reports the compute
// device the model is loaded on.
type healthResponse struct {
	Status string `json:"status"`
	Device string `json:"device"`
	Model  string `json:"model"`
}

// Synthesize requests cloned speech and writes the WAV artifact to
// req.OutputPath.
func (c *Client) Synthesize(ctx context.Context, req synth.SynthesizeRequest) error {
	body, err := json.Marshal(synthesizeRequest{
		Text:       req.Text,
		SpeakerWav: req.ReferenceAudioPath,
		Language:   req.LanguageCode,
	})
	if err != nil {
		return fmt.Errorf("marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiSynthesize, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("engine request to %s failed: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read engine response: %w", err)
	}
	if len(audio) == 0 {
		return ErrEmptyAudio
	}

	if err := os.WriteFile(req.OutputPath, audio, filePermissions); err != nil {
		return fmt.Errorf("write audio artifact: %w", err)
	}
	return nil
}

// Device reports the engine's compute device as of the last successful
// health check, defaulting to "cpu".
func (c *Client) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// HealthCheck verifies the engine is up and records its compute device.
// serve aborts startup when this fails: a service without its model is
// not worth starting.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine health check at %s failed: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine health check returned %s", resp.Status)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err == nil && health.Device != "" {
		c.mu.Lock()
		c.device = health.Device
		c.mu.Unlock()
	}
	return nil
}

// parseErrorResponse decodes a structured engine error, falling back to
// the raw body so diagnostics are never lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var engineErr engineError
	if err := json.NewDecoder(resp.Body).Decode(&engineErr); err == nil && engineErr.Detail != "" {
		return fmt.Errorf("engine error (%s): %s", resp.Status, engineErr.Detail)
	}

	raw, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("engine returned %s: %s", resp.Status, string(raw))
}
