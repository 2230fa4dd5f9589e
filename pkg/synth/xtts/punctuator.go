package xtts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Yass5002/Lyrebird/pkg/synth"
)

const apiPunctuate = "/v1/punctuate"

// ErrEmptyRestoration indicates the punctuation sidecar returned nothing
// usable; callers fall back to trivial punctuation.
var ErrEmptyRestoration = errors.New("punctuator returned empty text")

// Punctuator reaches the external punctuation-restoration model over
// HTTP. It implements synth.TextPunctuator; any failure degrades to the
// orchestrator's trivial fallback rather than failing the clone.
type Punctuator struct {
	baseURL    string
	httpClient *http.Client
}

var _ synth.TextPunctuator = (*Punctuator)(nil)

// NewPunctuator creates a punctuation sidecar client.
func NewPunctuator(baseURL string, timeout time.Duration) *Punctuator {
	return &Punctuator{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type punctuateRequest struct {
	Text string `json:"text"`
}

type punctuateResponse struct {
	Text string `json:"text"`
}

// Restore returns text with punctuation restored by the external model.
func (p *Punctuator) Restore(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(punctuateRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal punctuate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+apiPunctuate, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create punctuate request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("punctuator request to %s failed: %w", p.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("punctuator returned %s: %s", resp.Status, string(raw))
	}

	var out punctuateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode punctuate response: %w", err)
	}
	if out.Text == "" {
		return "", ErrEmptyRestoration
	}
	return out.Text, nil
}
