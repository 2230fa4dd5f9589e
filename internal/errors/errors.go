// Package errors defines the service error taxonomy and the standard
// HTTP error envelope. Every error body has the shape
// {"error":{"code","message","details","request_id"}} so clients and the
// middleware recovery path produce indistinguishable output.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Stable machine-readable error codes.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeJobNotFound      = "JOB_NOT_FOUND"
	CodeSynthesisFailed  = "SYNTHESIS_FAILED"
	CodeQueueFull        = "QUEUE_FULL"
	CodeRateLimited      = "RATE_LIMITED"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_ERROR"
)

// HTTPErrorResponse is the wire shape of every error body.
type HTTPErrorResponse struct {
	Error HTTPErrorBody `json:"error"`
}

// HTTPErrorBody carries the error envelope fields.
type HTTPErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// APIError is an error with a bound HTTP status and stable code.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// NewValidation reports rejected input; never retried by clients.
func NewValidation(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message}
}

// NewNotFound reports a missing resource.
func NewNotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

// NewJobNotFound reports an unknown job identifier.
func NewJobNotFound(jobID string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    CodeJobNotFound,
		Message: "job not found",
		Details: map[string]any{"job_id": jobID},
	}
}

// NewSynthesisFailed surfaces an engine failure with its message.
func NewSynthesisFailed(message string) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: CodeSynthesisFailed, Message: message}
}

// NewQueueFull reports that the synthesis queue cannot accept work.
func NewQueueFull() *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeQueueFull,
		Message: "synthesis queue is full, retry later",
	}
}

type requestIDKey struct{}

// WithRequestID stores the request correlation ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request correlation ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RespondWithError writes err as a standard error envelope. Unclassified
// errors become 500 INTERNAL_ERROR without leaking internals.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    CodeInternal,
			Message: "internal server error",
		}
	}

	WriteEnvelope(w, apiErr.Status, HTTPErrorBody{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		Details:   apiErr.Details,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

// WriteEnvelope writes an error body with the given status.
func WriteEnvelope(w http.ResponseWriter, status int, body HTTPErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{Error: body})
}
