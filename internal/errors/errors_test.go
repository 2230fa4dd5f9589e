package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) HTTPErrorResponse {
	t.Helper()
	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondWithErrorMapsAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", NewValidation("text too short"), http.StatusBadRequest, CodeValidation},
		{"not found", NewNotFound("audio file not found"), http.StatusNotFound, CodeNotFound},
		{"job not found", NewJobNotFound("abc"), http.StatusNotFound, CodeJobNotFound},
		{"synthesis", NewSynthesisFailed("engine error"), http.StatusInternalServerError, CodeSynthesisFailed},
		{"queue full", NewQueueFull(), http.StatusServiceUnavailable, CodeQueueFull},
		{"wrapped", fmt.Errorf("handler: %w", NewValidation("bad input")), http.StatusBadRequest, CodeValidation},
		{"unclassified", errors.New("something broke"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			RespondWithError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestRespondWithErrorHidesInternalDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, errors.New("db password is hunter2"))

	body := decodeBody(t, rec)
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestRespondWithErrorIncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(WithRequestID(req.Context(), "req-42"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, NewValidation("nope"))

	body := decodeBody(t, rec)
	assert.Equal(t, "req-42", body.Error.RequestID)
}

func TestJobNotFoundCarriesJobID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, NewJobNotFound("job-7"))

	body := decodeBody(t, rec)
	require.NotNil(t, body.Error.Details)
	assert.Equal(t, "job-7", body.Error.Details["job_id"])
}

func TestRequestIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))

	ctx := WithRequestID(req.Context(), "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
}
