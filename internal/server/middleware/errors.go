// Package middleware provides the HTTP middleware chain: request
// correlation, panic recovery, CORS, and clone-rate throttling.
package middleware

import (
	"fmt"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
	"github.com/Yass5002/Lyrebird/internal/observability"
)

// ErrorResponse mirrors the standard error envelope for middleware-level
// failures so panic responses are indistinguishable from handler errors.
type ErrorResponse struct {
	Error apperrors.HTTPErrorBody `json:"error"`
}

// Recovery converts handler panics into 500 INTERNAL_ERROR envelopes.
// The panic value is logged with a stack trace and echoed in the message
// so operators can correlate without re-triggering.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			requestID := apperrors.RequestIDFromContext(r.Context())
			observability.Logger.Error("handler panic",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path),
				zap.String("panic", fmt.Sprint(rec)),
				zap.Stack("stack"))

			envelope := errors.NewErrorEnvelope(
				apperrors.CodeInternal,
				fmt.Sprintf("panic: %v", rec),
			)
			if requestID != "" {
				envelope = envelope.WithCorrelationID(requestID)
			}
			writeErrorResponse(w, envelope, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// ErrorHandler is an alias for Recovery kept for router readability.
func ErrorHandler(next http.Handler) http.Handler {
	return Recovery(next)
}

// writeErrorResponse renders a gofulmen envelope as the wire error shape.
func writeErrorResponse(w http.ResponseWriter, envelope *errors.ErrorEnvelope, status int) {
	body := apperrors.HTTPErrorBody{
		Code:      envelope.Code,
		Message:   envelope.Message,
		RequestID: envelope.CorrelationID,
	}
	if len(envelope.Context) > 0 {
		body.Details = envelope.Context
	}
	apperrors.WriteEnvelope(w, status, body)
}
