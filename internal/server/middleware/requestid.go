package middleware

import (
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
)

// RequestIDHeader carries the correlation ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a correlation ID to every request. An inbound
// X-Request-ID is honored so callers can trace across services; otherwise
// a fresh UUID is generated. The ID is stored in the request context and
// echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := apperrors.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
