package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
)

// Throttle rate-limits the wrapped handler with a shared token bucket.
// Clone submissions are far more expensive than the rest of the API, so
// only those routes are wrapped. Excess requests get 429 RATE_LIMITED
// immediately instead of queueing.
func Throttle(requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				apperrors.WriteEnvelope(w, http.StatusTooManyRequests, apperrors.HTTPErrorBody{
					Code:      apperrors.CodeRateLimited,
					Message:   "too many clone requests, slow down",
					RequestID: apperrors.RequestIDFromContext(r.Context()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
