package interceptors

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/FACorreiaa/commhub-api/pkg/api"
)

// NewRateLimitMiddleware sheds requests once limiter runs dry.
func NewRateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				api.ErrorResponse(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
