package interceptors

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"
)

// responseRecorder captures the status code and body size of a response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// NewLoggingMiddleware logs the start and outcome of every request with its
// route, duration and response size.
func NewLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			logger.DebugContext(ctx, "Request started", appendClientFields(r, appendLoggerFields(ctx,
				"method", r.Method,
				"path", r.URL.Path,
				"peer", r.RemoteAddr,
				"request_size_bytes", r.ContentLength,
			))...)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			fields := appendLoggerFields(ctx,
				"method", r.Method,
				"route", route,
				"status", status,
				"duration", duration.String(),
				"duration_ms", duration.Milliseconds(),
				"response_size_bytes", rec.size,
			)
			if status >= http.StatusInternalServerError {
				logger.ErrorContext(ctx, "Request failed", fields...)
			} else {
				logger.InfoContext(ctx, "Request completed", fields...)
			}
		})
	}
}

// appendClientFields describes the calling client from its User-Agent.
func appendClientFields(r *http.Request, base []any) []any {
	raw := r.UserAgent()
	if raw == "" {
		return base
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	return append(base,
		"client_browser", browser,
		"client_version", version,
		"client_os", ua.OS(),
		"client_mobile", ua.Mobile(),
		"client_bot", ua.Bot(),
	)
}

func appendLoggerFields(ctx context.Context, base ...any) []any {
	if requestID, ok := RequestIDFromContext(ctx); ok && requestID != "" {
		base = append(base, "request_id", requestID)
	}
	if userID, ok := GetUserIDFromContext(ctx); ok {
		base = append(base, "user_id", userID)
	}
	return base
}
