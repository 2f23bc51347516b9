package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/commhub-api/pkg/interceptors"
	"github.com/FACorreiaa/commhub-api/pkg/observability"
)

const readinessTimeout = 3 * time.Second

// SetupRouter configures all routes and returns the HTTP service
func SetupRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	jwtSecret := []byte(deps.Config.Auth.JWTSecret)
	if len(jwtSecret) == 0 {
		deps.Logger.Warn("JWT secret is empty; authenticated routes will reject requests")
	}

	tracer := otel.GetTracerProvider().Tracer("commhub/api")

	r.Use(
		interceptors.NewRequestIDMiddleware("X-Request-ID"),
		interceptors.NewTracingMiddleware(tracer),
		interceptors.NewRecoveryMiddleware(deps.Logger),
		interceptors.NewLoggingMiddleware(deps.Logger),
		observability.NewMetricsMiddleware(),
	)

	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter := rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
		r.Use(interceptors.NewRateLimitMiddleware(limiter))
	}

	registerUtilityRoutes(r, deps)
	registerAPIRoutes(r, deps, interceptors.NewAuthMiddleware(jwtSecret))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: deps.Config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	})

	return corsHandler.Handler(r)
}

// registerAPIRoutes mounts the versioned API. Location lookups are public;
// everything tied to a user goes through auth.
func registerAPIRoutes(r chi.Router, deps *Dependencies, auth func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/locations", deps.CityHandler.Routes)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Route("/feed", deps.FeedHandler.Routes)
			r.Route("/profile", deps.ProfileHandler.Routes)
			r.Route("/tips", deps.TipsHandler.Routes)
		})
	})
	deps.Logger.Info("API routes configured", "prefix", "/api/v1")
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(r chi.Router, deps *Dependencies) {
	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			if err := deps.DB.Health(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("database unhealthy"))
				return
			}
		}
		if err := deps.Redis.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("redis unhealthy"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	deps.Logger.Info("registered health check", "path", "/health")

	// Readiness needs reference data loaded and the content backend reachable.
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Cities == nil || deps.Cities.Len() == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("reference data not loaded"))
			return
		}
		if deps.Backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := deps.Backend.Ping(ctx); err != nil {
				deps.Logger.WarnContext(ctx, "content backend not ready", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("content backend unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	// Metrics endpoint (Prometheus)
	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
