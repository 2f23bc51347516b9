package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commhub_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	geoQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commhub_geo_queries_total",
		Help: "Geo engine operations served.",
	}, []string{"operation"})

	feedParses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commhub_feed_parse_total",
		Help: "Agent responses parsed, by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commhub_cache_lookups_total",
		Help: "In-memory cache lookups by cache name and result.",
	}, []string{"cache", "result"})
)

// RecordGeoQuery counts one geo engine operation.
func RecordGeoQuery(operation string) {
	geoQueries.WithLabelValues(operation).Inc()
}

// RecordFeedParse counts one parsed agent response.
func RecordFeedParse(strategy, outcome string) {
	feedParses.WithLabelValues(strategy, outcome).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// NewMetricsMiddleware records request counts and latency per chi route pattern.
func NewMetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
			httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
