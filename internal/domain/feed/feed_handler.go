package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/api"
	"github.com/FACorreiaa/commhub-api/pkg/interceptors"
)

// DefaultStrategy is used when a request does not name one.
const DefaultStrategy = types.StrategyParagraph

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the feed endpoints on r. All of them need an authenticated user.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.GetFeed)
	r.Get("/home", h.GetHome)
	r.Get("/location", h.GetLocationFeed)
	r.Get("/search", h.SearchContent)
	r.Post("/detail", h.GetDetail)
}

type detailRequest struct {
	Content string `json:"content"`
}

type detailResponse struct {
	Sections []types.DetailSection `json:"sections"`
}

// GetFeed handles GET /?strategy=bullet|paragraph for the caller's primary location.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedHandler").Start(r.Context(), "GetFeed", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/feed"),
	))
	defer span.End()

	l := h.logger.With(slog.String("HandlerImpl", "GetFeed"))

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	strategy, ok := strategyParam(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "strategy must be bullet or paragraph")
		return
	}

	feed, err := h.service.Feed(ctx, userID, strategy)
	if err != nil {
		l.ErrorContext(ctx, "Failed to build feed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Unable to load content")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, feed)
}

// GetHome handles GET /home: one feed per followed location.
func (h *Handler) GetHome(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedHandler").Start(r.Context(), "GetHome", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/feed/home"),
	))
	defer span.End()

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	strategy, ok := strategyParam(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "strategy must be bullet or paragraph")
		return
	}

	home, err := h.service.Home(ctx, userID, strategy)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build home feed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Unable to load content")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, home)
}

// GetLocationFeed handles GET /location?location=City, Region.
func (h *Handler) GetLocationFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedHandler").Start(r.Context(), "GetLocationFeed", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/feed/location"),
	))
	defer span.End()

	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "location is required")
		return
	}
	strategy, ok := strategyParam(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "strategy must be bullet or paragraph")
		return
	}

	var interests []string
	if raw := r.URL.Query().Get("interests"); raw != "" {
		interests = strings.Split(raw, ",")
	}

	feed, err := h.service.FeedForLocation(ctx, location, interests, strategy)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build location feed", slog.String("location", location), slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Unable to load content")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, feed)
}

// GetDetail handles POST /detail with {"content": "..."}.
func (h *Handler) GetDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedHandler").Start(r.Context(), "GetDetail", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/feed/detail"),
	))
	defer span.End()

	var req detailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	sections, err := h.service.Detail(ctx, req.Content)
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Unable to open story")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, detailResponse{Sections: sections})
}

// SearchContent handles GET /search?q=.
func (h *Handler) SearchContent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedHandler").Start(r.Context(), "SearchContent", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/feed/search"),
	))
	defer span.End()

	result, err := h.service.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.WarnContext(ctx, "Content search failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Search failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

func strategyParam(r *http.Request) (types.ParseStrategy, bool) {
	raw := r.URL.Query().Get("strategy")
	if raw == "" {
		return DefaultStrategy, true
	}
	s := types.ParseStrategy(strings.ToLower(raw))
	return s, s.Valid()
}
