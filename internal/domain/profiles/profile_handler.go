package profiles

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/api"
	"github.com/FACorreiaa/commhub-api/pkg/interceptors"
)

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

// Routes mounts the profile endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.GetProfile)
	r.Get("/preferences", h.GetPreferences)
	r.Get("/interests/options", h.ListInterestOptions)
	r.Put("/location", h.UpdateLocation)
	r.Put("/interests", h.UpdateInterests)
	r.Put("/notifications", h.UpdateNotifications)
}

type updateLocationRequest struct {
	Location types.SelectedLocation `json:"location"`
	Primary  *bool                  `json:"primary,omitempty"`
}

type updateInterestsRequest struct {
	Interests []string `json:"interests"`
}

type interestOptionsResponse struct {
	Interests []string `json:"interests"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProfilesHandler").Start(r.Context(), "GetProfile", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/profile"),
	))
	defer span.End()

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Failed to load profile")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProfilesHandler").Start(r.Context(), "GetPreferences", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/profile/preferences"),
	))
	defer span.End()

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	prefs, err := h.service.GetPreferences(ctx, userID)
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Failed to load preferences")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, prefs)
}

// ListInterestOptions returns the interest vocabulary offered at signup.
func (h *Handler) ListInterestOptions(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, interestOptionsResponse{Interests: types.Interests})
}

// UpdateLocation handles PUT /location. primary defaults to true.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProfilesHandler").Start(r.Context(), "UpdateLocation", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/profile/location"),
	))
	defer span.End()

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	primary := req.Primary == nil || *req.Primary

	prefs, err := h.service.UpdateLocation(ctx, userID, req.Location, primary)
	if err != nil {
		h.logger.WarnContext(ctx, "Location update failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Failed to update location")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, prefs)
}

func (h *Handler) UpdateInterests(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProfilesHandler").Start(r.Context(), "UpdateInterests", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/profile/interests"),
	))
	defer span.End()

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateInterestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	prefs, err := h.service.UpdateInterests(ctx, userID, req.Interests)
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Failed to update interests")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, prefs)
}

func (h *Handler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProfilesHandler").Start(r.Context(), "UpdateNotifications", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/profile/notifications"),
	))
	defer span.End()

	userID, err := interceptors.UserIDFromContext(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var settings types.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	prefs, err := h.service.UpdateNotifications(ctx, userID, settings)
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Failed to update notifications")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, prefs)
}
