package city

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/api"
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

// Routes mounts the location endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/nearest", h.GetNearestCity)
	r.Get("/detect", h.DetectLocation)
	r.Get("/nearby", h.GetNearbyCities)
	r.Get("/search", h.SearchCities)
	r.Get("/popular", h.GetPopularLocations)
	r.Get("/quick-picks", h.GetQuickPicks)
}

type nearestCityResponse struct {
	types.CityRecord
	Label string `json:"label"`
}

type citiesResponse[T any] struct {
	Cities []T `json:"cities"`
	Count  int `json:"count"`
}

func newCitiesResponse[T any](cities []T) citiesResponse[T] {
	return citiesResponse[T]{Cities: cities, Count: len(cities)}
}

// GetNearestCity handles GET /nearest?lat=&lon=.
func (h *Handler) GetNearestCity(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "GetNearestCity", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/locations/nearest"),
	))
	defer span.End()

	point, err := requiredPoint(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.service.NearestCity(ctx, point)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to find nearest city", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Unable to resolve location")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, nearestCityResponse{
		CityRecord: *c,
		Label:      FormatLocation(c.Name, c.Region),
	})
}

// DetectLocation handles GET /detect?lat=&lon=.
func (h *Handler) DetectLocation(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "DetectLocation", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/locations/detect"),
	))
	defer span.End()

	point, err := requiredPoint(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := h.service.DetectLocation(ctx, point)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to detect location", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Unable to detect location")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, loc)
}

// GetNearbyCities handles GET /nearby?lat=&lon=&radius=.
func (h *Handler) GetNearbyCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "GetNearbyCities", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/locations/nearby"),
	))
	defer span.End()

	point, err := requiredPoint(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	radius, ok, err := api.ParseFloatParam(r, "radius")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "radius must be a finite number")
		return
	}
	if !ok {
		radius = DefaultRadiusMiles
	}

	nearby, err := h.service.CitiesWithinRadius(ctx, point, radius)
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Unable to list nearby cities")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, newCitiesResponse(nearby))
}

// SearchCities handles GET /search?q=[&lat=&lon=]. With coordinates the
// matches are ordered by distance.
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "SearchCities", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/locations/search"),
	))
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	point, hasPoint, err := optionalPoint(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if hasPoint {
		results, err := h.service.SearchCitiesNear(ctx, query, point)
		if err != nil {
			api.DomainErrorResponse(w, r, err, "Search failed")
			return
		}
		api.WriteJSONResponse(w, r, http.StatusOK, newCitiesResponse(results))
		return
	}

	results, err := h.service.SearchCities(ctx, query)
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Search failed")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, newCitiesResponse(results))
}

// GetPopularLocations handles GET /popular[?lat=&lon=]. Without coordinates
// it falls back to the quick-pick list.
func (h *Handler) GetPopularLocations(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "GetPopularLocations", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/locations/popular"),
	))
	defer span.End()

	point, hasPoint, err := optionalPoint(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !hasPoint {
		h.GetQuickPicks(w, r.WithContext(ctx))
		return
	}

	popular, err := h.service.PopularLocations(ctx, point)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to compute popular locations", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err, "Unable to load popular locations")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, newCitiesResponse(popular))
}

// GetQuickPicks handles GET /quick-picks.
func (h *Handler) GetQuickPicks(w http.ResponseWriter, r *http.Request) {
	picks, err := h.service.QuickPickLocations(r.Context())
	if err != nil {
		api.DomainErrorResponse(w, r, err, "Unable to load locations")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, newCitiesResponse(picks))
}

func requiredPoint(r *http.Request) (types.GeoPoint, error) {
	point, ok, err := optionalPoint(r)
	if err != nil {
		return types.GeoPoint{}, err
	}
	if !ok {
		return types.GeoPoint{}, fmt.Errorf("lat and lon are required")
	}
	return point, nil
}

func optionalPoint(r *http.Request) (types.GeoPoint, bool, error) {
	lat, hasLat, err := api.ParseFloatParam(r, "lat")
	if err != nil {
		return types.GeoPoint{}, false, fmt.Errorf("lat must be a finite number")
	}
	lon, hasLon, err := api.ParseFloatParam(r, "lon")
	if err != nil {
		return types.GeoPoint{}, false, fmt.Errorf("lon must be a finite number")
	}
	if hasLat != hasLon {
		return types.GeoPoint{}, false, fmt.Errorf("lat and lon must be given together")
	}
	return types.GeoPoint{Latitude: lat, Longitude: lon}, hasLat, nil
}
