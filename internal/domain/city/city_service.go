package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/observability"
)

var _ Service = (*ServiceImpl)(nil)

// quickPickCities is the picker's list when no coordinates are known yet.
var quickPickCities = []string{"Vancouver", "Toronto", "Calgary", "Montreal", "Ottawa", "Langley"}

type Service interface {
	NearestCity(ctx context.Context, point types.GeoPoint) (*types.CityRecord, error)
	DetectLocation(ctx context.Context, point types.GeoPoint) (*types.SelectedLocation, error)
	CitiesWithinRadius(ctx context.Context, center types.GeoPoint, radiusMiles float64) ([]types.RankedCity, error)
	SearchCities(ctx context.Context, query string) ([]types.CityRecord, error)
	SearchCitiesNear(ctx context.Context, query string, center types.GeoPoint) ([]types.RankedCity, error)
	PopularLocations(ctx context.Context, center types.GeoPoint) ([]types.RankedCity, error)
	QuickPickLocations(ctx context.Context) ([]types.CityRecord, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	table  *ReferenceTable
	policy types.PopularityPolicy
	cache  *cache.Cache
}

func NewCityService(table *ReferenceTable, policy types.PopularityPolicy, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		table:  table,
		policy: policy,
		cache:  cache.New(30*time.Minute, time.Hour),
	}
}

// NearestCity is the reverse-geocode substitute: the closest reference city.
func (s *ServiceImpl) NearestCity(ctx context.Context, point types.GeoPoint) (*types.CityRecord, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "NearestCity", trace.WithAttributes(
		attribute.Float64("point.lat", point.Latitude),
		attribute.Float64("point.lon", point.Longitude),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "NearestCity"))
	observability.RecordGeoQuery("nearest")

	c, err := s.table.NearestCity(point)
	if err != nil {
		l.ErrorContext(ctx, "Failed to resolve nearest city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Nearest city lookup failed")
		return nil, fmt.Errorf("failed to find nearest city: %w", err)
	}

	span.SetAttributes(attribute.String("city.name", c.Name))
	span.SetStatus(codes.Ok, "Nearest city resolved")
	return &c, nil
}

// DetectLocation turns raw device coordinates into a picker selection. When
// no city can be resolved the coordinates are still returned.
func (s *ServiceImpl) DetectLocation(ctx context.Context, point types.GeoPoint) (*types.SelectedLocation, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "DetectLocation")
	defer span.End()

	l := s.logger.With(slog.String("method", "DetectLocation"))

	c, err := s.NearestCity(ctx, point)
	if err != nil {
		if errors.Is(err, types.ErrNoData) {
			l.WarnContext(ctx, "No reference cities, returning bare coordinates")
			return &types.SelectedLocation{
				City:        "Current Location",
				Coordinates: point,
				Detected:    true,
			}, nil
		}
		span.RecordError(err)
		return nil, err
	}

	l.DebugContext(ctx, "Location detected", slog.String("city", c.Name), slog.String("country", c.Country))
	return &types.SelectedLocation{
		City:        c.Name,
		Region:      c.Region,
		Country:     c.Country,
		Coordinates: point,
		Detected:    true,
	}, nil
}

// CitiesWithinRadius lists reference cities within radiusMiles, closest first.
// A negative radius falls back to DefaultRadiusMiles.
func (s *ServiceImpl) CitiesWithinRadius(ctx context.Context, center types.GeoPoint, radiusMiles float64) ([]types.RankedCity, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "CitiesWithinRadius")
	defer span.End()

	if radiusMiles < 0 {
		radiusMiles = DefaultRadiusMiles
	}
	observability.RecordGeoQuery("radius")

	nearby := s.table.CitiesWithinRadius(center, radiusMiles)

	s.logger.DebugContext(ctx, "Radius query served",
		slog.String("method", "CitiesWithinRadius"),
		slog.Float64("radius_miles", radiusMiles),
		slog.Int("count", len(nearby)))
	span.SetAttributes(attribute.Float64("radius.miles", radiusMiles), attribute.Int("cities.count", len(nearby)))
	return nearby, nil
}

func (s *ServiceImpl) SearchCities(ctx context.Context, query string) ([]types.CityRecord, error) {
	_, span := otel.Tracer("CityService").Start(ctx, "SearchCities", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()
	observability.RecordGeoQuery("search")

	results := s.table.SearchByName(query)
	span.SetAttributes(attribute.Int("cities.count", len(results)))
	return results, nil
}

func (s *ServiceImpl) SearchCitiesNear(ctx context.Context, query string, center types.GeoPoint) ([]types.RankedCity, error) {
	_, span := otel.Tracer("CityService").Start(ctx, "SearchCitiesNear", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()
	observability.RecordGeoQuery("search_near")

	results := s.table.SearchByNameNear(query, center)
	span.SetAttributes(attribute.Int("cities.count", len(results)))
	return results, nil
}

// PopularLocations applies the popularity policy around center. Results are
// cached per coordinate pair.
func (s *ServiceImpl) PopularLocations(ctx context.Context, center types.GeoPoint) ([]types.RankedCity, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "PopularLocations")
	defer span.End()

	l := s.logger.With(slog.String("method", "PopularLocations"))
	observability.RecordGeoQuery("popular")

	cacheKey := generatePopularCacheKey(center)
	span.SetAttributes(attribute.String("cache.key", cacheKey))
	if cached, found := s.cache.Get(cacheKey); found {
		observability.RecordCacheLookup("popular_locations", true)
		l.DebugContext(ctx, "Popular locations served from cache")
		return slices.Clone(cached.([]types.RankedCity)), nil
	}
	observability.RecordCacheLookup("popular_locations", false)

	popular := s.table.PopularLocationsForArea(center, s.policy)
	s.cache.Set(cacheKey, popular, cache.DefaultExpiration)

	l.InfoContext(ctx, "Popular locations computed", slog.Int("count", len(popular)))
	span.SetAttributes(attribute.Int("cities.count", len(popular)))
	return slices.Clone(popular), nil
}

// QuickPickLocations returns the fixed shortlist shown before the user
// shares coordinates. Names missing from the table are skipped.
func (s *ServiceImpl) QuickPickLocations(ctx context.Context) ([]types.CityRecord, error) {
	if s.table.Len() == 0 {
		return nil, types.ErrNoData
	}
	picks := make([]types.CityRecord, 0, len(quickPickCities))
	for _, name := range quickPickCities {
		if c, ok := s.table.Lookup(name, "Canada"); ok {
			picks = append(picks, c)
		}
	}
	s.logger.DebugContext(ctx, "Quick pick locations", slog.Int("count", len(picks)))
	return picks, nil
}

func generatePopularCacheKey(center types.GeoPoint) string {
	return fmt.Sprintf("popular:%f:%f", center.Latitude, center.Longitude)
}
