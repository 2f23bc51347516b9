package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/commhub-api/internal/domain/city"
	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/observability"
)

var _ Service = (*ServiceImpl)(nil)

const (
	feedQuery           = "community events and local news"
	searchLocation      = "general search"
	previewSize         = 3
	locationMatchScore  = 85
	fallbackMatchScore  = 60
	minSearchQueryRunes = 2
	homeConcurrency     = 4
)

// ContentSource produces agent text for a location.
type ContentSource interface {
	FetchAgentResponse(ctx context.Context, req types.ContentRequest) (*types.AgentResponse, error)
}

// PreferencesProvider resolves where a user is and what they care about.
type PreferencesProvider interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (*types.UserPreferences, error)
}

type Service interface {
	Feed(ctx context.Context, userID uuid.UUID, strategy types.ParseStrategy) (*types.Feed, error)
	FeedForLocation(ctx context.Context, location string, interests []string, strategy types.ParseStrategy) (*types.Feed, error)
	Home(ctx context.Context, userID uuid.UUID, strategy types.ParseStrategy) (*types.HomeFeed, error)
	Detail(ctx context.Context, text string) ([]types.DetailSection, error)
	Search(ctx context.Context, query string) (*types.ContentSearchResult, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	source  ContentSource
	prefs   PreferencesProvider
	details *DetailTable
	cache   Cache
}

type Option func(*ServiceImpl)

// WithCache replaces the in-process feed cache.
func WithCache(c Cache) Option {
	return func(s *ServiceImpl) {
		if c != nil {
			s.cache = c
		}
	}
}

func NewFeedService(source ContentSource, prefs PreferencesProvider, details *DetailTable, cacheTTL time.Duration, logger *slog.Logger, opts ...Option) *ServiceImpl {
	s := &ServiceImpl{
		logger:  logger,
		source:  source,
		prefs:   prefs,
		details: details,
		cache:   NewMemoryCache(cacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed builds the feed for the user's primary location.
func (s *ServiceImpl) Feed(ctx context.Context, userID uuid.UUID, strategy types.ParseStrategy) (*types.Feed, error) {
	ctx, span := otel.Tracer("FeedService").Start(ctx, "Feed", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("parse.strategy", string(strategy)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Feed"), slog.String("user_id", userID.String()))

	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load preferences", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Preferences lookup failed")
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs.PrimaryLocation == nil {
		span.SetStatus(codes.Error, "No primary location")
		return nil, fmt.Errorf("%w: no primary location selected", types.ErrNotFound)
	}

	return s.FeedForLocation(ctx, locationLabel(*prefs.PrimaryLocation), prefs.Interests, strategy)
}

// FeedForLocation fetches and parses agent content for location. Results
// are cached per location, strategy and interest set.
func (s *ServiceImpl) FeedForLocation(ctx context.Context, location string, interests []string, strategy types.ParseStrategy) (*types.Feed, error) {
	ctx, span := otel.Tracer("FeedService").Start(ctx, "FeedForLocation", trace.WithAttributes(
		attribute.String("location", location),
		attribute.String("parse.strategy", string(strategy)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FeedForLocation"), slog.String("location", location))

	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("%w: location is required", types.ErrInvalidInput)
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: unknown parse strategy %q", types.ErrInvalidInput, strategy)
	}

	cacheKey := generateFeedCacheKey(location, strategy, interests)
	if cached, found := s.cache.Get(ctx, cacheKey); found {
		observability.RecordCacheLookup("feed", true)
		l.DebugContext(ctx, "Feed served from cache")
		return cached, nil
	}
	observability.RecordCacheLookup("feed", false)

	resp, err := s.source.FetchAgentResponse(ctx, types.ContentRequest{
		Location: location,
		Query:    feedQuery,
		Preferences: types.ContentPreferences{
			Interests:  interests,
			PastEvents: []string{},
		},
	})
	if err != nil {
		l.ErrorContext(ctx, "Content source failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Content fetch failed")
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	result, err := ParseAgentResponse(resp, strategy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.RecordFeedParse(string(strategy), string(result.Outcome))

	feed := s.buildFeed(ctx, location, resp, result)
	s.cache.Set(ctx, cacheKey, feed)

	l.InfoContext(ctx, "Feed built",
		slog.String("outcome", string(result.Outcome)),
		slog.Int("sections", len(feed.Sections)))
	span.SetAttributes(attribute.Int("feed.sections", len(feed.Sections)))
	span.SetStatus(codes.Ok, "Feed built")
	return feed, nil
}

// Home builds feeds for every followed location concurrently. The primary
// location must succeed; failing additional locations are left out.
func (s *ServiceImpl) Home(ctx context.Context, userID uuid.UUID, strategy types.ParseStrategy) (*types.HomeFeed, error) {
	ctx, span := otel.Tracer("FeedService").Start(ctx, "Home", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Home"), slog.String("user_id", userID.String()))

	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs.PrimaryLocation == nil {
		return nil, fmt.Errorf("%w: no primary location selected", types.ErrNotFound)
	}

	locations := followedLocations(prefs)
	feeds := make([]*types.Feed, len(locations))
	errs := make([]error, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(homeConcurrency)
	for i, loc := range locations {
		g.Go(func() error {
			feeds[i], errs[i] = s.FeedForLocation(gctx, loc, prefs.Interests, strategy)
			if i == 0 {
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Primary feed failed")
		return nil, err
	}

	home := &types.HomeFeed{Feeds: make([]types.Feed, 0, len(locations)), GeneratedAt: time.Now().UTC()}
	for i, f := range feeds {
		if errs[i] != nil {
			l.WarnContext(ctx, "Skipping location", slog.String("location", locations[i]), slog.Any("error", errs[i]))
			continue
		}
		home.Feeds = append(home.Feeds, *f)
	}

	span.SetAttributes(attribute.Int("home.feeds", len(home.Feeds)))
	return home, nil
}

// Detail splits text into detail-view articles.
func (s *ServiceImpl) Detail(ctx context.Context, text string) ([]types.DetailSection, error) {
	_, span := otel.Tracer("FeedService").Start(ctx, "Detail")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: content is required", types.ErrInvalidInput)
	}
	sections := s.details.ParseDetail(text)
	span.SetAttributes(attribute.Int("detail.sections", len(sections)))
	return sections, nil
}

// Search asks the content source about query outside any location and
// parses the answer with the bullet strategy.
func (s *ServiceImpl) Search(ctx context.Context, query string) (*types.ContentSearchResult, error) {
	ctx, span := otel.Tracer("FeedService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchQueryRunes {
		return nil, fmt.Errorf("%w: query must be at least %d characters", types.ErrInvalidInput, minSearchQueryRunes)
	}

	resp, err := s.source.FetchAgentResponse(ctx, types.ContentRequest{
		Location:    searchLocation,
		Query:       query,
		Preferences: types.ContentPreferences{PastEvents: []string{}},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Content search failed")
		return nil, fmt.Errorf("failed to search content: %w", err)
	}

	result, err := ParseAgentResponse(resp, types.StrategyBullet)
	if err != nil {
		return nil, err
	}
	observability.RecordFeedParse(string(types.StrategyBullet), string(result.Outcome))

	return &types.ContentSearchResult{
		Query:    query,
		Outcome:  result.Outcome,
		Sections: result.Sections,
	}, nil
}

func (s *ServiceImpl) buildFeed(ctx context.Context, location string, resp *types.AgentResponse, result types.ParseResult) *types.Feed {
	sections := make([]types.FeedSection, 0, len(result.Sections))
	totalItems := 0
	for _, ps := range result.Sections {
		sections = append(sections, types.FeedSection{
			Title:      ps.Title,
			Icon:       ps.Icon,
			Items:      ps.Items,
			ItemsHTML:  s.renderItems(ctx, ps.Items),
			Preview:    preview(ps.Items),
			TotalItems: len(ps.Items),
		})
		totalItems += len(ps.Items)
	}

	matchScore := fallbackMatchScore
	if resp.LocationSpecific {
		matchScore = locationMatchScore
	}

	updatedAt := resp.Timestamp
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return &types.Feed{
		Location:          location,
		Outcome:           result.Outcome,
		Sections:          sections,
		Summary:           summarize(location, result.Outcome, len(sections), totalItems),
		MatchScore:        matchScore,
		SourcesCount:      len(resp.SourcesCrawled),
		DiscoveryStatus:   resp.DiscoveryStatus,
		ContentCategories: resp.ContentCategories,
		UpdatedAt:         updatedAt,
	}
}

func (s *ServiceImpl) renderItems(ctx context.Context, items []string) []string {
	rendered := make([]string, 0, len(items))
	for _, item := range items {
		html, err := RenderItemHTML(item)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to render feed item", slog.Any("error", err))
			return nil
		}
		rendered = append(rendered, html)
	}
	return rendered
}

func preview(items []string) []string {
	if len(items) > previewSize {
		return items[:previewSize]
	}
	return items
}

func summarize(location string, outcome types.ParseOutcome, sections, items int) string {
	switch outcome {
	case types.ParseOutcomeDiscovery:
		return fmt.Sprintf("Discovering local sources for %s", location)
	case types.ParseOutcomeEmpty:
		return fmt.Sprintf("No updates found for %s yet", location)
	default:
		return fmt.Sprintf("%d updates across %d categories in %s", items, sections, location)
	}
}

func locationLabel(loc types.SelectedLocation) string {
	return city.FormatLocation(loc.City, loc.Region)
}

// followedLocations lists the primary location first, then additional ones,
// without repeats.
func followedLocations(prefs *types.UserPreferences) []string {
	seen := map[string]bool{}
	var out []string
	add := func(loc types.SelectedLocation) {
		label := locationLabel(loc)
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		out = append(out, label)
	}
	add(*prefs.PrimaryLocation)
	for _, loc := range prefs.AdditionalLocations {
		add(loc)
	}
	return out
}

func generateFeedCacheKey(location string, strategy types.ParseStrategy, interests []string) string {
	return fmt.Sprintf("feed:%s:%s:%s", strings.ToLower(location), strategy, strings.Join(interests, ","))
}
