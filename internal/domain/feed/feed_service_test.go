package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

type MockContentSource struct {
	mock.Mock
}

func (m *MockContentSource) FetchAgentResponse(ctx context.Context, req types.ContentRequest) (*types.AgentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AgentResponse), args.Error(1)
}

type MockPreferencesProvider struct {
	mock.Mock
}

func (m *MockPreferencesProvider) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.UserPreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserPreferences), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func setupFeedService(t *testing.T) (*ServiceImpl, *MockContentSource, *MockPreferencesProvider) {
	t.Helper()
	source := new(MockContentSource)
	prefs := new(MockPreferencesProvider)
	svc := NewFeedService(source, prefs, mustDetailTable(t), time.Minute, newTestLogger())
	return svc, source, prefs
}

func forLocation(location string) any {
	return mock.MatchedBy(func(req types.ContentRequest) bool {
		return req.Location == location
	})
}

func seattlePrefs() *types.UserPreferences {
	p := types.DefaultPreferences()
	p.PrimaryLocation = &types.SelectedLocation{City: "Seattle", Region: "WA", Country: "USA"}
	p.Interests = []string{"Community Events"}
	return &p
}

func TestFeedForLocation(t *testing.T) {
	svc, source, _ := setupFeedService(t)
	ctx := context.Background()

	source.On("FetchAgentResponse", mock.Anything, mock.MatchedBy(func(req types.ContentRequest) bool {
		return req.Location == "Seattle, WA" &&
			req.Query == "community events and local news" &&
			req.Preferences.PastEvents != nil
	})).Return(&types.AgentResponse{
		Content:          agentFeed,
		LocationSpecific: true,
		SourcesCrawled:   []string{"City Website", "Local News"},
	}, nil).Once()

	feed, err := svc.FeedForLocation(ctx, "Seattle, WA", []string{"Sports"}, types.StrategyBullet)
	require.NoError(t, err)
	assert.Equal(t, types.ParseOutcomeSections, feed.Outcome)
	assert.Equal(t, 85, feed.MatchScore)
	assert.Equal(t, 2, feed.SourcesCount)
	require.Len(t, feed.Sections, 3)
	assert.Equal(t, 2, feed.Sections[0].TotalItems)
	assert.Len(t, feed.Sections[0].ItemsHTML, 2)
	assert.Equal(t, "4 updates across 3 categories in Seattle, WA", feed.Summary)
	assert.False(t, feed.UpdatedAt.IsZero())

	cached, err := svc.FeedForLocation(ctx, "Seattle, WA", []string{"Sports"}, types.StrategyBullet)
	require.NoError(t, err)
	assert.Same(t, feed, cached)
	source.AssertExpectations(t)
}

func TestFeedPreviewAndScore(t *testing.T) {
	svc, source, _ := setupFeedService(t)
	content := "**📰 LOCAL NEWS:**\n• one\n• two\n• three\n• four\n• five"
	source.On("FetchAgentResponse", mock.Anything, forLocation("Langley, BC")).
		Return(&types.AgentResponse{Content: content}, nil)

	feed, err := svc.FeedForLocation(context.Background(), "Langley, BC", nil, types.StrategyBullet)
	require.NoError(t, err)
	assert.Equal(t, 60, feed.MatchScore)
	assert.Zero(t, feed.SourcesCount)
	require.Len(t, feed.Sections, 1)
	assert.Equal(t, []string{"one", "two", "three"}, feed.Sections[0].Preview)
	assert.Equal(t, 5, feed.Sections[0].TotalItems)
}

func TestFeedForLocationEmptyText(t *testing.T) {
	svc, source, _ := setupFeedService(t)
	source.On("FetchAgentResponse", mock.Anything, mock.Anything).
		Return(&types.AgentResponse{Content: "  \n"}, nil)

	feed, err := svc.FeedForLocation(context.Background(), "Ottawa, ON", nil, types.StrategyParagraph)
	require.NoError(t, err)
	assert.Equal(t, types.ParseOutcomeEmpty, feed.Outcome)
	assert.NotNil(t, feed.Sections)
	assert.Empty(t, feed.Sections)
	assert.Equal(t, "No updates found for Ottawa, ON yet", feed.Summary)
}

func TestFeedForLocationErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("nil response", func(t *testing.T) {
		svc, source, _ := setupFeedService(t)
		source.On("FetchAgentResponse", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.FeedForLocation(ctx, "Ottawa, ON", nil, types.StrategyParagraph)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("source failure", func(t *testing.T) {
		svc, source, _ := setupFeedService(t)
		source.On("FetchAgentResponse", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		_, err := svc.FeedForLocation(ctx, "Ottawa, ON", nil, types.StrategyParagraph)
		assert.ErrorContains(t, err, "failed to fetch content")
	})

	t.Run("bad input", func(t *testing.T) {
		svc, source, _ := setupFeedService(t)
		_, err := svc.FeedForLocation(ctx, "", nil, types.StrategyBullet)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		_, err = svc.FeedForLocation(ctx, "Ottawa, ON", nil, "grid")
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		source.AssertNotCalled(t, "FetchAgentResponse", mock.Anything, mock.Anything)
	})
}

func TestFeedDiscovery(t *testing.T) {
	svc, source, _ := setupFeedService(t)
	source.On("FetchAgentResponse", mock.Anything, mock.Anything).Return(&types.AgentResponse{
		Content:             "🔍 **Research Agent Discovery Status**\nworking",
		ResearchAgentActive: true,
		DiscoveryStatus:     "Phase 1",
		ContentCategories:   []string{"government", "events"},
	}, nil)

	feed, err := svc.FeedForLocation(context.Background(), "Calgary, AB", nil, types.StrategyBullet)
	require.NoError(t, err)
	assert.Equal(t, types.ParseOutcomeDiscovery, feed.Outcome)
	assert.Equal(t, "Phase 1", feed.DiscoveryStatus)
	assert.Equal(t, []string{"government", "events"}, feed.ContentCategories)
	require.Len(t, feed.Sections, 1)
	assert.Equal(t, 5, feed.Sections[0].TotalItems)
}

func TestFeedUsesPrimaryLocation(t *testing.T) {
	svc, source, prefs := setupFeedService(t)
	userID := uuid.New()

	prefs.On("GetPreferences", mock.Anything, userID).Return(seattlePrefs(), nil)
	source.On("FetchAgentResponse", mock.Anything, mock.MatchedBy(func(req types.ContentRequest) bool {
		return req.Location == "Seattle, WA" && len(req.Preferences.Interests) == 1
	})).Return(&types.AgentResponse{Content: twoSections}, nil)

	feed, err := svc.Feed(context.Background(), userID, types.StrategyBullet)
	require.NoError(t, err)
	assert.Equal(t, "Seattle, WA", feed.Location)
	assert.Len(t, feed.Sections, 2)
}

func TestFeedWithoutLocation(t *testing.T) {
	svc, _, prefs := setupFeedService(t)
	userID := uuid.New()
	p := types.DefaultPreferences()
	prefs.On("GetPreferences", mock.Anything, userID).Return(&p, nil)

	_, err := svc.Feed(context.Background(), userID, types.StrategyBullet)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.Home(context.Background(), userID, types.StrategyBullet)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHome(t *testing.T) {
	svc, source, prefs := setupFeedService(t)
	userID := uuid.New()

	p := seattlePrefs()
	p.AdditionalLocations = []types.SelectedLocation{
		{City: "Vancouver", Region: "BC", Country: "Canada"},
		{City: "Seattle", Region: "WA", Country: "USA"},
		{City: "Paris", Country: "France"},
	}
	prefs.On("GetPreferences", mock.Anything, userID).Return(p, nil)

	source.On("FetchAgentResponse", mock.Anything, forLocation("Seattle, WA")).
		Return(&types.AgentResponse{Content: twoSections}, nil)
	source.On("FetchAgentResponse", mock.Anything, forLocation("Vancouver, BC")).
		Return(&types.AgentResponse{Content: agentFeed}, nil)
	source.On("FetchAgentResponse", mock.Anything, forLocation("Paris")).
		Return(nil, errors.New("upstream down"))

	home, err := svc.Home(context.Background(), userID, types.StrategyBullet)
	require.NoError(t, err)
	require.Len(t, home.Feeds, 2)
	assert.Equal(t, "Seattle, WA", home.Feeds[0].Location)
	assert.Equal(t, "Vancouver, BC", home.Feeds[1].Location)
	source.AssertNumberOfCalls(t, "FetchAgentResponse", 3)
}

func TestHomePrimaryFailure(t *testing.T) {
	svc, source, prefs := setupFeedService(t)
	userID := uuid.New()
	prefs.On("GetPreferences", mock.Anything, userID).Return(seattlePrefs(), nil)
	source.On("FetchAgentResponse", mock.Anything, mock.Anything).Return(nil, errors.New("upstream down"))

	_, err := svc.Home(context.Background(), userID, types.StrategyBullet)
	assert.Error(t, err)
}

func TestDetail(t *testing.T) {
	svc, _, _ := setupFeedService(t)

	sections, err := svc.Detail(context.Background(), "**📰 LOCAL NEWS**\nLIGHT RAIL EXPANSION approved")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "news", sections[0].Category)
	require.NotNil(t, sections[0].Expanded)

	_, err = svc.Detail(context.Background(), "   ")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestSearch(t *testing.T) {
	svc, source, _ := setupFeedService(t)
	source.On("FetchAgentResponse", mock.Anything, mock.MatchedBy(func(req types.ContentRequest) bool {
		return req.Location == "general search" && req.Query == "farmers market"
	})).Return(&types.AgentResponse{Content: twoSections}, nil)

	result, err := svc.Search(context.Background(), "  farmers market ")
	require.NoError(t, err)
	assert.Equal(t, "farmers market", result.Query)
	assert.Len(t, result.Sections, 2)

	_, err = svc.Search(context.Background(), "f")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
