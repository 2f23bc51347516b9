package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/interceptors"
)

type stubService struct {
	feed      *types.Feed
	home      *types.HomeFeed
	search    *types.ContentSearchResult
	err       error
	lastCalls []string
	strategy  types.ParseStrategy
	location  string
	interests []string
}

func (s *stubService) Feed(_ context.Context, _ uuid.UUID, strategy types.ParseStrategy) (*types.Feed, error) {
	s.lastCalls = append(s.lastCalls, "Feed")
	s.strategy = strategy
	return s.feed, s.err
}

func (s *stubService) FeedForLocation(_ context.Context, location string, interests []string, strategy types.ParseStrategy) (*types.Feed, error) {
	s.lastCalls = append(s.lastCalls, "FeedForLocation")
	s.location, s.interests, s.strategy = location, interests, strategy
	return s.feed, s.err
}

func (s *stubService) Home(_ context.Context, _ uuid.UUID, strategy types.ParseStrategy) (*types.HomeFeed, error) {
	s.lastCalls = append(s.lastCalls, "Home")
	return s.home, s.err
}

func (s *stubService) Detail(_ context.Context, text string) ([]types.DetailSection, error) {
	s.lastCalls = append(s.lastCalls, "Detail")
	if s.err != nil {
		return nil, s.err
	}
	return embeddedDetailsForStub().ParseDetail(text), nil
}

func (s *stubService) Search(_ context.Context, query string) (*types.ContentSearchResult, error) {
	s.lastCalls = append(s.lastCalls, "Search")
	return s.search, s.err
}

func embeddedDetailsForStub() *DetailTable {
	table, err := EmbeddedDetailTable()
	if err != nil {
		panic(err)
	}
	return table
}

func newFeedRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/feed", NewHandler(svc, newTestLogger()).Routes)
	return r
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), interceptors.UserIDKey, uuid.New().String())
	return req.WithContext(ctx)
}

func TestGetFeed_Succeeds(t *testing.T) {
	svc := &stubService{feed: &types.Feed{Location: "Seattle, WA", Outcome: types.ParseOutcomeSections, MatchScore: 85}}
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed?strategy=BULLET", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.StrategyBullet, svc.strategy)

	var feed types.Feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Equal(t, "Seattle, WA", feed.Location)
	assert.Equal(t, 85, feed.MatchScore)
}

func TestGetFeed_DefaultsToParagraph(t *testing.T) {
	svc := &stubService{feed: &types.Feed{}}
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.StrategyParagraph, svc.strategy)
}

func TestGetFeed_RequiresAuth(t *testing.T) {
	svc := &stubService{}
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.lastCalls)
}

func TestGetFeed_ValidatesStrategy(t *testing.T) {
	svc := &stubService{}
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed?strategy=columns", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.lastCalls)
}

func TestGetFeed_MapsErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrNoData, http.StatusServiceUnavailable},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrInvalidInput, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		newFeedRouter(&stubService{err: tt.err}).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed", ""))
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}

func TestGetLocationFeed(t *testing.T) {
	svc := &stubService{feed: &types.Feed{Location: "Toronto, ON"}}
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed/location?location=Toronto,%20ON&interests=Sports,Education", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Toronto, ON", svc.location)
	assert.Equal(t, []string{"Sports", "Education"}, svc.interests)

	rec = httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed/location", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHome(t *testing.T) {
	svc := &stubService{home: &types.HomeFeed{Feeds: []types.Feed{{Location: "Seattle, WA"}, {Location: "Paris"}}}}
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed/home", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var home types.HomeFeed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &home))
	assert.Len(t, home.Feeds, 2)
}

func TestGetDetail(t *testing.T) {
	svc := &stubService{}
	body := `{"content": "**🏛️ GOVERNMENT & MUNICIPAL:**\nSEATTLE CITY COUNCIL meets tonight"}`
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/feed/detail", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp detailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sections, 1)
	assert.Equal(t, "government", resp.Sections[0].Category)
	require.NotNil(t, resp.Sections[0].Expanded)
	assert.Equal(t, "Live stream available on Seattle Channel", resp.Sections[0].Expanded.Streaming)

	rec = httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/feed/detail", "{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchContent(t *testing.T) {
	svc := &stubService{search: &types.ContentSearchResult{Query: "parks", Outcome: types.ParseOutcomeEmpty, Sections: []types.ParsedSection{}}}
	rec := httptest.NewRecorder()
	newFeedRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/feed/search?q=parks", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Search"}, svc.lastCalls)
}
