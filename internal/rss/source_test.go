package rss

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/commhub-api/internal/domain/feed"
	"github.com/FACorreiaa/commhub-api/internal/types"
)

const cityNewsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Seattle City News</title>
  <link>https://news.example.com</link>
  <description>Local news</description>
  <item>
    <title>Seattle council approves *new* bike lanes</title>
    <description><![CDATA[<p>The <b>Seattle</b> council voted 7-2 on Monday.</p><script>track()</script>]]></description>
  </item>
  <item>
    <title>Library hours extended</title>
    <description>Branches stay open until 9 PM.</description>
  </item>
  <item>
    <title>Seattle Farmers Market</title>
    <description>Every Saturday in Seattle.</description>
  </item>
</channel>
</rss>`

const regionFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Regional Events</title>
  <link>https://events.example.com</link>
  <description>Events</description>
  <item>
    <title>Tacoma jazz night</title>
    <description>Live music downtown.</description>
  </item>
</channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /city.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(cityNewsFeed))
	})
	mux.HandleFunc("GET /region.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(regionFeed))
	})
	mux.HandleFunc("GET /broken.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSource(feeds ...string) *Source {
	s := NewSource(feeds, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestFetchAgentResponse_CityItems(t *testing.T) {
	srv := newFeedServer(t)
	src := newTestSource(srv.URL+"/city.xml", srv.URL+"/broken.xml", srv.URL+"/region.xml")

	resp, err := src.FetchAgentResponse(context.Background(), types.ContentRequest{
		Location:    "Seattle, WA",
		Preferences: types.ContentPreferences{PastEvents: []string{"seattle farmers market"}},
	})
	require.NoError(t, err)

	assert.True(t, resp.LocationSpecific)
	assert.Equal(t, []string{"Seattle City News"}, resp.SourcesCrawled)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), resp.Timestamp)
	assert.Equal(t,
		"**📰 SEATTLE CITY NEWS:**\n• **Seattle council approves new bike lanes** - The Seattle council voted 7-2 on Monday.",
		resp.Content)
}

func TestFetchAgentResponse_FallsBackToAllItems(t *testing.T) {
	srv := newFeedServer(t)
	src := newTestSource(srv.URL+"/city.xml", srv.URL+"/region.xml")

	resp, err := src.FetchAgentResponse(context.Background(), types.ContentRequest{Location: "Portland, OR"})
	require.NoError(t, err)

	assert.False(t, resp.LocationSpecific)
	assert.Equal(t, []string{"Seattle City News", "Regional Events"}, resp.SourcesCrawled)

	result, err := feed.Parse(resp.Content, types.StrategyBullet)
	require.NoError(t, err)
	assert.Equal(t, types.ParseOutcomeSections, result.Outcome)
	sections := result.Sections
	require.Len(t, sections, 2)
	assert.Equal(t, "SEATTLE CITY NEWS", sections[0].Title)
	assert.Len(t, sections[0].Items, 3)
	assert.Equal(t, []string{"Tacoma jazz night - Live music downtown."}, sections[1].Items)
}

func TestFetchAgentResponse_AllFeedsFail(t *testing.T) {
	srv := newFeedServer(t)
	src := newTestSource(srv.URL + "/broken.xml")

	_, err := src.FetchAgentResponse(context.Background(), types.ContentRequest{Location: "Seattle, WA"})
	assert.Error(t, err)
}

func TestFetchAgentResponse_NoFeeds(t *testing.T) {
	_, err := newTestSource().FetchAgentResponse(context.Background(), types.ContentRequest{Location: "Seattle, WA"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestLoadFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - https://a.example.com/rss\n  - ' '\n  - https://a.example.com/rss\n  - https://b.example.com/atom\n"), 0o600))

	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com/rss", "https://b.example.com/atom"}, feeds)

	_, err = LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPlainTextAndTruncate(t *testing.T) {
	assert.Equal(t, "Hello world", plainText("<div>Hello <em>world</em><style>p{}</style></div>"))
	assert.Equal(t, "", plainText("  "))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "one two...", truncate("one two three four", 12))
	assert.Equal(t, "Seattle", cityOf("Seattle, WA"))
	assert.Equal(t, "", cityOf("general search"))
}
