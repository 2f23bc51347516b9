package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/commhub-api/internal/domain/feed"
	"github.com/FACorreiaa/commhub-api/internal/types"
)

var _ feed.ContentSource = (*Source)(nil)

const (
	sectionIcon     = "📰"
	maxItemsPerFeed = 8
	maxConcurrent   = 4
	userAgent       = "commhub-api/1.0"
)

// Source builds a community digest from a fixed set of RSS or Atom feeds.
// Each feed becomes one section; each item one bullet.
type Source struct {
	feeds      []string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

func NewSource(feeds []string, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		feeds:      MergeFeeds(feeds),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Feeds returns the configured feed URLs.
func (s *Source) Feeds() []string {
	return slices.Clone(s.feeds)
}

type fetchedFeed struct {
	title string
	items []*gofeed.Item
}

// FetchAgentResponse downloads every feed and formats the items that
// mention the requested city. When no item mentions it, all items are used
// and the response is marked as not location specific. A feed that fails
// is logged and skipped; the call only fails when every feed fails.
func (s *Source) FetchAgentResponse(ctx context.Context, req types.ContentRequest) (*types.AgentResponse, error) {
	ctx, span := otel.Tracer("RSSSource").Start(ctx, "FetchAgentResponse", trace.WithAttributes(
		attribute.String("content.location", req.Location),
		attribute.Int("rss.feeds", len(s.feeds)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FetchAgentResponse"), slog.String("location", req.Location))

	if len(s.feeds) == 0 {
		return nil, fmt.Errorf("%w: no feeds configured", types.ErrInvalidInput)
	}

	fetched := s.fetchAll(ctx, l)

	var ok []fetchedFeed
	for _, f := range fetched {
		if f.title != "" {
			ok = append(ok, f)
		}
	}
	l.InfoContext(ctx, "Processed RSS feeds", slog.Int("ok", len(ok)), slog.Int("total", len(s.feeds)))
	if len(ok) == 0 {
		err := fmt.Errorf("all %d feeds failed", len(s.feeds))
		span.RecordError(err)
		span.SetStatus(codes.Error, "no feed could be fetched")
		return nil, err
	}

	city := cityOf(req.Location)
	locationSpecific := city != "" && anyMentions(ok, city)

	var (
		sections []string
		sources  []string
	)
	for _, f := range ok {
		lines := s.bullets(f.items, city, locationSpecific, req.Preferences.PastEvents)
		if len(lines) == 0 {
			continue
		}
		header := fmt.Sprintf("**%s %s:**", sectionIcon, strings.ToUpper(inline(f.title)))
		sections = append(sections, header+"\n"+strings.Join(lines, "\n"))
		sources = append(sources, f.title)
	}

	span.SetAttributes(attribute.Int("rss.sections", len(sections)))
	return &types.AgentResponse{
		Content:           strings.Join(sections, "\n\n"),
		LocationSpecific:  locationSpecific,
		ContentCategories: []string{"news"},
		SourcesCrawled:    sources,
		Timestamp:         s.now().UTC(),
	}, nil
}

// fetchAll returns one entry per configured feed, in configuration order.
// Failed feeds leave a zero entry.
func (s *Source) fetchAll(ctx context.Context, l *slog.Logger) []fetchedFeed {
	out := make([]fetchedFeed, len(s.feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, u := range s.feeds {
		g.Go(func() error {
			parser := gofeed.NewParser()
			parser.Client = s.httpClient
			parser.UserAgent = userAgent

			parsed, err := parser.ParseURLWithContext(u, gctx)
			if err != nil {
				l.WarnContext(ctx, "Error parsing RSS feed", slog.String("url", u), slog.Any("error", err))
				return nil
			}
			title := strings.TrimSpace(parsed.Title)
			if title == "" {
				title = u
			}
			out[i] = fetchedFeed{title: title, items: parsed.Items}
			l.DebugContext(ctx, "Loaded RSS feed", slog.String("url", u), slog.Int("items", len(parsed.Items)))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Source) bullets(items []*gofeed.Item, city string, onlyCity bool, pastEvents []string) []string {
	var lines []string
	for _, item := range items {
		if len(lines) == maxItemsPerFeed {
			break
		}
		title := inline(item.Title)
		if title == "" || attended(title, pastEvents) {
			continue
		}
		summary := inline(plainText(item.Description))
		if onlyCity && !mentions(title+" "+summary, city) {
			continue
		}
		line := "• **" + title + "**"
		if summary != "" {
			line += " - " + truncate(summary, maxSummaryRunes)
		}
		lines = append(lines, line)
	}
	return lines
}

// cityOf returns the city part of "City, Region".
func cityOf(location string) string {
	city, _, _ := strings.Cut(location, ",")
	city = strings.TrimSpace(city)
	if strings.EqualFold(city, "general search") {
		return ""
	}
	return city
}

func anyMentions(feeds []fetchedFeed, city string) bool {
	for _, f := range feeds {
		for _, item := range f.items {
			if mentions(item.Title+" "+plainText(item.Description), city) {
				return true
			}
		}
	}
	return false
}

func mentions(text, city string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(city))
}

func attended(title string, pastEvents []string) bool {
	return slices.ContainsFunc(pastEvents, func(e string) bool {
		return strings.EqualFold(strings.TrimSpace(e), title)
	})
}
