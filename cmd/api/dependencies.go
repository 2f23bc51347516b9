package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/commhub-api/internal/backend"
	"github.com/FACorreiaa/commhub-api/internal/domain/city"
	"github.com/FACorreiaa/commhub-api/internal/domain/feed"
	"github.com/FACorreiaa/commhub-api/internal/domain/profiles"
	"github.com/FACorreiaa/commhub-api/internal/domain/tips"
	"github.com/FACorreiaa/commhub-api/internal/llm"
	"github.com/FACorreiaa/commhub-api/internal/rss"
	"github.com/FACorreiaa/commhub-api/internal/types"
	"github.com/FACorreiaa/commhub-api/pkg/config"
	"github.com/FACorreiaa/commhub-api/pkg/db"
	"github.com/FACorreiaa/commhub-api/pkg/redis"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Redis  *redis.Client
	Logger *slog.Logger

	// Collaborators
	Backend       *backend.Client
	ContentSource feed.ContentSource
	Cities        *city.ReferenceTable
	Details       *feed.DetailTable

	// Services
	CityService    city.Service
	FeedService    feed.Service
	ProfileService profiles.Service
	TipsService    tips.Service

	// Handlers
	CityHandler    *city.Handler
	FeedHandler    *feed.Handler
	ProfileHandler *profiles.Handler
	TipsHandler    *tips.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Cities.Source == config.CitySourcePostgres {
		if err := deps.initDatabase(); err != nil {
			deps.Cleanup()
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	if err := deps.initCache(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init cache: %w", err)
	}

	if err := deps.initReferenceData(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init reference data: %w", err)
	}

	if err := deps.initCollaborators(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init collaborators: %w", err)
	}

	deps.initServices()
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully",
		slog.String("city_source", cfg.Cities.Source),
		slog.String("content_source", cfg.Content.Source))

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initCache connects to redis when REDIS_URL is set. Without it feeds are
// cached in process.
func (d *Dependencies) initCache(ctx context.Context) error {
	client, err := redis.New(ctx, redis.Config{
		URL:         d.Config.Redis.URL,
		PoolSize:    d.Config.Redis.PoolSize,
		DialTimeout: d.Config.Redis.DialTimeout,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.Redis = client
	return nil
}

// initReferenceData loads the city table and the expanded detail table.
// With a postgres city source an empty reference_cities table is seeded
// from the embedded copy first.
func (d *Dependencies) initReferenceData(ctx context.Context) error {
	var repo city.Repository = city.NewEmbeddedRepository()

	if d.DB != nil {
		pgRepo := city.NewPostgresRepository(d.DB.Pool, d.Logger)
		embedded, err := city.EmbeddedReferenceTable()
		if err != nil {
			return err
		}
		if _, err := pgRepo.SeedIfEmpty(ctx, embedded.Cities()); err != nil {
			return err
		}
		repo = pgRepo
	}

	table, err := city.LoadReferenceTable(ctx, repo)
	if err != nil {
		return err
	}
	d.Cities = table

	details, err := feed.EmbeddedDetailTable()
	if err != nil {
		return fmt.Errorf("failed to load expanded details: %w", err)
	}
	d.Details = details

	d.Logger.Info("reference data loaded", slog.Int("cities", table.Len()))
	return nil
}

// initCollaborators builds the external content backend client and the
// content source the feed reads from.
func (d *Dependencies) initCollaborators(ctx context.Context) error {
	d.Backend = backend.NewClient(d.Config.Content.BaseURL, d.Config.Content.Timeout, d.Logger)

	switch d.Config.Content.Source {
	case config.ContentSourceGemini:
		gen, err := llm.NewGeminiClient(ctx, d.Config.Content.GeminiAPIKey, d.Config.Content.GeminiModel)
		if err != nil {
			return err
		}
		d.ContentSource = llm.NewAgent(gen, d.Logger)
		d.Logger.Info("content source: gemini", slog.String("model", gen.Model()))
	case config.ContentSourceRSS:
		feeds := d.Config.Content.RSSFeedURLs
		if d.Config.Content.RSSFeedsFile != "" {
			fromFile, err := rss.LoadFeeds(d.Config.Content.RSSFeedsFile)
			if err != nil {
				return err
			}
			feeds = rss.MergeFeeds(fromFile, feeds)
		}
		src := rss.NewSource(feeds, d.Config.Content.Timeout, d.Logger)
		d.ContentSource = src
		d.Logger.Info("content source: rss", slog.Int("feeds", len(src.Feeds())))
	default:
		d.ContentSource = d.Backend
		d.Logger.Info("content source: research agent backend", slog.String("base_url", d.Config.Content.BaseURL))
	}
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() {
	policy := types.DefaultPopularityPolicy()
	policy.PriorityCountries = d.Config.Cities.PriorityCountries
	policy.RadiusMiles = d.Config.Cities.RadiusMiles

	profileService := profiles.NewProfilesService(d.Backend, d.Logger)

	d.CityService = city.NewCityService(d.Cities, policy, d.Logger)
	d.ProfileService = profileService
	var feedOpts []feed.Option
	if d.Redis != nil {
		feedOpts = append(feedOpts, feed.WithCache(feed.NewRedisCache(d.Redis.Client, d.Config.Content.FeedCacheTTL, d.Logger)))
	}
	d.FeedService = feed.NewFeedService(d.ContentSource, profileService, d.Details, d.Config.Content.FeedCacheTTL, d.Logger, feedOpts...)
	d.TipsService = tips.NewTipsService(d.Backend, profileService, d.Logger)

	d.Logger.Info("services initialized")
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.CityHandler = city.NewHandler(d.CityService, d.Logger)
	d.FeedHandler = feed.NewHandler(d.FeedService, d.Logger)
	d.ProfileHandler = profiles.NewHandler(d.ProfileService, d.Logger)
	d.TipsHandler = tips.NewHandler(d.TipsService, d.Logger)
	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn("failed to close redis", "error", err)
		}
	}
	d.Logger.Info("cleanup completed")
}
