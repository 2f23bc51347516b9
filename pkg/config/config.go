package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CitySourceEmbedded = "embedded"
	CitySourcePostgres = "postgres"

	ContentSourceBackend = "backend"
	ContentSourceGemini  = "gemini"
	ContentSourceRSS     = "rss"
)

type Config struct {
	Env           string
	Server        ServerConfig
	Auth          AuthConfig
	Database      DatabaseConfig
	Cities        CitiesConfig
	Content       ContentConfig
	Redis         RedisConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type ServerConfig struct {
	Port               string
	RateLimitPerSecond int
	RateLimitBurst     int
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds a postgres connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type CitiesConfig struct {
	Source            string
	PriorityCountries []string
	RadiusMiles       float64
}

type ContentConfig struct {
	Source       string
	BaseURL      string
	Timeout      time.Duration
	GeminiAPIKey string
	GeminiModel  string
	RSSFeedsFile string
	RSSFeedURLs  []string
	FeedCacheTTL time.Duration
}

// RedisConfig enables the shared feed cache when URL is set.
type RedisConfig struct {
	URL         string
	PoolSize    int
	DialTimeout time.Duration
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

type LogConfig struct {
	Level string
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Env: envOr("ENV", "development"),
		Server: ServerConfig{
			Port:               envOr("SERVER_PORT", "8000"),
			RateLimitPerSecond: envInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     envInt("SERVER_RATE_LIMIT_BURST", 40),
			CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout:    envDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Database: DatabaseConfig{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     envOr("DB_PORT", "5432"),
			User:     envOr("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envOr("DB_NAME", "commhub"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
		Cities: CitiesConfig{
			Source:            strings.ToLower(envOr("CITY_SOURCE", CitySourceEmbedded)),
			PriorityCountries: envList("POPULAR_PRIORITY_COUNTRIES", []string{"USA", "Canada"}),
			RadiusMiles:       envFloat("POPULAR_RADIUS_MILES", 500),
		},
		Content: ContentConfig{
			Source:       strings.ToLower(envOr("CONTENT_SOURCE", ContentSourceBackend)),
			BaseURL:      os.Getenv("CONTENT_API_BASE_URL"),
			Timeout:      envDuration("CONTENT_API_TIMEOUT", 30*time.Second),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  os.Getenv("GEMINI_MODEL"),
			RSSFeedsFile: os.Getenv("RSS_FEEDS_FILE"),
			RSSFeedURLs:  envList("RSS_FEED_URLS", nil),
			FeedCacheTTL: envDuration("FEED_CACHE_TTL", 10*time.Minute),
		},
		Redis: RedisConfig{
			URL:         os.Getenv("REDIS_URL"),
			PoolSize:    envInt("REDIS_POOL_SIZE", 10),
			DialTimeout: envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: envBool("METRICS_ENABLED", true),
		},
		Log: LogConfig{
			Level: envOr("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cities.Source {
	case CitySourceEmbedded, CitySourcePostgres:
	default:
		return fmt.Errorf("CITY_SOURCE must be %q or %q, got %q", CitySourceEmbedded, CitySourcePostgres, c.Cities.Source)
	}

	// Profiles and tips always go through the content backend.
	if c.Content.BaseURL == "" {
		return errors.New("CONTENT_API_BASE_URL is required")
	}

	switch c.Content.Source {
	case ContentSourceBackend:
	case ContentSourceGemini:
		if c.Content.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when CONTENT_SOURCE=gemini")
		}
	case ContentSourceRSS:
		if c.Content.RSSFeedsFile == "" && len(c.Content.RSSFeedURLs) == 0 {
			return errors.New("RSS_FEEDS_FILE or RSS_FEED_URLS is required when CONTENT_SOURCE=rss")
		}
	default:
		return fmt.Errorf("CONTENT_SOURCE must be one of %q, %q or %q, got %q",
			ContentSourceBackend, ContentSourceGemini, ContentSourceRSS, c.Content.Source)
	}

	if c.Cities.RadiusMiles <= 0 {
		return fmt.Errorf("POPULAR_RADIUS_MILES must be positive, got %v", c.Cities.RadiusMiles)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma separated variable, dropping blank entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
