package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrDatabaseURLRequired is returned by Load when no store connection string is configured.
var ErrDatabaseURLRequired = errors.New("CLIPSTREAM_DATABASE_URL must be set")

// Config captures the runtime configuration for the Clipstream backend service.
type Config struct {
	AppPort      int
	DatabaseURL  string
	MigrationDir string
	SeedDir      string
	LogLevel     string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	YouTube     YouTubeConfig
	RedisURL    string
	ObjectStore ObjectStoreConfig

	AuthRateLimit   RateLimitConfig
	SearchRateLimit RateLimitConfig
}

// YouTubeConfig configures the external short-form video provider.
type YouTubeConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// ObjectStoreConfig configures the S3-compatible bucket used for media uploads.
type ObjectStoreConfig struct {
	Bucket        string
	Endpoint      string
	Region        string
	PublicBaseURL string
	UploadExpiry  time.Duration
	MaxUploadSize int64
}

// Enabled reports whether a bucket has been configured.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// RateLimitConfig bounds how often a single client address may call a route group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Load reads configuration from environment variables, applying defaults for local
// development. The database URL has no default: the service refuses to start without one.
func Load() (Config, error) {
	cfg := Config{
		AppPort:      getInt("CLIPSTREAM_PORT", 8080),
		DatabaseURL:  getString("CLIPSTREAM_DATABASE_URL", ""),
		MigrationDir: getString("CLIPSTREAM_MIGRATIONS", "migrations"),
		SeedDir:      getString("CLIPSTREAM_SEEDS", "seeds"),
		LogLevel:     getString("CLIPSTREAM_LOG_LEVEL", "info"),

		JWTSecret:       getString("CLIPSTREAM_JWT_SECRET", ""),
		AccessTokenTTL:  getDuration("CLIPSTREAM_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("CLIPSTREAM_REFRESH_TOKEN_TTL", 24*time.Hour),

		YouTube: YouTubeConfig{
			APIKey:   getString("CLIPSTREAM_YOUTUBE_API_KEY", ""),
			BaseURL:  getString("CLIPSTREAM_YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			Timeout:  getDuration("CLIPSTREAM_YOUTUBE_TIMEOUT", 10*time.Second),
			CacheTTL: getDuration("CLIPSTREAM_SEARCH_CACHE_TTL", 5*time.Minute),
		},
		RedisURL: getString("CLIPSTREAM_REDIS_URL", ""),
		ObjectStore: ObjectStoreConfig{
			Bucket:        getString("CLIPSTREAM_S3_BUCKET", ""),
			Endpoint:      getString("CLIPSTREAM_S3_ENDPOINT", ""),
			Region:        getString("CLIPSTREAM_S3_REGION", "us-east-1"),
			PublicBaseURL: getString("CLIPSTREAM_S3_PUBLIC_URL", ""),
			UploadExpiry:  getDuration("CLIPSTREAM_UPLOAD_EXPIRY", 30*time.Minute),
			MaxUploadSize: int64(getInt("CLIPSTREAM_MAX_UPLOAD_MB", 100)) << 20,
		},

		AuthRateLimit: RateLimitConfig{
			Requests: getInt("CLIPSTREAM_AUTH_RATE_REQUESTS", 10),
			Window:   getDuration("CLIPSTREAM_AUTH_RATE_WINDOW", time.Minute),
			Burst:    getInt("CLIPSTREAM_AUTH_RATE_BURST", 5),
		},
		SearchRateLimit: RateLimitConfig{
			Requests: getInt("CLIPSTREAM_SEARCH_RATE_REQUESTS", 60),
			Window:   getDuration("CLIPSTREAM_SEARCH_RATE_WINDOW", time.Minute),
			Burst:    getInt("CLIPSTREAM_SEARCH_RATE_BURST", 20),
		},
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, ErrDatabaseURLRequired
	}

	return cfg, nil
}

// SlogLevel converts the configured log level into a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
