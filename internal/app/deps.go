package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/feed"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/search"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/youtube"
)

// ErrJWTSecretRequired is returned when serve is started without a signing secret.
var ErrJWTSecretRequired = errors.New("CLIPSTREAM_JWT_SECRET must be set")

// wiring holds the handler dependencies plus the session manager the auth middleware verifies tokens with.
type wiring struct {
	Deps     handlers.Dependencies
	Sessions *auth.Manager
}

type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup releases connections opened here; it does not close pool.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (wiring, cleanupFunc, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return wiring{}, nil, ErrJWTSecretRequired
	}

	var closers []func() error
	cleanup := func(context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	videoRepo := repositories.NewPostgresVideoRepository(pool)
	sessions := auth.NewManager([]byte(secret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, repositories.NewPostgresSessionStore(pool))

	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return err
			}
			defer conn.Release()
			return conn.Ping(ctx)
		},
	}

	client := youtube.NewClient(youtube.Config{
		APIKey:     cfg.YouTube.APIKey,
		BaseURL:    cfg.YouTube.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.YouTube.Timeout},
	})

	var remote youtube.RemoteCache
	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		redisCache, err := youtube.NewRedisCache(url)
		if err != nil {
			return wiring{}, nil, fmt.Errorf("configure search cache: %w", err)
		}
		closers = append(closers, redisCache.Close)
		remote = redisCache
		checks["cache"] = redisCache.Ping
	}
	shorts := youtube.NewService(youtube.NewCachingSource(client, remote, cfg.YouTube.CacheTTL))

	deps := handlers.Dependencies{
		Users:         repositories.NewPostgresUserRepository(pool),
		Sessions:      sessions,
		Videos:        videoRepo,
		Feed:          feed.NewPaginator(videoRepo),
		Search:        search.NewAggregator(videoRepo, shorts),
		Engagement:    engagement.NewMutator(videoRepo),
		Profiles:      repositories.NewPostgresProfileRepository(pool),
		MaxUploadSize: cfg.ObjectStore.MaxUploadSize,
		AuthLimiter:   middleware.NewRateLimiterFromConfig(cfg.AuthRateLimit),
		SearchLimiter: middleware.NewRateLimiterFromConfig(cfg.SearchRateLimit),
		Health:        checks,
	}

	if cfg.ObjectStore.Enabled() {
		media, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			_ = cleanup(ctx)
			return wiring{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		deps.Storage = media
	}

	return wiring{Deps: deps, Sessions: sessions}, cleanup, nil
}
