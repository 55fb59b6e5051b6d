package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/httpserver"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
)

const uploadWriteTimeout = 5 * time.Minute

// Run bootstraps the Clipstream backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger)

	// Connections are opened on first use so the process can start while the
	// database is still coming up.
	pool := db.NewLazyPool(cfg.DatabaseURL, db.Connect)
	defer pool.Close()

	w, cleanup, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		return err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(cleanupCtx); err != nil {
			logger.Warn("cleanup failed", "error", err)
		}
	}()

	if cfg.YouTube.APIKey == "" {
		logger.Warn("CLIPSTREAM_YOUTUBE_API_KEY not set; external search results will be empty")
	}
	if w.Deps.Storage == nil {
		logger.Warn("object storage not configured; upload endpoints will return 503")
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, w.Deps)

	handler := middleware.RequestLogger(logger)(middleware.Authenticate(w.Sessions)(mux))

	var opts []httpserver.Option
	if w.Deps.Storage != nil {
		opts = append(opts, httpserver.WithWriteTimeout(uploadWriteTimeout), httpserver.WithReadTimeout(uploadWriteTimeout))
	}
	srv := httpserver.New(cfg.AppPort, handler, opts...)

	logger.Info("starting http server", "port", cfg.AppPort)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
