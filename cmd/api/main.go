package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ideaboard/api/internal/app"
	"ideaboard/api/internal/backend"
	"ideaboard/api/internal/config"
	"ideaboard/api/internal/logging"
	"ideaboard/api/internal/store"
	"ideaboard/api/internal/theme"
	"ideaboard/api/internal/usercontext"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("ideaboard api stopped")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.BackendURL, backend.WithAuthToken(cfg.BackendToken))

	repo, closeRepo, err := openRepository(ctx, cfg, client, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	prefs, closePrefs, err := preferenceFactory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePrefs()
	themes := theme.NewRegistry(prefs, logger, theme.WithNoticeTTL(cfg.NoticeTTL))

	users := usercontext.New(client, logger)
	defer users.Close()
	if err := users.Init(ctx); err != nil {
		return fmt.Errorf("init user context: %w", err)
	}
	logger.Info().Str("user_id", users.Current().ID).Msg("user context ready")

	service := app.New(repo, themes, logger)
	httpServer := app.NewHTTPServer(service, users, cfg.CORSOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Str("data_source", string(cfg.DataSource)).Msg("ideaboard api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
		return nil
	})
	return g.Wait()
}

func openRepository(ctx context.Context, cfg config.Config, client *backend.Client, logger zerolog.Logger) (store.Repository, func(), error) {
	switch cfg.DataSource {
	case config.DataSourcePostgres:
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := migrate(ctx, db, cfg.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store.NewPostgresStore(db), func() { _ = db.Close() }, nil
	case config.DataSourceRemote:
		logger.Info().Str("backend_url", client.BaseURL()).Msg("using remote backend for ideas")
		return backend.NewIdeaRepository(client), func() {}, nil
	default:
		logger.Info().Dur("latency", cfg.MockLatency).Msg("using in-memory mock store")
		return store.NewMemoryStore(store.WithLatency(cfg.MockLatency)), func() {}, nil
	}
}

func migrate(ctx context.Context, db *sql.DB, dir string) error {
	fsys, err := store.Migrations(dir)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := store.ApplyMigrations(ctx, db, fsys); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}

func preferenceFactory(ctx context.Context, cfg config.Config, logger zerolog.Logger) (theme.PreferencesFactory, func(), error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		logger.Info().Msg("using in-memory theme preferences")
		return func(string) theme.Preferences { return theme.NewMemoryPreferences() }, func() {}, nil
	}
	client, err := theme.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Info().Msg("using Redis for theme preferences")
	return func(scope string) theme.Preferences {
		return theme.NewRedisPreferences(client, scope)
	}, func() { closeRedis(client, logger) }, nil
}

func closeRedis(client *redis.Client, logger zerolog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn().Err(err).Msg("close redis")
	}
}
