package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/golden-hour/internal/api"
	"github.com/neexbeast/golden-hour/internal/cache"
	"github.com/neexbeast/golden-hour/internal/metrics"
	"github.com/neexbeast/golden-hour/internal/report"
	"github.com/neexbeast/golden-hour/internal/solar"
	"github.com/neexbeast/golden-hour/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error("loading .env", "err", err)
		os.Exit(1)
	}

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	databaseURL := mustEnv("DATABASE_URL")
	redisURL := mustEnv("REDIS_URL")
	bearerToken := mustEnv("BEARER_TOKEN")
	weatherKey := mustEnv("OPENWEATHER_API_KEY")
	port := getEnv("PORT", "8080")
	migrationsDir := getEnv("MIGRATIONS_DIR", "migrations")

	cacheTTL, err := time.ParseDuration(getEnv("REPORT_CACHE_TTL", "30m"))
	if err != nil {
		return fmt.Errorf("parsing REPORT_CACHE_TTL: %w", err)
	}
	upstreamRPS, err := strconv.ParseFloat(getEnv("UPSTREAM_RPS", "1"), 64)
	if err != nil {
		return fmt.Errorf("parsing UPSTREAM_RPS: %w", err)
	}

	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := storage.RunMigrations(ctx, pool, migrationsDir, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied")

	// Connect to Redis.
	redisClient, err := cache.Connect(ctx, redisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Wire dependencies.
	m := metrics.New()
	upstream := report.NewUpstream(log, report.WithRateLimit(upstreamRPS, 5), report.WithMetrics(m))
	calc := solar.NewCalculator(nil)
	builder := report.NewBuilder(calc, report.NewFetcher(weatherKey, upstream, log), nil, log, m)

	handlers := api.NewHandlers(api.Deps{
		Spots:   storage.NewRepository(pool),
		Cache:   cache.NewCache(redisClient, cacheTTL),
		Builder: builder,
		Places:  report.NewGeocodeClient(weatherKey, upstream),
		Solar:   calc,
		Metrics: m,
		Log:     log,
	})

	// Build router with pingers adapted for health check.
	dbPinger := &pgxPoolPinger{pool: pool}
	redisPinger := &redisPingerAdapter{client: redisClient}

	router := api.NewRouter(handlers, bearerToken, dbPinger, redisPinger, m.Handler(), log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", port, "cache_ttl", cacheTTL.String(), "upstream_rps", upstreamRPS)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// pgxPoolPinger adapts pgxpool.Pool to the api.dbPinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.redisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
