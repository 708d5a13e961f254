package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "github.com/xiuxiu06/movie-app/internal/api/http"
	"github.com/xiuxiu06/movie-app/internal/app"
	"github.com/xiuxiu06/movie-app/internal/catalog"
	"github.com/xiuxiu06/movie-app/internal/metrics"
	"github.com/xiuxiu06/movie-app/internal/search"
	"github.com/xiuxiu06/movie-app/internal/telemetry"
	"github.com/xiuxiu06/movie-app/internal/trending"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "movie-discovery")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	if cfg.TMDBAPIKey == "" {
		logger.Warn("TMDB_API_KEY is not set, catalog requests will be rejected as unauthorized")
	}

	logger.Info("configuration loaded",
		slog.String("service", "movie-discovery"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.String("tmdbBaseURL", cfg.TMDBBaseURL),
		slog.Bool("hasTMDBKey", cfg.TMDBAPIKey != ""),
		slog.Bool("hasMongo", strings.TrimSpace(cfg.MongoURI) != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("debouncePeriod", cfg.DebouncePeriod),
		slog.Int("scrollThreshold", cfg.ScrollThreshold),
	)

	redisClient := buildRedisClient(cfg, logger)

	catalogClient := catalog.NewClient(catalog.Config{
		APIKey:    cfg.TMDBAPIKey,
		BaseURL:   cfg.TMDBBaseURL,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:     redisClient,
		CacheTTL:  cfg.CacheTTL,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serviceOpts := []search.ServiceOption{
		search.WithLogger(logger),
		search.WithTrendingLimit(cfg.TrendingLimit),
	}
	trendingRepo, disconnect := buildTrendingRepo(rootCtx, cfg, logger)
	if disconnect != nil {
		defer disconnect()
	}
	if trendingRepo != nil {
		serviceOpts = append(serviceOpts, search.WithTrendingStore(trendingRepo))
	}

	discovery := search.NewService(catalogClient, serviceOpts...)
	discovery.Start(rootCtx)

	handler := apihttp.NewServer(discovery,
		apihttp.WithLogger(logger),
		apihttp.WithDebouncePeriod(cfg.DebouncePeriod),
		apihttp.WithScrollThreshold(cfg.ScrollThreshold),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Live sessions (/movies/live) hold the connection open.
		// Keep write timeout disabled at the server level; per-fetch timeouts apply inside.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("movie discovery service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("movie discovery service stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func buildRedisClient(cfg app.Config, logger *slog.Logger) *redis.Client {
	if cfg.CacheDisabled {
		return nil
	}
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, catalog cache disabled", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis not reachable, catalog cache disabled", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

// buildTrendingRepo connects to MongoDB. A missing or unreachable store is
// non-fatal: browsing works without trending.
func buildTrendingRepo(ctx context.Context, cfg app.Config, logger *slog.Logger) (*trending.Repository, func()) {
	uri := strings.TrimSpace(cfg.MongoURI)
	if uri == "" {
		logger.Info("mongo uri not configured, trending tracking disabled")
		return nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := trending.Connect(connectCtx, uri)
	if err != nil {
		logger.Warn("mongo connect failed, trending tracking disabled", slog.String("error", err.Error()))
		return nil, nil
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Warn("mongo not reachable, trending tracking disabled", slog.String("error", err.Error()))
		_ = client.Disconnect(context.Background())
		return nil, nil
	}

	repo := trending.NewRepository(client, cfg.MongoDB)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		logger.Warn("mongo index setup failed", slog.String("error", err.Error()))
	}
	logger.Info("mongo connected", slog.String("db", cfg.MongoDB))

	disconnect := func() {
		disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancelDisconnect()
		_ = client.Disconnect(disconnectCtx)
	}
	return repo, disconnect
}
