package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/api-performance/internal/adapter/api"
	"github.com/V4T54L/api-performance/internal/adapter/api/handler"
	"github.com/V4T54L/api-performance/internal/adapter/metrics"
	"github.com/V4T54L/api-performance/internal/adapter/pii"
	"github.com/V4T54L/api-performance/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/api-performance/internal/adapter/repository/redis"
	"github.com/V4T54L/api-performance/internal/asynclog"
	"github.com/V4T54L/api-performance/internal/pkg/config"
	"github.com/V4T54L/api-performance/internal/pkg/logger"
	"github.com/V4T54L/api-performance/internal/usecase"
)

func main() {
	// --- Configuration and Logging ---
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	format, _ := logger.ParseFormat(cfg.LogFormat) // validated by config.Load
	appLogger := logger.New(cfg.LogLevel, format, os.Stdout)
	slog.SetDefault(appLogger)

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)
	apiMetrics := metrics.NewAPIMetrics(prometheus.DefaultRegisterer)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Redis ---
	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		appLogger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Warn("could not connect to redis, caching will fall back to the database", "error", err)
	}

	// --- Async Log Pipeline ---
	sink, err := buildSink(cfg, format, redisClient, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize log sink", "error", err)
		os.Exit(1)
	}
	if sink.stream != nil {
		go sink.stream.StartHealthCheck(ctx, 5*time.Second)
	}

	minLevel, ok := asynclog.ParseLevel(cfg.LogLevel)
	if !ok {
		minLevel = asynclog.LevelInfo
	}
	asyncLogger, err := asynclog.Setup(asynclog.Options{
		Level:        minLevel,
		Format:       format,
		Sink:         sink.sink,
		Fallback:     logger.New(cfg.LogLevel, logger.FormatText, os.Stderr),
		PollInterval: cfg.LogPollInterval,
		GracePeriod:  cfg.LogShutdownGrace,
		Redactor:     pii.NewRedactor(cfg.RedactionFields(), appLogger),
		Metrics:      pipelineMetrics,
	})
	if err != nil {
		appLogger.Error("failed to start async log pipeline", "error", err)
		os.Exit(1)
	}

	// --- Postgres ---
	db, err := postgres.Open(ctx, cfg.PostgresURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		appLogger.Error("failed to connect to postgres", "error", err)
		shutdownPipeline(appLogger, sink)
		os.Exit(1)
	}
	defer db.Close()

	// --- Repositories and Use Cases ---
	postRepo := postgres.NewPostRepository(db, appLogger)
	cacheRepo := redisrepo.NewCacheRepository(redisClient, appLogger)

	caching := usecase.NewCachingUseCase(postRepo, cacheRepo, cfg.CacheTTL, asyncLogger, apiMetrics)
	pool := usecase.NewConnectionPoolUseCase(postgres.NewProbe(db), postgres.UnpooledProbeFactory(cfg.PostgresURL), asyncLogger)
	nPlusOne := usecase.NewNPlusOneUseCase(postRepo, asyncLogger)
	pages := usecase.NewPaginationUseCase(postRepo, asyncLogger)
	submit := usecase.SubmitFunc(asynclog.LogRequest)

	techniques := handler.NewTechniquesHandler(handler.Services{
		Caching:       caching,
		Pool:          pool,
		NPlusOne:      nPlusOne,
		Pagination:    pages,
		Serialization: usecase.NewSerializationUseCase(postRepo, asyncLogger),
		Compression:   usecase.NewCompressionUseCase(postRepo, asyncLogger),
		AsyncLogging:  usecase.NewAsyncLoggingUseCase(submit, appLogger),
		Combined:      usecase.NewCombinedUseCase(caching, pool, nPlusOne, pages, submit, appLogger),
	}, appLogger)

	// --- Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: api.NewAdminRouter(prometheus.DefaultGatherer),
	}
	go func() {
		appLogger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- API Server ---
	apiServer := &http.Server{
		Addr:         cfg.APIServerAddr,
		Handler:      api.NewRouter(api.RouterConfig{CompressionMinSize: cfg.CompressionMinSize}, appLogger, asyncLogger, apiMetrics, techniques),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		appLogger.Info("starting api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	asynclog.LogRequest("API started and connected to database", map[string]any{"addr": cfg.APIServerAddr})

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	appLogger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("api server shutdown failed", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("admin server shutdown failed", "error", err)
	}

	// The pipeline stops last so that access logs from draining requests are kept.
	asynclog.LogRequest("API shutting down", nil)
	shutdownPipeline(appLogger, sink)

	appLogger.Info("servers shut down gracefully")
}

func shutdownPipeline(log *slog.Logger, sink *logSink) {
	if err := asynclog.Stop(); err != nil {
		log.Error("async log pipeline did not drain", "error", err)
	}
	if err := sink.close(); err != nil {
		log.Error("failed to close log sink", "error", err)
	}
}
