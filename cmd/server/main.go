package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finndex/internal/cache"
	"finndex/internal/config"
	"finndex/internal/db"
	"finndex/internal/handler"
	"finndex/internal/job"
	"finndex/internal/provider"
	"finndex/internal/repository"
	"finndex/internal/service"
	"finndex/internal/widget"
	"finndex/pkg/errtrack"
	"finndex/pkg/logger"
	"finndex/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "finndex/docs"
)

const serviceName = "finndex"

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initLoggerFunc   = logger.Init
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	initErrTrackFunc = errtrack.Init
	newMetricRepo    = repository.NewMetricRepository
	runMigrations    = func(ctx context.Context, repo *repository.MetricRepository) error {
		return repo.RunMigrations(ctx)
	}
	newFearGreedProviderFunc = func(tracer trace.Tracer) service.FearGreedSource {
		return provider.NewFearGreedProvider(tracer)
	}
	newCoinGeckoProviderFunc = func(tracer trace.Tracer) service.PriceSource {
		return provider.NewCoinGeckoProvider(tracer)
	}
	newCoinMetricsProviderFunc = func(tracer trace.Tracer) service.NetworkSource {
		return provider.NewCoinMetricsProvider(tracer)
	}
	newHistoryServiceFunc = service.NewHistoryService
	newHistoryPollerFunc  = job.NewHistoryPoller
	startPollerFunc       = func(p *job.HistoryPoller, ctx context.Context) { go p.Start(ctx) }
	newFetchClientFunc    = func(tracer trace.Tracer, timeout time.Duration) widget.Fetcher {
		return widget.NewFetchClient(tracer, timeout)
	}
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.New
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Finndex API
// @version         1.0
// @description     Historical crypto sentiment scores and prices for the Finndex widget.

// @host      localhost:9200
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel, cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}
	log := logger.Get()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres and Redis are optional; without them every request goes upstream.
	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Warnw("postgres unavailable, history store disabled", "error", err)
	}
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Warnw("redis unavailable, series cache disabled", "error", err)
	}

	tp, tracer, err := initTracerFunc(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Errorf("error shutting down tracer provider: %v", err)
		}
	}()

	tracker, err := initErrTrackFunc(cfg.SentryDSN, cfg.AppEnv, tracing.ServiceVersion)
	if err != nil {
		log.Warnw("sentry disabled", "error", err)
	}
	defer tracker.Flush(2 * time.Second)

	var store service.MetricRepository
	if db.Pool != nil {
		repo := newMetricRepo(db.Pool, tracer)
		if err := runMigrations(ctx, repo); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = repo
	}
	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}

	historyService := newHistoryServiceFunc(
		tracer,
		newFearGreedProviderFunc(tracer),
		newCoinGeckoProviderFunc(tracer),
		newCoinMetricsProviderFunc(tracer),
		store,
		redisClient,
		time.Duration(cfg.SeriesCacheTTLSecs)*time.Second,
	)

	if store != nil {
		poller := newHistoryPollerFunc(tracer, historyService, cfg.HistoryPollSecs, cfg.HistoryBackfillDays)
		if cfg.HistoryRefreshCron != "" {
			if err := poller.SetSchedule(cfg.HistoryRefreshCron); err != nil {
				log.Warnw("ignoring HISTORY_REFRESH_CRON", "error", err)
			}
		}
		startPollerFunc(poller, ctx)
	}

	fetcher := newFetchClientFunc(tracer, time.Duration(cfg.WidgetHTTPTimeoutSecs)*time.Second)
	h := newHandlerFunc(tracer, historyService, fetcher, handler.WidgetOptions{
		APIBaseURL:      cfg.WidgetAPIBaseURL,
		StartOffsetDays: cfg.WidgetStartOffsetDays,
		WindowDays:      cfg.WidgetWindowDays,
	})

	r := newRouterFunc()
	r.Use(gin.Recovery())
	r.Use(handler.RequestLogger(log))
	r.Use(handler.ErrorReporter(tracker))
	r.Use(otelgin.Middleware(serviceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Infow("http server listening", "addr", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exiting")
}
