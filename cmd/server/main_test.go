package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"finndex/internal/config"
	"finndex/internal/domain"
	"finndex/internal/handler"
	"finndex/internal/job"
	"finndex/internal/provider"
	"finndex/internal/service"
	"finndex/internal/widget"
	"finndex/pkg/errtrack"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	captured := stubServerDeps(t)

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}

	if captured.pollerStarted {
		t.Fatal("poller should not start without a history store")
	}
	if captured.store != nil {
		t.Fatal("expected nil store without a database pool")
	}
	if captured.redis != nil {
		t.Fatal("expected nil redis client when redis is unavailable")
	}
	if captured.cacheTTL != 15*time.Minute {
		t.Fatalf("expected cache ttl from config, got %s", captured.cacheTTL)
	}
	if captured.opts.APIBaseURL != "http://localhost:9200" || captured.opts.StartOffsetDays != 10 {
		t.Fatalf("unexpected widget options: %+v", captured.opts)
	}
	if captured.tracerName != serviceName {
		t.Fatalf("expected tracer for %s, got %s", serviceName, captured.tracerName)
	}
}

type bootstrapCapture struct {
	pollerStarted bool
	store         service.MetricRepository
	redis         service.RedisClient
	cacheTTL      time.Duration
	opts          handler.WidgetOptions
	tracerName    string
}

func stubServerDeps(t *testing.T) *bootstrapCapture {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitLogger := initLoggerFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origInitErrTrack := initErrTrackFunc
	origFearGreed := newFearGreedProviderFunc
	origCoinGecko := newCoinGeckoProviderFunc
	origCoinMetrics := newCoinMetricsProviderFunc
	origNewHistory := newHistoryServiceFunc
	origStartPoller := startPollerFunc
	origNewFetch := newFetchClientFunc
	origNewHandler := newHandlerFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc
	t.Cleanup(func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initLoggerFunc = origInitLogger
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		initErrTrackFunc = origInitErrTrack
		newFearGreedProviderFunc = origFearGreed
		newCoinGeckoProviderFunc = origCoinGecko
		newCoinMetricsProviderFunc = origCoinMetrics
		newHistoryServiceFunc = origNewHistory
		startPollerFunc = origStartPoller
		newFetchClientFunc = origNewFetch
		newHandlerFunc = origNewHandler
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	})

	captured := &bootstrapCapture{}

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			LogLevel:              "error",
			HTTPPort:              9200,
			WidgetAPIBaseURL:      "http://localhost:9200",
			WidgetHTTPTimeoutSecs: 30,
			WidgetWindowDays:      365,
			WidgetStartOffsetDays: 10,
			HistoryPollSecs:       1,
			HistoryBackfillDays:   30,
			SeriesCacheTTLSecs:    900,
		}
	}
	initLoggerFunc = func(string, string) error { return nil }
	initPostgresFunc = func(context.Context, string) error { return nil }
	initRedisFunc = func(context.Context, string) error { return context.DeadlineExceeded }
	initTracerFunc = func(ctx context.Context, name string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		captured.tracerName = name
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	initErrTrackFunc = func(string, string, string) (*errtrack.Tracker, error) { return nil, nil }
	newFearGreedProviderFunc = func(trace.Tracer) service.FearGreedSource { return stubFearGreed{} }
	newCoinGeckoProviderFunc = func(trace.Tracer) service.PriceSource { return stubPrices{} }
	newCoinMetricsProviderFunc = func(trace.Tracer) service.NetworkSource { return stubNetwork{} }
	newHistoryServiceFunc = func(
		tracer trace.Tracer,
		fg service.FearGreedSource,
		prices service.PriceSource,
		network service.NetworkSource,
		repo service.MetricRepository,
		redisClient service.RedisClient,
		ttl time.Duration,
	) *service.HistoryService {
		captured.store = repo
		captured.redis = redisClient
		captured.cacheTTL = ttl
		return service.NewHistoryService(tracer, fg, prices, network, repo, redisClient, ttl)
	}
	startPollerFunc = func(*job.HistoryPoller, context.Context) { captured.pollerStarted = true }
	newFetchClientFunc = func(trace.Tracer, time.Duration) widget.Fetcher { return nil }
	newHandlerFunc = func(tracer trace.Tracer, history handler.HistoryReader, fetcher widget.Fetcher, opts handler.WidgetOptions) *handler.Handler {
		captured.opts = opts
		return handler.New(tracer, history, fetcher, opts)
	}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return captured
}

type stubFearGreed struct{}

func (stubFearGreed) FetchHistory(ctx context.Context, limit int) ([]provider.FearGreedPoint, error) {
	return nil, nil
}

type stubPrices struct{}

func (stubPrices) FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) ([]domain.PricePoint, error) {
	return nil, nil
}

type stubNetwork struct{}

func (stubNetwork) FetchDailyMetrics(ctx context.Context, symbol string, fields []string, from, to time.Time) ([]provider.CoinMetricsRow, error) {
	return nil, nil
}
