package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"finndex/internal/config"
	"finndex/internal/db"
	"finndex/internal/domain"
	"finndex/internal/provider"
	"finndex/internal/repository"
	"finndex/internal/service"
	"finndex/pkg/logger"
	"finndex/pkg/tracing"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

const (
	cmdMigrate = "migrate"
	cmdRun     = "run"
	usage      = "usage: go run ./cmd/backfill [migrate|run] [-days N] [-coins BTC,ETH] [-skip-fear-greed]"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initLoggerFunc   = logger.Init
	initPostgresFunc = db.InitPostgres
	initTracerFunc   = tracing.InitTracer
	currentPool      = func() repository.PgxPool {
		if db.Pool == nil {
			return nil
		}
		return db.Pool
	}
	newRefresherFunc = func(tracer trace.Tracer, repo service.MetricRepository) refresher {
		return service.NewHistoryService(
			tracer,
			provider.NewFearGreedProvider(tracer),
			provider.NewCoinGeckoProvider(tracer),
			provider.NewCoinMetricsProvider(tracer),
			repo,
			nil,
			0,
		)
	}
	exitFunc = os.Exit
)

type refresher interface {
	RefreshFearGreed(ctx context.Context, days int) error
	RefreshCoin(ctx context.Context, symbol string, days int) error
}

type options struct {
	command       string
	days          int
	coins         []string
	skipFearGreed bool
}

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	if err := initLoggerFunc(cfg.LogLevel, cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}
	log := logger.Get().With("component", "backfill")
	defer logger.Sync()

	opts, err := parseArgs(os.Args[1:], cfg.HistoryBackfillDays)
	if err != nil {
		log.Errorf("%v\n%s", err, usage)
		exitFunc(2)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Error("DATABASE_URL is required")
		exitFunc(1)
		return
	}
	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Errorf("connect to postgres: %v", err)
		exitFunc(1)
		return
	}
	pool := currentPool()
	if pool == nil {
		log.Error("postgres pool not initialized")
		exitFunc(1)
		return
	}

	tp, tracer, err := initTracerFunc(ctx, "finndex-backfill")
	if err != nil {
		log.Errorf("failed to initialize tracer: %v", err)
		exitFunc(1)
		return
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	repo := repository.NewMetricRepository(pool, tracer)
	if err := repo.RunMigrations(ctx); err != nil {
		log.Errorf("run migrations: %v", err)
		exitFunc(1)
		return
	}
	log.Info("schema up to date")
	if opts.command == cmdMigrate {
		return
	}

	failed := backfill(ctx, log, newRefresherFunc(tracer, repo), opts)
	if failed > 0 {
		log.Warnf("backfill finished with %d failures", failed)
		exitFunc(1)
		return
	}
	log.Infow("backfill complete", "days", opts.days, "coins", len(opts.coins))
}

func parseArgs(args []string, defaultDays int) (options, error) {
	if len(args) < 1 {
		return options{}, errors.New("missing command")
	}
	opts := options{command: args[0]}
	if opts.command != cmdMigrate && opts.command != cmdRun {
		return options{}, fmt.Errorf("unknown command %q", opts.command)
	}

	fs := flag.NewFlagSet("backfill "+opts.command, flag.ContinueOnError)
	fs.SetOutput(discard{})
	days := fs.Int("days", defaultDays, "days of history to fetch")
	coins := fs.String("coins", strings.Join(domain.SupportedSymbols, ","), "comma-separated coin symbols")
	fs.BoolVar(&opts.skipFearGreed, "skip-fear-greed", false, "do not refresh the fear & greed index")
	if err := fs.Parse(args[1:]); err != nil {
		return options{}, err
	}
	if *days <= 0 {
		return options{}, fmt.Errorf("invalid -days %d", *days)
	}
	opts.days = *days

	for _, c := range strings.Split(*coins, ",") {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !domain.IsSupportedSymbol(c) {
			return options{}, fmt.Errorf("unsupported coin %q", c)
		}
		opts.coins = append(opts.coins, c)
	}
	return opts, nil
}

// backfill refreshes every requested series and returns how many failed.
// A failure does not stop the remaining coins.
func backfill(ctx context.Context, log *logger.Logger, r refresher, opts options) int {
	failed := 0
	if !opts.skipFearGreed {
		if err := r.RefreshFearGreed(ctx, opts.days); err != nil {
			log.Errorw("fear & greed backfill failed", "error", err)
			failed++
		}
	}
	for _, coin := range opts.coins {
		if ctx.Err() != nil {
			return failed + 1
		}
		if err := r.RefreshCoin(ctx, coin, opts.days); err != nil {
			log.Errorw("coin backfill failed", "coin", coin, "error", err)
			failed++
			continue
		}
		log.Infow("coin backfilled", "coin", coin, "days", opts.days)
	}
	return failed
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
