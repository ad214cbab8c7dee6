package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finndex/internal/domain"
	"finndex/internal/metrics"
	"finndex/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

// coinsPerTick keeps each run inside the CoinGecko free-tier budget.
const coinsPerTick = 3

type HistoryRefresher interface {
	RefreshFearGreed(ctx context.Context, days int) error
	RefreshCoin(ctx context.Context, symbol string, days int) error
}

// HistoryPoller keeps the daily value store topped up in the background.
type HistoryPoller struct {
	tracer       trace.Tracer
	log          *logger.Logger
	history      HistoryRefresher
	pollInterval time.Duration
	schedule     cron.Schedule
	backfillDays int

	mu        sync.Mutex
	coinIndex int
}

func NewHistoryPoller(tracer trace.Tracer, history HistoryRefresher, pollIntervalSecs, backfillDays int) *HistoryPoller {
	return &HistoryPoller{
		tracer:       tracer,
		log:          logger.Get().With("component", "history-poller"),
		history:      history,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
		schedule:     cron.Every(time.Duration(pollIntervalSecs) * time.Second),
		backfillDays: backfillDays,
	}
}

// SetSchedule replaces the fixed interval with a standard five-field cron
// spec or descriptor such as "@hourly" or "15 */2 * * *".
func (p *HistoryPoller) SetSchedule(spec string) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	p.schedule = schedule
	return nil
}

// Start refreshes immediately, then on the schedule. A run still in
// progress when the next one is due causes that one to be skipped. Blocks
// until ctx is cancelled.
func (p *HistoryPoller) Start(ctx context.Context) {
	p.log.Infow("history poller starting", "interval", p.pollInterval, "backfill_days", p.backfillDays)

	p.runOnce(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{p.log})))
	c.Schedule(p.schedule, cron.FuncJob(func() { p.runOnce(ctx) }))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	p.log.Info("history poller stopped")
}

func (p *HistoryPoller) runOnce(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "history-poller.run")
	defer span.End()

	status := "success"
	if err := p.history.RefreshFearGreed(ctx, p.backfillDays); err != nil {
		p.log.Warnw("fear & greed refresh error", "error", err)
		status = "error"
	}
	for _, symbol := range p.nextBatch(coinsPerTick) {
		if err := p.history.RefreshCoin(ctx, symbol, p.backfillDays); err != nil {
			p.log.Warnw("coin refresh error", "symbol", symbol, "error", err)
			status = "error"
		}
	}
	metrics.PollerRuns.WithLabelValues(status).Inc()
}

// nextBatch walks the supported symbols round-robin.
func (p *HistoryPoller) nextBatch(count int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbols := domain.SupportedSymbols
	batch := make([]string, 0, count)
	for i := 0; i < count && i < len(symbols); i++ {
		batch = append(batch, symbols[p.coinIndex%len(symbols)])
		p.coinIndex++
	}
	return batch
}

// cronLogger routes scheduler chatter through the service logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
