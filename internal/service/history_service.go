package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finndex/internal/domain"
	"finndex/internal/metrics"
	"finndex/internal/provider"
	"finndex/internal/sentiment"
	"finndex/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// marketWideSymbol keys readings that do not depend on the coin (fear & greed).
const marketWideSymbol = "MARKET"

const defaultSeriesCacheTTL = 15 * time.Minute

// InputError marks a request the caller can fix (bad coin, metric or range).
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err was caused by invalid request input.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

type FearGreedSource interface {
	FetchHistory(ctx context.Context, limit int) ([]provider.FearGreedPoint, error)
}

type PriceSource interface {
	FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) ([]domain.PricePoint, error)
}

type NetworkSource interface {
	FetchDailyMetrics(ctx context.Context, symbol string, fields []string, from, to time.Time) ([]provider.CoinMetricsRow, error)
}

type MetricRepository interface {
	GetValuesInRange(ctx context.Context, symbol string, metric domain.Metric, from, to time.Time) ([]domain.DailyValue, error)
	UpsertValues(ctx context.Context, values []domain.DailyValue) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// WeightedMetric is a validated metric with its composite weight.
type WeightedMetric struct {
	Metric domain.Metric
	Weight float64
}

// HistoryService serves daily sentiment and price history, reading through
// the Redis series cache and the Postgres store before calling providers.
type HistoryService struct {
	tracer    trace.Tracer
	log       *logger.Logger
	fearGreed FearGreedSource
	prices    PriceSource
	network   NetworkSource
	repo      MetricRepository
	redis     RedisClient
	cacheTTL  time.Duration
	now       func() time.Time
}

func NewHistoryService(
	tracer trace.Tracer,
	fearGreed FearGreedSource,
	prices PriceSource,
	network NetworkSource,
	repo MetricRepository,
	redisClient RedisClient,
	cacheTTL time.Duration,
) *HistoryService {
	if cacheTTL <= 0 {
		cacheTTL = defaultSeriesCacheTTL
	}
	return &HistoryService{
		tracer:    tracer,
		log:       logger.Get().With("component", "history-service"),
		fearGreed: fearGreed,
		prices:    prices,
		network:   network,
		repo:      repo,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// SeriesCacheKey is the Redis key for one raw metric series over a range.
func SeriesCacheKey(coin string, metric domain.Metric, start, end time.Time) string {
	return fmt.Sprintf("series:%s:%s:%s:%s", coin, metric, domain.FormatDate(start), domain.FormatDate(end))
}

// GetSentiment returns the weighted composite score for coin, one point per
// day with data, oldest first.
func (s *HistoryService) GetSentiment(ctx context.Context, coin string, start, end time.Time, weights []WeightedMetric) (domain.Series, error) {
	ctx, span := s.tracer.Start(ctx, "history-service.get-sentiment")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coin), attribute.Int("metrics", len(weights)))

	if err := validateRange(coin, start, end); err != nil {
		return nil, err
	}
	if len(weights) == 0 {
		return nil, inputErrorf("no metrics requested")
	}
	for _, w := range weights {
		if w.Metric == domain.MetricTrends {
			return nil, inputErrorf("metric %s has no data source", w.Metric)
		}
		if _, ok := domain.ParseMetric(string(w.Metric)); !ok {
			return nil, inputErrorf("unsupported metric: %s", w.Metric)
		}
	}

	readings := make([]sentiment.Reading, 0, len(weights))
	for _, w := range weights {
		raw, err := s.rawValues(ctx, coin, w.Metric, start, end)
		if err != nil {
			return nil, err
		}
		readings = append(readings, sentiment.Reading{
			Metric: w.Metric,
			Weight: w.Weight,
			Values: normalize(w.Metric, raw),
		})
	}

	return sentiment.Combine(start, end, readings), nil
}

// GetPrice returns the daily USD close for coin, oldest first.
func (s *HistoryService) GetPrice(ctx context.Context, coin string, start, end time.Time) (domain.Series, error) {
	ctx, span := s.tracer.Start(ctx, "history-service.get-price")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coin))

	if err := validateRange(coin, start, end); err != nil {
		return nil, err
	}

	raw, err := s.rawValues(ctx, coin, domain.MetricPriceUSD, start, end)
	if err != nil {
		return nil, err
	}
	return toSeries(start, end, raw), nil
}

// RefreshCoin pulls the last days of network metrics and price for symbol
// into the store.
func (s *HistoryService) RefreshCoin(ctx context.Context, symbol string, days int) error {
	ctx, span := s.tracer.Start(ctx, "history-service.refresh-coin")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	if s.repo == nil {
		return nil
	}
	end := dayOf(s.now())
	start := end.AddDate(0, 0, -days)

	metricsToRefresh := []domain.Metric{
		domain.MetricBlockCount,
		domain.MetricTransactionCnt,
		domain.MetricDailyAddresses,
		domain.MetricMarketCap,
		domain.MetricPriceUSD,
	}
	var firstErr error
	for _, m := range metricsToRefresh {
		values, err := s.fetchFromProvider(ctx, symbol, m, start, end)
		if err != nil {
			s.log.Warnw("refresh fetch failed", "symbol", symbol, "metric", m, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := s.repo.UpsertValues(ctx, values); err != nil {
			return fmt.Errorf("upsert %s %s: %w", symbol, m, err)
		}
	}
	return firstErr
}

// RefreshFearGreed pulls the last days of the fear & greed index into the store.
func (s *HistoryService) RefreshFearGreed(ctx context.Context, days int) error {
	ctx, span := s.tracer.Start(ctx, "history-service.refresh-fear-greed")
	defer span.End()

	if s.repo == nil {
		return nil
	}
	end := dayOf(s.now())
	values, err := s.fetchFromProvider(ctx, marketWideSymbol, domain.MetricFearAndGreed, end.AddDate(0, 0, -days), end)
	if err != nil {
		return err
	}
	if err := s.repo.UpsertValues(ctx, values); err != nil {
		return fmt.Errorf("upsert fear & greed: %w", err)
	}
	return nil
}

// rawValues returns un-normalised readings keyed by date, trying the cache,
// then the store, then the provider.
func (s *HistoryService) rawValues(ctx context.Context, coin string, metric domain.Metric, start, end time.Time) (map[string]float64, error) {
	symbol := coin
	if metric == domain.MetricFearAndGreed {
		symbol = marketWideSymbol
	}
	key := SeriesCacheKey(symbol, metric, start, end)

	if s.redis != nil {
		cached, err := s.getSeriesCache(ctx, key)
		switch {
		case err != nil:
			metrics.SeriesCacheLookups.WithLabelValues("error").Inc()
			s.log.Warnw("series cache read error", "key", key, "error", err)
		case cached != nil:
			metrics.SeriesCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.SeriesCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	if s.repo != nil {
		stored, err := s.repo.GetValuesInRange(ctx, symbol, metric, start, end)
		if err != nil {
			s.log.Warnw("store read error", "symbol", symbol, "metric", metric, "error", err)
		} else if s.covers(stored, start, end) {
			values := valuesByDate(stored)
			s.setSeriesCache(ctx, key, values)
			return values, nil
		}
	}

	fetched, err := s.fetchFromProvider(ctx, symbol, metric, start, end)
	if err != nil {
		return nil, err
	}
	if s.repo != nil {
		if err := s.repo.UpsertValues(ctx, fetched); err != nil {
			s.log.Warnw("store write error", "symbol", symbol, "metric", metric, "error", err)
		}
	}

	values := make(map[string]float64, len(fetched))
	for _, v := range fetched {
		if v.Day.Before(start) || v.Day.After(end) {
			continue
		}
		values[domain.FormatDate(v.Day)] = v.Value
	}
	s.setSeriesCache(ctx, key, values)
	return values, nil
}

// covers reports whether stored rows span [start, end], treating the
// current and previous day as optional since providers publish with a lag.
func (s *HistoryService) covers(stored []domain.DailyValue, start, end time.Time) bool {
	if len(stored) == 0 {
		return false
	}
	latest := dayOf(s.now()).AddDate(0, 0, -2)
	want := end
	if want.After(latest) {
		want = latest
	}
	first, last := stored[0].Day, stored[len(stored)-1].Day
	return !first.After(start) && !last.Before(want)
}

func (s *HistoryService) fetchFromProvider(ctx context.Context, symbol string, metric domain.Metric, start, end time.Time) ([]domain.DailyValue, error) {
	switch metric {
	case domain.MetricFearAndGreed:
		limit := int(dayOf(s.now()).Sub(start).Hours()/24) + 1
		if limit < 1 {
			limit = 1
		}
		points, err := s.fearGreed.FetchHistory(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("fear & greed history: %w", err)
		}
		out := make([]domain.DailyValue, 0, len(points))
		for _, p := range points {
			out = append(out, domain.DailyValue{Symbol: marketWideSymbol, Metric: metric, Day: dayOf(p.Timestamp), Value: float64(p.Value)})
		}
		return out, nil

	case domain.MetricPriceUSD:
		prices, err := s.prices.FetchDailyPrices(ctx, symbol, start, end)
		if err == nil {
			out := make([]domain.DailyValue, 0, len(prices))
			for _, p := range prices {
				day, perr := domain.ParseDate(p.Date)
				if perr != nil {
					continue
				}
				out = append(out, domain.DailyValue{Symbol: symbol, Metric: metric, Day: day, Value: p.PriceUSD})
			}
			return out, nil
		}
		s.log.Warnw("price provider failed, falling back to coin metrics", "symbol", symbol, "error", err)
		return s.fetchNetwork(ctx, symbol, metric, start, end)

	case domain.MetricTrends:
		return nil, inputErrorf("metric %s has no data source", metric)

	default:
		return s.fetchNetwork(ctx, symbol, metric, start, end)
	}
}

func (s *HistoryService) fetchNetwork(ctx context.Context, symbol string, metric domain.Metric, start, end time.Time) ([]domain.DailyValue, error) {
	field, ok := domain.CoinMetricsField[metric]
	if !ok {
		return nil, inputErrorf("unsupported metric: %s", metric)
	}
	rows, err := s.network.FetchDailyMetrics(ctx, symbol, []string{field}, start, end)
	if err != nil {
		return nil, fmt.Errorf("coin metrics %s: %w", field, err)
	}
	out := make([]domain.DailyValue, 0, len(rows))
	for _, row := range rows {
		v, ok := row.Values[field]
		if !ok {
			continue
		}
		out = append(out, domain.DailyValue{Symbol: symbol, Metric: metric, Day: row.Day, Value: v})
	}
	return out, nil
}

func (s *HistoryService) setSeriesCache(ctx context.Context, key string, values map[string]float64) {
	if s.redis == nil || len(values) == 0 {
		return
	}
	data, err := json.Marshal(values)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Warnw("series cache write error", "key", key, "error", err)
	}
}

func (s *HistoryService) getSeriesCache(ctx context.Context, key string) (map[string]float64, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var values map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func validateRange(coin string, start, end time.Time) error {
	if !domain.IsSupportedSymbol(coin) {
		return inputErrorf("unsupported coin: %s", coin)
	}
	if end.Before(start) {
		return inputErrorf("end_date %s is before start_date %s", domain.FormatDate(end), domain.FormatDate(start))
	}
	return nil
}

func normalize(metric domain.Metric, raw map[string]float64) map[string]float64 {
	if metric == domain.MetricFearAndGreed {
		out := make(map[string]float64, len(raw))
		for d, v := range raw {
			out[d] = sentiment.ScaleFearGreed(v)
		}
		return out
	}
	return sentiment.MinMax(raw)
}

func valuesByDate(values []domain.DailyValue) map[string]float64 {
	out := make(map[string]float64, len(values))
	for _, v := range values {
		out[domain.FormatDate(v.Day)] = v.Value
	}
	return out
}

func toSeries(start, end time.Time, values map[string]float64) domain.Series {
	series := domain.Series{}
	for day := dayOf(start); !day.After(dayOf(end)); day = day.AddDate(0, 0, 1) {
		date := domain.FormatDate(day)
		if v, ok := values[date]; ok {
			series = append(series, domain.SeriesPoint{Date: date, Value: v})
		}
	}
	return series
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
