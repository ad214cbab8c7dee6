package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"finndex/internal/domain"
	"finndex/internal/provider"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

type mockFearGreed struct {
	points    []provider.FearGreedPoint
	err       error
	calls     int
	lastLimit int
}

func (m *mockFearGreed) FetchHistory(ctx context.Context, limit int) ([]provider.FearGreedPoint, error) {
	m.calls++
	m.lastLimit = limit
	return m.points, m.err
}

type mockPrices struct {
	points []domain.PricePoint
	err    error
	calls  int
}

func (m *mockPrices) FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) ([]domain.PricePoint, error) {
	m.calls++
	return m.points, m.err
}

type mockNetwork struct {
	rows       []provider.CoinMetricsRow
	err        error
	calls      int
	lastFields []string
}

func (m *mockNetwork) FetchDailyMetrics(ctx context.Context, symbol string, fields []string, from, to time.Time) ([]provider.CoinMetricsRow, error) {
	m.calls++
	m.lastFields = fields
	return m.rows, m.err
}

type mockRepo struct {
	stored    map[domain.Metric][]domain.DailyValue
	upserted  []domain.DailyValue
	upsertErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{stored: map[domain.Metric][]domain.DailyValue{}}
}

func (m *mockRepo) GetValuesInRange(ctx context.Context, symbol string, metric domain.Metric, from, to time.Time) ([]domain.DailyValue, error) {
	return m.stored[metric], nil
}

func (m *mockRepo) UpsertValues(ctx context.Context, values []domain.DailyValue) error {
	m.upserted = append(m.upserted, values...)
	return m.upsertErr
}

type fixture struct {
	fg      *mockFearGreed
	prices  *mockPrices
	network *mockNetwork
	repo    *mockRepo
	redis   *fakeRedis
	svc     *HistoryService
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		fg:      &mockFearGreed{},
		prices:  &mockPrices{},
		network: &mockNetwork{},
		repo:    newMockRepo(),
		redis:   newFakeRedis(),
	}
	f.svc = NewHistoryService(testTracer, f.fg, f.prices, f.network, f.repo, f.redis, time.Minute)
	f.svc.now = func() time.Time { return now }
	return f
}

func fgPoint(date string, v int) provider.FearGreedPoint {
	return provider.FearGreedPoint{Value: v, Timestamp: day(date)}
}

func TestGetSentimentFearGreedOnly(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.fg.points = []provider.FearGreedPoint{fgPoint("2023-01-02", 60), fgPoint("2023-01-01", 40)}

	series, err := f.svc.GetSentiment(context.Background(), "BTC", day("2023-01-01"), day("2023-01-02"),
		[]WeightedMetric{{Metric: domain.MetricFearAndGreed, Weight: 1}})

	require.NoError(t, err)
	require.Equal(t, []string{"2023-01-01", "2023-01-02"}, series.X())
	require.InDeltaSlice(t, []float64{0.4, 0.6}, series.Y(), 1e-9)
	require.Equal(t, 10, f.fg.lastLimit)
	require.Len(t, f.repo.upserted, 2)
	require.Equal(t, marketWideSymbol, f.repo.upserted[0].Symbol)
	require.Contains(t, f.redis.data, "series:MARKET:fear_and_greed:2023-01-01:2023-01-02")
}

func TestGetSentimentCombinesNormalisedMetrics(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.fg.points = []provider.FearGreedPoint{fgPoint("2023-01-01", 20), fgPoint("2023-01-02", 80)}
	f.network.rows = []provider.CoinMetricsRow{
		{Day: day("2023-01-01"), Values: map[string]float64{"BlkCnt": 140}},
		{Day: day("2023-01-02"), Values: map[string]float64{"BlkCnt": 150}},
	}

	series, err := f.svc.GetSentiment(context.Background(), "BTC", day("2023-01-01"), day("2023-01-02"),
		[]WeightedMetric{
			{Metric: domain.MetricFearAndGreed, Weight: 0.5},
			{Metric: domain.MetricBlockCount, Weight: 0.5},
		})

	require.NoError(t, err)
	require.Equal(t, []string{"BlkCnt"}, f.network.lastFields)
	// Block count min-max maps to 0 then 1.
	require.InDeltaSlice(t, []float64{0.1, 0.9}, series.Y(), 1e-9)
}

func TestGetSentimentUsesCache(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.redis.data["series:MARKET:fear_and_greed:2023-01-01:2023-01-01"] = []byte(`{"2023-01-01":50}`)

	series, err := f.svc.GetSentiment(context.Background(), "BTC", day("2023-01-01"), day("2023-01-01"),
		[]WeightedMetric{{Metric: domain.MetricFearAndGreed, Weight: 1}})

	require.NoError(t, err)
	require.Equal(t, 0, f.fg.calls)
	require.InDeltaSlice(t, []float64{0.5}, series.Y(), 1e-9)
}

func TestGetSentimentUsesStoreWhenItCoversRange(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.repo.stored[domain.MetricFearAndGreed] = []domain.DailyValue{
		{Symbol: marketWideSymbol, Metric: domain.MetricFearAndGreed, Day: day("2023-01-01"), Value: 30},
		{Symbol: marketWideSymbol, Metric: domain.MetricFearAndGreed, Day: day("2023-01-02"), Value: 70},
	}

	series, err := f.svc.GetSentiment(context.Background(), "BTC", day("2023-01-01"), day("2023-01-02"),
		[]WeightedMetric{{Metric: domain.MetricFearAndGreed, Weight: 1}})

	require.NoError(t, err)
	require.Equal(t, 0, f.fg.calls)
	require.InDeltaSlice(t, []float64{0.3, 0.7}, series.Y(), 1e-9)
}

func TestGetSentimentPartialStoreFallsBackToProvider(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.repo.stored[domain.MetricFearAndGreed] = []domain.DailyValue{
		{Symbol: marketWideSymbol, Metric: domain.MetricFearAndGreed, Day: day("2023-01-01"), Value: 30},
	}
	f.fg.points = []provider.FearGreedPoint{fgPoint("2023-01-01", 30), fgPoint("2023-01-02", 70)}

	_, err := f.svc.GetSentiment(context.Background(), "BTC", day("2023-01-01"), day("2023-01-02"),
		[]WeightedMetric{{Metric: domain.MetricFearAndGreed, Weight: 1}})

	require.NoError(t, err)
	require.Equal(t, 1, f.fg.calls)
}

func TestGetSentimentInputErrors(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	ctx := context.Background()
	fg := []WeightedMetric{{Metric: domain.MetricFearAndGreed, Weight: 1}}

	_, err := f.svc.GetSentiment(ctx, "FAKE", day("2023-01-01"), day("2023-01-02"), fg)
	require.True(t, IsInputError(err))

	_, err = f.svc.GetSentiment(ctx, "BTC", day("2023-01-05"), day("2023-01-02"), fg)
	require.True(t, IsInputError(err))

	_, err = f.svc.GetSentiment(ctx, "BTC", day("2023-01-01"), day("2023-01-02"),
		[]WeightedMetric{{Metric: domain.MetricTrends, Weight: 1}})
	require.True(t, IsInputError(err))

	_, err = f.svc.GetSentiment(ctx, "BTC", day("2023-01-01"), day("2023-01-02"),
		[]WeightedMetric{{Metric: "bogus", Weight: 1}})
	require.True(t, IsInputError(err))

	_, err = f.svc.GetSentiment(ctx, "BTC", day("2023-01-01"), day("2023-01-02"), nil)
	require.True(t, IsInputError(err))
}

func TestGetSentimentUpstreamError(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.fg.err = errors.New("503")

	_, err := f.svc.GetSentiment(context.Background(), "BTC", day("2023-01-01"), day("2023-01-02"),
		[]WeightedMetric{{Metric: domain.MetricFearAndGreed, Weight: 1}})

	require.Error(t, err)
	require.False(t, IsInputError(err))
}

func TestGetPriceFromCoinGecko(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.prices.points = []domain.PricePoint{
		{Symbol: "BTC", Date: "2023-01-01", PriceUSD: 16625.08},
		{Symbol: "BTC", Date: "2023-01-02", PriceUSD: 16688.47},
	}

	series, err := f.svc.GetPrice(context.Background(), "BTC", day("2023-01-01"), day("2023-01-02"))

	require.NoError(t, err)
	require.Equal(t, []string{"2023-01-01", "2023-01-02"}, series.X())
	require.Equal(t, []float64{16625.08, 16688.47}, series.Y())
	require.Equal(t, 0, f.network.calls)
}

func TestGetPriceFallsBackToCoinMetrics(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.prices.err = errors.New("429")
	f.network.rows = []provider.CoinMetricsRow{
		{Day: day("2023-01-01"), Values: map[string]float64{"PriceUSD": 16600}},
	}

	series, err := f.svc.GetPrice(context.Background(), "BTC", day("2023-01-01"), day("2023-01-01"))

	require.NoError(t, err)
	require.Equal(t, []string{"PriceUSD"}, f.network.lastFields)
	require.Equal(t, []float64{16600}, series.Y())
}

func TestGetPriceCacheReadErrorStillServes(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.redis.getErr = errors.New("redis down")
	f.prices.points = []domain.PricePoint{{Symbol: "BTC", Date: "2023-01-01", PriceUSD: 1}}

	series, err := f.svc.GetPrice(context.Background(), "BTC", day("2023-01-01"), day("2023-01-01"))

	require.NoError(t, err)
	require.Len(t, series, 1)
}

func TestRefreshCoinUpsertsEveryNetworkMetric(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.network.rows = []provider.CoinMetricsRow{
		{Day: day("2023-01-09"), Values: map[string]float64{"BlkCnt": 1, "TxCnt": 2, "AdrActCnt": 3, "CapRealUSD": 4}},
	}
	f.prices.points = []domain.PricePoint{{Symbol: "ETH", Date: "2023-01-09", PriceUSD: 1200}}

	require.NoError(t, f.svc.RefreshCoin(context.Background(), "ETH", 3))
	require.Equal(t, 4, f.network.calls)
	require.Len(t, f.repo.upserted, 5)
}

func TestRefreshFearGreed(t *testing.T) {
	f := newFixture(day("2023-01-10"))
	f.fg.points = []provider.FearGreedPoint{fgPoint("2023-01-10", 55)}

	require.NoError(t, f.svc.RefreshFearGreed(context.Background(), 5))
	require.Equal(t, 6, f.fg.lastLimit)
	require.Len(t, f.repo.upserted, 1)
}

func TestSeriesCacheKey(t *testing.T) {
	require.Equal(t, "series:BTC:block_count:2023-01-01:2023-01-31",
		SeriesCacheKey("BTC", domain.MetricBlockCount, day("2023-01-01"), day("2023-01-31")))
}
