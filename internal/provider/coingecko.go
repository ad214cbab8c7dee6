package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"finndex/internal/domain"
	"finndex/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches historical prices from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter("coingecko", 8, 7500*time.Millisecond),
	}
}

// FetchDailyPrices returns one closing price per UTC day in [from, to].
func (p *CoinGeckoProvider) FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) ([]domain.PricePoint, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-daily-prices")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	cgID, ok := domain.CoinGeckoID[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	// The range endpoint is exclusive of the last day's close unless we
	// extend to the end of that day.
	url := fmt.Sprintf("%s/coins/%s/market_chart/range?vs_currency=usd&from=%d&to=%d",
		p.baseURL, cgID, from.Unix(), to.Add(24*time.Hour-time.Second).Unix())

	body, err := p.doRequest(ctx, url)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("coingecko", "error").Inc()
		return nil, fmt.Errorf("fetch price range for %s: %w", symbol, err)
	}

	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		metrics.ProviderCalls.WithLabelValues("coingecko", "error").Inc()
		return nil, fmt.Errorf("parse price range for %s: %w", symbol, err)
	}

	metrics.ProviderCalls.WithLabelValues("coingecko", "success").Inc()
	return buildDailyCloses(symbol, raw.Prices), nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// buildDailyCloses keeps the last sample of each UTC day, oldest day first.
func buildDailyCloses(symbol string, prices [][]float64) []domain.PricePoint {
	if len(prices) == 0 {
		return nil
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i][0] < prices[j][0]
	})

	closes := make(map[string]float64)
	for _, pt := range prices {
		if len(pt) < 2 {
			continue
		}
		day := domain.FormatDate(time.UnixMilli(int64(pt[0])).UTC())
		closes[day] = pt[1] // later samples overwrite earlier ones
	}

	days := make([]string, 0, len(closes))
	for d := range closes {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]domain.PricePoint, 0, len(days))
	for _, d := range days {
		out = append(out, domain.PricePoint{Symbol: symbol, Date: d, PriceUSD: closes[d]})
	}
	return out
}
