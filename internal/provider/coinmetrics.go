package provider

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finndex/internal/domain"
	"finndex/internal/metrics"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coinMetricsBaseURL = "https://community-api.coinmetrics.io/v4"

// maxCoinMetricsPages bounds pagination so a misbehaving next_page_url can't loop forever.
const maxCoinMetricsPages = 20

// CoinMetricsRow holds the metric values reported for one asset on one day.
// Fields the API omitted for that day are absent from Values.
type CoinMetricsRow struct {
	Day    time.Time
	Values map[string]float64
}

// CoinMetricsProvider reads daily network data from the Coin Metrics community API.
type CoinMetricsProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinMetricsProvider allows 10 requests per 6 seconds, the community tier limit.
func NewCoinMetricsProvider(tracer trace.Tracer) *CoinMetricsProvider {
	return &CoinMetricsProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coinMetricsBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter("coinmetrics", 10, 600*time.Millisecond),
	}
}

// FetchDailyMetrics returns daily rows for symbol between from and to
// (inclusive), following pagination.
func (p *CoinMetricsProvider) FetchDailyMetrics(ctx context.Context, symbol string, fields []string, from, to time.Time) ([]CoinMetricsRow, error) {
	_, span := p.tracer.Start(ctx, "coinmetrics.fetch-daily-metrics")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.StringSlice("fields", fields),
	)

	if len(fields) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("assets", domain.CoinMetricsAsset(symbol))
	q.Set("metrics", strings.Join(fields, ","))
	q.Set("start_time", domain.FormatDate(from))
	q.Set("end_time", domain.FormatDate(to))
	q.Set("frequency", "1d")
	q.Set("page_size", "10000")
	next := fmt.Sprintf("%s/timeseries/asset-metrics?%s", strings.TrimRight(p.baseURL, "/"), q.Encode())

	var rows []CoinMetricsRow
	for page := 0; next != "" && page < maxCoinMetricsPages; page++ {
		body, err := p.doRequest(ctx, next)
		if err != nil {
			metrics.ProviderCalls.WithLabelValues("coinmetrics", "error").Inc()
			return nil, fmt.Errorf("fetch coin metrics for %s: %w", symbol, err)
		}
		pageRows, nextURL, err := parseCoinMetricsPage(body, fields)
		if err != nil {
			metrics.ProviderCalls.WithLabelValues("coinmetrics", "error").Inc()
			return nil, fmt.Errorf("parse coin metrics for %s: %w", symbol, err)
		}
		rows = append(rows, pageRows...)
		next = nextURL
	}

	metrics.ProviderCalls.WithLabelValues("coinmetrics", "success").Inc()
	return rows, nil
}

func (p *CoinMetricsProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
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
		return nil, fmt.Errorf("coin metrics API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func parseCoinMetricsPage(body []byte, fields []string) ([]CoinMetricsRow, string, error) {
	if !gjson.ValidBytes(body) {
		return nil, "", fmt.Errorf("invalid JSON body")
	}
	doc := gjson.ParseBytes(body)
	data := doc.Get("data")
	if !data.IsArray() {
		return nil, "", fmt.Errorf("missing data array")
	}

	var rows []CoinMetricsRow
	for _, item := range data.Array() {
		ts, err := time.Parse(time.RFC3339Nano, item.Get("time").String())
		if err != nil {
			return nil, "", fmt.Errorf("parse time %q: %w", item.Get("time").String(), err)
		}
		row := CoinMetricsRow{
			Day:    ts.UTC().Truncate(24 * time.Hour),
			Values: make(map[string]float64, len(fields)),
		}
		for _, field := range fields {
			raw := item.Get(field)
			if !raw.Exists() {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(raw.String()), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			row.Values[field] = v
		}
		rows = append(rows, row)
	}

	return rows, doc.Get("next_page_url").String(), nil
}
