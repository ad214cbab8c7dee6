package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finndex/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

// FearGreedPoint is one daily reading of the alternative.me index (0-100).
type FearGreedPoint struct {
	Value          int
	Classification string
	Timestamp      time.Time
}

type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer) *FearGreedProvider {
	return &FearGreedProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

// FetchHistory returns up to limit daily readings, newest first as served.
// limit 0 returns the whole history.
func (p *FearGreedProvider) FetchHistory(ctx context.Context, limit int) ([]FearGreedPoint, error) {
	_, span := p.tracer.Start(ctx, "feargreed.fetch-history")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	url := fmt.Sprintf("%s/fng/?limit=%d", strings.TrimRight(p.baseURL, "/"), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("feargreed", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderCalls.WithLabelValues("feargreed", "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fear & greed API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ProviderCalls.WithLabelValues("feargreed", "error").Inc()
		return nil, fmt.Errorf("decode fear & greed response: %w", err)
	}

	points := make([]FearGreedPoint, 0, len(payload.Data))
	for _, row := range payload.Data {
		value, err := strconv.Atoi(strings.TrimSpace(row.Value))
		if err != nil {
			return nil, fmt.Errorf("parse fear & greed value: %w", err)
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(row.Timestamp), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse fear & greed timestamp: %w", err)
		}
		if ts > 1_000_000_000_000 {
			ts = ts / 1000
		}
		points = append(points, FearGreedPoint{
			Value:          value,
			Classification: row.Classification,
			Timestamp:      time.Unix(ts, 0).UTC(),
		})
	}

	metrics.ProviderCalls.WithLabelValues("feargreed", "success").Inc()
	return points, nil
}
