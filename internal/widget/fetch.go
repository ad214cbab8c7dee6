package widget

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finndex/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Response is the raw outcome of one GET. Callers decide what a status means.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// StatusText is the reason phrase without the numeric prefix.
func (r *Response) StatusText() string {
	text := strings.TrimSpace(strings.TrimPrefix(r.Status, fmt.Sprint(r.StatusCode)))
	if text == "" {
		text = http.StatusText(r.StatusCode)
	}
	return text
}

// Fetcher issues exactly one GET per call.
type Fetcher interface {
	Fetch(ctx context.Context, stage Stage, url string) (*Response, error)
}

// FetchClient is the HTTP Fetcher. It never retries.
type FetchClient struct {
	client *http.Client
	tracer trace.Tracer
}

func NewFetchClient(tracer trace.Tracer, timeout time.Duration) *FetchClient {
	return &FetchClient{
		client: &http.Client{Timeout: timeout},
		tracer: tracer,
	}
}

func (f *FetchClient) Fetch(ctx context.Context, stage Stage, url string) (*Response, error) {
	ctx, span := f.tracer.Start(ctx, "widget.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("widget.stage", string(stage)),
		attribute.String("http.url", url),
	)

	start := time.Now()
	defer func() {
		metrics.WidgetFetchDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		metrics.WidgetFetches.WithLabelValues(string(stage), "transport").Inc()
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.WidgetFetches.WithLabelValues(string(stage), "transport").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.WidgetFetches.WithLabelValues(string(stage), "transport").Inc()
		return nil, fmt.Errorf("read %s response: %w", stage, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	outcome := "ok"
	if resp.StatusCode != http.StatusOK {
		outcome = "status"
	}
	metrics.WidgetFetches.WithLabelValues(string(stage), outcome).Inc()

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}
