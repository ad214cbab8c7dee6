package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func TestFearGreedFetchHistory(t *testing.T) {
	p := NewFearGreedProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "https://example.com"
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/fng/" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.URL.Query().Get("limit") != "2" {
			t.Fatalf("unexpected limit: %s", req.URL.RawQuery)
		}
		body := `{"data":[
			{"value":"63","value_classification":"Greed","timestamp":"1672617600"},
			{"value":"26","value_classification":"Fear","timestamp":"1672531200000"}
		]}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	})}

	points, err := p.FetchHistory(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Value != 63 || points[0].Classification != "Greed" {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if !points[1].Timestamp.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("millisecond timestamp not normalized: %v", points[1].Timestamp)
	}
}

func TestFearGreedFetchHistoryError(t *testing.T) {
	p := NewFearGreedProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(bytes.NewBufferString("down")),
			Header:     make(http.Header),
		}, nil
	})}

	if _, err := p.FetchHistory(context.Background(), 0); err == nil {
		t.Fatal("expected error on 503")
	}
}
