package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Widget metrics
	WidgetFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finndex_widget_fetches_total",
			Help: "Widget HTTP fetches by stage and outcome",
		},
		[]string{"stage", "outcome"}, // outcome: ok|status|transport
	)

	WidgetFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finndex_widget_fetch_duration_seconds",
			Help:    "Widget HTTP fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)

	WidgetUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finndex_widget_updates_total",
			Help: "Graph update cycles by final state",
		},
		[]string{"variant", "state"}, // state: rendered|failed|stale
	)

	// History API metrics
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finndex_provider_calls_total",
			Help: "Upstream data provider calls",
		},
		[]string{"provider", "status"}, // status: success|error
	)

	ProviderThrottleWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finndex_provider_throttle_wait_seconds",
			Help:    "Time spent waiting on an upstream rate limit",
			Buckets: []float64{0, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	SeriesCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finndex_series_cache_lookups_total",
			Help: "Series cache lookups by result",
		},
		[]string{"result"}, // result: hit|miss|error
	)

	PollerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finndex_history_poller_runs_total",
			Help: "History poller refresh runs",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		WidgetFetches,
		WidgetFetchDuration,
		WidgetUpdates,
		ProviderCalls,
		ProviderThrottleWait,
		SeriesCacheLookups,
		PollerRuns,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
