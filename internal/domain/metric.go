package domain

import "strings"

// Metric identifies a named sentiment signal contributing to the composite score.
type Metric string

const (
	MetricFearAndGreed   Metric = "fear_and_greed"
	MetricTrends         Metric = "trends"
	MetricBlockCount     Metric = "block_count"
	MetricTransactionCnt Metric = "transaction_cnt"
	MetricDailyAddresses Metric = "daily_addresses"
	MetricMarketCap      Metric = "market_cap"
	MetricPriceUSD       Metric = "price_usd"
)

// AllMetrics is the widget's weight field order.
var AllMetrics = []Metric{
	MetricTrends,
	MetricFearAndGreed,
	MetricBlockCount,
	MetricTransactionCnt,
	MetricDailyAddresses,
	MetricMarketCap,
	MetricPriceUSD,
}

// CoinMetricsField maps network metrics to Coin Metrics field names.
var CoinMetricsField = map[Metric]string{
	MetricBlockCount:     "BlkCnt",
	MetricTransactionCnt: "TxCnt",
	MetricDailyAddresses: "AdrActCnt",
	MetricMarketCap:      "CapRealUSD",
	MetricPriceUSD:       "PriceUSD",
}

// Label is the human-readable name used in form fields.
func (m Metric) Label() string {
	switch m {
	case MetricFearAndGreed:
		return "Fear & Greed"
	case MetricTrends:
		return "Google Trends"
	case MetricBlockCount:
		return "Block Count"
	case MetricTransactionCnt:
		return "Transactions"
	case MetricDailyAddresses:
		return "Active Addresses"
	case MetricMarketCap:
		return "Realized Cap"
	case MetricPriceUSD:
		return "Price (USD)"
	default:
		return string(m)
	}
}

// ParseMetric accepts either case ("FEAR_AND_GREED" or "fear_and_greed").
func ParseMetric(s string) (Metric, bool) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllMetrics {
		if m == known {
			return m, true
		}
	}
	return "", false
}
