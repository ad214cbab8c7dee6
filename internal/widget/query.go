package widget

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"finndex/internal/domain"
)

// ErrMismatchedWeights is returned when the metric and weight lists differ in length.
var ErrMismatchedWeights = errors.New("metrics and weights have different lengths")

// WeightError reports a weight field that is not a number.
type WeightError struct {
	Metric string
	Raw    string
	Err    error
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("weight for %s is not a number: %q", e.Metric, e.Raw)
}

func (e *WeightError) Unwrap() error { return e.Err }

// PairWeights zips form fields into metric weights, dropping zero weights.
// metrics[i] corresponds to weights[i].
func PairWeights(metrics, weights []string) ([]domain.MetricWeight, error) {
	if len(metrics) != len(weights) {
		return nil, fmt.Errorf("%w: %d metrics, %d weights", ErrMismatchedWeights, len(metrics), len(weights))
	}

	out := make([]domain.MetricWeight, 0, len(metrics))
	for i, raw := range weights {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &WeightError{Metric: metrics[i], Raw: raw, Err: err}
		}
		if w == 0 {
			continue
		}
		out = append(out, domain.MetricWeight{Metric: metrics[i], Weight: w})
	}
	return out, nil
}

// QueryEncoder builds request URLs against the history API.
//
// Path and query values are concatenated as given: a coin or date containing
// URL-reserved characters yields a malformed URL.
type QueryEncoder struct {
	BaseURL string
}

func NewQueryEncoder(baseURL string) QueryEncoder {
	return QueryEncoder{BaseURL: strings.TrimRight(baseURL, "/")}
}

// SentimentURL encodes the composite sentiment request. Zero-weight pairs
// are excluded; the remaining metrics and weights stay positionally aligned.
func (q QueryEncoder) SentimentURL(coin, startDate, endDate string, weights []domain.MetricWeight) string {
	metrics := make([]string, 0, len(weights))
	values := make([]string, 0, len(weights))
	for _, mw := range weights {
		if mw.Weight == 0 {
			continue
		}
		metrics = append(metrics, mw.Metric)
		values = append(values, strconv.FormatFloat(mw.Weight, 'f', -1, 64))
	}

	return q.BaseURL + "/api/sentiment/coin=" + coin +
		"?start_date=" + startDate +
		"&end_date=" + endDate +
		"&metrics=" + strings.Join(metrics, ",") +
		"&weights=" + strings.Join(values, ",")
}

// PriceURL encodes the price request for the same coin and range.
func (q QueryEncoder) PriceURL(coin, startDate, endDate string) string {
	return q.BaseURL + "/api/price/coin=" + coin +
		"?start_date=" + startDate +
		"&end_date=" + endDate
}
