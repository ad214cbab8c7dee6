// Package sentiment turns per-metric daily readings into the weighted
// composite score served by the history API.
package sentiment

import (
	"math"
	"sort"
	"time"

	"finndex/internal/domain"
)

// FearGreedMax is the top of the alternative.me index scale.
const FearGreedMax = 100.0

// Reading is one metric's daily values in [0, 1] keyed by DateString.
type Reading struct {
	Metric domain.Metric
	Weight float64
	Values map[string]float64
}

// ScaleFearGreed maps a 0-100 index reading onto [0, 1].
func ScaleFearGreed(v float64) float64 {
	return v / FearGreedMax
}

// MinMax rescales values linearly so the smallest becomes 0 and the largest 1.
// A flat series maps to 0.
func MinMax(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for d, v := range values {
		if hi == lo {
			out[d] = 0
			continue
		}
		out[d] = (v - lo) / (hi - lo)
	}
	return out
}

// EqualWeights gives every metric the same share, summing to 1.
func EqualWeights(metrics []domain.Metric) []float64 {
	weights := make([]float64, len(metrics))
	for i := range weights {
		weights[i] = 1 / float64(len(metrics))
	}
	return weights
}

type entry struct {
	value  float64
	weight float64
}

var missing = math.Inf(-1)

// Combine computes the weighted score for each day in [start, end]. On a day
// where some readings have no value, their weight is handed to the readings
// that do. Days where no reading has a value are left out.
func Combine(start, end time.Time, readings []Reading) domain.Series {
	series := domain.Series{}
	if len(readings) == 0 {
		return series
	}

	for day := dayOf(start); !day.After(dayOf(end)); day = day.AddDate(0, 0, 1) {
		date := domain.FormatDate(day)

		entries := make([]entry, 0, len(readings))
		present := 0
		for _, r := range readings {
			v, ok := r.Values[date]
			if !ok {
				v = missing
			} else {
				present++
			}
			entries = append(entries, entry{value: v, weight: r.Weight})
		}
		if present == 0 {
			continue
		}

		score := 0.0
		for _, e := range redistribute(entries) {
			score += e.value * e.weight
		}
		series = append(series, domain.SeriesPoint{Date: date, Value: score})
	}
	return series
}

// redistribute sorts missing entries first, then spreads each missing
// entry's weight evenly over every entry after it. Missing entries end up
// contributing nothing.
func redistribute(entries []entry) []entry {
	out := make([]entry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value < out[j].value
		}
		return out[i].weight < out[j].weight
	})

	for i := range out {
		if !math.IsInf(out[i].value, -1) {
			continue
		}
		rest := len(out) - i - 1
		if rest > 0 {
			share := out[i].weight / float64(rest)
			for j := i + 1; j < len(out); j++ {
				out[j].weight += share
			}
		}
		out[i] = entry{value: 0, weight: 1}
	}
	return out
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
