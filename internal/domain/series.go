package domain

import "time"

// DateLayout is the wire format of every date string: YYYY-MM-DD.
const DateLayout = "2006-01-02"

// FormatDate renders t's local calendar day as a date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// MetricWeight pairs a metric identifier with a user-assigned weight.
type MetricWeight struct {
	Metric string
	Weight float64
}

// SeriesPoint is one parsed entry of a date->value response.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Series keeps points in the order they were received.
type Series []SeriesPoint

// X returns the dates as chart x values.
func (s Series) X() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// Y returns the values as chart y values.
func (s Series) Y() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// DailyValue is a single stored reading of a metric for one coin and day.
type DailyValue struct {
	Symbol string
	Metric Metric
	Day    time.Time
	Value  float64
}
