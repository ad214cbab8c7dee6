package widget

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"finndex/internal/domain"

	"github.com/tidwall/gjson"
)

// DecodeError means a 200 body was not a JSON object.
type DecodeError struct {
	Stage Stage
	Body  string
}

func (e *DecodeError) Error() string {
	body := e.Body
	if len(body) > 80 {
		body = body[:80] + "..."
	}
	return fmt.Sprintf("%s response is not a JSON object: %s", e.Stage, body)
}

// ParseError means a value was neither a number nor a numeric string.
type ParseError struct {
	Stage Stage
	Date  string
	Raw   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s value for %s is not numeric: %s", e.Stage, e.Date, e.Raw)
}

// ParseSeries converts a date->value JSON object into a Series, keeping the
// order in which keys appear in the document.
func ParseSeries(stage Stage, body []byte) (domain.Series, error) {
	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{Stage: stage, Body: string(body)}
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, &DecodeError{Stage: stage, Body: string(body)}
	}

	series := domain.Series{}
	var parseErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		v, ok := coerceFloat(value)
		if !ok {
			parseErr = &ParseError{Stage: stage, Date: key.String(), Raw: value.Raw}
			return false
		}
		series = append(series, domain.SeriesPoint{Date: key.String(), Value: v})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return series, nil
}

// coerceFloat accepts JSON numbers and numeric strings. Values that overflow
// to an infinity or spell NaN are rejected.
func coerceFloat(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
