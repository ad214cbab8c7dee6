package widget

import (
	"errors"
	"testing"

	"finndex/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestSentimentURLExcludesZeroWeights(t *testing.T) {
	weights, err := PairWeights([]string{"trends", "fear_and_greed"}, []string{"0.5", "0"})
	require.NoError(t, err)

	url := NewQueryEncoder("http://api.example").SentimentURL("BTC", "2023-01-01", "2023-01-31", weights)

	require.Equal(t,
		"http://api.example/api/sentiment/coin=BTC?start_date=2023-01-01&end_date=2023-01-31&metrics=trends&weights=0.5",
		url)
}

func TestSentimentURLEmptyMetrics(t *testing.T) {
	url := NewQueryEncoder("http://api.example/").SentimentURL("BTC", "2023-01-01", "2023-01-31", nil)

	require.Contains(t, url, "/api/sentiment/coin=BTC?")
	require.Contains(t, url, "&metrics=&weights=")
	require.Equal(t,
		"http://api.example/api/sentiment/coin=BTC?start_date=2023-01-01&end_date=2023-01-31&metrics=&weights=",
		url)
}

func TestSentimentURLKeepsPairsAligned(t *testing.T) {
	url := NewQueryEncoder("").SentimentURL("ETH", "a", "b", []domain.MetricWeight{
		{Metric: "fear_and_greed", Weight: 0.25},
		{Metric: "trends", Weight: 0},
		{Metric: "block_count", Weight: 1.5},
	})

	require.Equal(t, "/api/sentiment/coin=ETH?start_date=a&end_date=b&metrics=fear_and_greed,block_count&weights=0.25,1.5", url)
}

func TestPriceURL(t *testing.T) {
	url := NewQueryEncoder("http://api.example").PriceURL("LTC", "2023-02-01", "2023-02-28")
	require.Equal(t, "http://api.example/api/price/coin=LTC?start_date=2023-02-01&end_date=2023-02-28", url)
}

func TestPairWeightsMismatchedLengths(t *testing.T) {
	_, err := PairWeights([]string{"trends", "fear_and_greed"}, []string{"0.5"})
	require.ErrorIs(t, err, ErrMismatchedWeights)
}

func TestPairWeightsRejectsNonNumeric(t *testing.T) {
	_, err := PairWeights([]string{"trends"}, []string{"lots"})

	var werr *WeightError
	require.True(t, errors.As(err, &werr))
	require.Equal(t, "trends", werr.Metric)
	require.Equal(t, "lots", werr.Raw)
}

func TestPairWeightsSkipsBlankAndZero(t *testing.T) {
	weights, err := PairWeights(
		[]string{"trends", "fear_and_greed", "block_count"},
		[]string{"", "0.0", " 2 "},
	)
	require.NoError(t, err)
	require.Equal(t, []domain.MetricWeight{{Metric: "block_count", Weight: 2}}, weights)
}
