package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"finndex/internal/domain"
	"finndex/internal/sentiment"
	"finndex/internal/service"
	"finndex/internal/widget"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// coinParam accepts both /api/sentiment/coin=BTC and /api/sentiment/BTC.
func coinParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimPrefix(c.Param("coin"), "coin="))
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	rawStart, ok := c.GetQuery("start_date")
	if !ok || strings.TrimSpace(rawStart) == "" {
		return time.Time{}, time.Time{}, errors.New("no start_date provided")
	}
	rawEnd, ok := c.GetQuery("end_date")
	if !ok || strings.TrimSpace(rawEnd) == "" {
		return time.Time{}, time.Time{}, errors.New("no end_date provided")
	}
	start, err := domain.ParseDate(strings.TrimSpace(rawStart))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_date must be YYYY-MM-DD")
	}
	end, err := domain.ParseDate(strings.TrimSpace(rawEnd))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}

// parseWeights reads the metrics and weights lists. Without weights every
// metric counts equally.
func parseWeights(c *gin.Context) ([]service.WeightedMetric, error) {
	rawMetrics := strings.TrimSpace(c.Query("metrics"))
	if rawMetrics == "" {
		return nil, errors.New("no metrics provided")
	}
	names := strings.Split(rawMetrics, ",")

	var pairs []domain.MetricWeight
	if rawWeights, ok := c.GetQuery("weights"); ok && strings.TrimSpace(rawWeights) != "" {
		var err error
		pairs, err = widget.PairWeights(names, strings.Split(rawWeights, ","))
		if err != nil {
			return nil, err
		}
	} else {
		metrics := make([]domain.Metric, len(names))
		for i, n := range names {
			metrics[i] = domain.Metric(n)
		}
		for i, w := range sentiment.EqualWeights(metrics) {
			pairs = append(pairs, domain.MetricWeight{Metric: names[i], Weight: w})
		}
	}

	out := make([]service.WeightedMetric, 0, len(pairs))
	for _, p := range pairs {
		m, ok := domain.ParseMetric(p.Metric)
		if !ok {
			return nil, errors.New("unsupported metric: " + p.Metric)
		}
		out = append(out, service.WeightedMetric{Metric: m, Weight: p.Weight})
	}
	return out, nil
}

func seriesObject(s domain.Series) map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, p := range s {
		out[p.Date] = p.Value
	}
	return out
}

func (h *Handler) historyError(c *gin.Context, err error) {
	if service.IsInputError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

// GetSentiment godoc
// @Summary      Historical composite sentiment
// @Description  Returns the weighted daily Finndex score for a coin as a date to score object
// @Tags         history
// @Produce      json
// @Param        coin        path   string  true   "Coin, either BTC or coin=BTC"
// @Param        start_date  query  string  true   "First day (YYYY-MM-DD)"
// @Param        end_date    query  string  true   "Last day (YYYY-MM-DD)"
// @Param        metrics     query  string  true   "Comma-separated metric ids (fear_and_greed, block_count, ...)"
// @Param        weights     query  string  false  "Comma-separated weights, one per metric"
// @Success      200  {object}  map[string]float64
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/sentiment/{coin} [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	coin := coinParam(c)
	span.SetAttributes(attribute.String("coin", coin))

	start, end, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	weights, err := parseWeights(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.history.GetSentiment(ctx, coin, start, end, weights)
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, seriesObject(series))
}

// GetPrice godoc
// @Summary      Historical price
// @Description  Returns the daily USD close for a coin as a date to price object
// @Tags         history
// @Produce      json
// @Param        coin        path   string  true  "Coin, either BTC or coin=BTC"
// @Param        start_date  query  string  true  "First day (YYYY-MM-DD)"
// @Param        end_date    query  string  true  "Last day (YYYY-MM-DD)"
// @Success      200  {object}  map[string]float64
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/price/{coin} [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	coin := coinParam(c)
	span.SetAttributes(attribute.String("coin", coin))

	start, end, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.history.GetPrice(ctx, coin, start, end)
	if err != nil {
		h.historyError(c, err)
		return
	}
	c.JSON(http.StatusOK, seriesObject(series))
}
