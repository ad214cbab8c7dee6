package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"finndex/internal/domain"
	"finndex/internal/widget"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetGraph godoc
// @Summary      Widget figure
// @Description  Runs one widget update (sentiment, then price for the dual variant) and returns the Plotly figure
// @Tags         widget
// @Produce      json
// @Param        coin        query  string  true   "Coin symbol"
// @Param        start_date  query  string  true   "First day (YYYY-MM-DD)"
// @Param        end_date    query  string  true   "Last day (YYYY-MM-DD)"
// @Param        variant     query  string  false  "single or dual"  default(single)
// @Param        fear_and_greed  query  number  false  "Weight for a metric; every metric id is accepted the same way"
// @Success      200  {object}  widget.Figure
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}
// @Router       /api/graph [get]
func (h *Handler) GetGraph(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-graph")
	defer span.End()

	sel := widget.Selection{
		Coin:      strings.ToUpper(strings.TrimSpace(c.Query("coin"))),
		StartDate: strings.TrimSpace(c.Query("start_date")),
		EndDate:   strings.TrimSpace(c.Query("end_date")),
	}
	if sel.Coin == "" || sel.StartDate == "" || sel.EndDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coin, start_date and end_date are required"})
		return
	}
	variant := widget.ParseVariant(c.DefaultQuery("variant", "single"))
	span.SetAttributes(
		attribute.String("coin", sel.Coin),
		attribute.String("variant", variant.String()),
	)

	var names, raw []string
	for _, m := range domain.AllMetrics {
		if v, ok := c.GetQuery(string(m)); ok {
			names = append(names, string(m))
			raw = append(raw, v)
		}
	}
	weights, err := widget.PairWeights(names, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sel.Weights = weights

	var fig widget.Figure
	capture := widget.RendererFunc(func(_ context.Context, f widget.Figure) error {
		fig = f
		return nil
	})
	u := widget.NewUpdater(h.tracer, h.log, h.fetcher, widget.NewQueryEncoder(h.opts.APIBaseURL), capture, variant)

	if err := u.Update(ctx, sel); err != nil {
		status := 0
		var statusErr *widget.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  err.Error(),
			"status": status,
			"state":  u.State().String(),
		})
		return
	}

	c.JSON(http.StatusOK, fig)
}
