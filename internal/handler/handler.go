package handler

import (
	"context"
	"time"

	"finndex/internal/domain"
	"finndex/internal/metrics"
	"finndex/internal/service"
	"finndex/internal/widget"
	"finndex/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// HistoryReader serves the history API.
type HistoryReader interface {
	GetSentiment(ctx context.Context, coin string, start, end time.Time, weights []service.WeightedMetric) (domain.Series, error)
	GetPrice(ctx context.Context, coin string, start, end time.Time) (domain.Series, error)
}

// WidgetOptions configures the browser widget and /api/graph.
type WidgetOptions struct {
	// APIBaseURL is where the widget's updater sends sentiment and price requests.
	APIBaseURL      string
	StartOffsetDays int
	WindowDays      int
}

type Handler struct {
	tracer  trace.Tracer
	log     *logger.Logger
	history HistoryReader
	fetcher widget.Fetcher
	opts    WidgetOptions
	now     func() time.Time
}

func New(tracer trace.Tracer, history HistoryReader, fetcher widget.Fetcher, opts WidgetOptions) *Handler {
	return &Handler{
		tracer:  tracer,
		log:     logger.Get().With("component", "handler"),
		history: history,
		fetcher: fetcher,
		opts:    opts,
		now:     time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(widgetTemplate)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/api/sentiment/:coin", h.GetSentiment)
	r.GET("/api/price/:coin", h.GetPrice)
	r.GET("/api/graph", h.GetGraph)
	r.GET("/widgets/", h.Widget)
}
