package handler

import (
	"embed"
	"html/template"
	"net/http"

	"finndex/internal/domain"
	"finndex/internal/widget"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

var widgetTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type metricField struct {
	ID      string
	Label   string
	Default string
}

type widgetPage struct {
	Title        string
	Variant      string
	Coins        []string
	Metrics      []metricField
	StartOptions []string
	EndOptions   []string
	DefaultStart string
	DefaultEnd   string
}

// Widget godoc
// @Summary      Dashboard widget
// @Description  HTML page with the coin, date range and weight form and a Plotly chart fed by /api/graph
// @Tags         widget
// @Produce      html
// @Param        variant  query  string  false  "single or dual"  default(single)
// @Success      200  {string}  string
// @Router       /widgets/ [get]
func (h *Handler) Widget(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.widget")
	defer span.End()

	variant := widget.ParseVariant(c.DefaultQuery("variant", "single"))
	today := h.now()

	page := widgetPage{
		Title:        "Historical Finndex Score",
		Variant:      variant.String(),
		Coins:        domain.SupportedSymbols,
		StartOptions: widget.BuildDateOptions(today, h.opts.StartOffsetDays, h.opts.WindowDays),
		EndOptions:   widget.BuildDateOptions(today, 0, h.opts.WindowDays),
	}
	if variant == widget.DualSeries {
		page.Title = "Finndex Score vs. Price"
	}
	// Fear & greed starts at 1 so the first load has a metric to plot.
	for _, m := range domain.AllMetrics {
		field := metricField{ID: string(m), Label: m.Label(), Default: "0"}
		if m == domain.MetricFearAndGreed {
			field.Default = "1"
		}
		page.Metrics = append(page.Metrics, field)
	}
	if n := len(page.StartOptions); n > 0 {
		page.DefaultStart = page.StartOptions[n-1]
	}
	if n := len(page.EndOptions); n > 0 {
		page.DefaultEnd = page.EndOptions[n-1]
	}

	c.HTML(http.StatusOK, "widget.html", page)
}
