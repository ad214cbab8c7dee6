package widget

import "finndex/internal/domain"

// Line styles a trace.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Trace is one plotted series, shaped like a Plotly scatter trace.
type Trace struct {
	Name  string    `json:"name"`
	X     []string  `json:"x"`
	Y     []float64 `json:"y"`
	Mode  string    `json:"mode"`
	Type  string    `json:"type"`
	YAxis string    `json:"yaxis,omitempty"`
	Line  *Line     `json:"line,omitempty"`
}

// Len is the number of points in the trace.
func (t Trace) Len() int { return len(t.X) }

type Axis struct {
	Title      string `json:"title,omitempty"`
	ShowGrid   bool   `json:"showgrid"`
	ZeroLine   bool   `json:"zeroline"`
	ShowLine   bool   `json:"showline"`
	Overlaying string `json:"overlaying,omitempty"`
	Side       string `json:"side,omitempty"`
}

type Layout struct {
	Title  string `json:"title"`
	XAxis  Axis   `json:"xaxis"`
	YAxis  Axis   `json:"yaxis"`
	YAxis2 *Axis  `json:"yaxis2,omitempty"`
}

// Figure is everything a renderer needs for one plot.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

const (
	sentimentColor = "#d62728"
	priceColor     = "#1f77b4"
)

// GraphState holds the traces and layout of one widget session. Trace slices
// are replaced on update, never mutated in place, so copies share safely.
type GraphState struct {
	Sentiment Trace
	Price     Trace
	Layout    Layout
}

// NewGraphState returns the empty traces and layout for a variant.
func NewGraphState(variant Variant) GraphState {
	g := GraphState{
		Sentiment: Trace{
			Name: "Finndex Score",
			X:    []string{},
			Y:    []float64{},
			Mode: "lines",
			Type: "scatter",
			Line: &Line{Color: sentimentColor},
		},
		Layout: Layout{
			Title: "Historical Finndex Score",
			XAxis: Axis{Title: "Date"},
			YAxis: Axis{Title: "Finndex Score", ShowGrid: true},
		},
	}
	if variant == DualSeries {
		g.Price = Trace{
			Name:  "Price (USD)",
			X:     []string{},
			Y:     []float64{},
			Mode:  "lines",
			Type:  "scatter",
			YAxis: "y2",
			Line:  &Line{Color: priceColor},
		}
		g.Layout.Title = "Finndex Score vs. Price"
		g.Layout.YAxis2 = &Axis{Title: "Price (USD)", Overlaying: "y", Side: "right"}
	}
	return g
}

func (g *GraphState) setSentiment(s domain.Series) {
	g.Sentiment.X = s.X()
	g.Sentiment.Y = s.Y()
}

func (g *GraphState) setPrice(coin string, s domain.Series) {
	g.Price.X = s.X()
	g.Price.Y = s.Y()
	if coin != "" {
		g.Price.Name = coin + " Price (USD)"
	}
}

// Figure assembles the plot for a variant.
func (g GraphState) Figure(variant Variant) Figure {
	if variant == DualSeries {
		return Figure{Data: []Trace{g.Sentiment, g.Price}, Layout: g.Layout}
	}
	return Figure{Data: []Trace{g.Sentiment}, Layout: g.Layout}
}
