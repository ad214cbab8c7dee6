// Package render draws widget figures as text charts for terminal sessions.
package render

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"finndex/internal/widget"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	minWidth  = 30
	minHeight = 6
	axisWidth = 10
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	defaultLine = lipgloss.Color("15")
)

// Terminal is a widget.Renderer that keeps the last figure as a text chart.
type Terminal struct {
	mu     sync.Mutex
	width  int
	height int
	fig    *widget.Figure
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{width: width, height: height}
}

// Render stores fig; View draws it at the current size.
func (t *Terminal) Render(ctx context.Context, fig widget.Figure) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fig = &fig
	return nil
}

func (t *Terminal) SetSize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.width, t.height = width, height
}

func (t *Terminal) View() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fig == nil {
		return emptyStyle.Render("no data yet, press enter to load")
	}
	return Chart(*t.fig, t.width, t.height)
}

type cell struct {
	r     rune
	color lipgloss.Color
}

// Chart plots every trace of fig on a width x height grid. Traces on "y2"
// are scaled to their own range and labelled on the right.
func Chart(fig widget.Figure, width, height int) string {
	if width < minWidth {
		width = minWidth
	}
	if height < minHeight {
		height = minHeight
	}

	var left, right []widget.Trace
	for _, tr := range fig.Data {
		if tr.YAxis == "y2" {
			right = append(right, tr)
		} else {
			left = append(left, tr)
		}
	}

	plotW := width - axisWidth
	if len(right) > 0 {
		plotW -= axisWidth
	}
	plotH := height - 3 // title, x labels, legend

	grid := make([][]cell, plotH)
	for i := range grid {
		grid[i] = make([]cell, plotW)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}

	lLo, lHi, lOK := bounds(left)
	rLo, rHi, rOK := bounds(right)
	for _, tr := range left {
		plot(grid, tr, lLo, lHi)
	}
	for _, tr := range right {
		plot(grid, tr, rLo, rHi)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fig.Layout.Title))
	b.WriteByte('\n')

	for row := 0; row < plotH; row++ {
		b.WriteString(axisStyle.Render(axisLabel(row, plotH, lLo, lHi, lOK, true)))
		for _, c := range grid[row] {
			if c.r == ' ' {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(c.color).Render(string(c.r)))
		}
		if len(right) > 0 {
			b.WriteString(axisStyle.Render(axisLabel(row, plotH, rLo, rHi, rOK, false)))
		}
		b.WriteByte('\n')
	}

	b.WriteString(strings.Repeat(" ", axisWidth))
	b.WriteString(axisStyle.Render(xLabels(fig.Data, plotW)))
	b.WriteByte('\n')
	b.WriteString(legend(fig.Data))
	return b.String()
}

func bounds(traces []widget.Trace) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, tr := range traces {
		for _, v := range tr.Y {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	if ok && hi == lo {
		hi = lo + 1
	}
	return lo, hi, ok
}

func plot(grid [][]cell, tr widget.Trace, lo, hi float64) {
	n := len(tr.Y)
	if n == 0 {
		return
	}
	rows, cols := len(grid), len(grid[0])
	color := defaultLine
	if tr.Line != nil && tr.Line.Color != "" {
		color = lipgloss.Color(tr.Line.Color)
	}

	for i, v := range tr.Y {
		col := 0
		if n > 1 {
			col = i * (cols - 1) / (n - 1)
		}
		row := rows - 1 - int(math.Round((v-lo)/(hi-lo)*float64(rows-1)))
		if row < 0 {
			row = 0
		}
		if row >= rows {
			row = rows - 1
		}
		grid[row][col] = cell{r: '•', color: color}
	}
}

func axisLabel(row, rows int, lo, hi float64, ok, leftSide bool) string {
	label := ""
	if ok {
		switch row {
		case 0:
			label = formatValue(hi)
		case rows - 1:
			label = formatValue(lo)
		case rows / 2:
			label = formatValue((lo + hi) / 2)
		}
	}
	if leftSide {
		return fmt.Sprintf("%*s │", axisWidth-2, label)
	}
	return fmt.Sprintf("│ %-*s", axisWidth-2, label)
}

func formatValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%.1fk", v/1e3)
	case abs >= 100:
		return humanize.Comma(int64(math.Round(v)))
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func xLabels(traces []widget.Trace, width int) string {
	var first, last string
	for _, tr := range traces {
		if len(tr.X) == 0 {
			continue
		}
		if first == "" || tr.X[0] < first {
			first = tr.X[0]
		}
		if tr.X[len(tr.X)-1] > last {
			last = tr.X[len(tr.X)-1]
		}
	}
	if first == "" {
		return ""
	}
	gap := width - len(first) - len(last)
	if gap < 1 {
		return first
	}
	return first + strings.Repeat(" ", gap) + last
}

func legend(traces []widget.Trace) string {
	parts := make([]string, 0, len(traces))
	for _, tr := range traces {
		color := defaultLine
		if tr.Line != nil && tr.Line.Color != "" {
			color = lipgloss.Color(tr.Line.Color)
		}
		name := tr.Name
		if tr.Len() == 0 {
			name += " (no data)"
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(color).Render("• "+name))
	}
	return strings.Join(parts, "   ")
}
