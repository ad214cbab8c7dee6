// Package tui is the terminal dashboard served over SSH: the widget form
// above a text chart of the latest figure.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finndex/internal/domain"
	"finndex/internal/render"
	"finndex/internal/widget"
	"finndex/pkg/logger"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/trace"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8")).Padding(0, 1)
	formRowWidth = 18
)

const (
	fieldCoin = iota
	fieldStart
	fieldEnd
	fieldWeights // first weight input; one per metric follows
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Tracer          trace.Tracer
	Log             *logger.Logger
	Fetcher         widget.Fetcher
	APIBaseURL      string
	StartOffsetDays int
	WindowDays      int
	Now             func() time.Time
}

type updateDoneMsg struct {
	updater *widget.Updater
	err     error
}

// Model is one dashboard session.
type Model struct {
	deps    Deps
	variant widget.Variant
	chart   *render.Terminal
	updater *widget.Updater

	coins      []string
	startDates []string
	endDates   []string
	coinIdx    int
	startIdx   int
	endIdx     int
	inputs     []textinput.Model
	metrics    []domain.Metric
	focus      int

	spinner   spinner.Model
	busy      bool
	status    string
	updatedAt time.Time
	width     int
	height    int
}

func NewModel(deps Deps, variant widget.Variant) *Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Get()
	}
	today := deps.Now()

	m := &Model{
		deps:       deps,
		variant:    variant,
		chart:      render.NewTerminal(80, 16),
		coins:      domain.SupportedSymbols,
		startDates: widget.BuildDateOptions(today, deps.StartOffsetDays, deps.WindowDays),
		endDates:   widget.BuildDateOptions(today, 0, deps.WindowDays),
		metrics:    domain.AllMetrics,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:      80,
		height:     24,
	}
	m.startIdx = len(m.startDates) - 1
	m.endIdx = len(m.endDates) - 1

	for _, metric := range m.metrics {
		in := textinput.New()
		in.Placeholder = "0"
		in.CharLimit = 8
		in.Width = 6
		in.Prompt = ""
		if metric == domain.MetricFearAndGreed {
			in.SetValue("1")
		}
		m.inputs = append(m.inputs, in)
	}
	m.updater = m.newUpdater()
	return m
}

func (m *Model) newUpdater() *widget.Updater {
	return widget.NewUpdater(
		m.deps.Tracer,
		m.deps.Log.With("variant", m.variant.String()),
		m.deps.Fetcher,
		widget.NewQueryEncoder(m.deps.APIBaseURL),
		m.chart,
		m.variant,
	)
}

// SetSize fits the chart to the terminal, leaving room for the form.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	chartHeight := height - len(m.metrics) - 8
	if chartHeight < 6 {
		chartHeight = 6
	}
	m.chart.SetSize(width, chartHeight)
}

// Selection reads the form. Weight fields left blank or zero are dropped.
func (m *Model) Selection() (widget.Selection, error) {
	names := make([]string, len(m.metrics))
	raw := make([]string, len(m.inputs))
	for i, metric := range m.metrics {
		names[i] = string(metric)
		raw[i] = m.inputs[i].Value()
	}
	weights, err := widget.PairWeights(names, raw)
	if err != nil {
		return widget.Selection{}, err
	}
	return widget.Selection{
		Coin:      m.coins[m.coinIdx],
		StartDate: m.startDates[m.startIdx],
		EndDate:   m.endDates[m.endIdx],
		Weights:   weights,
	}, nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runUpdate())
}

func (m *Model) runUpdate() tea.Cmd {
	sel, err := m.Selection()
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.busy = true
	m.status = ""
	u := m.updater
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return updateDoneMsg{updater: u, err: u.Update(ctx, sel)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case updateDoneMsg:
		// A variant toggle replaces the updater; its old cycles are stale too.
		if msg.updater != m.updater || errors.Is(msg.err, widget.ErrStaleUpdate) {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.updatedAt = m.deps.Now()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	onInput := m.focus >= fieldWeights

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !onInput {
			return m, tea.Quit
		}
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	case "enter":
		return m, m.runUpdate()
	case "p":
		if !onInput {
			m.toggleVariant()
			return m, m.runUpdate()
		}
	case "left", "h":
		if !onInput {
			m.step(-1)
			return m, nil
		}
	case "right", "l":
		if !onInput {
			m.step(1)
			return m, nil
		}
	}

	if onInput {
		i := m.focus - fieldWeights
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) moveFocus(delta int) {
	fields := fieldWeights + len(m.inputs)
	if m.focus >= fieldWeights {
		m.inputs[m.focus-fieldWeights].Blur()
	}
	m.focus = (m.focus + delta + fields) % fields
	if m.focus >= fieldWeights {
		m.inputs[m.focus-fieldWeights].Focus()
	}
}

func (m *Model) step(delta int) {
	clamp := func(i, n int) int {
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
	switch m.focus {
	case fieldCoin:
		m.coinIdx = (m.coinIdx + delta + len(m.coins)) % len(m.coins)
	case fieldStart:
		m.startIdx = clamp(m.startIdx+delta, len(m.startDates))
	case fieldEnd:
		m.endIdx = clamp(m.endIdx+delta, len(m.endDates))
	}
}

// toggleVariant switches between one and two series. The old updater is
// dropped so a cycle still in flight cannot draw on the new chart layout.
func (m *Model) toggleVariant() {
	if m.variant == widget.DualSeries {
		m.variant = widget.SingleSeries
	} else {
		m.variant = widget.DualSeries
	}
	m.chart = render.NewTerminal(m.width, m.height)
	m.SetSize(m.width, m.height)
	m.updater = m.newUpdater()
}

func (m *Model) View() string {
	var b strings.Builder

	title := "Historical Finndex Score"
	if m.variant == widget.DualSeries {
		title = "Finndex Score vs. Price"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("finndex · %s", title)))
	b.WriteString("\n\n")
	b.WriteString(m.chart.View())
	b.WriteString("\n\n")

	b.WriteString(m.field(fieldCoin, "Coin", m.coins[m.coinIdx]))
	b.WriteString(m.field(fieldStart, "Start", m.startDates[m.startIdx]))
	b.WriteString(m.field(fieldEnd, "End", m.endDates[m.endIdx]))
	b.WriteByte('\n')
	for i, metric := range m.metrics {
		b.WriteString(m.field(fieldWeights+i, metric.Label(), m.inputs[i].View()))
		if (i+1)%3 == 0 {
			b.WriteByte('\n')
		}
	}
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " loading " + m.updater.State().String())
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	case !m.updatedAt.IsZero():
		b.WriteString(labelStyle.Render("updated " + humanize.RelTime(m.updatedAt, m.deps.Now(), "ago", "from now")))
	}
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render("tab: field  ←/→: change  enter: update  p: price overlay  q: quit"))
	return b.String()
}

func (m *Model) field(idx int, label, value string) string {
	style := labelStyle
	if m.focus == idx {
		style = focusStyle
	}
	return style.Width(formRowWidth).Render(label+":") + valueStyle.Render(value) + "  "
}
