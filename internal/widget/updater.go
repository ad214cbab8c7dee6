package widget

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"finndex/internal/domain"
	"finndex/internal/metrics"
	"finndex/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stage names the request an update cycle is waiting on.
type Stage string

const (
	StageSentiment Stage = "sentiment"
	StagePrice     Stage = "price"
)

// Variant selects the single-series or sentiment+price widget.
type Variant int

const (
	SingleSeries Variant = iota
	DualSeries
)

func (v Variant) String() string {
	if v == DualSeries {
		return "dual"
	}
	return "single"
}

// ParseVariant maps "dual" to DualSeries and anything else to SingleSeries.
func ParseVariant(s string) Variant {
	if s == "dual" {
		return DualSeries
	}
	return SingleSeries
}

// State is the position of the current update cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingSentiment
	StateAwaitingPrice
	StateFailed
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSentiment:
		return "awaiting_sentiment"
	case StateAwaitingPrice:
		return "awaiting_price"
	case StateFailed:
		return "failed"
	case StateRendered:
		return "rendered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrStaleUpdate is returned by an update cycle that was overtaken by a newer one.
var ErrStaleUpdate = errors.New("update superseded by a newer request")

// StatusError is a failed request: a non-200 status, or a transport error
// reported with StatusCode 0.
type StatusError struct {
	Stage      Stage
	StatusCode int
	StatusText string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: Error %d: %s", e.Stage, e.StatusCode, e.StatusText)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Renderer receives the finished figure. It is called with the updater's
// lock held and must not call back into the Updater.
type Renderer interface {
	Render(ctx context.Context, fig Figure) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, fig Figure) error

func (f RendererFunc) Render(ctx context.Context, fig Figure) error { return f(ctx, fig) }

// Selection is what the form currently holds.
type Selection struct {
	Coin      string
	StartDate string
	EndDate   string
	Weights   []domain.MetricWeight
}

// Updater runs the sentiment-then-price pipeline and owns the GraphState.
type Updater struct {
	tracer   trace.Tracer
	log      *logger.Logger
	fetcher  Fetcher
	encoder  QueryEncoder
	renderer Renderer
	variant  Variant

	mu         sync.Mutex
	generation uint64
	state      State
	graph      GraphState
}

func NewUpdater(
	tracer trace.Tracer,
	log *logger.Logger,
	fetcher Fetcher,
	encoder QueryEncoder,
	renderer Renderer,
	variant Variant,
) *Updater {
	return &Updater{
		tracer:   tracer,
		log:      log,
		fetcher:  fetcher,
		encoder:  encoder,
		renderer: renderer,
		variant:  variant,
		state:    StateIdle,
		graph:    NewGraphState(variant),
	}
}

func (u *Updater) Variant() Variant { return u.variant }

// State reports where the latest update cycle is.
func (u *Updater) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Snapshot returns a copy of the graph state.
func (u *Updater) Snapshot() GraphState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.graph
}

// Update runs one cycle for sel. The price request is only issued after the
// sentiment request succeeds. If a newer Update starts before this one
// finishes, this one stops at its next step and returns ErrStaleUpdate
// without touching the graph.
func (u *Updater) Update(ctx context.Context, sel Selection) error {
	ctx, span := u.tracer.Start(ctx, "widget.update")
	defer span.End()
	span.SetAttributes(
		attribute.String("coin", sel.Coin),
		attribute.String("variant", u.variant.String()),
	)

	gen := u.begin()
	log := u.log.With("generation", gen, "coin", sel.Coin, "variant", u.variant.String())

	resp, err := u.fetcher.Fetch(ctx, StageSentiment, u.encoder.SentimentURL(sel.Coin, sel.StartDate, sel.EndDate, sel.Weights))
	if err := classify(StageSentiment, resp, err); err != nil {
		return u.fail(gen, log, err)
	}
	sentiment, err := ParseSeries(StageSentiment, resp.Body)
	if err != nil {
		return u.fail(gen, log, err)
	}

	if !u.commit(gen, func(g *GraphState) { g.setSentiment(sentiment) }) {
		return u.stale(log)
	}
	log.Debugw("sentiment trace updated", "points", len(sentiment))

	if u.variant == SingleSeries {
		return u.render(ctx, gen, log)
	}
	if !u.advance(gen, StateAwaitingPrice) {
		return u.stale(log)
	}

	resp, err = u.fetcher.Fetch(ctx, StagePrice, u.encoder.PriceURL(sel.Coin, sel.StartDate, sel.EndDate))
	if err := classify(StagePrice, resp, err); err != nil {
		return u.fail(gen, log, err)
	}
	price, err := ParseSeries(StagePrice, resp.Body)
	if err != nil {
		return u.fail(gen, log, err)
	}
	if !u.commit(gen, func(g *GraphState) { g.setPrice(sel.Coin, price) }) {
		return u.stale(log)
	}
	log.Debugw("price trace updated", "points", len(price))

	return u.render(ctx, gen, log)
}

func (u *Updater) begin() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.generation++
	u.state = StateAwaitingSentiment
	return u.generation
}

// commit applies fn to the graph only if gen is still the latest cycle.
func (u *Updater) commit(gen uint64, fn func(*GraphState)) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.generation {
		return false
	}
	fn(&u.graph)
	return true
}

func (u *Updater) advance(gen uint64, next State) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.generation {
		return false
	}
	u.state = next
	return true
}

func (u *Updater) render(ctx context.Context, gen uint64, log *logger.Logger) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.generation {
		return u.stale(log)
	}
	fig := u.graph.Figure(u.variant)
	if err := u.renderer.Render(ctx, fig); err != nil {
		u.state = StateFailed
		metrics.WidgetUpdates.WithLabelValues(u.variant.String(), "failed").Inc()
		log.Errorw("render failed", "error", err)
		return fmt.Errorf("render: %w", err)
	}
	u.state = StateRendered
	metrics.WidgetUpdates.WithLabelValues(u.variant.String(), "rendered").Inc()
	return nil
}

func (u *Updater) fail(gen uint64, log *logger.Logger, err error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.generation {
		return u.stale(log)
	}
	u.state = StateFailed
	metrics.WidgetUpdates.WithLabelValues(u.variant.String(), "failed").Inc()

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		log.Errorf("Error %d: %s (%s)", statusErr.StatusCode, statusErr.StatusText, statusErr.Stage)
	} else {
		log.Errorw("update failed", "error", err)
	}
	return err
}

func (u *Updater) stale(log *logger.Logger) error {
	metrics.WidgetUpdates.WithLabelValues(u.variant.String(), "stale").Inc()
	log.Debug("discarding stale completion")
	return ErrStaleUpdate
}

func classify(stage Stage, resp *Response, err error) error {
	if err != nil {
		return &StatusError{Stage: stage, StatusCode: 0, StatusText: err.Error(), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Stage: stage, StatusCode: resp.StatusCode, StatusText: resp.StatusText()}
	}
	return nil
}
