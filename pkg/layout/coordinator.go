package layout

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/naei/bubblechart/pkg/debug"
	"github.com/naei/bubblechart/pkg/message"
	"github.com/naei/bubblechart/pkg/reactive"
)

// EventKind labels a coordinator event.
type EventKind string

const (
	EventEstimate EventKind = "estimate"
	EventSkip     EventKind = "skip"
	EventSuppress EventKind = "suppress"
	EventIgnore   EventKind = "ignore"
	EventNotify   EventKind = "notify"
)

// Event is emitted for every decision the coordinator makes. The inspector
// and tests subscribe through OnEvent.
type Event struct {
	Kind     EventKind
	Context  string
	At       time.Time
	Estimate Estimate
	Until    time.Time
	Height   int
	Force    bool
	Outcome  message.Outcome
}

// Estimate is the result of one wrapper-height pass.
type Estimate struct {
	Context               string
	Metrics               ViewportMetrics
	FooterReserve         float64
	BaseChrome            float64
	AnticipatedComparison float64
	PendingComparison     bool
	ChartHeight           float64
}

// TotalChrome is the chrome the chart shares the viewport with.
func (e Estimate) TotalChrome() float64 { return e.BaseChrome + e.AnticipatedComparison }

// Options configure a Coordinator.
type Options struct {
	Settings Settings
	Embedded bool
	Clock    Clock
	Logger   *log.Logger
	// OverlayActive reports an open tutorial overlay for height measurement.
	OverlayActive func() bool
}

// Coordinator owns the layout state shared across event handlers: cached
// estimate, pending comparison chrome, comparison visibility and the
// suppression window.
type Coordinator struct {
	settings Settings
	clock    Clock
	logger   *log.Logger

	Metrics     *MetricsProvider
	Chrome      *ChromeMeasurer
	Suppression *SuppressionWindow
	Estimator   *HeightEstimator
	Notifier    *ParentHeightNotifier

	visible *reactive.Value[bool]

	mu                sync.Mutex
	lastEstimate      float64
	pendingComparison bool
	listeners         []func(Event)
}

// NewCoordinator wires the layout components over doc and poster.
func NewCoordinator(doc Document, poster message.Poster, opts Options) *Coordinator {
	settings := opts.Settings.WithDefaults()
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	logger := opts.Logger
	if logger == nil {
		logger = debug.Discard()
	}

	c := &Coordinator{
		settings:    settings,
		clock:       clock,
		logger:      logger,
		Metrics:     NewMetricsProvider(doc, settings, opts.Embedded),
		Chrome:      NewChromeMeasurer(doc, settings),
		Suppression: NewSuppressionWindow(clock, settings.SuppressWindow),
		Estimator:   NewHeightEstimator(settings),
		visible:     reactive.NewValue(false),
	}
	c.Notifier = NewParentHeightNotifier(doc, poster, settings, opts.Embedded, c.LastEstimate, opts.OverlayActive)
	c.Notifier.SetLogger(logger)
	return c
}

// Settings returns the effective settings.
func (c *Coordinator) Settings() Settings { return c.settings }

// OnEvent registers fn for coordinator events.
func (c *Coordinator) OnEvent(fn func(Event)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// UpdateWrapperHeight resolves metrics, measures chrome and recomputes the
// chart height. It returns false and keeps the previous estimate when the
// viewport is unavailable.
func (c *Coordinator) UpdateWrapperHeight(context string) (Estimate, bool) {
	metrics := c.Metrics.Resolve()
	if !metrics.Valid() {
		c.emit(Event{Kind: EventSkip, Context: context})
		return Estimate{}, false
	}

	reserve := c.Metrics.FooterReserve(metrics)
	height, err := c.Estimator.Estimate(metrics.ViewportHeight, reserve)
	if err != nil {
		c.emit(Event{Kind: EventSkip, Context: context})
		return Estimate{}, false
	}

	chrome := c.Chrome.MeasureVisible()
	pending := c.PendingComparison()
	anticipated := chrome.ComparisonHeight
	if anticipated == 0 && pending {
		anticipated = c.Chrome.LastComparisonHeight()
	}

	est := Estimate{
		Context:               context,
		Metrics:               metrics,
		FooterReserve:         reserve,
		BaseChrome:            chrome.BaseHeight,
		AnticipatedComparison: anticipated,
		PendingComparison:     pending,
		ChartHeight:           height,
	}

	c.mu.Lock()
	c.lastEstimate = height
	c.mu.Unlock()

	c.logger.Debug("wrapper height",
		"context", context,
		"viewport", metrics.ViewportHeight,
		"footerReserve", reserve,
		"chrome", est.TotalChrome(),
		"estimate", height,
		"pending", pending)
	c.emit(Event{Kind: EventEstimate, Context: context, Estimate: est})
	return est, true
}

// LastEstimate returns the most recent chart height estimate, or 0.
func (c *Coordinator) LastEstimate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEstimate
}

// SetPendingComparison marks that a comparison visibility change has been
// initiated but not yet measured.
func (c *Coordinator) SetPendingComparison(v bool) {
	c.mu.Lock()
	c.pendingComparison = v
	c.mu.Unlock()
}

// PendingComparison reports the pending comparison chrome flag.
func (c *Coordinator) PendingComparison() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingComparison
}

// Visibility is the observable comparison block visibility.
func (c *Coordinator) Visibility() *reactive.Value[bool] { return c.visible }

// Suppress opens the default suppression window.
func (c *Coordinator) Suppress(context string) {
	until := c.Suppression.SuppressDefault()
	c.logger.Debug("suppress wrapper observer", "context", context, "remaining", c.Suppression.Remaining())
	c.emit(Event{Kind: EventSuppress, Context: context, Until: until})
}

// IgnoreObserverTick reports whether a wrapper resize tick must be dropped.
func (c *Coordinator) IgnoreObserverTick() bool {
	if !c.Suppression.ShouldIgnore() {
		return false
	}
	c.logger.Debug("wrapper observer tick ignored", "remaining", c.Suppression.Remaining(), "pending", c.PendingComparison())
	c.emit(Event{Kind: EventIgnore, Context: "wrapper-observer"})
	return true
}

// Notify measures and reports the content height to the parent.
func (c *Coordinator) Notify(context string, force bool) (message.Outcome, bool) {
	out, sent := c.Notifier.Notify(force)
	if sent {
		c.emit(Event{Kind: EventNotify, Context: context, Height: c.Notifier.LastAttempt(), Force: force, Outcome: out})
	}
	return out, sent
}

// Invalidate forgets the last sent height.
func (c *Coordinator) Invalidate() { c.Notifier.Invalidate() }

func (c *Coordinator) emit(e Event) {
	e.At = c.clock.Now()
	c.mu.Lock()
	listeners := append([]func(Event){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}
