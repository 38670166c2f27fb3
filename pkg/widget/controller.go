// Package widget drives the embedded bubble chart: it runs the draw
// pipeline, answers the host page's messages and keeps the reported
// content height in step with the widget's own layout changes.
package widget

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/naei/bubblechart/pkg/comparison"
	"github.com/naei/bubblechart/pkg/debug"
	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/message"
	"github.com/naei/bubblechart/pkg/scheduler"
)

// Source labels messages the widget sends to the host.
const Source = "bubble"

// Config wires a Controller to its environment.
type Config struct {
	Document layout.Document
	Poster   message.Poster
	Frames   scheduler.FrameSource
	Timers   scheduler.TimerSource
	Clock    layout.Clock

	Renderer Renderer
	Data     DataSource
	Colors   Colors
	View     ComparisonView
	Location Location

	Settings  layout.Settings
	Timing    Timing
	Embedded  bool
	Logger    *log.Logger
	Formatter *comparison.Formatter

	// NewRequestID generates tutorial scroll request ids.
	NewRequestID func() string
}

// Controller owns the widget's state. Event handlers from the page and
// scheduled work call into it.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	layout   *layout.Coordinator
	sched    *scheduler.Scheduler
	engine   *comparison.Engine
	format   *comparison.Formatter
	poster   message.Poster
	renderer Renderer
	data     DataSource
	colors   Colors
	view     ComparisonView
	location Location
	timing   Timing
	embedded bool
	logger   *log.Logger
	newID    func() string

	drawMu sync.Mutex

	mu            sync.Mutex
	selection     Selection
	unlocked      bool
	pendingDraw   *bool
	readyNotified bool
	lastWidth     float64
	lastHeight    float64
	tutorial      Tutorial
	pendingOpen   string
	scroll        *scrollRequest
}

// New validates cfg and builds a controller.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	switch {
	case cfg.Document == nil:
		return nil, errors.New("widget: document is required")
	case cfg.Renderer == nil:
		return nil, errors.New("widget: renderer is required")
	case cfg.Data == nil:
		return nil, errors.New("widget: data source is required")
	}
	if cfg.Poster == nil {
		cfg.Poster = message.PosterFunc(func(message.Message) message.Outcome {
			return message.BlockedOutcome(errors.New("no parent window"))
		})
	}
	if cfg.Colors == nil {
		cfg.Colors = noColors{}
	}
	if cfg.View == nil {
		cfg.View = noView{}
	}
	if cfg.Logger == nil {
		cfg.Logger = debug.Discard()
	}
	if cfg.Formatter == nil {
		cfg.Formatter = comparison.DefaultFormatter()
	}
	if cfg.NewRequestID == nil {
		cfg.NewRequestID = func() string { return "bubbleTutorial-" + uuid.NewString() }
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		ctx:      ctx,
		cancel:   cancel,
		sched:    scheduler.NewScheduler(cfg.Frames, cfg.Timers, debug.Component(cfg.Logger, "scheduler")),
		engine:   comparison.NewEngine(comparison.NewCachedAssessor(cfg.Data), debug.Component(cfg.Logger, "comparison")),
		format:   cfg.Formatter,
		poster:   cfg.Poster,
		renderer: cfg.Renderer,
		data:     cfg.Data,
		colors:   cfg.Colors,
		view:     cfg.View,
		location: cfg.Location,
		timing:   cfg.Timing.WithDefaults(),
		embedded: cfg.Embedded,
		logger:   debug.Component(cfg.Logger, "widget"),
		newID:    cfg.NewRequestID,
	}
	c.layout = layout.NewCoordinator(cfg.Document, cfg.Poster, layout.Options{
		Settings:      cfg.Settings,
		Embedded:      cfg.Embedded,
		Clock:         cfg.Clock,
		Logger:        debug.Component(cfg.Logger, "layout"),
		OverlayActive: c.tutorialActive,
	})
	c.layout.Visibility().Watch(func(_, visible bool) {
		reason := "comparison-hide"
		if visible {
			reason = "comparison-show"
		}
		c.comparisonLayoutChanged(reason)
	})
	return c, nil
}

// Layout exposes the layout coordinator.
func (c *Controller) Layout() *layout.Coordinator { return c.layout }

// Scheduler exposes the coalescing scheduler.
func (c *Controller) Scheduler() *scheduler.Scheduler { return c.sched }

// Close cancels pending work.
func (c *Controller) Close() {
	c.cancel()
	c.sched.Stop()
}

// Selection returns the current selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// SetSelection replaces the selection and redraws.
func (c *Controller) SetSelection(sel Selection) error {
	c.mu.Lock()
	c.selection = sel
	c.mu.Unlock()
	return c.Draw(c.ctx, false)
}

// SetComparison toggles the comparison checkbox of a category and queues a
// redraw that leaves height reporting to the chrome refresh.
func (c *Controller) SetComparison(categoryID int, on bool) {
	c.mu.Lock()
	cats := append([]SelectedCategory(nil), c.selection.Categories...)
	for i := range cats {
		if cats[i].ID == categoryID {
			cats[i].Compare = on
		}
	}
	c.selection.Categories = cats
	c.mu.Unlock()
	c.ScheduleRedraw("comparison-toggle")
}

// ScheduleRedraw coalesces redraw requests into one draw on the next frame.
func (c *Controller) ScheduleRedraw(reason string) {
	c.sched.Schedule(scheduler.QueueRedraw, reason, func() {
		if err := c.Draw(c.ctx, true); err != nil {
			c.logger.Warn("scheduled redraw failed", "reason", reason, "err", err)
		}
	})
}

// ScheduleChromeRefresh coalesces chrome-only refreshes: re-estimate the
// chart height, clear the pending comparison flag and send a forced height
// shortly after.
func (c *Controller) ScheduleChromeRefresh(reason string) {
	c.sched.Schedule(scheduler.QueueChromeRefresh, reason, func() {
		c.layout.UpdateWrapperHeight(reason)
		c.layout.SetPendingComparison(false)
		c.notifyAfter(scheduler.QueueHeightNotify, c.timing.ChromeNotifyDelay, reason, true)
	})
}

// Unlock enables rendering once the content is revealed, runs any draw
// requested before that and announces readiness.
func (c *Controller) Unlock(ctx context.Context) error {
	c.mu.Lock()
	c.unlocked = true
	skip := false
	if c.pendingDraw != nil {
		skip = *c.pendingDraw
	}
	c.pendingDraw = nil
	c.mu.Unlock()

	if err := c.Draw(ctx, skip); err != nil {
		c.logger.Error("initial draw failed", "err", err)
	}
	c.layout.UpdateWrapperHeight("reveal")
	c.layout.UpdateWrapperHeight("post-load")
	return c.NotifyReady(ctx)
}

// Draw runs the draw pipeline. skipHeight suppresses the delayed height
// notification, for draws triggered by resizes.
func (c *Controller) Draw(ctx context.Context, skipHeight bool) error {
	c.mu.Lock()
	if !c.unlocked {
		c.pendingDraw = &skipHeight
		c.mu.Unlock()
		return nil
	}
	sel := c.selection
	c.mu.Unlock()

	c.drawMu.Lock()
	defer c.drawMu.Unlock()

	c.renderer.ClearMessage()
	c.colors.Reset()
	for _, cat := range sel.Categories {
		c.colors.ColorFor(cat.Name)
	}

	switch {
	case sel.Year == 0:
		c.renderer.ShowMessage("Please select a year", LevelWarning)
		return nil
	case sel.PollutantID == 0:
		c.renderer.ShowMessage("Please select a pollutant", LevelWarning)
		return nil
	case len(sel.Categories) == 0:
		c.renderer.ShowMessage("Please select at least one category", LevelWarning)
		return nil
	}

	sel = c.resolve(sel)
	ids := sel.IDs()
	if len(ids) == 0 {
		c.renderer.ShowMessage("Selected categories not found", LevelWarning)
		return nil
	}

	if err := c.syncComparison(ctx, sel); err != nil {
		return err
	}

	label := "drawChart"
	if skipHeight {
		label = "drawChart-resume"
	}
	c.layout.UpdateWrapperHeight(label)
	c.layout.SetPendingComparison(false)

	if err := c.renderer.DrawChart(ctx, sel.Year, sel.PollutantID, ids); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("bubble chart render failed", "err", err)
		c.renderer.ShowMessage("Unable to render the chart right now. Please try again.", LevelError)
	}

	c.updateURL(sel)

	if !skipHeight {
		c.notifyAfter(scheduler.QueueDrawNotify, c.timing.DrawNotifyDelay, "draw", false)
	}
	return nil
}

// resolve fills in missing ids or names from the data source and drops
// categories that match neither.
func (c *Controller) resolve(sel Selection) Selection {
	known := c.data.Categories()
	byID := make(map[int]string, len(known))
	byName := make(map[string]int, len(known))
	for _, k := range known {
		byID[k.ID] = k.Name
		byName[k.Name] = k.ID
	}

	out := sel
	out.Categories = make([]SelectedCategory, 0, len(sel.Categories))
	for _, cat := range sel.Categories {
		if name, ok := byID[cat.ID]; ok {
			if cat.Name == "" {
				cat.Name = name
			}
			out.Categories = append(out.Categories, cat)
			continue
		}
		if id, ok := byName[cat.Name]; ok {
			cat.ID = id
			out.Categories = append(out.Categories, cat)
		}
	}
	return out
}

// NotifyReady waits for the renderer to settle, then sends chartReady once
// and the initial height shortly after. Later calls only re-send the height.
func (c *Controller) NotifyReady(ctx context.Context) error {
	c.mu.Lock()
	if c.readyNotified {
		c.mu.Unlock()
		c.notify("ready-repeat", false)
		return nil
	}
	c.mu.Unlock()

	if err := c.renderer.WaitForStability(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("bubble chart stability wait failed", "err", err)
	}

	c.mu.Lock()
	already := c.readyNotified
	c.readyNotified = true
	c.mu.Unlock()
	if already || !c.embedded {
		return nil
	}

	if out := c.poster.Post(message.ChartReady{Chart: message.ChartName}); !out.OK() {
		c.logger.Debug("chartReady not delivered", "err", out.Err)
		return nil
	}
	c.notifyAfter(scheduler.QueueDrawNotify, c.timing.ReadyNotifyDelay, "ready", false)
	return nil
}

// WindowResized handles the widget window's resize events.
func (c *Controller) WindowResized(width, height float64) {
	c.sched.After(scheduler.QueueResize, c.timing.ResizeDebounce, "window-resize", func() {
		c.layout.UpdateWrapperHeight("window-resize")

		threshold := c.layout.Settings().ResizeThreshold
		c.mu.Lock()
		small := math.Abs(width-c.lastWidth) < threshold && math.Abs(height-c.lastHeight) < threshold
		if !small {
			c.lastWidth, c.lastHeight = width, height
		}
		c.mu.Unlock()

		if small {
			if !c.sched.Pending(scheduler.QueueHeightPoke) {
				c.notifyAfter(scheduler.QueueHeightPoke, c.timing.HeightPokeDelay, "height-poke", true)
			}
			return
		}

		if err := c.Draw(c.ctx, true); err != nil {
			c.logger.Warn("resize redraw failed", "err", err)
		}
		c.sched.After(scheduler.QueueResizeCheck, c.timing.ResizeCheckDelay, "resize-check", func() {
			last := c.layout.Notifier.LastSent()
			doc := c.layout.Notifier.Measure().DocumentHeight
			if last != 0 && math.Abs(doc-float64(last)) >= float64(c.layout.Settings().MinHeightDelta) {
				c.notify("resize-check", true)
			}
		})
	})
}

// SetWindowSize records the initial window size without triggering work.
func (c *Controller) SetWindowSize(width, height float64) {
	c.mu.Lock()
	c.lastWidth, c.lastHeight = width, height
	c.mu.Unlock()
}

// WrapperResized handles a chart wrapper resize observation. Ticks inside
// a suppression window are ignored.
func (c *Controller) WrapperResized() {
	if c.layout.IgnoreObserverTick() {
		return
	}
	if err := c.Draw(c.ctx, true); err != nil {
		c.logger.Warn("wrapper redraw failed", "err", err)
	}
	c.notify("wrapper-observer", true)
}

func (c *Controller) notify(reason string, force bool) {
	out, sent := c.layout.Notify(reason, force)
	if sent && out.OK() {
		c.sched.Schedule(scheduler.QueuePostHeight, "post-height-send", func() {
			c.layout.UpdateWrapperHeight("post-height-send")
		})
	}
}

func (c *Controller) notifyAfter(q scheduler.Queue, d time.Duration, reason string, force bool) {
	c.sched.After(q, d, reason, func() { c.notify(reason, force) })
}

func (c *Controller) tutorialActive() bool {
	c.mu.Lock()
	t := c.tutorial
	c.mu.Unlock()
	return t != nil && t.Active()
}

func (c *Controller) updateURL(sel Selection) {
	if sel.Year == 0 || sel.PollutantID == 0 || len(sel.Categories) == 0 {
		return
	}
	params := sel.URLParams()
	if c.location != nil {
		c.location.ReplaceQuery(strings.Join(params, "&"))
	}
	if !c.embedded {
		return
	}
	if c.location != nil {
		if chart, readable := c.location.ParentChart(); readable && chart != "" && chart != "1" {
			return
		}
	}
	if out := c.poster.Post(message.UpdateURL{Params: params}); !out.OK() {
		c.logger.Debug("updateURL not delivered", "err", out.Err)
	}
}

type noColors struct{}

func (noColors) Reset()                  {}
func (noColors) ColorFor(string) string { return "" }

type noView struct{}

func (noView) Show(string) {}
func (noView) Hide()       {}
