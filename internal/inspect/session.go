// Package inspect runs the widget on the simulated document so the layout
// pipeline can be watched and poked from a terminal.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/message"
	"github.com/naei/bubblechart/pkg/scheduler"
	"github.com/naei/bubblechart/pkg/widget"
)

// Page geometry of the simulated widget frame.
const (
	PageWidth   = 960
	TitleHeight = 40
	LegendTop   = 70
	LegendH     = 50
	ShellTop    = LegendTop + LegendH
)

// MaxEntries bounds the event log.
const MaxEntries = 200

// Entry is one line of the event log.
type Entry struct {
	At   time.Duration
	Kind string
	Text string
}

func (e Entry) String() string {
	return fmt.Sprintf("%6dms %-9s %s", e.At.Milliseconds(), e.Kind, e.Text)
}

// Options configure a Session.
type Options struct {
	Dataset   *sim.Dataset
	Selection widget.Selection
	Settings  layout.Settings
	Timing    widget.Timing
	Viewport  float64
	Footer    float64
	Logger    *log.Logger
}

// Session is an embedded widget running against a simulated host page.
type Session struct {
	Doc        *sim.Document
	Poster     *sim.Poster
	Clock      *scheduler.Manual
	View       *sim.ComparisonView
	Renderer   *sim.Renderer
	Controller *widget.Controller

	start time.Time

	mu       sync.Mutex
	entries  []Entry
	viewport float64
	footer   float64
}

// NewSession builds the widget, applies the selection and reveals it.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Dataset == nil {
		return nil, errors.New("inspect: dataset is required")
	}
	if opts.Viewport <= 0 {
		opts.Viewport = 900
	}
	if opts.Footer <= 0 {
		opts.Footer = 140
	}

	start := time.Unix(0, 0)
	s := &Session{
		Doc:      sim.NewDocument(opts.Viewport),
		Poster:   sim.NewPoster(),
		Clock:    scheduler.NewManual(start),
		Renderer: sim.NewRenderer(),
		start:    start,
		viewport: opts.Viewport,
		footer:   opts.Footer,
	}
	s.Doc.SetRect(layout.AnchorChartTitle, TitleHeight, PageWidth, TitleHeight)
	s.Doc.SetRect(layout.AnchorLegend, LegendTop+LegendH, PageWidth, LegendH)
	s.View = sim.NewComparisonView(s.Doc)
	s.View.Width, s.View.Top = PageWidth, ShellTop

	s.Poster.OnPost(func(m message.Message) {
		s.record("post", describe(m))
	})

	c, err := widget.New(ctx, widget.Config{
		Document: s.Doc,
		Poster:   s.Poster,
		Frames:   s.Clock,
		Timers:   s.Clock,
		Clock:    s.Clock,
		Renderer: s.Renderer,
		Data:     sim.NewData(opts.Dataset),
		Colors:   sim.NewColors(),
		View:     s.View,
		Location: &sim.Location{ParentValue: "1", Readable: true},
		Settings: opts.Settings,
		Timing:   opts.Timing,
		Embedded: true,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	s.Controller = c
	c.Layout().OnEvent(s.onEvent)

	if err := c.SetSelection(opts.Selection); err != nil {
		return nil, err
	}
	s.SendViewport()
	if err := c.Unlock(ctx); err != nil {
		return nil, err
	}
	s.reflow()
	return s, nil
}

// Close stops the widget.
func (s *Session) Close() { s.Controller.Close() }

// Elapsed is the simulated time since the session started.
func (s *Session) Elapsed() time.Duration { return s.Clock.Now().Sub(s.start) }

// Step runs pending frames and advances simulated time by d.
func (s *Session) Step(d time.Duration) {
	s.Clock.Frame()
	s.Clock.Advance(d)
	s.Clock.Frame()
	s.reflow()
}

// Settle steps until no work is pending or max simulated time has passed.
func (s *Session) Settle(max time.Duration) {
	const tick = 10 * time.Millisecond
	for waited := time.Duration(0); waited < max; waited += tick {
		if s.Clock.PendingFrames() == 0 && s.Clock.PendingTimers() == 0 {
			return
		}
		s.Step(tick)
	}
}

// Viewport returns the parent viewport and footer last sent to the widget.
func (s *Session) Viewport() (viewport, footer float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport, s.footer
}

// ResizeParent changes the parent viewport by delta and sends the new
// metrics.
func (s *Session) ResizeParent(delta float64) {
	s.mu.Lock()
	s.viewport += delta
	if s.viewport < 1 {
		s.viewport = 1
	}
	s.mu.Unlock()
	s.SendViewport()
}

// SendViewport delivers the current parent metrics to the widget.
func (s *Session) SendViewport() {
	vp, footer := s.Viewport()
	s.record("parent", fmt.Sprintf("viewport %.0f footer %.0f", vp, footer))
	s.Controller.HandleMessage(message.ParentViewportMetrics{
		ViewportHeight: vp,
		FooterHeight:   footer,
		HasViewport:    true,
		HasFooter:      true,
	})
}

// ToggleComparison flips the comparison checkbox of every selected
// category.
func (s *Session) ToggleComparison() bool {
	sel := s.Controller.Selection()
	on := len(sel.Compared()) < 2
	for _, cat := range sel.Categories {
		s.Controller.SetComparison(cat.ID, on)
	}
	s.record("user", fmt.Sprintf("comparison %v", on))
	return on
}

// RequestHeight sends requestHeight as the host page would.
func (s *Session) RequestHeight() {
	s.record("parent", "requestHeight")
	s.Controller.HandleMessage(message.RequestHeight{})
}

// WrapperTick simulates a resize observer callback on the chart wrapper.
func (s *Session) WrapperTick() {
	s.record("observer", "chartWrapper resized")
	s.Controller.WrapperResized()
}

// Entries returns a copy of the event log, oldest first.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Heights returns every delivered contentHeight.
func (s *Session) Heights() []int { return s.Poster.Heights() }

// reflow lays the chart shell out below the comparison block at the
// estimated height, standing in for the page's CSS.
func (s *Session) reflow() {
	top := float64(ShellTop)
	if s.Doc.Displayed(layout.AnchorComparison) {
		if r, ok := s.Doc.Rect(layout.AnchorComparison); ok {
			top = r.Bottom
		}
	}
	h := s.Controller.Layout().LastEstimate()
	if h <= 0 {
		return
	}
	s.Doc.SetRect(layout.AnchorChartShell, top+h, PageWidth, h)
}

func (s *Session) onEvent(e layout.Event) {
	var text string
	switch e.Kind {
	case layout.EventEstimate:
		text = fmt.Sprintf("%s: chart %.0f (viewport %.0f, reserve %.0f, chrome %.0f)",
			e.Context, e.Estimate.ChartHeight, e.Estimate.Metrics.ViewportHeight,
			e.Estimate.FooterReserve, e.Estimate.TotalChrome())
	case layout.EventSuppress:
		text = fmt.Sprintf("%s: until +%dms", e.Context, e.Until.Sub(s.start).Milliseconds())
	case layout.EventNotify:
		text = fmt.Sprintf("%s: height %d force=%v %s", e.Context, e.Height, e.Force, e.Outcome.Status)
	default:
		text = e.Context
	}
	s.record(string(e.Kind), text)
}

func (s *Session) record(kind, text string) {
	at := s.Clock.Now().Sub(s.start)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{At: at, Kind: kind, Text: text})
	if n := len(s.entries) - MaxEntries; n > 0 {
		s.entries = append(s.entries[:0:0], s.entries[n:]...)
	}
}

func describe(m message.Message) string {
	switch m := m.(type) {
	case message.ContentHeight:
		return fmt.Sprintf("contentHeight %d", m.Height)
	case message.UpdateURL:
		return fmt.Sprintf("updateURL %v", m.Params)
	default:
		return string(m.Type())
	}
}
