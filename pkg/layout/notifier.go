package layout

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/naei/bubblechart/pkg/debug"
	"github.com/naei/bubblechart/pkg/message"
)

// HeightMeasurement records how a content height was chosen.
type HeightMeasurement struct {
	Height           int
	Source           string
	DocumentHeight   float64
	ShellBottom      float64
	MainBottom       float64
	WrapperBottom    float64
	OverlayBottom    float64
	OverlayVisible   bool
	FallbackEstimate float64
}

// ParentHeightNotifier measures the widget's content height and reports it
// to the parent frame, skipping sends that would not move the parent.
type ParentHeightNotifier struct {
	mu       sync.Mutex
	doc      Document
	poster   message.Poster
	settings Settings
	embedded bool
	logger   *log.Logger

	lastSent     int
	lastAttempt  int
	lastEstimate func() float64
	overlay      func() bool
}

// NewParentHeightNotifier returns a notifier. lastEstimate supplies the
// cached chart estimate for the fallback chain; overlayActive reports an
// open tutorial overlay. Either may be nil.
func NewParentHeightNotifier(doc Document, poster message.Poster, settings Settings, embedded bool, lastEstimate func() float64, overlayActive func() bool) *ParentHeightNotifier {
	if lastEstimate == nil {
		lastEstimate = func() float64 { return 0 }
	}
	if overlayActive == nil {
		overlayActive = func() bool { return false }
	}
	return &ParentHeightNotifier{
		doc:          doc,
		poster:       poster,
		settings:     settings,
		embedded:     embedded,
		logger:       debug.Discard(),
		lastEstimate: lastEstimate,
		overlay:      overlayActive,
	}
}

// SetLogger replaces the notifier's logger.
func (n *ParentHeightNotifier) SetLogger(l *log.Logger) {
	if l != nil {
		n.logger = l
	}
}

// Measure picks the lowest bottom edge among the chart shell, main content,
// chart wrapper and a visible tutorial overlay, falling back to the
// document height, then the cached estimate, then a hard minimum.
func (n *ParentHeightNotifier) Measure() HeightMeasurement {
	m := HeightMeasurement{
		DocumentHeight: math.Round(finite(n.doc.DocumentHeight())),
		ShellBottom:    n.bottom(AnchorChartShell),
		MainBottom:     n.bottom(AnchorMainContent),
		WrapperBottom:  n.bottom(AnchorChartWrapper),
		OverlayVisible: n.overlay() || n.doc.Displayed(AnchorTutorialOverlay),
	}
	if m.OverlayVisible {
		m.OverlayBottom = n.bottom(AnchorTutorialOverlay)
	}

	var height float64
	for _, c := range []struct {
		label string
		value float64
	}{
		{"chartShell", m.ShellBottom},
		{"mainContent", m.MainBottom},
		{"chartWrapper", m.WrapperBottom},
		{"tutorialOverlay", m.OverlayBottom},
	} {
		if c.value > height {
			height = c.value
			m.Source = c.label
		}
	}

	estimate := n.lastEstimate()
	if estimate <= 0 || math.IsNaN(estimate) || math.IsInf(estimate, 0) {
		estimate = n.settings.MinChartCanvasHeight
	}
	fallback := math.Max(n.settings.MinChartCanvasHeight+n.settings.HeaderBuffer+n.settings.FooterGap, estimate)
	m.FallbackEstimate = math.Round(fallback)

	if height == 0 && m.DocumentHeight > 0 {
		height = m.DocumentHeight
		m.Source = "document"
	}
	if height == 0 {
		height = fallback
		m.Source = "fallback"
	}
	if height < n.settings.MinMeasuredHeight {
		height = math.Max(n.settings.HardMinimumHeight, fallback)
		m.Source = "fallback-min"
	}
	m.Height = int(math.Round(height))
	return m
}

// Notify sends contentHeight to the parent. Unless force is set, a height
// within MinHeightDelta of the last delivered one is not re-sent. The
// returned bool reports whether a send was attempted.
func (n *ParentHeightNotifier) Notify(force bool) (message.Outcome, bool) {
	if !n.embedded {
		return message.Outcome{}, false
	}
	m := n.Measure()
	height := max(int(n.settings.MinChartCanvasHeight), m.Height)

	n.mu.Lock()
	last := n.lastSent
	if !force && last != 0 && abs(height-last) < n.settings.MinHeightDelta {
		n.mu.Unlock()
		return message.Outcome{}, false
	}
	n.lastAttempt = height
	n.mu.Unlock()

	out := n.poster.Post(message.ContentHeight{Chart: message.ChartName, Height: height})
	if !out.OK() {
		n.logger.Debug("content height not delivered", "height", height, "err", out.Err)
		return out, true
	}

	n.mu.Lock()
	n.lastSent = height
	n.mu.Unlock()
	n.logger.Debug("content height sent", "height", height, "source", m.Source, "force", force)
	return out, true
}

// Invalidate forgets the last sent height so the next Notify always sends.
func (n *ParentHeightNotifier) Invalidate() {
	n.mu.Lock()
	n.lastSent = 0
	n.mu.Unlock()
}

// LastAttempt returns the height of the most recent send attempt.
func (n *ParentHeightNotifier) LastAttempt() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastAttempt
}

// LastSent returns the last delivered height, or 0.
func (n *ParentHeightNotifier) LastSent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastSent
}

func (n *ParentHeightNotifier) bottom(a Anchor) float64 {
	r, ok := n.doc.Rect(a)
	if !ok {
		return 0
	}
	b := math.Round(finite(r.Bottom) + finite(n.doc.ScrollY()))
	return math.Max(0, b)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
