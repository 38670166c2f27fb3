package layout_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/message"
	"github.com/naei/bubblechart/pkg/scheduler"
)

func TestHeightEstimator_NeverBelowMinimum(t *testing.T) {
	settings := layout.DefaultSettings()
	e := layout.NewHeightEstimator(settings)

	viewports := []float64{1, 100, 420, 600, 900, 1440, 4000, 1e9}
	reserves := []float64{-50, 0, 6, 146, 800, 5000, math.NaN(), math.Inf(1), math.Inf(-1)}

	for _, v := range viewports {
		for _, r := range reserves {
			got, err := e.Estimate(v, r)
			if err != nil {
				t.Fatalf("Estimate(%v, %v) error: %v", v, r, err)
			}
			if !(got >= settings.MinChartCanvasHeight) {
				t.Errorf("Estimate(%v, %v) = %v, below %v", v, r, got, settings.MinChartCanvasHeight)
			}
		}
	}
}

func TestHeightEstimator_Formula(t *testing.T) {
	e := layout.NewHeightEstimator(layout.DefaultSettings())
	got, err := e.Estimate(900, 146)
	if err != nil {
		t.Fatal(err)
	}
	if got != 744 {
		t.Errorf("Expected 900-146-10 = 744, got %v", got)
	}
}

func TestHeightEstimator_InvalidViewport(t *testing.T) {
	e := layout.NewHeightEstimator(layout.DefaultSettings())
	for _, v := range []float64{0, -10, math.NaN(), math.Inf(-1)} {
		if _, err := e.Estimate(v, 0); !errors.Is(err, layout.ErrNoViewport) {
			t.Errorf("Estimate(%v) error = %v, want ErrNoViewport", v, err)
		}
	}
}

func TestSuppressionWindow_Expiry(t *testing.T) {
	clock := scheduler.NewManual(time.Unix(0, 0))
	w := layout.NewSuppressionWindow(clock, 450*time.Millisecond)

	if w.ShouldIgnore() {
		t.Fatal("Fresh window should not ignore ticks")
	}

	w.Suppress(450 * time.Millisecond)
	if !w.ShouldIgnore() {
		t.Error("Tick right after Suppress should be ignored")
	}
	clock.Advance(449 * time.Millisecond)
	if !w.ShouldIgnore() {
		t.Error("Tick inside the window should be ignored")
	}
	clock.Advance(time.Millisecond)
	if w.ShouldIgnore() {
		t.Error("Tick at expiry should not be ignored")
	}
	if w.Remaining() != 0 {
		t.Errorf("Remaining after expiry = %v", w.Remaining())
	}
}

func TestSuppressionWindow_NeverShortened(t *testing.T) {
	clock := scheduler.NewManual(time.Unix(0, 0))
	w := layout.NewSuppressionWindow(clock, 450*time.Millisecond)

	w.Suppress(time.Second)
	w.Suppress(100 * time.Millisecond)
	w.Suppress(0)
	w.Suppress(-time.Second)

	clock.Advance(500 * time.Millisecond)
	if !w.ShouldIgnore() {
		t.Error("Shorter Suppress calls must not shorten an active window")
	}
	if w.Activations() != 2 {
		t.Errorf("Expected 2 activations (non-positive ignored), got %d", w.Activations())
	}

	w.Reset()
	if w.ShouldIgnore() {
		t.Error("Reset should end the window")
	}
}

func TestMetricsProvider_Standalone(t *testing.T) {
	doc := sim.NewDocument(800)
	p := layout.NewMetricsProvider(doc, layout.DefaultSettings(), false)

	if got := doc.Style(layout.CSSFooterHeight); got != "187px" {
		t.Errorf("Initial footer reserve = %q, want 160+27", got)
	}

	m := p.Resolve()
	if m.ViewportHeight != 800 || m.FooterHeight != 140 {
		t.Errorf("Resolve() = %+v, want viewport 800 and default footer 140", m)
	}
	if got := doc.Style(layout.CSSViewportHeight); got != "800px" {
		t.Errorf("Viewport CSS = %q", got)
	}

	doc.SetFooter(63.6)
	if got := p.Resolve().FooterHeight; got != 64 {
		t.Errorf("Footer should be rounded, got %v", got)
	}
	if p.FooterReserve(p.Resolve()) != 70 {
		t.Errorf("Footer reserve should add the gap")
	}
}

func TestMetricsProvider_ApplyParent(t *testing.T) {
	doc := sim.NewDocument(0)
	p := layout.NewMetricsProvider(doc, layout.DefaultSettings(), true)

	if got := p.Resolve(); got.ViewportHeight != 900 || got.FooterHeight != 140 {
		t.Fatalf("Embedded defaults = %+v", got)
	}

	if p.ApplyParent(message.ParentViewportMetrics{ViewportHeight: 902, HasViewport: true}) {
		t.Error("A 2px change is below the resize threshold")
	}
	if !p.ApplyParent(message.ParentViewportMetrics{ViewportHeight: 700, HasViewport: true}) {
		t.Error("A 202px change should be reported")
	}
	if got := doc.Style(layout.CSSViewportHeight); got != "700px" {
		t.Errorf("Viewport CSS = %q", got)
	}

	p.ApplyParent(message.ParentViewportMetrics{FooterHeight: 2, HasFooter: true})
	if got := p.Resolve().FooterHeight; got != 6 {
		t.Errorf("Footer should be clamped to the gap, got %v", got)
	}

	p.ApplyParent(message.ParentViewportMetrics{ViewportHeight: -5, HasViewport: true})
	if got := p.Resolve().ViewportHeight; got != 700 {
		t.Errorf("Invalid viewport should be ignored, got %v", got)
	}
}

func TestChromeMeasurer_VisibleAndOffscreen(t *testing.T) {
	doc := sim.NewDocument(900)
	doc.SetRect(layout.AnchorChartTitle, 40, 960, 30)
	doc.SetRect(layout.AnchorLegend, 80, 960, 40.4)
	doc.SetRect(layout.AnchorComparison, 200, 960, 119.6)
	doc.SetDisplayed(layout.AnchorComparison, false)
	doc.SetRect(layout.AnchorChartWrapper, 900, 700, 800)

	m := layout.NewChromeMeasurer(doc, layout.DefaultSettings())

	got := m.MeasureVisible()
	if got.BaseHeight != 80 || got.ComparisonHeight != 0 {
		t.Errorf("Hidden comparison: %+v", got)
	}
	if m.LastComparisonHeight() != 0 {
		t.Error("Hidden comparison must not persist a height")
	}

	doc.SetDisplayed(layout.AnchorComparison, true)
	got = m.MeasureVisible()
	if got.ComparisonHeight != 120 || got.Total() != 200 {
		t.Errorf("Visible comparison: %+v", got)
	}
	if m.LastComparisonHeight() != 120 {
		t.Errorf("Visible comparison should persist 120, got %v", m.LastComparisonHeight())
	}

	h := m.MeasureOffscreen("<div>a</div><div>b</div>")
	if _, width := doc.Offscreen(); width != 700 {
		t.Errorf("Off-screen width should fall back to the chart wrapper, got %v", width)
	}
	if h != 2*sim.LineHeight || m.LastComparisonHeight() != h {
		t.Errorf("Off-screen height = %v, persisted %v", h, m.LastComparisonHeight())
	}

	doc.SetRect(layout.AnchorComparisonContainer, 300, 620, 100)
	m.MeasureOffscreen("<div>a</div>")
	if _, width := doc.Offscreen(); width != 620 {
		t.Errorf("Off-screen width should follow the comparison container, got %v", width)
	}

	if m.MeasureOffscreen("") != 0 || m.LastComparisonHeight() != 0 {
		t.Error("Empty markup should persist 0")
	}
	if markup, _ := doc.Offscreen(); markup != "" {
		t.Error("Empty markup should clear the node")
	}
}

func TestChromeMeasurer_PersistClamps(t *testing.T) {
	m := layout.NewChromeMeasurer(sim.NewDocument(900), layout.DefaultSettings())
	cases := map[float64]float64{-4: 0, math.NaN(): 0, math.Inf(1): 0, 12.5: 13, 99.4: 99}
	for in, want := range cases {
		if got := m.Persist(in); got != want {
			t.Errorf("Persist(%v) = %v, want %v", in, got, want)
		}
	}
}

func newNotifier(doc *sim.Document, poster *sim.Poster, embedded bool) *layout.ParentHeightNotifier {
	return layout.NewParentHeightNotifier(doc, poster, layout.DefaultSettings(), embedded, nil, nil)
}

func TestParentHeightNotifier_MinDelta(t *testing.T) {
	doc := sim.NewDocument(900)
	doc.SetRect(layout.AnchorChartShell, 1000, 960, 900)
	poster := sim.NewPoster()
	n := newNotifier(doc, poster, true)

	if _, sent := n.Notify(false); !sent {
		t.Fatal("First notify should send")
	}

	doc.SetRect(layout.AnchorChartShell, 1007, 960, 907)
	if _, sent := n.Notify(false); sent {
		t.Error("A 7px change is below the minimum delta")
	}
	if _, sent := n.Notify(true); !sent {
		t.Error("Forced notify should always send")
	}

	doc.SetRect(layout.AnchorChartShell, 1015, 960, 915)
	if _, sent := n.Notify(false); !sent {
		t.Error("An 8px change should send")
	}

	want := []int{1000, 1007, 1015}
	got := poster.Heights()
	if len(got) != len(want) {
		t.Fatalf("Heights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Heights[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParentHeightNotifier_BlockedDoesNotUpdateLastSent(t *testing.T) {
	doc := sim.NewDocument(900)
	doc.SetRect(layout.AnchorMainContent, 1200, 960, 1200)
	poster := sim.NewPoster()
	poster.Block(true)
	n := newNotifier(doc, poster, true)

	out, sent := n.Notify(false)
	if !sent || out.OK() || !errors.Is(out.Err, sim.ErrNoParent) {
		t.Fatalf("Expected a blocked attempt, got sent=%v outcome=%+v", sent, out)
	}
	if n.LastSent() != 0 {
		t.Error("Blocked post must not update the last sent height")
	}

	poster.Block(false)
	if _, sent := n.Notify(false); !sent || n.LastSent() != 1200 {
		t.Errorf("Retry should deliver, lastSent=%d", n.LastSent())
	}

	n.Invalidate()
	if n.LastSent() != 0 {
		t.Error("Invalidate should reset the last sent height")
	}
}

func TestParentHeightNotifier_StandaloneNeverSends(t *testing.T) {
	poster := sim.NewPoster()
	n := newNotifier(sim.NewDocument(900), poster, false)
	if _, sent := n.Notify(true); sent || len(poster.Sent()) != 0 {
		t.Error("Standalone widget must not post heights")
	}
}

func TestParentHeightNotifier_FallbackChain(t *testing.T) {
	doc := sim.NewDocument(900)
	estimate := 0.0
	n := layout.NewParentHeightNotifier(doc, sim.NewPoster(), layout.DefaultSettings(), true,
		func() float64 { return estimate }, nil)

	m := n.Measure()
	if m.Source != "fallback" || m.Height != 436 {
		t.Errorf("Empty document: %+v, want fallback 436", m)
	}

	estimate = 744
	if m := n.Measure(); m.Height != 744 {
		t.Errorf("Cached estimate should drive the fallback, got %+v", m)
	}

	doc.SetDocumentHeight(1300)
	if m := n.Measure(); m.Source != "document" || m.Height != 1300 {
		t.Errorf("Document height: %+v", m)
	}

	doc.SetRect(layout.AnchorChartWrapper, 250, 960, 200)
	if m := n.Measure(); m.Source != "fallback-min" || m.Height != 1100 {
		t.Errorf("Collapsed measurement: %+v, want fallback-min 1100", m)
	}

	doc.SetScrollY(400)
	if m := n.Measure(); m.Source != "chartWrapper" || m.Height != 650 {
		t.Errorf("Scroll offset should be added to rect bottoms: %+v", m)
	}
}

func TestParentHeightNotifier_OverlayOnlyWhenVisible(t *testing.T) {
	doc := sim.NewDocument(900)
	doc.SetRect(layout.AnchorChartShell, 800, 960, 700)
	doc.SetRect(layout.AnchorTutorialOverlay, 1400, 960, 1400)
	doc.SetDisplayed(layout.AnchorTutorialOverlay, false)

	active := false
	n := layout.NewParentHeightNotifier(doc, sim.NewPoster(), layout.DefaultSettings(), true,
		nil, func() bool { return active })

	if m := n.Measure(); m.Height != 800 || m.OverlayVisible {
		t.Errorf("Hidden overlay must not count: %+v", m)
	}
	active = true
	if m := n.Measure(); m.Height != 1400 || m.Source != "tutorialOverlay" {
		t.Errorf("Active overlay should count: %+v", m)
	}
}

func TestCoordinator_AnticipatesPendingComparison(t *testing.T) {
	doc := sim.NewDocument(0)
	doc.SetRect(layout.AnchorChartTitle, 40, 960, 30)
	doc.SetRect(layout.AnchorComparison, 160, 960, 118)

	c := layout.NewCoordinator(doc, sim.NewPoster(), layout.Options{Embedded: true})

	est, ok := c.UpdateWrapperHeight("visible")
	if !ok {
		t.Fatal("Embedded defaults should produce an estimate")
	}
	if est.ChartHeight != 744 || est.AnticipatedComparison != 118 {
		t.Errorf("Visible comparison estimate: %+v", est)
	}

	doc.SetDisplayed(layout.AnchorComparison, false)
	est, _ = c.UpdateWrapperHeight("hidden")
	if est.AnticipatedComparison != 0 {
		t.Errorf("Hidden comparison without a pending change should anticipate 0, got %v", est.AnticipatedComparison)
	}

	c.SetPendingComparison(true)
	est, _ = c.UpdateWrapperHeight("pending")
	if est.AnticipatedComparison != 118 {
		t.Errorf("Pending change should anticipate the last persisted height, got %v", est.AnticipatedComparison)
	}
	if est.ChartHeight != 744 {
		t.Errorf("Anticipated chrome must not be folded into the floor, got %v", est.ChartHeight)
	}
	if est.TotalChrome() != 10+30+118 {
		t.Errorf("TotalChrome = %v", est.TotalChrome())
	}
}

func TestCoordinator_SkipKeepsPreviousEstimate(t *testing.T) {
	doc := sim.NewDocument(800)
	c := layout.NewCoordinator(doc, sim.NewPoster(), layout.Options{})

	if _, ok := c.UpdateWrapperHeight("init"); !ok {
		t.Fatal("Expected an estimate")
	}
	before := c.LastEstimate()

	var kinds []layout.EventKind
	c.OnEvent(func(e layout.Event) { kinds = append(kinds, e.Kind) })

	doc.SetViewport(0)
	if _, ok := c.UpdateWrapperHeight("collapsed"); ok {
		t.Error("Zero viewport should skip estimation")
	}
	if c.LastEstimate() != before {
		t.Errorf("Skipped pass changed the estimate: %v -> %v", before, c.LastEstimate())
	}
	if len(kinds) != 1 || kinds[0] != layout.EventSkip {
		t.Errorf("Expected a single skip event, got %v", kinds)
	}
}

func TestCoordinator_SuppressAndIgnore(t *testing.T) {
	clock := scheduler.NewManual(time.Unix(0, 0))
	c := layout.NewCoordinator(sim.NewDocument(900), sim.NewPoster(), layout.Options{Clock: clock})

	if c.IgnoreObserverTick() {
		t.Fatal("No suppression active yet")
	}
	c.Suppress("comparison")
	if !c.IgnoreObserverTick() {
		t.Error("Tick inside the window should be ignored")
	}
	clock.Advance(c.Settings().SuppressWindow)
	if c.IgnoreObserverTick() {
		t.Error("Tick after the window should pass")
	}
}
