package layout

// Anchor names a DOM element the layout pipeline reads.
type Anchor string

const (
	AnchorChartTitle          Anchor = "chartTitle"
	AnchorLegend              Anchor = "customLegend"
	AnchorComparison          Anchor = "comparisonDiv"
	AnchorComparisonContainer Anchor = "comparisonContainer"
	AnchorChartWrapper        Anchor = "chartWrapper"
	AnchorChartShell          Anchor = "chartShell"
	AnchorMainContent         Anchor = "mainContent"
	AnchorTutorialOverlay     Anchor = "bubbleTutorialOverlay"
)

// CSS custom properties written by the pipeline.
const (
	CSSViewportHeight = "--bubble-viewport-height"
	CSSFooterHeight   = "--bubble-footer-height"
)

// Rect is a bounding client rect, relative to the viewport.
type Rect struct {
	Top    float64
	Bottom float64
	Width  float64
	Height float64
}

// Document is the slice of the browser DOM the layout pipeline needs.
// The wasm build implements it over syscall/js; tests use an in-memory one.
type Document interface {
	// Rect returns the bounding rect of anchor, or false if it is absent.
	Rect(a Anchor) (Rect, bool)
	// Displayed reports whether anchor exists and is not display:none.
	Displayed(a Anchor) bool

	ScrollY() float64
	// DocumentHeight is the maximum of the body and document scroll and offset heights.
	DocumentHeight() float64
	// ViewportHeight is the visual viewport height of the widget's own window.
	ViewportHeight() float64
	// FooterHeight returns the page footer height including margins.
	FooterHeight() (float64, bool)

	SetStyleProperty(name, value string)

	// MeasureOffscreen renders markup into a hidden node of the given width
	// (0 keeps the natural width) and returns its height.
	MeasureOffscreen(markup string, width float64) float64
	ClearOffscreen()
}
