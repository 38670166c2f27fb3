package layout

import "math"

// ChromeMeasurement is the vertical space taken by non-chart UI.
type ChromeMeasurement struct {
	// BaseHeight covers title, legend and the header buffer.
	BaseHeight       float64
	ComparisonHeight float64
}

// Total returns base plus comparison chrome.
func (c ChromeMeasurement) Total() float64 { return c.BaseHeight + c.ComparisonHeight }

// ChromeMeasurer reads chrome heights from the live document and measures
// comparison markup before it is committed.
type ChromeMeasurer struct {
	doc      Document
	settings Settings

	lastComparison float64
}

// NewChromeMeasurer returns a measurer over doc.
func NewChromeMeasurer(doc Document, settings Settings) *ChromeMeasurer {
	return &ChromeMeasurer{doc: doc, settings: settings}
}

// MeasureVisible reads title, legend and, when displayed, comparison heights.
// A displayed comparison block updates the persisted comparison height.
func (m *ChromeMeasurer) MeasureVisible() ChromeMeasurement {
	out := ChromeMeasurement{
		BaseHeight: m.settings.HeaderBuffer + m.height(AnchorChartTitle) + m.height(AnchorLegend),
	}
	if m.doc.Displayed(AnchorComparison) {
		out.ComparisonHeight = m.height(AnchorComparison)
		m.Persist(out.ComparisonHeight)
	}
	return out
}

// MeasureOffscreen renders markup into the hidden measurement node and
// persists the resulting height. Empty markup clears the node and persists 0.
func (m *ChromeMeasurer) MeasureOffscreen(markup string) float64 {
	if markup == "" {
		m.doc.ClearOffscreen()
		return m.Persist(0)
	}
	return m.Persist(m.doc.MeasureOffscreen(markup, m.offscreenWidth()))
}

// ClearOffscreen empties the measurement node without touching the
// persisted height.
func (m *ChromeMeasurer) ClearOffscreen() { m.doc.ClearOffscreen() }

// Persist rounds and stores a comparison height, clamping invalid values to 0.
func (m *ChromeMeasurer) Persist(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		v = 0
	}
	m.lastComparison = math.Round(v)
	return m.lastComparison
}

// LastComparisonHeight returns the most recently persisted comparison height.
func (m *ChromeMeasurer) LastComparisonHeight() float64 { return m.lastComparison }

// offscreenWidth is re-read on every call so the hidden node wraps text
// the same way the live block will.
func (m *ChromeMeasurer) offscreenWidth() float64 {
	for _, a := range []Anchor{AnchorComparisonContainer, AnchorChartWrapper} {
		if r, ok := m.doc.Rect(a); ok && r.Width > 0 {
			return r.Width
		}
	}
	return 0
}

func (m *ChromeMeasurer) height(a Anchor) float64 {
	r, ok := m.doc.Rect(a)
	if !ok || math.IsNaN(r.Height) {
		return 0
	}
	return math.Round(r.Height)
}
