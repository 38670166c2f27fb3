package layout

import (
	"fmt"
	"math"

	"github.com/naei/bubblechart/pkg/message"
)

// ViewportMetrics is the space available to the widget.
type ViewportMetrics struct {
	ViewportHeight float64
	FooterHeight   float64
}

// Valid reports whether the metrics can drive an estimate.
func (m ViewportMetrics) Valid() bool {
	return m.ViewportHeight > 0 && !math.IsInf(m.ViewportHeight, 0)
}

// MetricsProvider resolves ViewportMetrics from the parent frame when
// embedded, or from the widget's own window otherwise.
type MetricsProvider struct {
	doc      Document
	settings Settings
	embedded bool

	parentViewport float64
	parentFooter   float64
}

// NewMetricsProvider writes the initial CSS fallbacks and returns a provider
// seeded with the default parent metrics.
func NewMetricsProvider(doc Document, settings Settings, embedded bool) *MetricsProvider {
	p := &MetricsProvider{
		doc:            doc,
		settings:       settings,
		embedded:       embedded,
		parentViewport: settings.DefaultParentViewport,
		parentFooter:   settings.DefaultParentFooter,
	}
	p.applyFooterReserve(settings.DefaultFooterReserve)
	doc.SetStyleProperty(CSSViewportHeight, "100vh")
	if embedded {
		p.applyViewportHeight(p.parentViewport)
	}
	return p
}

// Embedded reports whether the widget runs inside a parent frame.
func (p *MetricsProvider) Embedded() bool { return p.embedded }

// Resolve returns the current metrics. In standalone mode it also keeps the
// viewport CSS property in sync with the window.
func (p *MetricsProvider) Resolve() ViewportMetrics {
	if p.embedded {
		return ViewportMetrics{
			ViewportHeight: math.Round(p.parentViewport),
			FooterHeight:   p.parentFooter,
		}
	}

	viewport := math.Round(p.doc.ViewportHeight())
	p.applyViewportHeight(viewport)

	footer, ok := p.doc.FooterHeight()
	if !ok || math.IsNaN(footer) || math.IsInf(footer, 0) {
		footer = p.settings.DefaultParentFooter
	}
	return ViewportMetrics{ViewportHeight: viewport, FooterHeight: math.Round(footer)}
}

// FooterReserve is the footer height plus the fixed gap below the chart.
func (p *MetricsProvider) FooterReserve(m ViewportMetrics) float64 {
	return m.FooterHeight + p.settings.FooterGap
}

// ApplyParent stores trusted parent metrics and reports whether either
// dimension moved by more than the resize threshold.
func (p *MetricsProvider) ApplyParent(m message.ParentViewportMetrics) (changed bool) {
	var delta float64
	if m.HasViewport && m.ViewportHeight > 0 && !math.IsInf(m.ViewportHeight, 0) {
		next := math.Round(m.ViewportHeight)
		delta = math.Max(delta, math.Abs(next-p.parentViewport))
		p.parentViewport = next
		p.applyViewportHeight(next)
	}
	if m.HasFooter && m.FooterHeight >= 0 && !math.IsInf(m.FooterHeight, 0) {
		next := math.Max(p.settings.FooterGap, math.Round(m.FooterHeight))
		delta = math.Max(delta, math.Abs(next-p.parentFooter))
		p.parentFooter = next
		p.applyFooterReserve(next + p.settings.FooterGap)
	}
	return delta > p.settings.ResizeThreshold
}

func (p *MetricsProvider) applyFooterReserve(pixels float64) {
	safe := math.Max(p.settings.FooterGap, math.Round(pixels))
	p.doc.SetStyleProperty(CSSFooterHeight, px(safe+p.settings.VisualPadding))
}

func (p *MetricsProvider) applyViewportHeight(pixels float64) {
	if pixels > 0 {
		p.doc.SetStyleProperty(CSSViewportHeight, px(pixels))
	}
}

func px(v float64) string {
	return fmt.Sprintf("%dpx", int(math.Round(v)))
}
