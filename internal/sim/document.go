// Package sim provides in-memory stand-ins for the browser: a document with
// settable element geometry, a recording parent poster and scripted widget
// collaborators. Tests, the compare command and the inspector run the real
// layout pipeline on top of it.
package sim

import (
	"strings"
	"sync"

	"github.com/naei/bubblechart/pkg/layout"
)

// LineHeight is the height of one line of off-screen markup.
const LineHeight = 22

// Document is an in-memory layout.Document.
type Document struct {
	mu sync.Mutex

	rects     map[layout.Anchor]layout.Rect
	hidden    map[layout.Anchor]bool
	styles    map[string]string
	scrollY   float64
	docHeight float64
	viewport  float64
	footer    float64
	hasFooter bool

	offscreen      string
	offscreenWidth float64
	measure        func(markup string, width float64) float64
	measurements   int
}

// NewDocument returns an empty document with the given window height.
func NewDocument(viewport float64) *Document {
	return &Document{
		rects:    make(map[layout.Anchor]layout.Rect),
		hidden:   make(map[layout.Anchor]bool),
		styles:   make(map[string]string),
		viewport: viewport,
		measure:  MeasureByBlocks,
	}
}

// MeasureByBlocks estimates the height of markup as one line per block
// element, which is close enough for the comparison cards.
func MeasureByBlocks(markup string, width float64) float64 {
	if markup == "" {
		return 0
	}
	blocks := strings.Count(markup, "<div") + strings.Count(markup, "<p")
	if blocks == 0 {
		blocks = 1
	}
	if width > 0 && width < 480 {
		blocks += blocks / 2
	}
	return float64(blocks * LineHeight)
}

// SetRect places an element. Top is derived from bottom and height.
func (d *Document) SetRect(a layout.Anchor, bottom, width, height float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rects[a] = layout.Rect{Top: bottom - height, Bottom: bottom, Width: width, Height: height}
}

// Remove deletes an element.
func (d *Document) Remove(a layout.Anchor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rects, a)
	delete(d.hidden, a)
}

// SetDisplayed toggles display:none on an element.
func (d *Document) SetDisplayed(a layout.Anchor, displayed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hidden[a] = !displayed
}

// SetViewport changes the window height.
func (d *Document) SetViewport(h float64) {
	d.mu.Lock()
	d.viewport = h
	d.mu.Unlock()
}

// SetFooter sets the footer height including margins.
func (d *Document) SetFooter(h float64) {
	d.mu.Lock()
	d.footer, d.hasFooter = h, true
	d.mu.Unlock()
}

// SetScrollY sets the scroll offset.
func (d *Document) SetScrollY(y float64) {
	d.mu.Lock()
	d.scrollY = y
	d.mu.Unlock()
}

// SetDocumentHeight sets the scroll height of the document.
func (d *Document) SetDocumentHeight(h float64) {
	d.mu.Lock()
	d.docHeight = h
	d.mu.Unlock()
}

// SetMeasure replaces the off-screen measuring function.
func (d *Document) SetMeasure(fn func(markup string, width float64) float64) {
	d.mu.Lock()
	d.measure = fn
	d.mu.Unlock()
}

// Style returns a CSS custom property written by the pipeline.
func (d *Document) Style(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.styles[name]
}

// Offscreen returns the markup currently in the measurement node and the
// width it was laid out at.
func (d *Document) Offscreen() (string, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.offscreen, d.offscreenWidth
}

// Measurements counts MeasureOffscreen calls.
func (d *Document) Measurements() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measurements
}

func (d *Document) Rect(a layout.Anchor) (layout.Rect, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rects[a]
	return r, ok
}

func (d *Document) Displayed(a layout.Anchor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.rects[a]
	return ok && !d.hidden[a]
}

func (d *Document) ScrollY() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrollY
}

func (d *Document) DocumentHeight() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.docHeight
}

func (d *Document) ViewportHeight() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

func (d *Document) FooterHeight() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.footer, d.hasFooter
}

func (d *Document) SetStyleProperty(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.styles[name] = value
}

func (d *Document) MeasureOffscreen(markup string, width float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.measurements++
	d.offscreen, d.offscreenWidth = markup, width
	return d.measure(markup, width)
}

func (d *Document) ClearOffscreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offscreen = ""
}

var _ layout.Document = (*Document)(nil)
