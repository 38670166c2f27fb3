package sim

import (
	"context"
	"sync"

	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/widget"
)

// DrawCall records one DrawChart invocation.
type DrawCall struct {
	Year        int
	PollutantID int
	CategoryIDs []int
}

// Renderer records draws and messages. OnDraw may adjust the document to
// emulate the chart growing or shrinking.
type Renderer struct {
	mu       sync.Mutex
	draws    []DrawCall
	messages []string
	err      error
	OnDraw   func(DrawCall)
}

// NewRenderer returns a renderer that always succeeds.
func NewRenderer() *Renderer { return &Renderer{} }

// Fail makes later draws return err.
func (r *Renderer) Fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *Renderer) DrawChart(ctx context.Context, year, pollutantID int, categoryIDs []int) error {
	call := DrawCall{Year: year, PollutantID: pollutantID, CategoryIDs: append([]int(nil), categoryIDs...)}
	r.mu.Lock()
	r.draws = append(r.draws, call)
	err, hook := r.err, r.OnDraw
	r.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return err
}

func (r *Renderer) ShowMessage(text, level string) {
	r.mu.Lock()
	r.messages = append(r.messages, level+": "+text)
	r.mu.Unlock()
}

func (r *Renderer) ClearMessage() {}

func (r *Renderer) WaitForStability(ctx context.Context) error { return ctx.Err() }

// Draws returns the recorded draw calls.
func (r *Renderer) Draws() []DrawCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DrawCall(nil), r.draws...)
}

// Messages returns shown messages as "level: text".
func (r *Renderer) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Palette is the colour sequence handed out by Colors.
var Palette = []string{"#E69F00", "#56B4E9", "#009E73", "#F0E442", "#0072B2", "#D55E00", "#CC79A7", "#000000"}

// Colors assigns palette colours in first-seen order.
type Colors struct {
	mu       sync.Mutex
	assigned map[string]string
}

// NewColors returns an empty assignment.
func NewColors() *Colors { return &Colors{assigned: make(map[string]string)} }

func (c *Colors) Reset() {
	c.mu.Lock()
	c.assigned = make(map[string]string)
	c.mu.Unlock()
}

func (c *Colors) ColorFor(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.assigned[name]; ok {
		return col
	}
	col := Palette[len(c.assigned)%len(Palette)]
	c.assigned[name] = col
	return col
}

// OpenCall records one Tutorial.Open invocation.
type OpenCall struct {
	Reason     string
	SkipScroll bool
}

// Tutorial is a scripted overlay.
type Tutorial struct {
	mu       sync.Mutex
	active   bool
	disabled bool
	opens    []OpenCall
}

func (t *Tutorial) Open(reason string, skipScroll bool) {
	t.mu.Lock()
	t.active = true
	t.opens = append(t.opens, OpenCall{Reason: reason, SkipScroll: skipScroll})
	t.mu.Unlock()
}

func (t *Tutorial) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tutorial) Disabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disabled
}

// Close marks the overlay closed.
func (t *Tutorial) Close() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
}

// Disable prevents the overlay from opening.
func (t *Tutorial) Disable() {
	t.mu.Lock()
	t.disabled = true
	t.mu.Unlock()
}

// Opens returns the recorded Open calls.
func (t *Tutorial) Opens() []OpenCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]OpenCall(nil), t.opens...)
}

// ComparisonView commits comparison markup to the document: the block is
// placed below the legend at the height the document measures for it.
type ComparisonView struct {
	doc   *Document
	Width float64
	Top   float64

	mu     sync.Mutex
	markup string
}

// NewComparisonView returns a view over doc.
func NewComparisonView(doc *Document) *ComparisonView {
	return &ComparisonView{doc: doc, Width: 960, Top: 120}
}

func (v *ComparisonView) Show(markup string) {
	v.mu.Lock()
	v.markup = markup
	v.mu.Unlock()

	v.doc.mu.Lock()
	h := v.doc.measure(markup, v.Width)
	v.doc.mu.Unlock()

	v.doc.SetRect(layout.AnchorComparison, v.Top+h, v.Width, h)
	v.doc.SetDisplayed(layout.AnchorComparison, true)
}

func (v *ComparisonView) Hide() {
	v.doc.SetDisplayed(layout.AnchorComparison, false)
}

// Markup returns the last committed markup.
func (v *ComparisonView) Markup() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.markup
}

// Location records query updates and reports a fixed host chart parameter.
type Location struct {
	mu          sync.Mutex
	query       string
	ParentValue string
	Readable    bool
}

func (l *Location) ReplaceQuery(q string) {
	l.mu.Lock()
	l.query = q
	l.mu.Unlock()
}

func (l *Location) ParentChart() (string, bool) { return l.ParentValue, l.Readable }

// Query returns the last query set.
func (l *Location) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

var (
	_ widget.Renderer       = (*Renderer)(nil)
	_ widget.Colors         = (*Colors)(nil)
	_ widget.Tutorial       = (*Tutorial)(nil)
	_ widget.ComparisonView = (*ComparisonView)(nil)
	_ widget.Location       = (*Location)(nil)
)
