//go:build js && wasm
// +build js,wasm

package dom

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"syscall/js"

	"github.com/naei/bubblechart/pkg/comparison"
	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/widget"
)

// ErrMissingGlobal is returned when a page collaborator is not defined.
var ErrMissingGlobal = errors.New("dom: page collaborator missing")

// Renderer drives window.ChartRenderer.
type Renderer struct{ obj js.Value }

// NewRenderer binds to window.ChartRenderer.
func NewRenderer() (*Renderer, error) {
	obj := global(GlobalRenderer)
	if !obj.Truthy() {
		return nil, fmt.Errorf("%w: window.%s", ErrMissingGlobal, GlobalRenderer)
	}
	return &Renderer{obj: obj}, nil
}

func (r *Renderer) DrawChart(ctx context.Context, year, pollutantID int, categoryIDs []int) error {
	ids := make([]interface{}, len(categoryIDs))
	for i, id := range categoryIDs {
		ids[i] = id
	}
	p, ok := call(r.obj, "drawChart", year, pollutantID, ids)
	if !ok {
		return fmt.Errorf("%w: %s.drawChart", ErrMissingGlobal, GlobalRenderer)
	}
	_, err := await(ctx, p)
	return err
}

func (r *Renderer) ShowMessage(text, level string) { call(r.obj, "showMessage", text, level) }

func (r *Renderer) ClearMessage() { call(r.obj, "clearMessage") }

func (r *Renderer) WaitForStability(ctx context.Context) error {
	p, ok := call(r.obj, "waitForStability")
	if !ok {
		return nil
	}
	_, err := await(ctx, p)
	return err
}

// Data reads window.BubbleData.
type Data struct{ obj js.Value }

// NewData binds to window.BubbleData.
func NewData() (*Data, error) {
	obj := global(GlobalData)
	if !obj.Truthy() {
		return nil, fmt.Errorf("%w: window.%s", ErrMissingGlobal, GlobalData)
	}
	return &Data{obj: obj}, nil
}

func (d *Data) Categories() []widget.Category {
	v, ok := call(d.obj, "categories")
	if !ok || v.Type() != js.TypeObject {
		return nil
	}
	out := make([]widget.Category, 0, v.Length())
	for i := 0; i < v.Length(); i++ {
		item := v.Index(i)
		out = append(out, widget.Category{ID: intField(item, "id"), Name: stringField(item, "name")})
	}
	return out
}

func (d *Data) PollutantName(id int) string {
	v, _ := call(d.obj, "pollutantName", id)
	return stringValue(v)
}

func (d *Data) PollutantUnit(id int) string {
	v, _ := call(d.obj, "pollutantUnit", id)
	return stringValue(v)
}

func (d *Data) ActivityUnit() string {
	v, _ := call(d.obj, "activityUnit")
	return stringValue(v)
}

func (d *Data) ScatterData(year, pollutantID int, categoryIDs []int) []comparison.DataPoint {
	ids := make([]interface{}, len(categoryIDs))
	for i, id := range categoryIDs {
		ids[i] = id
	}
	v, ok := call(d.obj, "scatterData", year, pollutantID, ids)
	if !ok || v.Type() != js.TypeObject {
		return nil
	}
	out := make([]comparison.DataPoint, 0, v.Length())
	for i := 0; i < v.Length(); i++ {
		item := v.Index(i)
		out = append(out, comparison.DataPoint{
			CategoryID:     intField(item, "categoryId"),
			PollutantValue: floatField(item, "pollutantValue"),
			ActDataValue:   floatField(item, "actDataValue"),
			ReportedEF:     floatField(item, "emissionFactor"),
		})
	}
	return out
}

// AssessInclusion asks the page whether child is part of parent. The page
// may answer synchronously or with a promise.
func (d *Data) AssessInclusion(ctx context.Context, childID, parentID int) (comparison.Assessment, error) {
	p, ok := call(d.obj, "isCategoryIncluded", childID, parentID)
	if !ok {
		return comparison.Assessment{}, fmt.Errorf("%w: %s.isCategoryIncluded", ErrMissingGlobal, GlobalData)
	}
	v, err := await(ctx, p)
	if err != nil {
		return comparison.Assessment{}, err
	}
	if v.Type() == js.TypeObject {
		return comparison.Assessment{Included: v.Get("included").Truthy(), Reason: stringField(v, "reason")}, nil
	}
	return comparison.Assessment{Included: v.Truthy()}, nil
}

// Colors wraps window.Colors.
type Colors struct{ obj js.Value }

// NewColors binds to window.Colors, or returns nil when absent.
func NewColors() *Colors {
	obj := global(GlobalColors)
	if !obj.Truthy() {
		return nil
	}
	return &Colors{obj: obj}
}

func (c *Colors) Reset() { call(c.obj, "reset") }

func (c *Colors) ColorFor(name string) string {
	v, _ := call(c.obj, "colorFor", name)
	return stringValue(v)
}

// Tutorial wraps window.BubbleTutorial.
type Tutorial struct{ obj js.Value }

// LookupTutorial returns the overlay once the page has defined it.
func LookupTutorial() (*Tutorial, bool) {
	obj := global(GlobalTutorial)
	if !obj.Truthy() {
		return nil, false
	}
	return &Tutorial{obj: obj}, true
}

func (t *Tutorial) Open(reason string, skipScroll bool) {
	opts := map[string]interface{}{"reason": reason, "skipScroll": skipScroll}
	call(t.obj, "open", js.ValueOf(opts))
}

func (t *Tutorial) Active() bool {
	v, _ := call(t.obj, "isActive")
	return v.Truthy()
}

func (t *Tutorial) Disabled() bool {
	v, _ := call(t.obj, "isDisabled")
	return v.Truthy()
}

// ComparisonView writes statement markup into the comparison element.
type ComparisonView struct {
	doc *Document
}

// NewComparisonView binds to the comparison element of doc.
func NewComparisonView(doc *Document) *ComparisonView { return &ComparisonView{doc: doc} }

func (v *ComparisonView) Show(markup string) {
	el, ok := v.doc.element(layout.AnchorComparison)
	if !ok {
		return
	}
	el.Set("innerHTML", markup)
	el.Get("style").Set("display", "block")
}

func (v *ComparisonView) Hide() {
	el, ok := v.doc.element(layout.AnchorComparison)
	if !ok {
		return
	}
	el.Get("style").Set("display", "none")
	el.Set("innerHTML", "")
}

// Location updates the address bar with history.replaceState.
type Location struct{ window js.Value }

// NewLocation binds to the current window.
func NewLocation() *Location { return &Location{window: js.Global().Get("window")} }

func (l *Location) ReplaceQuery(query string) {
	loc := l.window.Get("location")
	next := loc.Get("pathname").String()
	if query != "" {
		next += "?" + query
	}
	l.window.Get("history").Call("replaceState", js.Null(), "", next)
}

// ParentChart reads the host's chart parameter. Cross-origin hosts throw on
// access, which is reported as unreadable.
func (l *Location) ParentChart() (value string, readable bool) {
	defer func() {
		if recover() != nil {
			value, readable = "", false
		}
	}()
	search := l.window.Get("parent").Get("location").Get("search").String()
	params := js.Global().Get("URLSearchParams").New(search)
	v := params.Call("get", "chart")
	if v.IsNull() {
		return "", true
	}
	return v.String(), true
}

// Search returns the widget's own query string.
func (l *Location) Search() string {
	return l.window.Get("location").Get("search").String()
}

func stringValue(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	return strings.TrimSpace(v.String())
}

func stringField(v js.Value, key string) string { return stringValue(v.Get(key)) }

func floatField(v js.Value, key string) float64 {
	f := v.Get(key)
	switch f.Type() {
	case js.TypeNumber:
		return f.Float()
	case js.TypeString:
		n := js.Global().Call("parseFloat", f)
		if n.Type() == js.TypeNumber {
			return n.Float()
		}
	}
	return math.NaN()
}

func intField(v js.Value, key string) int {
	f := floatField(v, key)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

var (
	_ widget.Renderer       = (*Renderer)(nil)
	_ widget.DataSource     = (*Data)(nil)
	_ widget.Colors         = (*Colors)(nil)
	_ widget.Tutorial       = (*Tutorial)(nil)
	_ widget.ComparisonView = (*ComparisonView)(nil)
	_ widget.Location       = (*Location)(nil)
)
