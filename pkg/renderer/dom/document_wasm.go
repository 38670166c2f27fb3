//go:build js && wasm
// +build js,wasm

package dom

import (
	"fmt"
	"math"
	"syscall/js"

	"github.com/naei/bubblechart/pkg/layout"
)

const offscreenID = "bubbleComparisonMeasure"

// Document implements layout.Document over the live page.
type Document struct {
	document  js.Value
	window    js.Value
	offscreen js.Value
}

// NewDocument binds to the current window.
func NewDocument() *Document {
	return &Document{
		document: js.Global().Get("document"),
		window:   js.Global().Get("window"),
	}
}

func (d *Document) element(a layout.Anchor) (js.Value, bool) {
	el := d.document.Call("getElementById", string(a))
	if el.IsNull() || el.IsUndefined() {
		return js.Value{}, false
	}
	return el, true
}

// Rect returns the element's box in document coordinates.
func (d *Document) Rect(a layout.Anchor) (layout.Rect, bool) {
	el, ok := d.element(a)
	if !ok {
		return layout.Rect{}, false
	}
	r := el.Call("getBoundingClientRect")
	scroll := d.ScrollY()
	return layout.Rect{
		Top:    r.Get("top").Float() + scroll,
		Bottom: r.Get("bottom").Float() + scroll,
		Width:  r.Get("width").Float(),
		Height: r.Get("height").Float(),
	}, true
}

func (d *Document) Displayed(a layout.Anchor) bool {
	el, ok := d.element(a)
	if !ok {
		return false
	}
	style := d.window.Call("getComputedStyle", el)
	if style.Get("display").String() == "none" || style.Get("visibility").String() == "hidden" {
		return false
	}
	return el.Get("offsetParent").Truthy() || el.Call("getBoundingClientRect").Get("height").Float() > 0
}

func (d *Document) ScrollY() float64 {
	for _, key := range []string{"scrollY", "pageYOffset"} {
		if v := d.window.Get(key); v.Type() == js.TypeNumber {
			return v.Float()
		}
	}
	return 0
}

func (d *Document) DocumentHeight() float64 {
	height := 0.0
	for _, el := range []js.Value{d.document.Get("body"), d.document.Get("documentElement")} {
		if !el.Truthy() {
			continue
		}
		for _, key := range []string{"scrollHeight", "offsetHeight"} {
			if v := el.Get(key); v.Type() == js.TypeNumber {
				height = math.Max(height, v.Float())
			}
		}
	}
	return height
}

func (d *Document) ViewportHeight() float64 {
	if v := d.window.Get("innerHeight"); v.Type() == js.TypeNumber {
		return v.Float()
	}
	return 0
}

// FooterHeight measures the page's own footer, used when not embedded.
func (d *Document) FooterHeight() (float64, bool) {
	footer := d.document.Call("querySelector", "footer")
	if !footer.Truthy() {
		return 0, false
	}
	return footer.Call("getBoundingClientRect").Get("height").Float(), true
}

func (d *Document) SetStyleProperty(name, value string) {
	d.document.Get("documentElement").Get("style").Call("setProperty", name, value)
}

// MeasureOffscreen renders markup into a hidden node of the given width and
// returns its rendered height.
func (d *Document) MeasureOffscreen(markup string, width float64) float64 {
	node := d.offscreenNode()
	if width > 0 {
		node.Get("style").Set("width", fmt.Sprintf("%dpx", int(math.Round(width))))
	} else {
		node.Get("style").Set("width", "auto")
	}
	node.Set("innerHTML", markup)
	return node.Call("getBoundingClientRect").Get("height").Float()
}

func (d *Document) ClearOffscreen() {
	if d.offscreen.Truthy() {
		d.offscreen.Set("innerHTML", "")
	}
}

func (d *Document) offscreenNode() js.Value {
	if d.offscreen.Truthy() {
		return d.offscreen
	}
	node := d.document.Call("createElement", "div")
	node.Set("id", offscreenID)
	node.Call("setAttribute", "aria-hidden", "true")
	style := node.Get("style")
	style.Set("position", "absolute")
	style.Set("visibility", "hidden")
	style.Set("pointerEvents", "none")
	style.Set("left", "-10000px")
	style.Set("top", "0")
	d.document.Get("body").Call("appendChild", node)
	d.offscreen = node
	return node
}

var _ layout.Document = (*Document)(nil)
