//go:build js && wasm
// +build js,wasm

package dom

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/naei/bubblechart/pkg/message"
)

var errNoParent = errors.New("dom: widget is not embedded")

// Poster sends messages to the parent window with postMessage.
type Poster struct {
	window js.Value
	origin string
}

// NewPoster posts to window.parent with the given target origin ("*" when
// empty).
func NewPoster(origin string) *Poster {
	if origin == "" {
		origin = "*"
	}
	return &Poster{window: js.Global().Get("window"), origin: origin}
}

// Embedded reports whether the widget runs in a child frame.
func Embedded() bool {
	w := js.Global().Get("window")
	parent := w.Get("parent")
	return parent.Truthy() && !parent.Equal(w)
}

// Post never panics; a refused postMessage comes back as Blocked.
func (p *Poster) Post(m message.Message) (out message.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = message.BlockedOutcome(fmt.Errorf("postMessage: %v", r))
		}
	}()
	parent := p.window.Get("parent")
	if !parent.Truthy() || parent.Equal(p.window) {
		return message.BlockedOutcome(errNoParent)
	}
	parent.Call("postMessage", js.ValueOf(message.Encode(m)), p.origin)
	return message.DeliveredOutcome()
}

var _ message.Poster = (*Poster)(nil)
