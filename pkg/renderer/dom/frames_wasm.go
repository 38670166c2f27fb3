//go:build js && wasm
// +build js,wasm

package dom

import (
	"sync"
	"syscall/js"

	"github.com/naei/bubblechart/pkg/scheduler"
)

// Frames implements scheduler.FrameSource with requestAnimationFrame.
// Callbacks run on their own goroutine so they may wait on promises.
type Frames struct {
	window js.Value

	mu      sync.Mutex
	next    scheduler.Handle
	pending map[scheduler.Handle]frame
}

type frame struct {
	id int
	fn js.Func
}

// NewFrames returns a frame source, or nil when the browser has no
// requestAnimationFrame and the scheduler should fall back to timers.
func NewFrames() *Frames {
	w := js.Global().Get("window")
	if w.Get("requestAnimationFrame").Type() != js.TypeFunction {
		return nil
	}
	return &Frames{window: w, next: 1, pending: make(map[scheduler.Handle]frame)}
}

func (f *Frames) RequestFrame(fn func()) scheduler.Handle {
	f.mu.Lock()
	h := f.next
	f.next++
	f.mu.Unlock()

	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		f.mu.Lock()
		_, live := f.pending[h]
		delete(f.pending, h)
		f.mu.Unlock()
		cb.Release()
		if live {
			go fn()
		}
		return nil
	})
	id := f.window.Call("requestAnimationFrame", cb).Int()

	f.mu.Lock()
	f.pending[h] = frame{id: id, fn: cb}
	f.mu.Unlock()
	return h
}

func (f *Frames) CancelFrame(h scheduler.Handle) {
	f.mu.Lock()
	fr, ok := f.pending[h]
	delete(f.pending, h)
	f.mu.Unlock()
	if ok {
		f.window.Call("cancelAnimationFrame", fr.id)
		fr.fn.Release()
	}
}

var _ scheduler.FrameSource = (*Frames)(nil)
