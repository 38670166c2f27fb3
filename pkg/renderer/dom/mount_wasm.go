//go:build js && wasm
// +build js,wasm

package dom

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/charmbracelet/log"

	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/message"
	"github.com/naei/bubblechart/pkg/scheduler"
	"github.com/naei/bubblechart/pkg/widget"
)

// Binding ties a controller to page events and exposes the page API.
type Binding struct {
	Controller *widget.Controller

	window   js.Value
	funcs    []js.Func
	observer js.Value
	logger   *log.Logger
}

// Mount builds the controller over the live page, installs the event
// listeners and publishes window.bubbleChart.
func Mount(ctx context.Context, opts Options, logger *log.Logger) (*Binding, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	data, err := NewData()
	if err != nil {
		return nil, err
	}

	doc := NewDocument()
	clock := scheduler.NewRuntimeTimers()
	cfg := widget.Config{
		Document: doc,
		Poster:   NewPoster(""),
		Timers:   clock,
		Renderer: renderer,
		Data:     data,
		View:     NewComparisonView(doc),
		Location: NewLocation(),
		Settings: opts.Settings,
		Embedded: Embedded(),
		Logger:   logger,
	}
	if frames := NewFrames(); frames != nil {
		cfg.Frames = frames
	}
	if colors := NewColors(); colors != nil {
		cfg.Colors = colors
	}

	c, err := widget.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mount widget: %w", err)
	}

	b := &Binding{Controller: c, window: js.Global().Get("window"), logger: logger}
	b.listen()
	b.publish()
	if t, ok := LookupTutorial(); ok {
		c.AttachTutorial(t)
	}
	w := b.window
	c.SetWindowSize(w.Get("innerWidth").Float(), w.Get("innerHeight").Float())
	return b, nil
}

func (b *Binding) fn(f func(this js.Value, args []js.Value) interface{}) js.Func {
	jf := js.FuncOf(f)
	b.funcs = append(b.funcs, jf)
	return jf
}

func (b *Binding) listen() {
	c := b.Controller
	w := b.window

	w.Call("addEventListener", "message", b.fn(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		ev := args[0]
		if !ev.Get("source").Equal(w.Get("parent")) {
			return nil
		}
		raw, ok := stringify(ev.Get("data"))
		if !ok {
			return nil
		}
		go func() {
			m, err := message.DecodeJSON([]byte(raw))
			if err != nil {
				b.logger.Debug("dropping message", "err", err)
				return
			}
			c.HandleMessage(m)
		}()
		return nil
	}))

	w.Call("addEventListener", "resize", b.fn(func(this js.Value, args []js.Value) interface{} {
		width, height := w.Get("innerWidth").Float(), w.Get("innerHeight").Float()
		go c.WindowResized(width, height)
		return nil
	}))

	w.Call("addEventListener", "keydown", b.fn(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		ev := args[0]
		target := ev.Get("target")
		key := widget.KeyEvent{
			Key:              ev.Get("key").String(),
			Meta:             ev.Get("metaKey").Bool(),
			Ctrl:             ev.Get("ctrlKey").Bool(),
			Alt:              ev.Get("altKey").Bool(),
			DefaultPrevented: ev.Get("defaultPrevented").Bool(),
		}
		if target.Truthy() {
			if tag := target.Get("tagName"); tag.Type() == js.TypeString {
				key.TargetTag = tag.String()
			}
			key.TargetEditable = target.Get("isContentEditable").Truthy()
		}
		if c.HandleKey(key) {
			ev.Call("preventDefault")
		}
		return nil
	}))

	ctor := js.Global().Get("ResizeObserver")
	wrapper := js.Global().Get("document").Call("getElementById", string(layout.AnchorChartWrapper))
	if ctor.Type() == js.TypeFunction && wrapper.Truthy() {
		b.observer = ctor.New(b.fn(func(this js.Value, args []js.Value) interface{} {
			go c.WrapperResized()
			return nil
		}))
		b.observer.Call("observe", wrapper)
	}
}

// publish installs window.bubbleChart, the API the page's selectors and
// tutorial call into.
func (b *Binding) publish() {
	c := b.Controller
	api := map[string]interface{}{
		"setSelection": b.fn(func(this js.Value, args []js.Value) interface{} {
			if len(args) == 0 {
				return nil
			}
			raw, ok := stringify(args[0])
			if !ok {
				return nil
			}
			go func() {
				sel, err := ParseSelection([]byte(raw))
				if err != nil {
					b.logger.Warn("invalid selection", "err", err)
					return
				}
				if err := c.SetSelection(sel); err != nil {
					b.logger.Warn("draw failed", "err", err)
				}
			}()
			return nil
		}),
		"setComparison": b.fn(func(this js.Value, args []js.Value) interface{} {
			if len(args) < 2 {
				return nil
			}
			c.SetComparison(args[0].Int(), args[1].Truthy())
			return nil
		}),
		"unlock": b.fn(func(this js.Value, args []js.Value) interface{} {
			go func() {
				if err := c.Unlock(context.Background()); err != nil {
					b.logger.Warn("unlock failed", "err", err)
				}
			}()
			return nil
		}),
		"redraw": b.fn(func(this js.Value, args []js.Value) interface{} {
			reason := "page"
			if len(args) > 0 && args[0].Type() == js.TypeString {
				reason = args[0].String()
			}
			c.ScheduleRedraw(reason)
			return nil
		}),
		"tutorialReady": b.fn(func(this js.Value, args []js.Value) interface{} {
			if t, ok := LookupTutorial(); ok {
				go c.AttachTutorial(t)
			}
			return nil
		}),
		"tutorialState": b.fn(func(this js.Value, args []js.Value) interface{} {
			if len(args) < 2 {
				return nil
			}
			state, source := args[0].String(), args[1].String()
			go c.TutorialStateChanged(state, source)
			return nil
		}),
		"requestTutorialScroll": b.fn(func(this js.Value, args []js.Value) interface{} {
			var done js.Value
			if len(args) > 0 && args[0].Type() == js.TypeFunction {
				done = args[0]
			}
			id := c.RequestTutorialScroll(func(acked bool) {
				if done.Truthy() {
					done.Invoke(acked)
				}
			})
			return id
		}),
	}
	b.window.Set(GlobalAPI, js.ValueOf(api))
}

// Close removes the page API and releases the callbacks.
func (b *Binding) Close() {
	b.Controller.Close()
	if b.observer.Truthy() {
		b.observer.Call("disconnect")
	}
	b.window.Delete(GlobalAPI)
	for _, f := range b.funcs {
		f.Release()
	}
	b.funcs = nil
}

// stringify serialises a structured-clone value to JSON.
func stringify(v js.Value) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	if v.Type() == js.TypeString {
		return v.String(), true
	}
	if v.Type() != js.TypeObject {
		return "", false
	}
	return js.Global().Get("JSON").Call("stringify", v).String(), true
}
