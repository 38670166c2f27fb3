//go:build js && wasm
// +build js,wasm

package dom

import (
	"context"
	"errors"
	"sync"
	"syscall/js"
)

// await blocks until p settles or ctx is done. Non-promise values are
// returned as is. Must not be called from a JS callback goroutine.
func await(ctx context.Context, p js.Value) (js.Value, error) {
	if !p.Truthy() || p.Get("then").Type() != js.TypeFunction {
		return p, nil
	}

	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	var once sync.Once
	var onResolve, onReject js.Func
	settle := func(r result) {
		once.Do(func() {
			ch <- r
			onResolve.Release()
			onReject.Release()
		})
	}
	onResolve = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		settle(result{v: v})
		return nil
	})
	onReject = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		msg := "promise rejected"
		if len(args) > 0 && args[0].Truthy() {
			if m := args[0].Get("message"); m.Type() == js.TypeString {
				msg = m.String()
			} else {
				msg = args[0].Call("toString").String()
			}
		}
		settle(result{err: errors.New(msg)})
		return nil
	})
	p.Call("then", onResolve, onReject)

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

// call invokes obj[method] if it exists and reports whether it did.
func call(obj js.Value, method string, args ...interface{}) (js.Value, bool) {
	if !obj.Truthy() || obj.Get(method).Type() != js.TypeFunction {
		return js.Undefined(), false
	}
	return obj.Call(method, args...), true
}

func global(name string) js.Value {
	return js.Global().Get("window").Get(name)
}
