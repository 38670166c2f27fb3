//go:build js && wasm
// +build js,wasm

// Command widget is the bubble chart's WebAssembly entry point.
package main

import (
	"context"
	"syscall/js"

	"github.com/naei/bubblechart/pkg/debug"
	"github.com/naei/bubblechart/pkg/renderer/dom"
)

func main() {
	window := js.Global().Get("window")
	search := window.Get("location").Get("search").String()
	verbose := dom.VerboseFromQuery(search) || window.Get(dom.GlobalDebug).Truthy()
	logger := debug.Console(verbose)

	settings, err := dom.ParseSettings(settingsBlob(window.Get(dom.GlobalSettings)))
	if err != nil {
		logger.Warn("ignoring layout settings", "err", err)
	}

	ctx := debug.WithLogger(context.Background(), logger)
	binding, err := dom.Mount(ctx, dom.Options{Settings: settings, Verbose: verbose}, logger)
	if err != nil {
		logger.Error("bubble chart failed to start", "err", err)
		return
	}
	logger.Info("bubble chart ready", "embedded", dom.Embedded())

	if sel, ok := dom.SelectionFromQuery(search); ok {
		go func() {
			if err := binding.Controller.SetSelection(sel); err != nil {
				logger.Warn("initial selection failed", "err", err)
			}
		}()
	}

	select {}
}

func settingsBlob(v js.Value) string {
	switch v.Type() {
	case js.TypeString:
		return v.String()
	case js.TypeObject:
		return js.Global().Get("JSON").Call("stringify", v).String()
	}
	return ""
}
