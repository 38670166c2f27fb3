//go:build js && wasm
// +build js,wasm

package debug

import (
	"strings"
	"syscall/js"

	"github.com/charmbracelet/log"
)

// consoleWriter forwards formatted log lines to the browser console.
type consoleWriter struct {
	console js.Value
}

func (w consoleWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	method := "log"
	switch {
	case strings.Contains(line, "ERRO"):
		method = "error"
	case strings.Contains(line, "WARN"):
		method = "warn"
	}
	w.console.Call(method, line)
	return len(p), nil
}

// Console returns a logger that prints to the browser console.
func Console(verbose bool) *log.Logger {
	l := New(consoleWriter{console: js.Global().Get("console")}, Level(verbose))
	l.SetFormatter(log.TextFormatter)
	return l
}
