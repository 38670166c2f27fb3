//go:build !js || !wasm
// +build !js !wasm

package debug

import (
	"os"

	"github.com/charmbracelet/log"
)

// Console returns a stderr logger outside the browser.
func Console(verbose bool) *log.Logger {
	return New(os.Stderr, Level(verbose))
}
