//go:build !js || !wasm
// +build !js !wasm

package dom

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/naei/bubblechart/pkg/widget"
)

// Binding ties a controller to page events (stub for non-WASM builds).
type Binding struct {
	Controller *widget.Controller
}

// Mount is only available in WASM builds.
func Mount(ctx context.Context, opts Options, logger *log.Logger) (*Binding, error) {
	return nil, ErrUnavailable
}

// Close is a no-op outside the browser.
func (b *Binding) Close() {}
