package layout

import (
	"sync"
	"time"
)

// SuppressionWindow mutes the wrapper resize observer while the widget
// mutates its own layout. The window only ever extends while active.
type SuppressionWindow struct {
	mu          sync.Mutex
	clock       Clock
	def         time.Duration
	activeUntil time.Time
	activations int
}

// NewSuppressionWindow returns an inactive window. def is used by
// SuppressDefault.
func NewSuppressionWindow(clock Clock, def time.Duration) *SuppressionWindow {
	if clock == nil {
		clock = SystemClock
	}
	return &SuppressionWindow{clock: clock, def: def}
}

// Suppress activates the window for d. Non-positive durations are ignored,
// and a shorter expiry never replaces a later one.
func (w *SuppressionWindow) Suppress(d time.Duration) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d <= 0 {
		return w.activeUntil
	}
	w.activations++
	if until := w.clock.Now().Add(d); until.After(w.activeUntil) {
		w.activeUntil = until
	}
	return w.activeUntil
}

// SuppressDefault activates the window for the default duration.
func (w *SuppressionWindow) SuppressDefault() time.Time { return w.Suppress(w.def) }

// ShouldIgnore reports whether an observer tick arriving now must be dropped.
func (w *SuppressionWindow) ShouldIgnore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clock.Now().Before(w.activeUntil)
}

// Remaining returns the time left in the window, or 0 when inactive.
func (w *SuppressionWindow) Remaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r := w.activeUntil.Sub(w.clock.Now()); r > 0 {
		return r
	}
	return 0
}

// Activations counts Suppress calls that were not ignored.
func (w *SuppressionWindow) Activations() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activations
}

// Reset ends the window immediately.
func (w *SuppressionWindow) Reset() {
	w.mu.Lock()
	w.activeUntil = time.Time{}
	w.mu.Unlock()
}
