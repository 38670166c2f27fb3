package widget

import "time"

// Timing holds the debounce and grace delays of the controller.
type Timing struct {
	ParentRedrawDelay  time.Duration `yaml:"parent_redraw_delay" env:"PARENT_REDRAW_DELAY"`
	ParentNotifyDelay  time.Duration `yaml:"parent_notify_delay" env:"PARENT_NOTIFY_DELAY"`
	ResizeDebounce     time.Duration `yaml:"resize_debounce" env:"RESIZE_DEBOUNCE"`
	HeightPokeDelay    time.Duration `yaml:"height_poke_delay" env:"HEIGHT_POKE_DELAY"`
	ResizeCheckDelay   time.Duration `yaml:"resize_check_delay" env:"RESIZE_CHECK_DELAY"`
	ChromeNotifyDelay  time.Duration `yaml:"chrome_notify_delay" env:"CHROME_NOTIFY_DELAY"`
	DrawNotifyDelay    time.Duration `yaml:"draw_notify_delay" env:"DRAW_NOTIFY_DELAY"`
	ReadyNotifyDelay   time.Duration `yaml:"ready_notify_delay" env:"READY_NOTIFY_DELAY"`
	OverlayHiddenDelay time.Duration `yaml:"overlay_hidden_delay" env:"OVERLAY_HIDDEN_DELAY"`
	ScrollAckGrace     time.Duration `yaml:"scroll_ack_grace" env:"SCROLL_ACK_GRACE"`
}

// DefaultTiming returns the delays the widget ships with.
func DefaultTiming() Timing {
	return Timing{
		ParentRedrawDelay:  200 * time.Millisecond,
		ParentNotifyDelay:  200 * time.Millisecond,
		ResizeDebounce:     250 * time.Millisecond,
		HeightPokeDelay:    200 * time.Millisecond,
		ResizeCheckDelay:   200 * time.Millisecond,
		ChromeNotifyDelay:  80 * time.Millisecond,
		DrawNotifyDelay:    150 * time.Millisecond,
		ReadyNotifyDelay:   100 * time.Millisecond,
		OverlayHiddenDelay: 100 * time.Millisecond,
		ScrollAckGrace:     140 * time.Millisecond,
	}
}

// WithDefaults fills zero delays from DefaultTiming.
func (t Timing) WithDefaults() Timing {
	d := DefaultTiming()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.ParentRedrawDelay, d.ParentRedrawDelay)
	fill(&t.ParentNotifyDelay, d.ParentNotifyDelay)
	fill(&t.ResizeDebounce, d.ResizeDebounce)
	fill(&t.HeightPokeDelay, d.HeightPokeDelay)
	fill(&t.ResizeCheckDelay, d.ResizeCheckDelay)
	fill(&t.ChromeNotifyDelay, d.ChromeNotifyDelay)
	fill(&t.DrawNotifyDelay, d.DrawNotifyDelay)
	fill(&t.ReadyNotifyDelay, d.ReadyNotifyDelay)
	fill(&t.OverlayHiddenDelay, d.OverlayHiddenDelay)
	fill(&t.ScrollAckGrace, d.ScrollAckGrace)
	return t
}
