package layout

import "time"

// Settings holds the geometry and timing constants of the layout pipeline.
// Pixel values are CSS pixels.
type Settings struct {
	MinChartCanvasHeight  float64 `yaml:"min_chart_canvas_height" json:"minChartCanvasHeight" env:"MIN_CHART_CANVAS_HEIGHT"`
	MinChartWrapperHeight float64 `yaml:"min_chart_wrapper_height" json:"minChartWrapperHeight" env:"MIN_CHART_WRAPPER_HEIGHT"`
	HeaderBuffer          float64 `yaml:"header_buffer" json:"headerBuffer" env:"HEADER_BUFFER"`
	FooterGap             float64 `yaml:"footer_gap" json:"footerGap" env:"FOOTER_GAP"`
	VisualPadding         float64 `yaml:"visual_padding" json:"visualPadding" env:"VISUAL_PADDING"`
	DefaultFooterReserve  float64 `yaml:"default_footer_reserve" json:"defaultFooterReserve" env:"DEFAULT_FOOTER_RESERVE"`
	DefaultParentViewport float64 `yaml:"default_parent_viewport" json:"defaultParentViewport" env:"DEFAULT_PARENT_VIEWPORT"`
	DefaultParentFooter   float64 `yaml:"default_parent_footer" json:"defaultParentFooter" env:"DEFAULT_PARENT_FOOTER"`
	ResizeThreshold       float64 `yaml:"resize_threshold" json:"resizeThreshold" env:"RESIZE_THRESHOLD"`
	MinHeightDelta        int     `yaml:"min_height_delta" json:"minHeightDelta" env:"MIN_HEIGHT_DELTA"`

	// Measurements below MinMeasuredHeight are treated as a collapsed
	// document and replaced by max(HardMinimumHeight, fallback estimate).
	MinMeasuredHeight float64 `yaml:"min_measured_height" json:"minMeasuredHeight" env:"MIN_MEASURED_HEIGHT"`
	HardMinimumHeight float64 `yaml:"hard_minimum_height" json:"hardMinimumHeight" env:"HARD_MINIMUM_HEIGHT"`

	SuppressWindow time.Duration `yaml:"suppress_window" json:"suppressWindow" env:"SUPPRESS_WINDOW"`
}

// DefaultSettings returns the settings the widget ships with.
func DefaultSettings() Settings {
	return Settings{
		MinChartCanvasHeight:  420,
		MinChartWrapperHeight: 480,
		HeaderBuffer:          10,
		FooterGap:             6,
		VisualPadding:         27,
		DefaultFooterReserve:  160,
		DefaultParentViewport: 900,
		DefaultParentFooter:   140,
		ResizeThreshold:       3,
		MinHeightDelta:        8,
		MinMeasuredHeight:     300,
		HardMinimumHeight:     1100,
		SuppressWindow:        450 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.MinChartCanvasHeight <= 0 {
		s.MinChartCanvasHeight = d.MinChartCanvasHeight
	}
	if s.MinChartWrapperHeight <= 0 {
		s.MinChartWrapperHeight = d.MinChartWrapperHeight
	}
	if s.HeaderBuffer <= 0 {
		s.HeaderBuffer = d.HeaderBuffer
	}
	if s.FooterGap <= 0 {
		s.FooterGap = d.FooterGap
	}
	if s.VisualPadding <= 0 {
		s.VisualPadding = d.VisualPadding
	}
	if s.DefaultFooterReserve <= 0 {
		s.DefaultFooterReserve = d.DefaultFooterReserve
	}
	if s.DefaultParentViewport <= 0 {
		s.DefaultParentViewport = d.DefaultParentViewport
	}
	if s.DefaultParentFooter <= 0 {
		s.DefaultParentFooter = d.DefaultParentFooter
	}
	if s.ResizeThreshold <= 0 {
		s.ResizeThreshold = d.ResizeThreshold
	}
	if s.MinHeightDelta <= 0 {
		s.MinHeightDelta = d.MinHeightDelta
	}
	if s.MinMeasuredHeight <= 0 {
		s.MinMeasuredHeight = d.MinMeasuredHeight
	}
	if s.HardMinimumHeight <= 0 {
		s.HardMinimumHeight = d.HardMinimumHeight
	}
	if s.SuppressWindow <= 0 {
		s.SuppressWindow = d.SuppressWindow
	}
	return s
}

// Clock supplies the current time. Tests use a manual clock.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(time.Now)
