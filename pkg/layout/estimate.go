package layout

import (
	"errors"
	"math"
)

// ErrNoViewport is returned when metrics cannot drive an estimate.
var ErrNoViewport = errors.New("layout: viewport metrics unavailable")

// HeightEstimator computes the chart canvas height.
type HeightEstimator struct {
	settings Settings
}

// NewHeightEstimator returns an estimator using settings.
func NewHeightEstimator(settings Settings) *HeightEstimator {
	return &HeightEstimator{settings: settings}
}

// Estimate returns max(MinChartCanvasHeight, viewport - footerReserve - HeaderBuffer).
// Title, legend and comparison chrome are accounted for by the caller.
func (e *HeightEstimator) Estimate(viewport, footerReserve float64) (float64, error) {
	if math.IsNaN(viewport) || math.IsInf(viewport, 0) || viewport <= 0 {
		return 0, ErrNoViewport
	}
	if math.IsNaN(footerReserve) || math.IsInf(footerReserve, 0) {
		footerReserve = e.settings.FooterGap
	}
	return math.Max(e.settings.MinChartCanvasHeight, viewport-footerReserve-e.settings.HeaderBuffer), nil
}
