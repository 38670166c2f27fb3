package widget

import (
	"context"

	"github.com/naei/bubblechart/pkg/comparison"
)

// Message levels understood by Renderer.ShowMessage.
const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// Renderer draws the bubble chart.
type Renderer interface {
	DrawChart(ctx context.Context, year, pollutantID int, categoryIDs []int) error
	ShowMessage(text, level string)
	ClearMessage()
	// WaitForStability blocks until the first render has settled.
	WaitForStability(ctx context.Context) error
}

// Category is a selectable emission source.
type Category struct {
	ID   int
	Name string
}

// DataSource serves inventory data and the category hierarchy.
type DataSource interface {
	comparison.InclusionAssessor

	Categories() []Category
	PollutantName(id int) string
	PollutantUnit(id int) string
	ActivityUnit() string
	ScatterData(year, pollutantID int, categoryIDs []int) []comparison.DataPoint
}

// Colors assigns deterministic colours per category in selection order.
type Colors interface {
	Reset()
	ColorFor(name string) string
}

// Tutorial is the slide overlay explaining the chart.
type Tutorial interface {
	Open(reason string, skipScroll bool)
	Active() bool
	Disabled() bool
}

// ComparisonView is the element holding the comparison block.
type ComparisonView interface {
	Show(markup string)
	Hide()
}

// Location mirrors the selection into the address bar.
type Location interface {
	ReplaceQuery(query string)
	// ParentChart returns the host's "chart" query parameter. readable is
	// false when the host is cross-origin.
	ParentChart() (value string, readable bool)
}
