// Package echarts renders the bubble chart natively with go-echarts. The
// dev server uses it for the preview page and the compare command for
// HTML reports.
package echarts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/naei/bubblechart/pkg/comparison"
	"github.com/naei/bubblechart/pkg/widget"
)

// Bubble sizes in pixels.
const (
	MinBubble = 8
	MaxBubble = 60
)

// BubbleSize scales pollution to a bubble diameter by area.
func BubbleSize(pollution, maxPollution float64) int {
	if !(pollution > 0) || !(maxPollution > 0) || math.IsInf(pollution, 0) {
		return MinBubble
	}
	r := math.Sqrt(math.Min(pollution, maxPollution) / maxPollution)
	return MinBubble + int(math.Round(r*float64(MaxBubble-MinBubble)))
}

// Renderer implements widget.Renderer by rendering a standalone HTML page.
type Renderer struct {
	Data   widget.DataSource
	Colors widget.Colors
	Width  string
	Height string

	mu      sync.Mutex
	page    bytes.Buffer
	message string
}

// NewRenderer renders charts from data.
func NewRenderer(data widget.DataSource, colors widget.Colors) *Renderer {
	return &Renderer{Data: data, Colors: colors, Width: "960px", Height: "600px"}
}

// DrawChart renders one series per category: activity on x, emission
// factor on y, bubble area proportional to pollution.
func (r *Renderer) DrawChart(ctx context.Context, year, pollutantID int, categoryIDs []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	names := make(map[int]string)
	for _, c := range r.Data.Categories() {
		names[c.ID] = c.Name
	}
	points := r.Data.ScatterData(year, pollutantID, categoryIDs)
	if len(points) == 0 {
		return fmt.Errorf("no data for %d/%d", year, pollutantID)
	}

	unit := r.Data.PollutantUnit(pollutantID)
	activity := r.Data.ActivityUnit()
	if activity == "" {
		activity = "TJ"
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Bubble chart preview",
			Theme:     types.ThemeWesteros,
			Width:     r.Width,
			Height:    r.Height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s emissions, %d", r.Data.PollutantName(pollutantID), year),
			Subtitle: "Bubble area shows total pollution",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Activity (" + activity + ")", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Emission factor (" + comparison.EmissionFactorUnit + ")", Type: "value", Scale: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)

	maxPollution := 0.0
	for _, p := range points {
		if p.PollutantValue > maxPollution {
			maxPollution = p.PollutantValue
		}
	}
	for _, id := range categoryIDs {
		for _, p := range points {
			if p.CategoryID != id {
				continue
			}
			ef, ok := p.EmissionFactor()
			if !ok {
				continue
			}
			g, _ := comparison.ToGramsPerGJ(ef, unit)
			name := names[id]
			series := []opts.ScatterData{{
				Name:       name,
				Value:      []float64{p.ActDataValue, g},
				SymbolSize: BubbleSize(p.PollutantValue, maxPollution),
			}}
			var options []charts.SeriesOpts
			if r.Colors != nil {
				if col := r.Colors.ColorFor(name); col != "" {
					options = append(options, charts.WithItemStyleOpts(opts.ItemStyle{Color: col}))
				}
			}
			scatter.AddSeries(name, series, options...)
		}
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	r.mu.Lock()
	r.page = buf
	r.message = ""
	r.mu.Unlock()
	return nil
}

func (r *Renderer) ShowMessage(text, level string) {
	r.mu.Lock()
	r.message = level + ": " + text
	r.mu.Unlock()
}

func (r *Renderer) ClearMessage() {
	r.mu.Lock()
	r.message = ""
	r.mu.Unlock()
}

func (r *Renderer) WaitForStability(ctx context.Context) error { return ctx.Err() }

// WriteTo writes the last rendered page.
func (r *Renderer) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := w.Write(r.page.Bytes())
	return int64(n), err
}

// Message returns the last message shown instead of a chart.
func (r *Renderer) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

var _ widget.Renderer = (*Renderer)(nil)
