package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/renderer/echarts"
	"github.com/naei/bubblechart/pkg/scheduler"
	"github.com/naei/bubblechart/pkg/widget"
)

// preview is one native run of the widget's draw pipeline.
type preview struct {
	Page    []byte
	Markup  string
	Message string
	Query   string
}

// HTML returns the chart page with the comparison block placed above the
// closing body tag.
func (p *preview) HTML() []byte {
	if p.Markup == "" {
		return p.Page
	}
	block := []byte(`<section id="comparisonDiv" class="comparison-preview">` + p.Markup + "</section>\n</body>")
	if bytes.Contains(p.Page, []byte("</body>")) {
		return bytes.Replace(p.Page, []byte("</body>"), block, 1)
	}
	return append(append([]byte(nil), p.Page...), block...)
}

// renderPreview draws sel from ds with the go-echarts renderer, running
// the same controller the browser build uses on a simulated document.
func renderPreview(ctx context.Context, ds *sim.Dataset, sel widget.Selection, settings layout.Settings, logger *log.Logger) (*preview, error) {
	data := sim.NewData(ds)
	colors := sim.NewColors()
	renderer := echarts.NewRenderer(data, colors)
	doc := sim.NewDocument(settings.WithDefaults().DefaultParentViewport)
	view := sim.NewComparisonView(doc)
	location := &sim.Location{}
	clock := scheduler.NewManual(time.Now())

	c, err := widget.New(ctx, widget.Config{
		Document: doc,
		Frames:   clock,
		Timers:   clock,
		Clock:    clock,
		Renderer: renderer,
		Data:     data,
		Colors:   colors,
		View:     view,
		Location: location,
		Settings: settings,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := c.SetSelection(sel); err != nil {
		return nil, fmt.Errorf("apply selection: %w", err)
	}
	if err := c.Unlock(ctx); err != nil {
		return nil, fmt.Errorf("draw: %w", err)
	}

	var page bytes.Buffer
	if _, err := renderer.WriteTo(&page); err != nil {
		return nil, err
	}
	p := &preview{
		Page:    page.Bytes(),
		Message: renderer.Message(),
		Query:   location.Query(),
	}
	if doc.Displayed(layout.AnchorComparison) {
		p.Markup = view.Markup()
	}
	return p, nil
}
