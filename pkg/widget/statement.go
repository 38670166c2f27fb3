package widget

import (
	"context"

	"github.com/naei/bubblechart/pkg/comparison"
)

// Default units when the data source has none.
const (
	defaultPollutantUnit = "kt"
	defaultActivityUnit  = "TJ"
)

// syncComparison derives the comparison for the two compared categories
// and shows or hides the block.
func (c *Controller) syncComparison(ctx context.Context, sel Selection) error {
	compared := sel.Compared()
	if len(compared) < 2 {
		c.hideComparison()
		return nil
	}

	scatter := c.data.ScatterData(sel.Year, sel.PollutantID, sel.IDs())
	points := make([]comparison.DataPoint, 0, len(compared))
	for _, cat := range compared {
		for _, p := range scatter {
			if p.CategoryID != cat.ID {
				continue
			}
			p.DisplayName = cat.Name
			p.Color = c.colors.ColorFor(cat.Name)
			points = append(points, p)
			break
		}
	}
	if len(points) < 2 {
		c.hideComparison()
		return nil
	}

	unit := c.data.PollutantUnit(sel.PollutantID)
	if unit == "" {
		unit = defaultPollutantUnit
	}
	activity := c.data.ActivityUnit()
	if activity == "" {
		activity = defaultActivityUnit
	}

	st, err := c.engine.Derive(ctx, comparison.Input{
		Points:        points,
		PollutantName: c.data.PollutantName(sel.PollutantID),
		PollutantUnit: unit,
		ActivityUnit:  activity,
	})
	if err != nil {
		return err
	}
	if st == nil || st.PollutantName == "" {
		c.hideComparison()
		return nil
	}

	markup, err := comparison.Markup(st, c.format)
	if err != nil {
		c.logger.Warn("comparison markup failed", "err", err)
		c.hideComparison()
		return nil
	}
	c.showComparison(markup)
	return nil
}

// showComparison measures the markup off-screen, commits it and routes the
// resulting layout change through a single chrome refresh.
func (c *Controller) showComparison(markup string) {
	wasVisible := c.layout.Visibility().Get()

	measured := c.layout.Chrome.MeasureOffscreen(markup)
	c.view.Show(markup)
	if visible := c.layout.Chrome.MeasureVisible(); visible.ComparisonHeight == 0 {
		c.layout.Chrome.Persist(measured)
	}

	if wasVisible {
		c.comparisonLayoutChanged("comparison-update")
		return
	}
	c.layout.Visibility().Set(true)
}

func (c *Controller) hideComparison() {
	c.view.Hide()
	c.layout.Chrome.ClearOffscreen()
	c.layout.Visibility().Set(false)
}

// comparisonLayoutChanged raises the pending chrome flag, mutes the
// wrapper observer and queues one chrome refresh. It never notifies the
// parent directly.
func (c *Controller) comparisonLayoutChanged(reason string) {
	c.layout.SetPendingComparison(true)
	c.layout.Suppress(reason)
	c.ScheduleChromeRefresh(reason)
}
