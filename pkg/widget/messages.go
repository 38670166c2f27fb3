package widget

import (
	"github.com/naei/bubblechart/pkg/message"
	"github.com/naei/bubblechart/pkg/scheduler"
)

// HandleMessage applies a validated message from the host page. Each
// message is treated as the latest known value; nothing is queued for
// ordered replay.
func (c *Controller) HandleMessage(m message.Message) {
	switch m := m.(type) {
	case message.ParentViewportMetrics:
		c.parentMetrics(m)
	case message.RequestHeight:
		c.layout.Invalidate()
		c.notify("request-height", true)
	case message.OverlayHidden:
		c.layout.Invalidate()
		c.notifyAfter(scheduler.QueueHeightNotify, c.timing.OverlayHiddenDelay, "overlay-hidden", true)
	case message.OpenBubbleTutorial:
		c.openTutorial(m.Reason)
	case message.BubbleTutorialScrollComplete:
		c.ackScroll(m.RequestID)
	default:
		c.logger.Debug("ignoring message", "type", m.Type())
	}
}

// HandleRaw decodes and applies a raw message payload. Malformed and
// unknown payloads are dropped.
func (c *Controller) HandleRaw(data map[string]any) {
	m, err := message.Decode(data)
	if err != nil {
		c.logger.Debug("dropping message", "err", err)
		return
	}
	c.HandleMessage(m)
}

func (c *Controller) parentMetrics(m message.ParentViewportMetrics) {
	if c.layout.Metrics.ApplyParent(m) {
		c.sched.After(scheduler.QueueParentViewport, c.timing.ParentRedrawDelay, "parent-viewport", func() {
			if err := c.Draw(c.ctx, true); err != nil {
				c.logger.Warn("parent viewport redraw failed", "err", err)
			}
			c.notifyAfter(scheduler.QueueHeightNotify, c.timing.ParentNotifyDelay, "parent-viewport", true)
		})
	}
	c.layout.UpdateWrapperHeight("parent-viewport")
}
