package widget

import (
	"strings"

	"github.com/naei/bubblechart/pkg/message"
)

// KeyEvent is the subset of a keydown event used for navigation forwarding.
type KeyEvent struct {
	Key              string
	Meta, Ctrl, Alt  bool
	DefaultPrevented bool
	TargetTag        string
	TargetEditable   bool
}

// HandleKey forwards bare left/right arrow presses to the host so it can
// switch charts. It reports whether the event was forwarded; the caller
// then prevents the default action.
func (c *Controller) HandleKey(e KeyEvent) bool {
	if !c.embedded || e.DefaultPrevented || e.Meta || e.Ctrl || e.Alt {
		return false
	}
	var direction string
	switch e.Key {
	case "ArrowRight":
		direction = message.DirectionNext
	case "ArrowLeft":
		direction = message.DirectionPrevious
	default:
		return false
	}
	if e.TargetEditable {
		return false
	}
	switch strings.ToLower(e.TargetTag) {
	case "input", "textarea", "select":
		return false
	}
	out := c.poster.Post(message.RequestChartNavigation{Direction: direction, Source: Source})
	return out.OK()
}
