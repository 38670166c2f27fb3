package widget

import (
	"sync"

	"github.com/naei/bubblechart/pkg/message"
	"github.com/naei/bubblechart/pkg/scheduler"
)

type scrollRequest struct {
	id   string
	once sync.Once
	done func(acked bool)
}

func (r *scrollRequest) finish(acked bool) {
	r.once.Do(func() {
		if r.done != nil {
			r.done(acked)
		}
	})
}

// AttachTutorial registers the tutorial overlay once it is built and opens
// it if the host asked for it earlier.
func (c *Controller) AttachTutorial(t Tutorial) {
	c.mu.Lock()
	c.tutorial = t
	reason := c.pendingOpen
	c.pendingOpen = ""
	c.mu.Unlock()
	if reason != "" {
		c.openTutorial(reason)
	}
}

// openTutorial honours a host request to open the overlay. Only a user
// initiated open scrolls the frame into view.
func (c *Controller) openTutorial(reason string) {
	if reason == "" {
		reason = "parent"
	}
	c.mu.Lock()
	t := c.tutorial
	if t == nil {
		c.pendingOpen = reason
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if t.Disabled() || t.Active() {
		return
	}
	t.Open(reason, reason != "user")
}

// RequestTutorialScroll asks the host to scroll the frame into view and
// calls done once the host acknowledges or the grace period runs out. A
// newer request supersedes an outstanding one.
func (c *Controller) RequestTutorialScroll(done func(acked bool)) string {
	req := &scrollRequest{id: c.newID(), done: done}

	c.mu.Lock()
	prev := c.scroll
	c.scroll = req
	c.mu.Unlock()
	if prev != nil {
		prev.finish(false)
	}

	if !c.embedded {
		c.clearScroll(req)
		req.finish(false)
		return req.id
	}

	if out := c.poster.Post(message.ScrollToBubbleTutorial{RequestID: req.id}); !out.OK() {
		c.logger.Debug("scroll request not delivered", "err", out.Err)
		c.clearScroll(req)
		req.finish(false)
		return req.id
	}

	c.sched.After(scheduler.QueueScrollAck, c.timing.ScrollAckGrace, "scroll-ack-grace", func() {
		if c.clearScroll(req) {
			c.logger.Debug("scroll request not acknowledged", "id", req.id)
		}
		req.finish(false)
	})
	return req.id
}

func (c *Controller) ackScroll(id string) {
	c.mu.Lock()
	req := c.scroll
	if req == nil || req.id != id {
		c.mu.Unlock()
		return
	}
	c.scroll = nil
	c.mu.Unlock()
	c.sched.Cancel(scheduler.QueueScrollAck)
	req.finish(true)
}

// clearScroll drops req if it is still outstanding.
func (c *Controller) clearScroll(req *scrollRequest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scroll != req {
		return false
	}
	c.scroll = nil
	return true
}

// TutorialStateChanged tells the host the overlay opened or closed and
// refreshes the reported height, which the overlay affects.
func (c *Controller) TutorialStateChanged(state, source string) {
	if c.embedded {
		if out := c.poster.Post(message.BubbleTutorialState{State: state, Source: source}); !out.OK() {
			c.logger.Debug("tutorial state not delivered", "err", out.Err)
		}
	}
	c.notifyAfter(scheduler.QueueHeightNotify, c.timing.ChromeNotifyDelay, "tutorial-"+state, true)
}
