package sim

import (
	"errors"
	"sync"

	"github.com/naei/bubblechart/pkg/message"
)

// ErrNoParent is the reason a blocked Poster reports.
var ErrNoParent = errors.New("sim: parent window unavailable")

// Poster records every message the widget sends to its parent.
type Poster struct {
	mu      sync.Mutex
	sent    []message.Message
	blocked bool
	onPost  func(message.Message)
}

// NewPoster returns a poster that delivers everything.
func NewPoster() *Poster { return &Poster{} }

// Block makes subsequent posts fail.
func (p *Poster) Block(blocked bool) {
	p.mu.Lock()
	p.blocked = blocked
	p.mu.Unlock()
}

// OnPost registers a callback run for each delivered message, used to
// script parent replies.
func (p *Poster) OnPost(fn func(message.Message)) {
	p.mu.Lock()
	p.onPost = fn
	p.mu.Unlock()
}

// Post implements message.Poster.
func (p *Poster) Post(m message.Message) message.Outcome {
	p.mu.Lock()
	if p.blocked {
		p.mu.Unlock()
		return message.BlockedOutcome(ErrNoParent)
	}
	p.sent = append(p.sent, m)
	fn := p.onPost
	p.mu.Unlock()
	if fn != nil {
		fn(m)
	}
	return message.DeliveredOutcome()
}

// Sent returns a copy of all delivered messages.
func (p *Poster) Sent() []message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]message.Message(nil), p.sent...)
}

// OfType returns delivered messages of type t.
func (p *Poster) OfType(t message.Type) []message.Message {
	var out []message.Message
	for _, m := range p.Sent() {
		if m.Type() == t {
			out = append(out, m)
		}
	}
	return out
}

// Heights returns the heights of delivered contentHeight messages.
func (p *Poster) Heights() []int {
	var out []int
	for _, m := range p.OfType(message.TypeContentHeight) {
		if ch, ok := m.(message.ContentHeight); ok {
			out = append(out, ch.Height)
		}
	}
	return out
}

// Reset forgets delivered messages.
func (p *Poster) Reset() {
	p.mu.Lock()
	p.sent = nil
	p.mu.Unlock()
}
