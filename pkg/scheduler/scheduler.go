// Package scheduler coalesces bursts of layout work into single executions.
//
// Work is grouped into named queues. Each queue holds at most one pending
// token: scheduling again cancels the pending token and replaces it, so any
// number of synchronous requests collapse into one run on the next animation
// frame (or after the requested delay).
package scheduler

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Queue names a coalescing queue.
type Queue string

// Queues used by the widget.
const (
	QueueRedraw         Queue = "redraw"
	QueueChromeRefresh  Queue = "chrome-refresh"
	QueueResize         Queue = "window-resize"
	QueueParentViewport Queue = "parent-viewport"
	QueueHeightPoke     Queue = "height-poke"
	QueueResizeCheck    Queue = "resize-check"
	QueueHeightNotify   Queue = "height-notify"
	QueueDrawNotify     Queue = "draw-notify"
	QueuePostHeight     Queue = "post-height"
	QueueScrollAck      Queue = "scroll-ack"
)

// FrameFallback is the delay used when no animation-frame source is available.
const FrameFallback = 16 * time.Millisecond

// Handle identifies a frame or timer request so it can be cancelled.
type Handle int

// FrameSource delivers callbacks on the next animation frame.
type FrameSource interface {
	RequestFrame(fn func()) Handle
	CancelFrame(h Handle)
}

// TimerSource delivers callbacks after a delay.
type TimerSource interface {
	AfterFunc(d time.Duration, fn func()) Handle
	CancelTimer(h Handle)
}

// ErrorHandler receives panics raised by scheduled work.
type ErrorHandler func(q Queue, reason string, err interface{})

// token is the single pending entry of a queue.
type token struct {
	id       uint64
	handle   Handle
	viaFrame bool
	reason   string
}

// Scheduler owns the coalescing queues.
type Scheduler struct {
	mu       sync.Mutex
	frames   FrameSource
	timers   TimerSource
	pending  map[Queue]*token
	requests map[Queue]int
	nextID   uint64
	stopped  bool

	logger  *log.Logger
	onError ErrorHandler
}

// NewScheduler creates a scheduler. frames may be nil, in which case frame
// work falls back to a FrameFallback timer. timers may be nil, in which case
// Go runtime timers are used.
func NewScheduler(frames FrameSource, timers TimerSource, logger *log.Logger) *Scheduler {
	if timers == nil {
		timers = NewRuntimeTimers()
	}
	s := &Scheduler{
		frames:   frames,
		timers:   timers,
		pending:  make(map[Queue]*token),
		requests: make(map[Queue]int),
		nextID:   1,
		logger:   logger,
	}
	s.onError = s.logPanic
	return s
}

// SetErrorHandler replaces the default panic handler.
func (s *Scheduler) SetErrorHandler(h ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		h = s.logPanic
	}
	s.onError = h
}

// Schedule runs fn on the next animation frame, replacing any pending work
// in queue q.
func (s *Scheduler) Schedule(q Queue, reason string, fn func()) {
	s.enqueue(q, reason, 0, true, fn)
}

// After runs fn once d has elapsed, replacing any pending work in queue q.
func (s *Scheduler) After(q Queue, d time.Duration, reason string, fn func()) {
	s.enqueue(q, reason, d, false, fn)
}

func (s *Scheduler) enqueue(q Queue, reason string, d time.Duration, viaFrame bool, fn func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.requests[q]++
	prev := s.pending[q]
	tok := &token{id: s.nextID, reason: reason, viaFrame: viaFrame && s.frames != nil}
	s.nextID++
	s.pending[q] = tok
	s.mu.Unlock()

	if prev != nil {
		s.cancelToken(prev)
		s.debug("replaced pending work", "queue", q, "reason", reason, "replaced", prev.reason)
	} else {
		s.debug("queued work", "queue", q, "reason", reason)
	}

	run := func() { s.fire(q, tok, fn) }

	var h Handle
	switch {
	case tok.viaFrame:
		h = s.frames.RequestFrame(run)
	case viaFrame:
		h = s.timers.AfterFunc(FrameFallback, run)
	default:
		h = s.timers.AfterFunc(d, run)
	}

	s.mu.Lock()
	if s.pending[q] == tok {
		tok.handle = h
	}
	s.mu.Unlock()
}

// fire runs fn if tok is still the pending token of q.
func (s *Scheduler) fire(q Queue, tok *token, fn func()) {
	s.mu.Lock()
	if s.pending[q] != tok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, q)
	onError := s.onError
	s.mu.Unlock()

	s.debug("running work", "queue", q, "reason", tok.reason)
	defer func() {
		if r := recover(); r != nil {
			onError(q, tok.reason, r)
		}
	}()
	fn()
}

func (s *Scheduler) cancelToken(tok *token) {
	if tok.handle == 0 {
		return
	}
	if tok.viaFrame {
		s.frames.CancelFrame(tok.handle)
	} else {
		s.timers.CancelTimer(tok.handle)
	}
}

// Cancel drops the pending work of q, if any.
func (s *Scheduler) Cancel(q Queue) {
	s.mu.Lock()
	tok := s.pending[q]
	delete(s.pending, q)
	s.mu.Unlock()
	if tok != nil {
		s.cancelToken(tok)
	}
}

// Pending reports whether q has work waiting to run.
func (s *Scheduler) Pending(q Queue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[q] != nil
}

// PendingReason returns the reason attached to the pending work of q.
func (s *Scheduler) PendingReason(q Queue) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.pending[q]
	if tok == nil {
		return "", false
	}
	return tok.reason, true
}

// Requests counts Schedule and After calls made on q, including ones that
// were later replaced.
func (s *Scheduler) Requests(q Queue) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[q]
}

// Stop cancels everything and rejects further work.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	toks := make([]*token, 0, len(s.pending))
	for q, tok := range s.pending {
		toks = append(toks, tok)
		delete(s.pending, q)
	}
	s.mu.Unlock()
	for _, tok := range toks {
		s.cancelToken(tok)
	}
}

func (s *Scheduler) logPanic(q Queue, reason string, err interface{}) {
	if s.logger == nil {
		return
	}
	s.logger.Error(fmt.Sprintf("scheduled work panicked: %v", err), "queue", q, "reason", reason, "stack", string(debug.Stack()))
}

func (s *Scheduler) debug(msg string, keyvals ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, keyvals...)
	}
}
