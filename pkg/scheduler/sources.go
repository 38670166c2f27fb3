package scheduler

import (
	"sort"
	"sync"
	"time"
)

// RuntimeTimers implements TimerSource with time.AfterFunc.
type RuntimeTimers struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

// NewRuntimeTimers creates a TimerSource backed by the Go runtime.
func NewRuntimeTimers() *RuntimeTimers {
	return &RuntimeTimers{next: 1, timers: make(map[Handle]*time.Timer)}
}

// AfterFunc schedules fn after d.
func (r *RuntimeTimers) AfterFunc(d time.Duration, fn func()) Handle {
	r.mu.Lock()
	h := r.next
	r.next++
	r.mu.Unlock()

	t := time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, h)
		r.mu.Unlock()
		fn()
	})

	r.mu.Lock()
	r.timers[h] = t
	r.mu.Unlock()
	return h
}

// CancelTimer stops the timer behind h.
func (r *RuntimeTimers) CancelTimer(h Handle) {
	r.mu.Lock()
	t := r.timers[h]
	delete(r.timers, h)
	r.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// Manual is a deterministic clock, frame source and timer source. Nothing
// runs until Frame or Advance is called, which makes it suitable for tests
// and for the simulated layout inspector.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	next   Handle
	frames map[Handle]func()
	timers map[Handle]manualTimer
	order  []Handle
}

type manualTimer struct {
	at time.Time
	fn func()
}

// NewManual creates a manual source starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		next:   1,
		frames: make(map[Handle]func()),
		timers: make(map[Handle]manualTimer),
	}
}

// Now returns the manual clock time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// RequestFrame queues fn for the next Frame call.
func (m *Manual) RequestFrame(fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.next
	m.next++
	m.frames[h] = fn
	m.order = append(m.order, h)
	return h
}

// CancelFrame drops a queued frame callback.
func (m *Manual) CancelFrame(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.frames, h)
}

// AfterFunc queues fn to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.next
	m.next++
	m.timers[h] = manualTimer{at: m.now.Add(d), fn: fn}
	return h
}

// CancelTimer drops a queued timer.
func (m *Manual) CancelTimer(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, h)
}

// PendingFrames returns the number of queued frame callbacks.
func (m *Manual) PendingFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// PendingTimers returns the number of queued timers.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Frame runs the callbacks that were queued before the call. Callbacks
// requested while running wait for the next Frame.
func (m *Manual) Frame() int {
	m.mu.Lock()
	order := m.order
	m.order = nil
	var run []func()
	for _, h := range order {
		if fn, ok := m.frames[h]; ok {
			run = append(run, fn)
			delete(m.frames, h)
		}
	}
	m.mu.Unlock()

	for _, fn := range run {
		fn()
	}
	return len(run)
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Timers scheduled by fired callbacks also run if they fall within the window.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	fired := 0
	for {
		m.mu.Lock()
		var due []Handle
		for h, t := range m.timers {
			if !t.at.After(target) {
				due = append(due, h)
			}
		}
		if len(due) == 0 {
			m.now = target
			m.mu.Unlock()
			return fired
		}
		sort.Slice(due, func(i, j int) bool {
			ti, tj := m.timers[due[i]].at, m.timers[due[j]].at
			if ti.Equal(tj) {
				return due[i] < due[j]
			}
			return ti.Before(tj)
		})
		h := due[0]
		t := m.timers[h]
		delete(m.timers, h)
		if t.at.After(m.now) {
			m.now = t.at
		}
		m.mu.Unlock()

		t.fn()
		fired++
	}
}
