package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_CoalescesSynchronousRequests(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(m, m, nil)

	var runs int
	var lastReason string
	for i := 0; i < 25; i++ {
		reason := "toggle"
		if i == 24 {
			reason = "last"
		}
		r := reason
		sched.Schedule(QueueRedraw, r, func() {
			runs++
			lastReason = r
		})
	}

	if m.PendingFrames() != 1 {
		t.Fatalf("Expected exactly 1 pending frame, got %d", m.PendingFrames())
	}

	m.Frame()

	if runs != 1 {
		t.Errorf("Expected 1 execution, got %d", runs)
	}
	if lastReason != "last" {
		t.Errorf("Expected the newest request to win, got %q", lastReason)
	}
	if sched.Pending(QueueRedraw) {
		t.Error("Queue should be empty after running")
	}
}

func TestScheduler_QueuesAreIndependent(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(m, m, nil)

	var redraws, refreshes int
	sched.Schedule(QueueRedraw, "a", func() { redraws++ })
	sched.Schedule(QueueChromeRefresh, "b", func() { refreshes++ })
	sched.Schedule(QueueChromeRefresh, "c", func() { refreshes++ })

	m.Frame()

	if redraws != 1 || refreshes != 1 {
		t.Errorf("Expected one run per queue, got redraw=%d refresh=%d", redraws, refreshes)
	}
}

func TestScheduler_WorkScheduledDuringRunWaitsForNextFrame(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(m, m, nil)

	var runs int
	sched.Schedule(QueueRedraw, "first", func() {
		runs++
		sched.Schedule(QueueRedraw, "second", func() { runs++ })
	})

	m.Frame()
	if runs != 1 {
		t.Fatalf("Expected 1 run after first frame, got %d", runs)
	}
	m.Frame()
	if runs != 2 {
		t.Errorf("Expected 2 runs after second frame, got %d", runs)
	}
}

func TestScheduler_AfterReplacesPendingTimer(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(m, m, nil)

	var runs int
	sched.After(QueueResize, 250*time.Millisecond, "resize", func() { runs++ })
	m.Advance(200 * time.Millisecond)
	sched.After(QueueResize, 250*time.Millisecond, "resize", func() { runs++ })
	m.Advance(200 * time.Millisecond)

	if runs != 0 {
		t.Fatalf("Debounced work ran early: %d", runs)
	}

	m.Advance(50 * time.Millisecond)
	if runs != 1 {
		t.Errorf("Expected 1 run, got %d", runs)
	}
	if m.PendingTimers() != 0 {
		t.Errorf("Replaced timer should have been cancelled, %d left", m.PendingTimers())
	}
}

func TestScheduler_FrameFallbackUsesTimer(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(nil, m, nil)

	var runs int
	sched.Schedule(QueueChromeRefresh, "no-raf", func() { runs++ })
	sched.Schedule(QueueChromeRefresh, "no-raf", func() { runs++ })

	m.Advance(FrameFallback - time.Millisecond)
	if runs != 0 {
		t.Fatal("Fallback fired too early")
	}
	m.Advance(time.Millisecond)
	if runs != 1 {
		t.Errorf("Expected 1 run, got %d", runs)
	}
}

func TestScheduler_Cancel(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(m, m, nil)

	ran := false
	sched.Schedule(QueueRedraw, "cancel-me", func() { ran = true })
	if reason, ok := sched.PendingReason(QueueRedraw); !ok || reason != "cancel-me" {
		t.Fatalf("Unexpected pending reason %q (%v)", reason, ok)
	}
	sched.Cancel(QueueRedraw)
	m.Frame()

	if ran {
		t.Error("Cancelled work should not run")
	}
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(m, m, nil)

	var handled Queue
	sched.SetErrorHandler(func(q Queue, reason string, err interface{}) {
		handled = q
	})

	sched.Schedule(QueueRedraw, "boom", func() { panic("draw failed") })
	m.Frame()

	if handled != QueueRedraw {
		t.Errorf("Expected panic to be reported for %q, got %q", QueueRedraw, handled)
	}

	ran := false
	sched.Schedule(QueueRedraw, "after", func() { ran = true })
	m.Frame()
	if !ran {
		t.Error("Scheduler should keep working after a panic")
	}
}

func TestScheduler_StopRejectsWork(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	sched := NewScheduler(m, m, nil)

	ran := false
	sched.Schedule(QueueRedraw, "before-stop", func() { ran = true })
	sched.Stop()
	sched.Schedule(QueueRedraw, "after-stop", func() { ran = true })
	m.Frame()

	if ran {
		t.Error("No work should run after Stop")
	}
}

func TestScheduler_RuntimeTimers(t *testing.T) {
	sched := NewScheduler(nil, nil, nil)
	defer sched.Stop()

	var runs atomic.Int32
	for i := 0; i < 10; i++ {
		sched.After(QueueHeightPoke, 20*time.Millisecond, "poke", func() { runs.Add(1) })
	}

	time.Sleep(100 * time.Millisecond)

	if runs.Load() != 1 {
		t.Errorf("Expected 1 run with runtime timers, got %d", runs.Load())
	}
}
