package reactive

import "testing"

func TestValue_SetNotifiesOnChange(t *testing.T) {
	v := NewValue(false)

	var calls []bool
	v.Watch(func(prev, next bool) {
		if prev == next {
			t.Errorf("Watcher called without a change (%v)", next)
		}
		calls = append(calls, next)
	})

	if !v.Set(true) {
		t.Error("Set(true) should report a change")
	}
	if v.Set(true) {
		t.Error("Setting the same value should not report a change")
	}
	v.Set(false)

	if len(calls) != 2 || calls[0] != true || calls[1] != false {
		t.Errorf("Unexpected watcher calls: %v", calls)
	}
	if v.Get() != false {
		t.Error("Get should return the latest value")
	}
}

func TestValue_Unwatch(t *testing.T) {
	v := NewValue(0)

	count := 0
	stop := v.Watch(func(prev, next int) { count++ })
	v.Set(1)
	stop()
	v.Set(2)

	if count != 1 {
		t.Errorf("Expected 1 call before unwatch, got %d", count)
	}
}

func TestValue_WatchersRunInOrder(t *testing.T) {
	v := NewValue("hidden")

	var order []string
	v.Watch(func(prev, next string) { order = append(order, "first") })
	v.Watch(func(prev, next string) { order = append(order, "second") })
	v.Update(func(s string) string { return "visible" })

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("Unexpected order: %v", order)
	}
}

func TestValue_WatcherMaySetAgain(t *testing.T) {
	v := NewValue(0)
	v.Watch(func(prev, next int) {
		if next < 3 {
			v.Set(next + 1)
		}
	})
	v.Set(1)
	if v.Get() != 3 {
		t.Errorf("Expected cascading sets to settle at 3, got %d", v.Get())
	}
}
