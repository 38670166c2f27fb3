// Package reactive provides observable values for widget state that other
// components need to react to, such as the comparison block visibility.
package reactive

import "sync"

// Watcher is called after a value changes.
type Watcher[T comparable] func(prev, next T)

// Value holds a comparable value and notifies watchers when it changes.
// Setting the current value again is a no-op.
type Value[T comparable] struct {
	mu       sync.RWMutex
	value    T
	watchers map[uint32]Watcher[T]
	order    []uint32
	nextID   uint32
}

// NewValue creates a Value holding initial.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{
		value:    initial,
		watchers: make(map[uint32]Watcher[T]),
		nextID:   1,
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores next and reports whether it differed from the previous value.
// Watchers run synchronously, in registration order, outside the lock.
func (v *Value[T]) Set(next T) bool {
	v.mu.Lock()
	prev := v.value
	if prev == next {
		v.mu.Unlock()
		return false
	}
	v.value = next
	watchers := v.snapshot()
	v.mu.Unlock()

	for _, w := range watchers {
		w(prev, next)
	}
	return true
}

// Update applies fn to the current value and stores the result.
func (v *Value[T]) Update(fn func(T) T) bool {
	return v.Set(fn(v.Get()))
}

// Watch registers w and returns a function that removes it.
func (v *Value[T]) Watch(w Watcher[T]) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.watchers[id] = w
	v.order = append(v.order, id)
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.watchers, id)
	}
}

func (v *Value[T]) snapshot() []Watcher[T] {
	out := make([]Watcher[T], 0, len(v.watchers))
	live := v.order[:0]
	for _, id := range v.order {
		if w, ok := v.watchers[id]; ok {
			out = append(out, w)
			live = append(live, id)
		}
	}
	v.order = live
	return out
}
