// Package async provides a single-slot, multi-subscriber future for values that only become
// known after a playback backend has initialized (duration, volume, byte counts).
package async

import (
	"sync"

	"github.com/samber/mo"
)

// Value holds at most one value per load generation.
//
// Callbacks registered with Get before the value is known are queued and fire exactly once,
// in registration order, when Set is called. Reset starts a new generation: the cached value
// and every queued callback are dropped and will never fire.
type Value[T any] struct {
	mu      sync.Mutex
	value   mo.Option[T]
	waiters []func(T)
	// generation counts resets
	generation uint64
}

// New returns an unset Value.
func New[T any]() *Value[T] {
	return &Value[T]{value: mo.None[T]()}
}

// Get invokes fn synchronously if the value is known, otherwise queues it.
func (v *Value[T]) Get(fn func(T)) {
	if fn == nil {
		return
	}

	v.mu.Lock()
	if value, ok := v.value.Get(); ok {
		v.mu.Unlock()
		fn(value)
		return
	}
	v.waiters = append(v.waiters, fn)
	v.mu.Unlock()
}

// Set records value for the current generation and drains the queue.
// Only the first Set of a generation is recorded; later calls are ignored and
// reported as false.
func (v *Value[T]) Set(value T) bool {
	v.mu.Lock()
	if v.value.IsPresent() {
		v.mu.Unlock()
		return false
	}
	v.value = mo.Some(value)
	waiters := v.waiters
	v.waiters = nil
	generation := v.generation
	v.mu.Unlock()

	for _, fn := range waiters {
		// a waiter may reset the value, the rest belong to the old generation
		if !v.current(generation) {
			break
		}
		fn(value)
	}
	return true
}

// Reset discards the cached value and any callbacks that have not fired yet.
func (v *Value[T]) Reset() {
	v.mu.Lock()
	v.value = mo.None[T]()
	v.waiters = nil
	v.generation++
	v.mu.Unlock()
}

func (v *Value[T]) current(generation uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation == generation
}

// Peek returns the cached value without subscribing.
func (v *Value[T]) Peek() mo.Option[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Pending reports how many callbacks are waiting for the value.
func (v *Value[T]) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.waiters)
}
