// Package sched provides the scheduled-task abstraction the player core runs on.
//
// Every state transition of a player happens on one logical task queue. Code that learns
// something on another goroutine (an IPC reader, a finished process) posts a task; polls
// are cancellable timers rather than self-rescheduling functions, so Destroy and Reset can
// stop outstanding work deterministically.
package sched

import "time"

// Timer is a handle to a scheduled task.
type Timer interface {
	// Stop cancels the task. It reports whether the task was still pending.
	// A stopped task never runs, even if it was already due.
	Stop() bool
}

// Scheduler runs tasks serially.
type Scheduler interface {
	// Post queues fn to run on the scheduler as soon as possible.
	Post(fn func())

	// AfterFunc queues fn to run once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Every runs fn every d until the returned timer is stopped or fn returns false.
func Every(s Scheduler, d time.Duration, fn func() bool) Timer {
	r := &repeater{s: s, d: d, fn: fn}
	r.schedule()
	return r
}

type repeater struct {
	s       Scheduler
	d       time.Duration
	fn      func() bool
	current Timer
	stopped bool
}

func (r *repeater) schedule() {
	r.current = r.s.AfterFunc(r.d, func() {
		if r.stopped {
			return
		}
		if !r.fn() {
			r.stopped = true
			return
		}
		if !r.stopped {
			r.schedule()
		}
	})
}

func (r *repeater) Stop() bool {
	if r.stopped {
		return false
	}
	r.stopped = true
	return r.current.Stop()
}
