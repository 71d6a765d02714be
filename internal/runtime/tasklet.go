package runtime

import "github.com/openthread-go/threadcore/internal/threaderr"

// Tasklet is a one-shot deferrable unit of work with stable storage (§4.1).
// It may be posted from interrupt context; the handler itself always runs
// later, on the scheduler's single logical thread, outside any critical
// section. A Tasklet may safely re-post itself or another Tasklet from
// within its own handler.
type Tasklet struct {
	Handler func()

	posted bool
	next   *Tasklet
}

// NewTasklet wraps handler in a Tasklet ready to be posted.
func NewTasklet(handler func()) *Tasklet {
	return &Tasklet{Handler: handler}
}

// Scheduler is the cooperative runtime: a FIFO tasklet queue plus the timer
// list (timer.go). Exactly one Stack-owned Scheduler exists per node (§9:
// "a single Stack value owned by main").
type Scheduler struct {
	cs   CriticalSection
	head *Tasklet
	tail *Tasklet

	timers *timerList
}

// NewScheduler constructs an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: newTimerList()}
}

// Post enqueues t for execution. Posting a Tasklet that is already enqueued
// (and has not yet run) fails with Busy without mutating anything else —
// the idempotent-handler contract from §4.1 depends on this: a caller that
// gets Busy knows its work is already queued to run.
func (s *Scheduler) Post(t *Tasklet) threaderr.Error {
	s.cs.Begin()
	defer s.cs.End()

	if t.posted {
		return threaderr.Busy
	}
	t.posted = true
	t.next = nil
	if s.tail == nil {
		s.head = t
		s.tail = t
	} else {
		s.tail.next = t
		s.tail = t
	}
	return threaderr.None
}

// ArePending reports whether any tasklet is waiting to run. The platform
// main loop uses this to decide whether to sleep until the next interrupt.
func (s *Scheduler) ArePending() bool {
	s.cs.Begin()
	defer s.cs.End()
	return s.head != nil
}

// ProcessNext dequeues and runs at most one tasklet, returning whether one
// ran. The handler is invoked strictly outside the critical section so it
// may itself post tasklets or start/stop timers without deadlocking.
func (s *Scheduler) ProcessNext() bool {
	s.cs.Begin()
	t := s.head
	if t == nil {
		s.cs.End()
		return false
	}
	s.head = t.next
	if s.head == nil {
		s.tail = nil
	}
	t.next = nil
	t.posted = false
	s.cs.End()

	t.Handler()
	return true
}

// Run drives the cooperative main loop: process every pending tasklet, and
// when none remain, block in sleep (typically the HAL's "wait for
// interrupt") until the platform signals more work is ready.
func (s *Scheduler) Run(sleep func()) {
	for {
		if !s.ProcessNext() {
			sleep()
		}
	}
}
