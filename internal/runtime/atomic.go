package runtime

import "sync"

// CriticalSection is the HAL-provided, non-reentrant mutual exclusion
// primitive the spec calls "AtomicBegin/End" (§4.1, §5): it protects the
// scheduler's tasklet queue and timer list against concurrent mutation from
// an interrupt handler. On POSIX there is no real ISR, so it is backed by a
// plain mutex; embedded platforms back it with a critical-section HAL call
// that disables interrupts for the duration.
type CriticalSection struct {
	mu sync.Mutex
}

// Begin enters the critical section. Handlers must call End before
// returning; there are no suspension points inside a critical section.
func (c *CriticalSection) Begin() {
	c.mu.Lock()
}

// End leaves the critical section entered by the matching Begin.
func (c *CriticalSection) End() {
	c.mu.Unlock()
}
