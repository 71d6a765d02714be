package posix

import (
	"sync"
	"time"
)

// Alarm implements platform.Alarm over a single real-time goroutine timer:
// the closest POSIX equivalent of the embedded target's one-shot hardware
// alarm. NowMs anchors to this Alarm's construction time so the millisecond
// clock the rest of the stack sees starts near zero, the same convention
// as the embedded `alarm_get_now()`.
type Alarm struct {
	mu      sync.Mutex
	start   time.Time
	timer   *time.Timer
	onFired func()
}

// NewAlarm constructs an Alarm. onFired is called (from a goroutine, not
// the main loop) when a programmed deadline elapses; the caller is
// expected to wire it to runtime.Scheduler.AlarmFired, matching the HAL's
// "alarm ISR posts, main loop processes" contract (§5) — AlarmFired itself
// only posts a tasklet, so calling it from a goroutine is safe.
func NewAlarm(onFired func()) *Alarm {
	return &Alarm{start: time.Now(), onFired: onFired}
}

// NowMs returns milliseconds since this Alarm was constructed.
func (a *Alarm) NowMs() uint32 {
	return uint32(time.Since(a.start).Milliseconds())
}

// Program schedules onFired to run dt milliseconds after t0 (both measured
// against NowMs's epoch), canceling any previously programmed deadline.
func (a *Alarm) Program(t0, dt uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	fireAt := a.start.Add(time.Duration(t0+dt) * time.Millisecond)
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}
	a.timer = time.AfterFunc(delay, a.onFired)
}

// Stop cancels a pending deadline, if any.
func (a *Alarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
