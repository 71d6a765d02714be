package runtime

// Clock returns milliseconds since an arbitrary epoch-of-boot, matching the
// HAL's alarm_get_now() (§6).
type Clock func() uint32

// AlarmController reprograms the single one-shot hardware alarm. Program
// schedules a fire at t0+dt (ms); Stop cancels a pending fire. The HAL is
// expected to call Scheduler.AlarmFired from its alarm ISR.
type AlarmController interface {
	Program(t0, dt uint32)
	Stop()
}

type nopAlarm struct{}

func (nopAlarm) Program(uint32, uint32) {}
func (nopAlarm) Stop()                  {}

// Timer is a one-shot callback scheduled dt milliseconds after Start is
// called (§4.1). Timers live on an unordered linked list; the scheduler
// recomputes the minimum remaining time on every insert/remove and
// reprograms the hardware alarm accordingly.
type Timer struct {
	list    *timerList
	handler func()

	t0      uint32
	dt      uint32
	running bool
	next    *Timer
}

// Start sets t0 to now and schedules handler to run dt milliseconds later,
// relinking the timer if it was already running.
func (t *Timer) Start(dt uint32) {
	t.list.remove(t)
	t.t0 = t.list.clock()
	t.dt = dt
	t.list.insert(t)
}

// Stop cancels the timer if running; it is a no-op otherwise.
func (t *Timer) Stop() {
	t.list.remove(t)
}

// IsRunning reports whether the timer is currently linked into the list.
func (t *Timer) IsRunning() bool {
	return t.running
}

// FiresAt returns the absolute ms timestamp the timer is due, valid only
// while IsRunning.
func (t *Timer) FiresAt() uint32 {
	return t.t0 + t.dt
}

func (t *Timer) remaining(now uint32) int64 {
	elapsed := int64(now) - int64(t.t0)
	return int64(t.dt) - elapsed
}

type timerList struct {
	cs    CriticalSection
	clock Clock
	alarm AlarmController
	head  *Timer

	// scheduler receives a fresh tasklet on every alarm fire that walks
	// the list and runs due callbacks; it is set by Configure.
	scheduler *Scheduler
}

func newTimerList() *timerList {
	return &timerList{clock: func() uint32 { return 0 }, alarm: nopAlarm{}}
}

// NewTimer allocates a Timer bound to this scheduler.
func (s *Scheduler) NewTimer(handler func()) *Timer {
	return &Timer{list: s.timers, handler: handler}
}

// Configure injects the HAL clock and alarm collaborators. Must be called
// once during platform bring-up before any Timer.Start.
func (s *Scheduler) Configure(clock Clock, alarm AlarmController) {
	s.timers.clock = clock
	s.timers.alarm = alarm
	s.timers.scheduler = s
}

func (l *timerList) insert(t *Timer) {
	l.cs.Begin()
	t.next = l.head
	l.head = t
	t.running = true
	l.cs.End()
	l.reprogram()
}

func (l *timerList) remove(t *Timer) {
	if !t.running {
		return
	}
	l.cs.Begin()
	if l.head == t {
		l.head = t.next
	} else {
		for p := l.head; p != nil; p = p.next {
			if p.next == t {
				p.next = t.next
				break
			}
		}
	}
	t.next = nil
	t.running = false
	l.cs.End()
	l.reprogram()
}

// reprogram recomputes min_remaining across every live timer and
// reprograms the one-shot hardware alarm, per §4.1.
func (l *timerList) reprogram() {
	now := l.clock()
	l.cs.Begin()
	var earliest *Timer
	var minRemaining int64 = 1<<63 - 1
	for t := l.head; t != nil; t = t.next {
		r := t.remaining(now)
		if r < minRemaining {
			minRemaining = r
			earliest = t
		}
	}
	l.cs.End()

	if earliest == nil {
		l.alarm.Stop()
		return
	}
	if minRemaining < 0 {
		minRemaining = 0
	}
	l.alarm.Program(now, uint32(minRemaining))
}

// AlarmFired is invoked from the HAL's alarm ISR hook (alarm_signal_fired).
// It never runs protocol code directly: it posts a tasklet that walks the
// timer list on the scheduler's own thread.
func (s *Scheduler) AlarmFired() {
	s.Post(NewTasklet(s.fireDueTimers))
}

// fireDueTimers implements the policy this repository settled on for the
// open question in spec §9: fire at most one due timer per invocation, then
// immediately re-post itself if another is already due. This preserves
// FIFO-like fairness with other tasklets (a burst of expired timers doesn't
// monopolize the tasklet thread) while still draining all of them promptly,
// since the repost races no one else for the queue head.
func (s *Scheduler) fireDueTimers() {
	now := s.timers.clock()

	s.timers.cs.Begin()
	var due *Timer
	for t := s.timers.head; t != nil; t = t.next {
		if t.remaining(now) <= 0 {
			due = t
			break
		}
	}
	s.timers.cs.End()

	if due == nil {
		s.timers.reprogram()
		return
	}

	due.Stop()
	due.handler()

	s.timers.cs.Begin()
	more := false
	for t := s.timers.head; t != nil; t = t.next {
		if t.remaining(s.timers.clock()) <= 0 {
			more = true
			break
		}
	}
	s.timers.cs.End()

	if more {
		s.Post(NewTasklet(s.fireDueTimers))
	} else {
		s.timers.reprogram()
	}
}
