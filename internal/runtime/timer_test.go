package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAlarm struct {
	programmed bool
	t0, dt     uint32
}

func (a *fakeAlarm) Program(t0, dt uint32) { a.programmed = true; a.t0, a.dt = t0, dt }
func (a *fakeAlarm) Stop()                 { a.programmed = false }

func TestAlarmProgrammedToEarliestTimer(t *testing.T) {
	s := NewScheduler()
	now := uint32(1000)
	alarm := &fakeAlarm{}
	s.Configure(func() uint32 { return now }, alarm)

	a := s.NewTimer(func() {})
	b := s.NewTimer(func() {})
	a.Start(500)
	b.Start(100)

	assert.True(t, alarm.programmed)
	assert.Equal(t, uint32(100), alarm.dt)
}

func TestFireDueTimersRunsOneThenReposts(t *testing.T) {
	s := NewScheduler()
	now := uint32(0)
	s.Configure(func() uint32 { return now }, &fakeAlarm{})

	var fired []string
	a := s.NewTimer(func() { fired = append(fired, "a") })
	b := s.NewTimer(func() { fired = append(fired, "b") })
	a.Start(10)
	b.Start(10)

	now = 20
	s.AlarmFired()

	for s.ProcessNext() {
	}

	assert.ElementsMatch(t, []string{"a", "b"}, fired)
	assert.False(t, a.IsRunning())
	assert.False(t, b.IsRunning())
}

func TestStopRemovesFromList(t *testing.T) {
	s := NewScheduler()
	now := uint32(0)
	s.Configure(func() uint32 { return now }, &fakeAlarm{})

	timer := s.NewTimer(func() {})
	timer.Start(100)
	assert.True(t, timer.IsRunning())
	timer.Stop()
	assert.False(t, timer.IsRunning())
}
