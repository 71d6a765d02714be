package posix

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlarmFiresAfterProgrammedDelay(t *testing.T) {
	var fired int32
	a := NewAlarm(func() { atomic.StoreInt32(&fired, 1) })
	a.Program(a.NowMs(), 10)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, time.Millisecond)
}

func TestAlarmStopPreventsFire(t *testing.T) {
	var fired int32
	a := NewAlarm(func() { atomic.StoreInt32(&fired, 1) })
	a.Program(a.NowMs(), 50)
	a.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestAlarmNowMsIncreasesMonotonically(t *testing.T) {
	a := NewAlarm(func() {})
	first := a.NowMs()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, a.NowMs(), first)
}
