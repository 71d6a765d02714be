package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/platform"
	"github.com/openthread-go/threadcore/internal/runtime"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

// fakeRadio lets tests script the outcome of each Transmit call and
// deliver synthetic inbound frames.
type fakeRadio struct {
	onRx   platform.RadioReceiveDone
	onTx   platform.RadioTransmitDone
	txLog  [][]byte
	nextTx []error // outcomes to report for successive Transmit calls
}

func (r *fakeRadio) Init() error         { return nil }
func (r *fakeRadio) Receive(uint8) error { return nil }
func (r *fakeRadio) Sleep() error        { return nil }
func (r *fakeRadio) Idle() error         { return nil }
func (r *fakeRadio) SetReceiveDoneCallback(cb platform.RadioReceiveDone)   { r.onRx = cb }
func (r *fakeRadio) SetTransmitDoneCallback(cb platform.RadioTransmitDone) { r.onTx = cb }

func (r *fakeRadio) Transmit(frame []byte) error {
	r.txLog = append(r.txLog, frame)
	var outcome error
	if len(r.nextTx) > 0 {
		outcome = r.nextTx[0]
		r.nextTx = r.nextTx[1:]
	}
	if r.onTx != nil {
		r.onTx(outcome, false)
	}
	return nil
}

type fakeRandom struct{ v uint32 }

func (r *fakeRandom) Init(uint32) {}
func (r *fakeRandom) Get() uint32 { return r.v }

type noopSecurity struct{}

func (noopSecurity) KeyForEncrypt() ([16]byte, uint8, uint32)      { return [16]byte{}, 0, 0 }
func (noopSecurity) KeyForDecrypt(uint8) ([16]byte, bool)          { return [16]byte{}, false }
func (noopSecurity) CheckAndRecordReplay(ExtAddress, uint32) bool  { return true }

func newTestMAC(radio *fakeRadio) (*MAC, *runtime.Scheduler) {
	sched := runtime.NewScheduler()
	now := uint32(0)
	sched.Configure(func() uint32 { return now }, noopAlarm{})
	m := New(sched, radio, &fakeRandom{}, noopSecurity{})
	m.SetIdentity(0x1234, ExtAddress{1}, NewRLOC16(1, 0))
	m.SetChannel(11)
	return m, sched
}

type noopAlarm struct{}

func (noopAlarm) Program(uint32, uint32) {}
func (noopAlarm) Stop()                  {}

func drain(s *runtime.Scheduler) {
	for s.ProcessNext() {
	}
}

func TestChannelAccessFailureAfterFiveAttempts(t *testing.T) {
	radio := &fakeRadio{nextTx: []error{
		ErrChannelBusy, ErrChannelBusy, ErrChannelBusy, ErrChannelBusy, ErrChannelBusy,
	}}
	m, sched := newTestMAC(radio)
	_ = m.Start()

	var result threaderr.Error
	done := func(r threaderr.Error) { result = r }
	require.Equal(t, threaderr.None, m.SendData(Address{Mode: AddrModeShort, Short: 0x0401}, []byte("x"), false, SecurityNone, done))

	drain(sched) // process the initial attempt's outcome

	for i := 0; i < maxCCABackoffs && result == threaderr.None; i++ {
		m.onBackoffExpired() // simulate the backoff timer firing
		drain(sched)         // process that attempt's outcome
	}

	assert.Equal(t, threaderr.ChannelAccessFailure, result)
	assert.Equal(t, 5, len(radio.txLog))
}

func TestNoAckAfterMaxRetries(t *testing.T) {
	radio := &fakeRadio{} // every Transmit "succeeds" (nil outcome)
	m, sched := newTestMAC(radio)
	_ = m.Start()

	var result threaderr.Error
	done := func(r threaderr.Error) { result = r }
	require.Equal(t, threaderr.None, m.SendData(Address{Mode: AddrModeShort, Short: 0x0401}, []byte("x"), true, SecurityNone, done))
	drain(sched)
	assert.Equal(t, StateTransmitAckWait, m.State())

	for i := 0; i < maxFrameRetries+1; i++ {
		m.onAckTimeout()
		drain(sched)
	}

	assert.Equal(t, threaderr.NoAck, result)
	assert.Equal(t, maxFrameRetries+1, len(radio.txLog))
}

func TestReplayRejectedFrameIsDropped(t *testing.T) {
	radio := &fakeRadio{}
	m, sched := newTestMAC(radio)
	_ = m.Start()

	var delivered bool
	m.SetReceiveHandler(func(f *Frame, rssi int8) { delivered = true })

	sec := &rejectingSecurity{}
	m.sec = sec

	f := &Frame{Type: FrameTypeData, Sequence: 1, SrcAddr: Address{Mode: AddrModeExt, Ext: ExtAddress{9}}}
	require.Equal(t, threaderr.None, Encrypt(f, ExtAddress{9}, SecurityEncMIC32, sec))
	raw := f.Encode()

	m.handleReceiveDone(raw, -50, true)
	drain(sched)

	assert.False(t, delivered)
}

type rejectingSecurity struct{}

func (rejectingSecurity) KeyForEncrypt() ([16]byte, uint8, uint32) { return [16]byte{0xAA}, 1, 100 }
func (rejectingSecurity) KeyForDecrypt(uint8) ([16]byte, bool)     { return [16]byte{0xAA}, true }
func (rejectingSecurity) CheckAndRecordReplay(ExtAddress, uint32) bool {
	return false // simulate a replayed/stale frame counter
}
