package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/ip6"
	"github.com/openthread-go/threadcore/internal/lowpan"
	"github.com/openthread-go/threadcore/internal/mac"
	"github.com/openthread-go/threadcore/internal/platform"
	"github.com/openthread-go/threadcore/internal/runtime"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

type fakeRadio struct {
	onRx      platform.RadioReceiveDone
	onTx      platform.RadioTransmitDone
	txLog     [][]byte
	nextTx    []error
	alwaysErr error // when set, every Transmit reports this outcome
}

func (r *fakeRadio) Init() error         { return nil }
func (r *fakeRadio) Receive(uint8) error { return nil }
func (r *fakeRadio) Sleep() error        { return nil }
func (r *fakeRadio) Idle() error         { return nil }
func (r *fakeRadio) SetReceiveDoneCallback(cb platform.RadioReceiveDone)   { r.onRx = cb }
func (r *fakeRadio) SetTransmitDoneCallback(cb platform.RadioTransmitDone) { r.onTx = cb }
func (r *fakeRadio) Transmit(frame []byte) error {
	r.txLog = append(r.txLog, frame)
	outcome := r.alwaysErr
	if outcome == nil && len(r.nextTx) > 0 {
		outcome, r.nextTx = r.nextTx[0], r.nextTx[1:]
	}
	if r.onTx != nil {
		r.onTx(outcome, false)
	}
	// Simulate an immediate link-layer ACK for any successfully "aired"
	// frame that requested one, so forwarder-level tests don't also need
	// to drive the MAC's ack-wait/retry machinery (that's mac_test.go's
	// job).
	const fcfAckReqBit = 1 << 5
	if outcome == nil && r.onRx != nil && len(frame) >= 3 {
		fcf := uint16(frame[0]) | uint16(frame[1])<<8
		if fcf&fcfAckReqBit != 0 {
			r.onRx([]byte{0x02, 0x00, frame[2]}, -50, true)
		}
	}
	return nil
}

type fakeRandom struct{}

func (fakeRandom) Init(uint32) {}
func (fakeRandom) Get() uint32 { return 0 }

type noopSecurity struct{}

func (noopSecurity) KeyForEncrypt() ([16]byte, uint8, uint32)     { return [16]byte{}, 0, 0 }
func (noopSecurity) KeyForDecrypt(uint8) ([16]byte, bool)         { return [16]byte{}, false }
func (noopSecurity) CheckAndRecordReplay(mac.ExtAddress, uint32) bool { return true }

// advancingAlarm stands in for hardware: scheduling a fire immediately
// advances the virtual clock to the fire time and signals the scheduler,
// so draining the tasklet queue alone is enough to carry timers to
// completion without a real wall clock.
type advancingAlarm struct {
	sched *runtime.Scheduler
	clock *uint32
}

func (a *advancingAlarm) Program(t0, dt uint32) {
	*a.clock = t0 + dt
	a.sched.AlarmFired()
}

func (a *advancingAlarm) Stop() {}

func drain(s *runtime.Scheduler) {
	for s.ProcessNext() {
	}
}

type fakeNextHop struct {
	next map[mac.ShortAddress]mac.ShortAddress
	link map[mac.ShortAddress]mac.ExtAddress
}

func (n *fakeNextHop) GetNextHop(dest mac.ShortAddress) (mac.ShortAddress, bool) {
	v, ok := n.next[dest]
	return v, ok
}

func (n *fakeNextHop) ResolveLinkAddress(rloc16 mac.ShortAddress) (mac.ExtAddress, bool) {
	v, ok := n.link[rloc16]
	return v, ok
}

type fakeNeighbors struct {
	touched map[mac.ExtAddress]uint32
}

func (n *fakeNeighbors) Touch(ext mac.ExtAddress, nowMs uint32) {
	if n.touched == nil {
		n.touched = make(map[mac.ExtAddress]uint32)
	}
	n.touched[ext] = nowMs
}

type fakeLocalAddr struct {
	unicast   ip6.Address
	multicast ip6.Address
}

func (l fakeLocalAddr) IsLocalUnicast(a ip6.Address) bool   { return a == l.unicast }
func (l fakeLocalAddr) IsSubscribedMulticast(a ip6.Address) bool { return a == l.multicast }

type fakeDeliverer struct {
	delivered []*lowpan.Packet
}

func (d *fakeDeliverer) DeliverLocal(pkt *lowpan.Packet) {
	d.delivered = append(d.delivered, pkt)
}

func newTestForwarder(radio *fakeRadio, nextHop *fakeNextHop, neighbors *fakeNeighbors, local fakeLocalAddr, deliverer *fakeDeliverer) (*Forwarder, *mac.MAC, *runtime.Scheduler) {
	sched := runtime.NewScheduler()
	var clock uint32
	sched.Configure(func() uint32 { return clock }, &advancingAlarm{sched: sched, clock: &clock})
	m := mac.New(sched, radio, fakeRandom{}, noopSecurity{})
	m.SetIdentity(0xface, mac.ExtAddress{1}, mac.NewRLOC16(1, 0))
	m.SetChannel(11)
	_ = m.Start()

	f := New(m, nil, nextHop, neighbors, local, deliverer, func() uint32 { return 0 })
	f.SetIdentity(mac.ExtAddress{1}, mac.NewRLOC16(1, 0))
	return f, m, sched
}

func TestSendDatagramDirectSucceeds(t *testing.T) {
	radio := &fakeRadio{}
	nextHop := &fakeNextHop{link: map[mac.ShortAddress]mac.ExtAddress{mac.NewRLOC16(2, 0): {2}}}
	f, _, sched := newTestForwarder(radio, nextHop, &fakeNeighbors{}, fakeLocalAddr{}, &fakeDeliverer{})

	pkt := &lowpan.Packet{
		Header:  ip6.Header{NextHeader: ip6.NextHeaderICMPv6, HopLimit: 64},
		Payload: []byte{0x80, 0, 0, 0},
	}

	var result threaderr.Error
	err := f.SendDatagram(pkt, mac.NewRLOC16(2, 0), mac.ExtAddress{}, false, func(r threaderr.Error) { result = r })
	require.Equal(t, threaderr.None, err)

	drain(sched)
	assert.Equal(t, threaderr.None, result)
	assert.Equal(t, 1, len(radio.txLog))
}

func TestSendDatagramRetriesThenDrops(t *testing.T) {
	// A channel that never clears exhausts the MAC's 5 CCA attempts on
	// every send; the forwarder then requeues up to retryBudget times
	// before dropping with the final failure, per §4.5.
	radio := &fakeRadio{alwaysErr: mac.ErrChannelBusy}
	nextHop := &fakeNextHop{}
	f, _, sched := newTestForwarder(radio, nextHop, &fakeNeighbors{}, fakeLocalAddr{}, &fakeDeliverer{})

	pkt := &lowpan.Packet{Header: ip6.Header{NextHeader: ip6.NextHeaderICMPv6, HopLimit: 64}, Payload: []byte{1}}

	var result threaderr.Error
	done := false
	err := f.SendDatagram(pkt, mac.NewRLOC16(2, 0), mac.ExtAddress{}, false, func(r threaderr.Error) { result, done = r, true })
	require.Equal(t, threaderr.None, err)

	drain(sched)

	assert.True(t, done)
	assert.Equal(t, threaderr.ChannelAccessFailure, result)
	assert.Equal(t, 5*(retryBudget+1), len(radio.txLog))
}

func TestPollForChildReleasesIndirectFrame(t *testing.T) {
	radio := &fakeRadio{}
	nextHop := &fakeNextHop{}
	f, _, sched := newTestForwarder(radio, nextHop, &fakeNeighbors{}, fakeLocalAddr{}, &fakeDeliverer{})

	pkt := &lowpan.Packet{Header: ip6.Header{NextHeader: ip6.NextHeaderICMPv6, HopLimit: 64}, Payload: []byte{1}}
	err := f.SendDatagram(pkt, mac.NewRLOC16(3, 1), mac.ExtAddress{9}, true, nil)
	require.Equal(t, threaderr.None, err)
	assert.Equal(t, 0, len(radio.txLog))

	require.Equal(t, threaderr.None, f.PollForChild(mac.ExtAddress{9}))
	drain(sched)
	assert.Equal(t, 1, len(radio.txLog))
}

func TestReceiveDataRequestTriggersPoll(t *testing.T) {
	radio := &fakeRadio{}
	nextHop := &fakeNextHop{}
	f, _, sched := newTestForwarder(radio, nextHop, &fakeNeighbors{}, fakeLocalAddr{}, &fakeDeliverer{})

	pkt := &lowpan.Packet{Header: ip6.Header{NextHeader: ip6.NextHeaderICMPv6, HopLimit: 64}, Payload: []byte{1}}
	require.Equal(t, threaderr.None, f.SendDatagram(pkt, mac.NewRLOC16(3, 1), mac.ExtAddress{9}, true, nil))

	req := &mac.Frame{Type: mac.FrameTypeCmd, SrcAddr: mac.Address{Mode: mac.AddrModeExt, Ext: mac.ExtAddress{9}}, Payload: []byte{0x04}}
	f.handleReceive(req, -40)
	drain(sched)

	assert.Equal(t, 1, len(radio.txLog))
}
