package mac

import (
	"errors"

	"github.com/openthread-go/threadcore/internal/platform"
	"github.com/openthread-go/threadcore/internal/runtime"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

// ErrChannelBusy is returned by a Radio's Transmit (via its done callback's
// error) to report a failed clear-channel assessment for one attempt. The
// MAC layer owns backoff and retry counting above this signal, per §4.4.
var ErrChannelBusy = errors.New("mac: channel busy")

// MAC drives the 802.15.4 CSMA-CA state machine of §4.4: framing, transmit
// backoff/retry, ACK wait, receive dispatch, whitelist filtering and
// active scan. Exactly one MAC exists per radio, owned by the Stack.
type MAC struct {
	scheduler *runtime.Scheduler
	radio     platform.Radio
	random    platform.Random
	sec       SecurityContext

	whitelist Whitelist

	state     State
	panID     uint16
	shortAddr ShortAddress
	extAddr   ExtAddress
	channel   uint8
	sequence  uint8

	txFrame      *Frame
	txRaw        []byte
	ccaAttempt   int
	retryAttempt int
	backoffTimer *runtime.Timer
	ackTimer     *runtime.Timer
	txDone       func(threaderr.Error)

	receiveCallback func(f *Frame, rssi int8)

	scanChannels []uint8
	scanIndex    int
	scanDuration uint32
	scanTimer    *runtime.Timer
	scanCallback func(*BeaconInfo)

	rxRaw  [][]byte
	rxRSSI []int8
	rxOK   []bool
}

// New constructs a MAC bound to radio and scheduled on sched. sec supplies
// keys and replay protection for secured frames.
func New(sched *runtime.Scheduler, radio platform.Radio, random platform.Random, sec SecurityContext) *MAC {
	m := &MAC{scheduler: sched, radio: radio, random: random, sec: sec, state: StateDisabled}
	m.backoffTimer = sched.NewTimer(m.onBackoffExpired)
	m.ackTimer = sched.NewTimer(m.onAckTimeout)
	m.scanTimer = sched.NewTimer(m.onScanTimerExpired)
	radio.SetReceiveDoneCallback(m.handleReceiveDone)
	radio.SetTransmitDoneCallback(m.handleTransmitDone)
	return m
}

// SetIdentity configures the addressing this MAC uses on the air.
func (m *MAC) SetIdentity(panID uint16, ext ExtAddress, short ShortAddress) {
	m.panID = panID
	m.extAddr = ext
	m.shortAddr = short
}

// SetChannel records the operating channel; the radio is tuned to it the
// next time the MAC starts receiving (Start, or the return to receive after
// a transmission or scan).
func (m *MAC) SetChannel(channel uint8) {
	m.channel = channel
}

// Channel returns the currently configured operating channel.
func (m *MAC) Channel() uint8 { return m.channel }

// Whitelist returns the receive-address filter for configuration.
func (m *MAC) Whitelist() *Whitelist { return &m.whitelist }

// State returns the current CSMA-CA state.
func (m *MAC) State() State { return m.state }

// SetReceiveHandler installs the callback invoked for every accepted Data
// or Cmd frame.
func (m *MAC) SetReceiveHandler(cb func(f *Frame, rssi int8)) {
	m.receiveCallback = cb
}

// Start brings the MAC up: initializes the radio and begins listening.
func (m *MAC) Start() threaderr.Error {
	if err := m.radio.Init(); err != nil {
		return threaderr.Failed
	}
	if err := m.radio.Receive(m.channel); err != nil {
		return threaderr.Failed
	}
	m.state = StateReceive
	return threaderr.None
}

func (m *MAC) nextSequence() uint8 {
	m.sequence++
	return m.sequence
}

// SendData transmits payload to dst using CSMA-CA, invoking done exactly
// once with the outcome. Only one transmission may be outstanding at a
// time; a second call while busy returns Busy immediately and does not
// invoke done, per §5 ("MAC transmissions complete... before the next
// transmission... is started").
func (m *MAC) SendData(dst Address, payload []byte, ackRequest bool, secLevel SecurityLevel, done func(threaderr.Error)) threaderr.Error {
	if m.state != StateIdle && m.state != StateReceive {
		return threaderr.Busy
	}

	f := &Frame{
		Type:       FrameTypeData,
		AckRequest: ackRequest,
		Sequence:   m.nextSequence(),
		DstPANID:   m.panID,
		DstAddr:    dst,
		SrcPANID:   m.panID,
		SrcAddr:    Address{Mode: AddrModeExt, Ext: m.extAddr},
		Payload:    payload,
	}
	if dst.Mode != AddrModeNone && f.DstPANID == f.SrcPANID {
		f.PANIDCompress = true
	}
	if secLevel != SecurityNone {
		if err := Encrypt(f, m.extAddr, secLevel, m.sec); err != threaderr.None {
			return err
		}
	}

	m.txFrame = f
	m.txRaw = f.Encode()
	m.txDone = done
	m.ccaAttempt = 0
	m.retryAttempt = 0
	m.beginCCA()
	return threaderr.None
}

func (m *MAC) beginCCA() {
	m.state = StateTransmitCCA
	if err := m.radio.Transmit(m.txRaw); err != nil {
		m.completeTransmit(threaderr.Failed)
	}
}

func (m *MAC) handleTransmitDone(err error, ackPending bool) {
	m.scheduler.Post(runtime.NewTasklet(func() { m.onTransmitDone(err) }))
}

func (m *MAC) onTransmitDone(err error) {
	if err == ErrChannelBusy {
		m.ccaAttempt++
		if m.ccaAttempt > maxCCABackoffs {
			m.completeTransmit(threaderr.ChannelAccessFailure)
			return
		}
		be := backoffExponentFor(m.ccaAttempt - 1)
		units := backoffUnits(be, m.random.Get)
		m.state = StateTransmitBackoff
		m.backoffTimer.Start(units + 1)
		return
	}
	if err != nil {
		m.completeTransmit(threaderr.Failed)
		return
	}

	m.state = StateTransmitSending
	if !m.txFrame.AckRequest {
		m.completeTransmit(threaderr.None)
		return
	}
	m.state = StateTransmitAckWait
	m.ackTimer.Start(ackTurnaroundMs)
}

func (m *MAC) onBackoffExpired() {
	m.beginCCA()
}

func (m *MAC) onAckTimeout() {
	m.retryAttempt++
	if m.retryAttempt > maxFrameRetries {
		m.completeTransmit(threaderr.NoAck)
		return
	}
	m.state = StateTransmitRetrying
	m.beginCCA()
}

func (m *MAC) completeTransmit(result threaderr.Error) {
	m.backoffTimer.Stop()
	m.ackTimer.Stop()
	m.state = StateReceive
	_ = m.radio.Receive(m.channel)

	done := m.txDone
	m.txDone = nil
	m.txFrame = nil
	m.txRaw = nil
	if done != nil {
		done(result)
	}
}

// handleReceiveDone is the HAL callback (radio_receive_done). Per §5 it
// must not run protocol code directly: it only buffers the frame and
// posts a tasklet.
func (m *MAC) handleReceiveDone(frame []byte, rssi int8, ok bool) {
	m.rxRaw = append(m.rxRaw, frame)
	m.rxRSSI = append(m.rxRSSI, rssi)
	m.rxOK = append(m.rxOK, ok)
	m.scheduler.Post(runtime.NewTasklet(m.processReceived))
}

func (m *MAC) processReceived() {
	raws, rssis, oks := m.rxRaw, m.rxRSSI, m.rxOK
	m.rxRaw, m.rxRSSI, m.rxOK = nil, nil, nil

	for i, raw := range raws {
		if !oks[i] {
			continue // invalid FCS: silent drop, §4.4
		}
		m.processOneFrame(raw, rssis[i])
	}
}

func (m *MAC) processOneFrame(raw []byte, rssi int8) {
	f, err := DecodeFrame(raw)
	if err != nil {
		return // parse error: silent drop, §4.4/§7
	}

	if f.Type == FrameTypeAck {
		if m.state == StateTransmitAckWait && m.txFrame != nil && f.Sequence == m.txFrame.Sequence {
			m.completeTransmit(threaderr.None)
		}
		return
	}

	if f.SrcAddr.Mode == AddrModeExt && !m.whitelist.Allows(f.SrcAddr.Ext) {
		return
	}
	rssi = m.whitelist.NormalizeRSSI(f.SrcAddr.Ext, rssi)

	if f.SecurityEnabled {
		if f.SrcAddr.Mode != AddrModeExt {
			return
		}
		if Decrypt(f, f.SrcAddr.Ext, m.sec) != threaderr.None {
			return
		}
	}

	switch f.Type {
	case FrameTypeBeacon:
		m.handleBeacon(f, rssi)
	case FrameTypeData, FrameTypeCmd:
		if f.AckRequest {
			m.sendImmediateAck(f.Sequence)
		}
		if m.receiveCallback != nil {
			m.receiveCallback(f, rssi)
		}
	}
}

func (m *MAC) sendImmediateAck(seq uint8) {
	ack := &Frame{Type: FrameTypeAck, Sequence: seq}
	_ = m.radio.Transmit(ack.Encode())
}

// StartActiveScan transmits a Beacon Request on each channel in turn,
// listening durationMs per channel, reporting every heard Beacon via cb.
// cb is invoked one final time with a nil BeaconInfo to signal completion,
// per §4.4.
func (m *MAC) StartActiveScan(channels []uint8, durationMs uint32, cb func(*BeaconInfo)) threaderr.Error {
	if m.state != StateIdle && m.state != StateReceive {
		return threaderr.Busy
	}
	m.scanChannels = channels
	m.scanIndex = 0
	m.scanDuration = durationMs
	m.scanCallback = cb
	m.state = StateActiveScan
	m.beginScanChannel()
	return threaderr.None
}

func (m *MAC) beginScanChannel() {
	if m.scanIndex >= len(m.scanChannels) {
		m.state = StateReceive
		_ = m.radio.Receive(m.channel)
		cb := m.scanCallback
		m.scanCallback = nil
		if cb != nil {
			cb(nil)
		}
		return
	}
	ch := m.scanChannels[m.scanIndex]
	_ = m.radio.Receive(ch)
	req := &Frame{Type: FrameTypeCmd, Sequence: m.nextSequence(), DstPANID: 0xffff,
		DstAddr: Address{Mode: AddrModeShort, Short: 0xffff}, Payload: []byte{cmdBeaconRequest}}
	_ = m.radio.Transmit(req.Encode())
	m.scanTimer.Start(m.scanDuration)
}

func (m *MAC) onScanTimerExpired() {
	m.scanIndex++
	m.beginScanChannel()
}

func (m *MAC) handleBeacon(f *Frame, rssi int8) {
	if m.state != StateActiveScan {
		return
	}
	info, err := DecodeBeaconPayload(f.Payload, rssi)
	if err != nil {
		return
	}
	info.Channel = m.scanChannels[m.scanIndex]
	if m.scanCallback != nil {
		m.scanCallback(&info)
	}
}
