package posix

import (
	"errors"

	"github.com/openthread-go/threadcore/internal/platform"
)

// Command bytes for the host<->radio-coprocessor link, the same
// "nybble of command, rest is payload" idea as the teacher's KISS command
// byte, specialized to an 802.15.4 radio co-processor instead of a modem.
const (
	cmdTxData     = 0x00 // host -> co-processor: transmit this frame
	cmdSetChannel = 0x01 // host -> co-processor: switch to this channel
	cmdSleep      = 0x02 // host -> co-processor: enter sleep
	cmdIdle       = 0x03 // host -> co-processor: enter idle/receive
	cmdRxData     = 0x10 // co-processor -> host: received frame, RSSI prefix
	cmdRxFail     = 0x11 // co-processor -> host: reception failed
	cmdTxDone     = 0x12 // co-processor -> host: transmit completed
)

var errShortRadioFrame = errors.New("posix: short radio command frame")

// Radio implements platform.Radio over a serial link to an 802.15.4 radio
// co-processor, framing each command with the KISS-style byte-stuffed
// delimiting in kissframe.go (grounded on the teacher's virtual-TNC
// serial transport, repurposed here to carry a small command set instead
// of raw AX.25 KISS frames).
type Radio struct {
	serial serialLink
	dec    frameDecoder

	onReceiveDone  platform.RadioReceiveDone
	onTransmitDone platform.RadioTransmitDone
}

// serialLink is the narrow Serial surface Radio depends on, letting tests
// substitute a fake without a real serial device.
type serialLink interface {
	Enable() error
	Disable() error
	Send(buf []byte) error
	SetReceiveCallback(func([]byte))
	SetSendDoneCallback(func())
}

// NewRadio constructs a Radio atop an already-constructed serial
// transport (typically *posix.Serial).
func NewRadio(serial serialLink) *Radio {
	r := &Radio{serial: serial}
	serial.SetReceiveCallback(r.onSerialBytes)
	return r
}

func (r *Radio) Init() error {
	return r.serial.Enable()
}

func (r *Radio) Transmit(frame []byte) error {
	payload := append([]byte{cmdTxData}, frame...)
	return r.serial.Send(encodeFrame(payload))
}

func (r *Radio) Receive(channel uint8) error {
	return r.serial.Send(encodeFrame([]byte{cmdSetChannel, channel}))
}

func (r *Radio) Sleep() error {
	return r.serial.Send(encodeFrame([]byte{cmdSleep}))
}

func (r *Radio) Idle() error {
	return r.serial.Send(encodeFrame([]byte{cmdIdle}))
}

func (r *Radio) SetReceiveDoneCallback(cb platform.RadioReceiveDone)   { r.onReceiveDone = cb }
func (r *Radio) SetTransmitDoneCallback(cb platform.RadioTransmitDone) { r.onTransmitDone = cb }

func (r *Radio) onSerialBytes(data []byte) {
	for _, b := range data {
		frame, ok := r.dec.Feed(b)
		if !ok {
			continue
		}
		r.handleFrame(frame)
	}
}

func (r *Radio) handleFrame(frame []byte) {
	if len(frame) == 0 {
		return
	}
	switch frame[0] {
	case cmdRxData:
		if len(frame) < 2 {
			logger.Debug("dropping short rx-data command", "err", errShortRadioFrame)
			return
		}
		rssi := int8(frame[1])
		if r.onReceiveDone != nil {
			r.onReceiveDone(frame[2:], rssi, true)
		}
	case cmdRxFail:
		if r.onReceiveDone != nil {
			r.onReceiveDone(nil, 0, false)
		}
	case cmdTxDone:
		if len(frame) < 3 {
			logger.Debug("dropping short tx-done command", "err", errShortRadioFrame)
			return
		}
		var err error
		if frame[1] != 0 {
			err = errors.New("posix: radio reported transmit failure")
		}
		ackPending := frame[2] != 0
		if r.onTransmitDone != nil {
			r.onTransmitDone(err, ackPending)
		}
	}
}
