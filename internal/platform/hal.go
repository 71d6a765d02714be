// Package platform declares the HAL collaborators the core calls through
// documented interfaces only (§6): alarm, radio, serial and random. The
// core never depends on a concrete board; internal/platform/posix supplies
// one implementation for development and testing on a POSIX host.
package platform

// Alarm is the platform's single one-shot hardware timer. It satisfies
// runtime.AlarmController; NowMs additionally exposes alarm_get_now().
type Alarm interface {
	Program(t0, dt uint32)
	Stop()
	NowMs() uint32
}

// RadioReceiveDone is invoked by the platform when a frame has been
// received (or reception failed), mirroring radio_receive_done(frame,
// rssi) from §6.
type RadioReceiveDone func(frame []byte, rssi int8, ok bool)

// RadioTransmitDone is invoked when a transmit attempt completes,
// mirroring radio_transmit_done(err, ack_pending) from §6.
type RadioTransmitDone func(err error, ackPending bool)

// Radio is the 802.15.4 PHY/MAC-adjacent radio driver collaborator.
type Radio interface {
	Init() error
	Transmit(frame []byte) error
	Receive(channel uint8) error
	Sleep() error
	Idle() error

	SetReceiveDoneCallback(RadioReceiveDone)
	SetTransmitDoneCallback(RadioTransmitDone)
}

// Serial is the host-facing UART/USB transport used for the KISS-style
// host protocol and CLI (out of core scope for the protocol itself, but
// the interface is part of the documented boundary per §6).
type Serial interface {
	Enable() error
	Disable() error
	Send(buf []byte) error
	SetReceiveCallback(func(data []byte))
	SetSendDoneCallback(func())
}

// Random is the entropy source used for CSMA backoff jitter and MLE
// challenge/response nonces.
type Random interface {
	Init(seed uint32)
	Get() uint32
}
