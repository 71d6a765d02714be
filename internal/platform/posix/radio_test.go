package posix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSerial struct {
	sent      [][]byte
	onReceive func([]byte)
}

func (f *fakeSerial) Enable() error                        { return nil }
func (f *fakeSerial) Disable() error                        { return nil }
func (f *fakeSerial) Send(buf []byte) error                 { f.sent = append(f.sent, buf); return nil }
func (f *fakeSerial) SetReceiveCallback(cb func([]byte))    { f.onReceive = cb }
func (f *fakeSerial) SetSendDoneCallback(func())            {}

func TestRadioTransmitEncodesKISSFrame(t *testing.T) {
	fs := &fakeSerial{}
	r := NewRadio(fs)

	require.NoError(t, r.Transmit([]byte{0xaa, 0xbb}))
	require.Len(t, fs.sent, 1)

	var dec frameDecoder
	var got []byte
	for _, b := range fs.sent[0] {
		if out, ok := dec.Feed(b); ok {
			got = out
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, byte(cmdTxData), got[0])
	assert.Equal(t, []byte{0xaa, 0xbb}, got[1:])
}

func TestRadioDispatchesReceivedFrame(t *testing.T) {
	fs := &fakeSerial{}
	r := NewRadio(fs)

	var gotFrame []byte
	var gotRSSI int8
	var gotOK bool
	r.SetReceiveDoneCallback(func(frame []byte, rssi int8, ok bool) {
		gotFrame, gotRSSI, gotOK = frame, rssi, ok
	})

	wire := encodeFrame([]byte{cmdRxData, 0xf6, 0x01, 0x02, 0x03})
	fs.onReceive(wire)

	assert.True(t, gotOK)
	assert.Equal(t, int8(-10), gotRSSI)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, gotFrame)
}

func TestRadioDispatchesTransmitDone(t *testing.T) {
	fs := &fakeSerial{}
	r := NewRadio(fs)

	var gotErr error
	var gotAckPending bool
	called := false
	r.SetTransmitDoneCallback(func(err error, ackPending bool) {
		called, gotErr, gotAckPending = true, err, ackPending
	})

	wire := encodeFrame([]byte{cmdTxDone, 0x00, 0x01})
	fs.onReceive(wire)

	require.True(t, called)
	assert.NoError(t, gotErr)
	assert.True(t, gotAckPending)
}
