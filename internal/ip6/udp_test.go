package ip6

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPEncodeDecodeRoundTrip(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}

	buf := EncodeUDP(src, dst, 19788, 61631, []byte("coap payload"))
	srcPort, dstPort, payload, err := DecodeUDP(src, dst, buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(19788), srcPort)
	assert.Equal(t, uint16(61631), dstPort)
	assert.Equal(t, []byte("coap payload"), payload)
}

func TestUDPDecodeRejectsBadChecksum(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}
	buf := EncodeUDP(src, dst, 1, 2, []byte("x"))
	buf[len(buf)-1] ^= 0xff

	_, _, _, err := DecodeUDP(src, dst, buf)
	assert.Error(t, err)
}

func TestUDPSocketsDispatchesToBoundPort(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}
	sockets := NewUDPSockets()

	var gotSrc Address
	var gotPort uint16
	var gotPayload []byte
	sockets.Bind(61631, func(s Address, port uint16, payload []byte) {
		gotSrc, gotPort, gotPayload = s, port, payload
	})

	buf := EncodeUDP(src, dst, 19788, 61631, []byte("hi"))
	err := sockets.Dispatch(src, dst, buf)
	assert.Equal(t, 0, int(err))
	assert.Equal(t, src, gotSrc)
	assert.Equal(t, uint16(19788), gotPort)
	assert.Equal(t, []byte("hi"), gotPayload)
}

func TestUDPSocketsNoRouteWhenUnbound(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}
	sockets := NewUDPSockets()

	buf := EncodeUDP(src, dst, 1, 2, nil)
	err := sockets.Dispatch(src, dst, buf)
	assert.NotEqual(t, 0, int(err))
}
