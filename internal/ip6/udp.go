package ip6

import (
	"encoding/binary"
	"errors"

	"github.com/openthread-go/threadcore/internal/threaderr"
)

const udpHeaderLen = 8

var errUDPTooShort = errors.New("ip6: udp datagram too short")
var errUDPChecksum = errors.New("ip6: udp checksum mismatch")

// EncodeUDP builds a UDP datagram (header + payload) with its checksum
// computed over the IPv6 pseudo-header, per §4.6.
func EncodeUDP(src, dst Address, srcPort, dstPort uint16, payload []byte) []byte {
	buf := make([]byte, udpHeaderLen+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], srcPort)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(buf)))
	copy(buf[8:], payload)
	binary.BigEndian.PutUint16(buf[6:8], ChecksumBytes(src, dst, NextHeaderUDP, buf))
	return buf
}

// DecodeUDP validates the checksum and splits a UDP datagram into its
// header fields and payload.
func DecodeUDP(src, dst Address, buf []byte) (srcPort, dstPort uint16, payload []byte, err error) {
	if len(buf) < udpHeaderLen {
		return 0, 0, nil, errUDPTooShort
	}
	if ChecksumBytes(src, dst, NextHeaderUDP, buf) != 0 {
		return 0, 0, nil, errUDPChecksum
	}
	srcPort = binary.BigEndian.Uint16(buf[0:2])
	dstPort = binary.BigEndian.Uint16(buf[2:4])
	return srcPort, dstPort, buf[udpHeaderLen:], nil
}

// UDPHandler receives the payload of a datagram delivered to a bound port.
type UDPHandler func(src Address, srcPort uint16, payload []byte)

// UDPSockets is a stateless demultiplexer from destination port to
// handler: no connection state is kept, matching §4.6's "stateless socket
// demultiplexing by destination port".
type UDPSockets struct {
	handlers map[uint16]UDPHandler
}

// NewUDPSockets returns an empty demultiplexer.
func NewUDPSockets() *UDPSockets {
	return &UDPSockets{handlers: make(map[uint16]UDPHandler)}
}

// Bind registers h to receive datagrams addressed to port, replacing any
// handler already bound there.
func (s *UDPSockets) Bind(port uint16, h UDPHandler) {
	s.handlers[port] = h
}

// Unbind removes whatever handler is registered for port.
func (s *UDPSockets) Unbind(port uint16) {
	delete(s.handlers, port)
}

// Dispatch validates and routes a received UDP datagram to its bound
// handler, returning NoRoute if nothing is bound on the destination port.
func (s *UDPSockets) Dispatch(src, dst Address, buf []byte) threaderr.Error {
	srcPort, dstPort, payload, err := DecodeUDP(src, dst, buf)
	if err != nil {
		return threaderr.Parse
	}
	h, ok := s.handlers[dstPort]
	if !ok {
		return threaderr.NoRoute
	}
	h(src, srcPort, payload)
	return threaderr.None
}
