package ip6

import (
	"encoding/binary"
	"errors"
)

// Next-header protocol numbers this stack recognizes (§4.6).
const (
	NextHeaderHopByHop uint8 = 0
	NextHeaderUDP      uint8 = 17
	NextHeaderICMPv6   uint8 = 58
)

// HeaderLen is the fixed IPv6 header size in bytes.
const HeaderLen = 40

// Header is the fixed IPv6 header (§3). Extension headers (only Hop-by-Hop,
// carrying the MPL option, are recognized by this stack) are handled
// separately by the caller after NextHeader identifies one is present.
type Header struct {
	TrafficClass  uint8
	FlowLabel     uint32 // 20 bits significant
	PayloadLength uint16
	NextHeader    uint8
	HopLimit      uint8
	Src           Address
	Dst           Address
}

// Encode serializes h into a fresh 40-byte buffer.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderLen)
	word := uint32(6)<<28 | uint32(h.TrafficClass)<<20 | (h.FlowLabel & 0xfffff)
	binary.BigEndian.PutUint32(buf[0:4], word)
	binary.BigEndian.PutUint16(buf[4:6], h.PayloadLength)
	buf[6] = h.NextHeader
	buf[7] = h.HopLimit
	copy(buf[8:24], h.Src[:])
	copy(buf[24:40], h.Dst[:])
	return buf
}

var errShortHeader = errors.New("ip6: header too short")
var errBadVersion = errors.New("ip6: not an IPv6 datagram")

// DecodeHeader parses the fixed header from buf, returning the header and
// the remaining bytes (payload plus any extension headers).
func DecodeHeader(buf []byte) (*Header, []byte, error) {
	if len(buf) < HeaderLen {
		return nil, nil, errShortHeader
	}
	word := binary.BigEndian.Uint32(buf[0:4])
	if word>>28 != 6 {
		return nil, nil, errBadVersion
	}
	h := &Header{
		TrafficClass:  uint8(word >> 20),
		FlowLabel:     word & 0xfffff,
		PayloadLength: binary.BigEndian.Uint16(buf[4:6]),
		NextHeader:    buf[6],
		HopLimit:      buf[7],
	}
	copy(h.Src[:], buf[8:24])
	copy(h.Dst[:], buf[24:40])
	return h, buf[HeaderLen:], nil
}
