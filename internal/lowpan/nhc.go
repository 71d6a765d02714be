package lowpan

import (
	"encoding/binary"
	"errors"
)

// UDP NHC dispatch (RFC 6282 §4.3): 11110CPP. This stack never elides the
// checksum (C is always 0, since the pseudo-header checksum is computed
// over the decompressed datagram by ip6's UDP layer, not cached here) but
// does compress ports that fall in the 0xf0b0-0xf0bf convention range.
const (
	udpNHCDispatch = 0xf0
	udpPortBase    = 0xf0b0
)

var errBadNHC = errors.New("lowpan: malformed UDP NHC header")

// encodeUDPNHC compresses a decompressed UDP header (8 bytes: src port, dst
// port, length, checksum) plus its payload into the NHC wire form. The
// length field is always elided (recovered from the surrounding 6LoWPAN
// frame length on decode), matching RFC 6282.
func encodeUDPNHC(udp []byte) []byte {
	if len(udp) < 8 {
		return udp // not a well-formed UDP segment; pass through verbatim
	}
	srcPort := binary.BigEndian.Uint16(udp[0:2])
	dstPort := binary.BigEndian.Uint16(udp[2:4])
	checksum := udp[6:8]
	payload := udp[8:]

	srcShort, srcOK := shortPort(srcPort)
	dstShort, dstOK := shortPort(dstPort)

	out := make([]byte, 0, 1+4+2+len(payload))
	switch {
	case srcOK && dstOK:
		out = append(out, udpNHCDispatch|0x3, checksum[0], checksum[1], byte(srcShort<<4|dstShort))
	case srcOK:
		out = append(out, udpNHCDispatch|0x2, checksum[0], checksum[1], byte(srcShort))
		out = appendUint16(out, dstPort)
	case dstOK:
		out = append(out, udpNHCDispatch|0x1, checksum[0], checksum[1])
		out = appendUint16(out, srcPort)
		out = append(out, byte(dstShort))
	default:
		out = append(out, udpNHCDispatch, checksum[0], checksum[1])
		out = appendUint16(out, srcPort)
		out = appendUint16(out, dstPort)
	}
	return append(out, payload...)
}

// decodeUDPNHC reconstructs the full 8-byte UDP header (with length
// recomputed from len(rest)) plus payload.
func decodeUDPNHC(rest []byte) ([]byte, error) {
	if len(rest) < 1 || rest[0]&0xfc != udpNHCDispatch {
		return nil, errBadNHC
	}
	pp := rest[0] & 0x3
	rest = rest[1:]
	if len(rest) < 2 {
		return nil, errBadNHC
	}
	checksum := rest[:2]
	rest = rest[2:]

	var srcPort, dstPort uint16
	switch pp {
	case 0x3:
		if len(rest) < 1 {
			return nil, errBadNHC
		}
		srcPort = udpPortBase + uint16(rest[0]>>4)
		dstPort = udpPortBase + uint16(rest[0]&0xf)
		rest = rest[1:]
	case 0x2:
		if len(rest) < 3 {
			return nil, errBadNHC
		}
		srcPort = udpPortBase + uint16(rest[0])
		dstPort = binary.BigEndian.Uint16(rest[1:3])
		rest = rest[3:]
	case 0x1:
		if len(rest) < 3 {
			return nil, errBadNHC
		}
		srcPort = binary.BigEndian.Uint16(rest[0:2])
		dstPort = udpPortBase + uint16(rest[2])
		rest = rest[3:]
	default:
		if len(rest) < 4 {
			return nil, errBadNHC
		}
		srcPort = binary.BigEndian.Uint16(rest[0:2])
		dstPort = binary.BigEndian.Uint16(rest[2:4])
		rest = rest[4:]
	}

	udp := make([]byte, 8, 8+len(rest))
	binary.BigEndian.PutUint16(udp[0:2], srcPort)
	binary.BigEndian.PutUint16(udp[2:4], dstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(8+len(rest)))
	copy(udp[6:8], checksum)
	return append(udp, rest...), nil
}

func shortPort(p uint16) (uint16, bool) {
	if p >= udpPortBase && p <= udpPortBase+0xf {
		return p - udpPortBase, true
	}
	return 0, false
}
