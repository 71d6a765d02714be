package ip6

import (
	"encoding/binary"
	"errors"
)

// ICMPv6 message types this stack generates and recognizes (§4.6).
const (
	ICMPTypeDestinationUnreachable uint8 = 1
	ICMPTypeEchoRequest            uint8 = 128
	ICMPTypeEchoReply              uint8 = 129
)

// Destination-unreachable codes (RFC 4443 §3.1).
const (
	ICMPCodeNoRoute       uint8 = 0
	ICMPCodeAddrUnreach   uint8 = 3
	ICMPCodePortUnreach   uint8 = 4
)

var errICMPTooShort = errors.New("ip6: icmpv6 message too short")
var errICMPChecksum = errors.New("ip6: icmpv6 checksum mismatch")
var errICMPWrongType = errors.New("ip6: unexpected icmpv6 type")

// icmpHeaderLen is the 4-byte type/code/checksum prefix shared by every
// ICMPv6 message.
const icmpHeaderLen = 4

// BuildEchoRequest encodes an Echo Request (type 128) with the given
// identifier, sequence number and payload, stamping its own checksum
// against the supplied source/destination.
func BuildEchoRequest(src, dst Address, id, seq uint16, data []byte) []byte {
	return buildEcho(ICMPTypeEchoRequest, src, dst, id, seq, data)
}

// BuildEchoReply mirrors BuildEchoRequest for type 129, used to answer an
// Echo Request addressed to this node.
func BuildEchoReply(src, dst Address, id, seq uint16, data []byte) []byte {
	return buildEcho(ICMPTypeEchoReply, src, dst, id, seq, data)
}

func buildEcho(typ uint8, src, dst Address, id, seq uint16, data []byte) []byte {
	buf := make([]byte, icmpHeaderLen+4+len(data))
	buf[0] = typ
	binary.BigEndian.PutUint16(buf[4:6], id)
	binary.BigEndian.PutUint16(buf[6:8], seq)
	copy(buf[8:], data)
	binary.BigEndian.PutUint16(buf[2:4], ChecksumBytes(src, dst, NextHeaderICMPv6, buf))
	return buf
}

// EchoMessage is a parsed Echo Request/Reply.
type EchoMessage struct {
	Reply bool
	ID    uint16
	Seq   uint16
	Data  []byte
}

// ParseEcho validates the checksum and decodes an Echo Request/Reply.
func ParseEcho(src, dst Address, payload []byte) (EchoMessage, error) {
	if len(payload) < icmpHeaderLen+4 {
		return EchoMessage{}, errICMPTooShort
	}
	if payload[0] != ICMPTypeEchoRequest && payload[0] != ICMPTypeEchoReply {
		return EchoMessage{}, errICMPWrongType
	}
	if ChecksumBytes(src, dst, NextHeaderICMPv6, payload) != 0 {
		return EchoMessage{}, errICMPChecksum
	}
	return EchoMessage{
		Reply: payload[0] == ICMPTypeEchoReply,
		ID:    binary.BigEndian.Uint16(payload[4:6]),
		Seq:   binary.BigEndian.Uint16(payload[6:8]),
		Data:  append([]byte(nil), payload[8:]...),
	}, nil
}

// BuildDestinationUnreachable wraps as much of the invoking datagram as
// fits (header plus up to 1232-icmpHeaderLen-4 bytes, per the minimum IPv6
// MTU) into a type-1 notification, per §4.6's "destination-unreachable
// generation/notification".
func BuildDestinationUnreachable(src, dst Address, code uint8, invoking []byte) []byte {
	const maxInvoking = 1232 - icmpHeaderLen - 4
	if len(invoking) > maxInvoking {
		invoking = invoking[:maxInvoking]
	}
	buf := make([]byte, icmpHeaderLen+4+len(invoking))
	buf[0] = ICMPTypeDestinationUnreachable
	buf[1] = code
	copy(buf[8:], invoking)
	binary.BigEndian.PutUint16(buf[2:4], ChecksumBytes(src, dst, NextHeaderICMPv6, buf))
	return buf
}
