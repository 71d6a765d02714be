// Package coap implements the constrained subset of CoAP (RFC 7252) that
// Thread's control-plane protocols (MLE's CoAP-carried TLV exchanges,
// address resolution, network data registration) run over UDP (§4.7).
package coap

import (
	"encoding/binary"
	"errors"
	"sort"
)

// Type is the CoAP message type (RFC 7252 §3).
type Type uint8

const (
	TypeConfirmable    Type = 0
	TypeNonConfirmable Type = 1
	TypeAck            Type = 2
	TypeReset          Type = 3
)

// Code is the method/response code, class in the high 3 bits and detail in
// the low 5, per RFC 7252 §3.
type Code uint8

func NewCode(class, detail int) Code { return Code(class<<5 | detail) }

const (
	CodeEmpty  Code = 0
	CodeGet    Code = 1 // 0.01
	CodePost   Code = 2 // 0.02
	CodePut    Code = 3 // 0.03
	CodeDelete Code = 4 // 0.04

	CodeCreated Code = 0x41 // 2.01
	CodeChanged Code = 0x44 // 2.04
	CodeContent Code = 0x45 // 2.05

	CodeBadRequest Code = 0x80 // 4.00
	CodeNotFound   Code = 0x84 // 4.04
)

// Option numbers this stack recognizes (RFC 7252 §5.10).
const (
	OptionUriPath      uint16 = 11
	OptionContentFmt   uint16 = 12
	OptionUriQuery     uint16 = 15
)

const maxTokenLen = 8
const version = 1
const payloadMarker = 0xff

var (
	errTooShort     = errors.New("coap: message too short")
	errBadVersion   = errors.New("coap: unsupported version")
	errTokenLen     = errors.New("coap: token length out of range")
	errOptionOrder  = errors.New("coap: option out of numeric order")
	errOptionFormat = errors.New("coap: malformed option")
)

// Option is one delta-coded CoAP option as decoded off the wire: Number is
// its absolute option number (the delta has already been resolved against
// the options preceding it).
type Option struct {
	Number uint16
	Value  []byte
}

// Message is a parsed or in-progress CoAP message.
type Message struct {
	Type      Type
	Code      Code
	MessageID uint16
	Token     []byte
	Options   []Option
	Payload   []byte
}

// Encode serializes m to its wire form. Options must be in ascending
// Number order (SortOptions does this); Encode does not reorder them itself so
// callers that build options directly see a deterministic failure mode if
// they forget to, rather than a silent reorder masking the bug.
func (m *Message) Encode() ([]byte, error) {
	if len(m.Token) > maxTokenLen {
		return nil, errTokenLen
	}
	buf := make([]byte, 0, 16+len(m.Payload))
	buf = append(buf, byte(version<<6)|byte(m.Type)<<4|byte(len(m.Token)))
	buf = append(buf, byte(m.Code))
	var mid [2]byte
	binary.BigEndian.PutUint16(mid[:], m.MessageID)
	buf = append(buf, mid[:]...)
	buf = append(buf, m.Token...)

	var lastNumber uint16
	for i, opt := range m.Options {
		if i > 0 && opt.Number < lastNumber {
			return nil, errOptionOrder
		}
		delta := opt.Number - lastNumber
		buf = appendOption(buf, delta, opt.Value)
		lastNumber = opt.Number
	}

	if len(m.Payload) > 0 {
		buf = append(buf, payloadMarker)
		buf = append(buf, m.Payload...)
	}
	return buf, nil
}

func appendOption(buf []byte, delta uint16, value []byte) []byte {
	length := len(value)
	deltaNibble, deltaExt := splitExtended(delta)
	lengthNibble, lengthExt := splitExtended(uint16(length))
	buf = append(buf, byte(deltaNibble<<4)|byte(lengthNibble))
	buf = append(buf, deltaExt...)
	buf = append(buf, lengthExt...)
	return append(buf, value...)
}

// splitExtended implements RFC 7252 §3.1's 13/14 extended-value encoding:
// a 4-bit field of 13 means "one extra byte, value-13"; 14 means "two extra
// bytes, value-269"; 15 is reserved (payload marker) and never produced
// here since both delta and length are bounded well under it in practice.
func splitExtended(v uint16) (nibble int, ext []byte) {
	switch {
	case v < 13:
		return int(v), nil
	case v < 269:
		return 13, []byte{byte(v - 13)}
	default:
		rest := v - 269
		return 14, []byte{byte(rest >> 8), byte(rest)}
	}
}

// Decode parses a wire-format CoAP message.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < 4 {
		return nil, errTooShort
	}
	if buf[0]>>6 != version {
		return nil, errBadVersion
	}
	tkl := int(buf[0] & 0x0f)
	if tkl > maxTokenLen {
		return nil, errTokenLen
	}
	m := &Message{
		Type:      Type((buf[0] >> 4) & 0x3),
		Code:      Code(buf[1]),
		MessageID: binary.BigEndian.Uint16(buf[2:4]),
	}
	rest := buf[4:]
	if len(rest) < tkl {
		return nil, errTooShort
	}
	m.Token = append([]byte(nil), rest[:tkl]...)
	rest = rest[tkl:]

	var lastNumber uint16
	for len(rest) > 0 {
		if rest[0] == payloadMarker {
			rest = rest[1:]
			m.Payload = append([]byte(nil), rest...)
			break
		}
		deltaNibble := int(rest[0] >> 4)
		lengthNibble := int(rest[0] & 0x0f)
		rest = rest[1:]

		delta, rest2, err := readExtended(deltaNibble, rest)
		if err != nil {
			return nil, err
		}
		rest = rest2
		length, rest3, err := readExtended(lengthNibble, rest)
		if err != nil {
			return nil, err
		}
		rest = rest3

		if len(rest) < int(length) {
			return nil, errOptionFormat
		}
		number := lastNumber + delta
		m.Options = append(m.Options, Option{Number: number, Value: append([]byte(nil), rest[:length]...)})
		lastNumber = number
		rest = rest[length:]
	}
	return m, nil
}

func readExtended(nibble int, rest []byte) (uint16, []byte, error) {
	switch nibble {
	case 13:
		if len(rest) < 1 {
			return 0, nil, errOptionFormat
		}
		return uint16(rest[0]) + 13, rest[1:], nil
	case 14:
		if len(rest) < 2 {
			return 0, nil, errOptionFormat
		}
		return uint16(binary.BigEndian.Uint16(rest[:2])) + 269, rest[2:], nil
	case 15:
		return 0, nil, errOptionFormat
	default:
		return uint16(nibble), rest, nil
	}
}

// SortOptions orders opts by Number, stable on equal numbers (repeated
// options, e.g. multiple Uri-Path segments, keep their relative order).
func SortOptions(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Number < opts[j].Number })
}

// UriPathOptions builds one Uri-Path option per '/'-separated segment of
// path, ready to append to a Message's Options (after sorting).
func UriPathOptions(path string) []Option {
	var opts []Option
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				opts = append(opts, Option{Number: OptionUriPath, Value: []byte(path[start:i])})
			}
			start = i + 1
		}
	}
	return opts
}
