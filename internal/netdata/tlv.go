// Package netdata implements Thread Network Data (§4.10): the Local data
// a node wants to advertise (on-mesh prefixes, external routes), the
// Leader's authoritative merged view, and 6LoWPAN context-ID allocation.
// Its TLV framing follows the same pattern as mle.TLV — type, length,
// value — grounded on the teacher's TLV-style framing idiom.
package netdata

import (
	"errors"

	"github.com/openthread-go/threadcore/internal/ip6"
)

// TLV types (subset relevant to prefix/context/route distribution).
const (
	TLVPrefix      uint8 = 3
	TLVHasRoute    uint8 = 6
	TLVContext     uint8 = 4 // sub-TLV of Prefix
	TLVBorderRouter uint8 = 2 // sub-TLV of Prefix
)

var errTruncated = errors.New("netdata: truncated TLV")

// PrefixEntry is one on-mesh prefix entry, either registered locally or
// present in the Leader's merged table.
type PrefixEntry struct {
	Prefix       ip6.Address
	PrefixLength int
	Stable       bool
	ContextID    uint8
	HasContext   bool
	Compress     bool // context usable for 6LoWPAN compression, not just on-mesh routing
	OnMesh       bool
	DefaultRoute bool
	Preference   int8 // -1, 0, +1 per RFC 4191
}

// encodePrefix writes one Prefix TLV: domain ID, prefix length in bits,
// prefix bytes, then Context and Border Router sub-TLVs.
func encodePrefix(p PrefixEntry) []byte {
	prefixBytes := (p.PrefixLength + 7) / 8
	body := make([]byte, 0, 2+prefixBytes+8)
	body = append(body, 0) // domain ID, always 0 for Thread
	body = append(body, byte(p.PrefixLength))
	body = append(body, p.Prefix[:prefixBytes]...)

	if p.HasContext {
		flags := p.ContextID & 0x0f
		if p.Compress {
			flags |= 0x10
		}
		body = append(body, TLVContext, 2, flags, 0)
	}

	var brFlags uint8
	if p.OnMesh {
		brFlags |= 0x01
	}
	if p.DefaultRoute {
		brFlags |= 0x02
	}
	brFlags |= uint8(p.Preference&0x03) << 6
	body = append(body, TLVBorderRouter, 2, brFlags, 0)

	out := []byte{TLVPrefix, byte(len(body))}
	return append(out, body...)
}

// decodePrefix parses one Prefix TLV (type byte already consumed by the
// caller) starting at value (the length-prefixed body).
func decodePrefix(value []byte) (PrefixEntry, error) {
	if len(value) < 2 {
		return PrefixEntry{}, errTruncated
	}
	prefixLen := int(value[1])
	prefixBytes := (prefixLen + 7) / 8
	if len(value) < 2+prefixBytes {
		return PrefixEntry{}, errTruncated
	}
	var p PrefixEntry
	p.PrefixLength = prefixLen
	copy(p.Prefix[:prefixBytes], value[2:2+prefixBytes])

	rest := value[2+prefixBytes:]
	for len(rest) >= 2 {
		subType, subLen := rest[0], int(rest[1])
		if len(rest) < 2+subLen {
			return PrefixEntry{}, errTruncated
		}
		sub := rest[2 : 2+subLen]
		switch subType {
		case TLVContext:
			if subLen >= 1 {
				p.HasContext = true
				p.ContextID = sub[0] & 0x0f
				p.Compress = sub[0]&0x10 != 0
			}
		case TLVBorderRouter:
			if subLen >= 1 {
				p.OnMesh = sub[0]&0x01 != 0
				p.DefaultRoute = sub[0]&0x02 != 0
				p.Preference = int8(sub[0]) >> 6
			}
		}
		rest = rest[2+subLen:]
	}
	return p, nil
}

// EncodeTLVs serializes a set of prefix entries into a Network Data TLV
// stream, as distributed in an MLE Data Response.
func EncodeTLVs(entries []PrefixEntry) []byte {
	var out []byte
	for _, p := range entries {
		out = append(out, encodePrefix(p)...)
	}
	return out
}

// DecodeTLVs parses a Network Data TLV stream back into prefix entries,
// skipping any TLV type it does not recognize.
func DecodeTLVs(raw []byte) ([]PrefixEntry, error) {
	var entries []PrefixEntry
	for len(raw) > 0 {
		if len(raw) < 2 {
			return nil, errTruncated
		}
		typ, length := raw[0], int(raw[1])
		if len(raw) < 2+length {
			return nil, errTruncated
		}
		value := raw[2 : 2+length]
		if typ == TLVPrefix {
			p, err := decodePrefix(value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, p)
		}
		raw = raw[2+length:]
	}
	return entries, nil
}
