package lowpan

import (
	"encoding/binary"
	"errors"

	"github.com/openthread-go/threadcore/internal/ip6"
)

// Fragment dispatch bytes (RFC 4944 §5.3): the high 5 bits distinguish a
// first fragment (11000) from a subsequent one (11100); the low 3 bits of
// the first byte hold the high 3 bits of the 11-bit datagram size.
const (
	fragFirstDispatch = 0xc0
	fragNextDispatch  = 0xe0
	fragDispatchMask  = 0xf8
	fragSizeMask      = 0x07
)

// ReassemblyTimeoutMs is the fixed 5-second window of §4.5 after which
// partial reassembly state for a datagram is discarded.
const ReassemblyTimeoutMs = 5000

var (
	errFragTooShort = errors.New("lowpan: fragment header too short")
	errFragOverflow = errors.New("lowpan: fragment offset exceeds datagram size")
)

// EncodeFirstFragment prepends the first-fragment header (4 bytes) to a
// compressed-datagram prefix. size is the total compressed datagram length
// this and all following fragments will reconstruct.
func EncodeFirstFragment(size uint16, tag uint16, payload []byte) []byte {
	out := make([]byte, 4, 4+len(payload))
	out[0] = fragFirstDispatch | byte(size>>8)&fragSizeMask
	out[1] = byte(size)
	binary.BigEndian.PutUint16(out[2:4], tag)
	return append(out, payload...)
}

// EncodeSubsequentFragment prepends the 5-byte subsequent-fragment header.
// offsetUnits is the fragment's starting offset into the reassembled
// datagram, in units of 8 octets, per RFC 4944.
func EncodeSubsequentFragment(size, tag uint16, offsetUnits uint8, payload []byte) []byte {
	out := make([]byte, 5, 5+len(payload))
	out[0] = fragNextDispatch | byte(size>>8)&fragSizeMask
	out[1] = byte(size)
	binary.BigEndian.PutUint16(out[2:4], tag)
	out[4] = offsetUnits
	return append(out, payload...)
}

// fragmentHeader is the decoded form of either fragment header shape.
type fragmentHeader struct {
	first       bool
	size        uint16
	tag         uint16
	offsetBytes int
}

func decodeFragmentHeader(raw []byte) (fragmentHeader, []byte, error) {
	if len(raw) < 1 {
		return fragmentHeader{}, nil, errFragTooShort
	}
	switch raw[0] & fragDispatchMask {
	case fragFirstDispatch:
		if len(raw) < 4 {
			return fragmentHeader{}, nil, errFragTooShort
		}
		size := uint16(raw[0]&fragSizeMask)<<8 | uint16(raw[1])
		tag := binary.BigEndian.Uint16(raw[2:4])
		return fragmentHeader{first: true, size: size, tag: tag}, raw[4:], nil
	case fragNextDispatch:
		if len(raw) < 5 {
			return fragmentHeader{}, nil, errFragTooShort
		}
		size := uint16(raw[0]&fragSizeMask)<<8 | uint16(raw[1])
		tag := binary.BigEndian.Uint16(raw[2:4])
		return fragmentHeader{size: size, tag: tag, offsetBytes: int(raw[4]) * 8}, raw[5:], nil
	default:
		return fragmentHeader{}, nil, errFragTooShort
	}
}

// IsFragment reports whether raw begins with a 6LoWPAN fragment dispatch.
func IsFragment(raw []byte) bool {
	return len(raw) >= 1 && (raw[0]&fragDispatchMask == fragFirstDispatch || raw[0]&fragDispatchMask == fragNextDispatch)
}

// reassemblyKey identifies one in-progress datagram, per §4.5:
// (source, destination, datagram_tag, datagram_size).
type reassemblyKey struct {
	src, dst ip6.Address
	tag      uint16
	size     uint16
}

type reassemblyEntry struct {
	buf        []byte
	haveByte   []bool
	remaining  int
	deadlineMs uint32
}

// Reassembler holds in-progress 6LoWPAN datagram reassembly state. It has
// no internal clock or timer of its own: callers pass the current
// millisecond time to Add and periodically call Purge so reassembly stays
// on the caller's own scheduling tasklet, per §5's single-thread rule.
type Reassembler struct {
	entries map[reassemblyKey]*reassemblyEntry
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{entries: make(map[reassemblyKey]*reassemblyEntry)}
}

// Add feeds one received fragment into reassembly. It returns the complete
// reassembled datagram once every byte has arrived, or nil while more
// fragments are still expected.
func (r *Reassembler) Add(src, dst ip6.Address, raw []byte, nowMs uint32) ([]byte, error) {
	hdr, payload, err := decodeFragmentHeader(raw)
	if err != nil {
		return nil, err
	}
	key := reassemblyKey{src: src, dst: dst, tag: hdr.tag, size: hdr.size}
	e, ok := r.entries[key]
	if !ok {
		e = &reassemblyEntry{
			buf:       make([]byte, hdr.size),
			haveByte:  make([]bool, hdr.size),
			remaining: int(hdr.size),
		}
		r.entries[key] = e
	}
	e.deadlineMs = nowMs + ReassemblyTimeoutMs

	offset := 0
	if !hdr.first {
		offset = hdr.offsetBytes
	}
	if offset+len(payload) > len(e.buf) {
		delete(r.entries, key)
		return nil, errFragOverflow
	}
	for i, b := range payload {
		if !e.haveByte[offset+i] {
			e.haveByte[offset+i] = true
			e.remaining--
		}
		e.buf[offset+i] = b
	}

	if e.remaining == 0 {
		delete(r.entries, key)
		return e.buf, nil
	}
	return nil, nil
}

// Purge discards any reassembly state whose deadline has passed as of
// nowMs, returning the count of datagrams dropped incomplete.
func (r *Reassembler) Purge(nowMs uint32) int {
	dropped := 0
	for k, e := range r.entries {
		if int32(nowMs-e.deadlineMs) >= 0 {
			delete(r.entries, k)
			dropped++
		}
	}
	return dropped
}

// Pending reports how many datagrams currently have partial state.
func (r *Reassembler) Pending() int { return len(r.entries) }
