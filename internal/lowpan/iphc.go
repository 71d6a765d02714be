package lowpan

import (
	"encoding/binary"
	"errors"

	"github.com/openthread-go/threadcore/internal/ip6"
)

// dispatch identifies an IPHC-compressed datagram (RFC 6282 §3.1): the two
// high bits of the first byte are 01, the next is 1 (011xxxxx).
const dispatchIPHC = 0x60
const dispatchMask = 0xe0

// IPHC base-header bit layout, byte 0.
const (
	tfShift = 3 // traffic class/flow label compression, 2 bits
	nhBit   = 1 << 2
	hlShift = 0 // hop limit compression, 2 bits

	tfElideAll = 0x3
	hlInline   = 0x0
	hl1        = 0x1
	hl64       = 0x2
	hl255      = 0x3
)

// byte 1.
const (
	cidBit   = 1 << 7
	sacBit   = 1 << 6
	samShift = 4
	mBit     = 1 << 3
	dacBit   = 1 << 2
	damShift = 0

	samInline   = 0x0
	sam64       = 0x1
	sam16       = 0x2
	samElided   = 0x3
)

// LinkAddr is the 802.15.4 address (short or extended) IPHC derives an
// elided IPv6 address from, or elides an inline address against.
type LinkAddr struct {
	HasShort bool
	Short    uint16
	HasExt   bool
	Ext      [8]byte
}

func (a LinkAddr) linkLocal() (ip6.Address, bool) {
	var addr ip6.Address
	addr[0], addr[1] = 0xfe, 0x80
	switch {
	case a.HasExt:
		iid := a.Ext
		iid[0] ^= 0x02 // EUI-64 U/L bit flip, per RFC 4944 §6
		copy(addr[8:16], iid[:])
		return addr, true
	case a.HasShort:
		addr[11], addr[12] = 0xff, 0xfe
		binary.BigEndian.PutUint16(addr[14:16], a.Short)
		return addr, true
	default:
		return addr, false
	}
}

func (a LinkAddr) iid16() (uint16, bool) {
	if a.HasShort {
		return a.Short, true
	}
	return 0, false
}

// Packet is the decompressed form an IPHC frame round-trips to: the fixed
// IPv6 header plus whatever follows it (UDP or other upper-layer bytes),
// uncompressed.
type Packet struct {
	Header  ip6.Header
	Payload []byte // upper-layer bytes (UDP header+data, ICMPv6, etc.)
}

var (
	errNotIPHC  = errors.New("lowpan: not an IPHC dispatch")
	errTooShort = errors.New("lowpan: compressed header too short")
)

// Compress produces the IPHC-compressed wire form of pkt, electing context
// compression when ctx resolves a matching prefix and link-layer elision
// whenever the corresponding address derives from src/dst.
//
// This implements the common-case subset of RFC 6282: traffic class and
// flow label are always elided (assumed zero on decompression, matching
// what every Thread control and application datagram in practice carries);
// multicast destination compression supports only the ff02::/120
// single-byte group form, falling back to a full 128-bit inline address for
// every other multicast scope.
func Compress(pkt *Packet, src, dst LinkAddr, ctx ContextTable) []byte {
	h := pkt.Header
	buf := make([]byte, 2, 2+1+32+len(pkt.Payload))
	b0 := byte(dispatchIPHC)
	b1 := byte(0)

	b0 |= tfElideAll << tfShift

	nhElided := h.NextHeader == ip6.NextHeaderUDP
	if nhElided {
		b0 |= nhBit
	} else {
		buf = append(buf, h.NextHeader)
	}

	switch h.HopLimit {
	case 1:
		b0 |= hl1 << hlShift
	case 64:
		b0 |= hl64 << hlShift
	case 255:
		b0 |= hl255 << hlShift
	default:
		b0 |= hlInline << hlShift
		buf = append(buf, h.HopLimit)
	}

	var sci, dci uint8
	var haveCID bool

	buf, sam, sac := compressSource(buf, h.Src, src, ctx, &sci, &haveCID)
	b1 |= sam << samShift
	if sac {
		b1 |= sacBit
	}

	buf, dam, dac, m := compressDest(buf, h.Dst, dst, ctx, &dci, &haveCID)
	b1 |= dam << damShift
	if dac {
		b1 |= dacBit
	}
	if m {
		b1 |= mBit
	}

	if haveCID {
		b0 |= cidBit
	}

	buf[0] = b0
	buf[1] = b1
	if haveCID {
		cidByte := sci<<4 | dci
		out := make([]byte, 0, len(buf)+1+len(pkt.Payload))
		out = append(out, buf[0], buf[1], cidByte)
		out = append(out, buf[2:]...)
		buf = out
	}

	if nhElided {
		buf = append(buf, encodeUDPNHC(pkt.Payload)...)
	} else {
		buf = append(buf, pkt.Payload...)
	}
	return buf
}

// compressSource appends the compressed or inline source address bytes and
// returns the SAM value and whether stateful (context) compression applied.
func compressSource(buf []byte, addr ip6.Address, link LinkAddr, ctx ContextTable, sci *uint8, haveCID *bool) ([]byte, byte, bool) {
	if ll, ok := link.linkLocal(); ok && ll == addr {
		return buf, samElided, false
	}
	if _, ok := link.iid16(); ok {
		derived, _ := link.linkLocal()
		if ip6.PrefixMatchLength(derived, addr) >= 112 {
			return append(buf, addr[14], addr[15]), sam16, false
		}
	}
	if ctx != nil {
		if id, c, ok := ctx.ContextForPrefix(addr); ok && c.Compress {
			*sci = id
			*haveCID = *haveCID || id != 0
			if s, ok2 := link.iid16(); ok2 && iidMatchesShort(addr, s) {
				return buf, samElided, true
			}
			return appendIID(buf, addr), sam64, true
		}
	}
	return append(buf, addr[:]...), samInline, false
}

func compressDest(buf []byte, addr ip6.Address, link LinkAddr, ctx ContextTable, dci *uint8, haveCID *bool) ([]byte, byte, bool, bool) {
	if addr.IsMulticast() {
		if isShortMulticastGroup(addr) {
			return append(buf, addr[15]), 0x3, false, true
		}
		return append(buf, addr[:]...), samInline, false, true
	}
	if ll, ok := link.linkLocal(); ok && ll == addr {
		return buf, samElided, false, false
	}
	if _, ok := link.iid16(); ok {
		derived, _ := link.linkLocal()
		if ip6.PrefixMatchLength(derived, addr) >= 112 {
			return append(buf, addr[14], addr[15]), sam16, false, false
		}
	}
	if ctx != nil {
		if id, c, ok := ctx.ContextForPrefix(addr); ok && c.Compress {
			*dci = id
			*haveCID = *haveCID || id != 0
			if s, ok2 := link.iid16(); ok2 && iidMatchesShort(addr, s) {
				return buf, samElided, true, false
			}
			return appendIID(buf, addr), sam64, true, false
		}
	}
	return append(buf, addr[:]...), samInline, false, false
}

func iidMatchesShort(addr ip6.Address, short uint16) bool {
	return addr[11] == 0xff && addr[12] == 0xfe && binary.BigEndian.Uint16(addr[14:16]) == short
}

// isShortMulticastGroup reports whether addr is ff02:0:0:0:0:0:0:YY, the
// only multicast form this stack elides to a single group-ID byte (RFC
// 6282's DAM=11 form).
func isShortMulticastGroup(addr ip6.Address) bool {
	if addr[1] != 0x02 {
		return false
	}
	for i := 2; i < 15; i++ {
		if addr[i] != 0 {
			return false
		}
	}
	return true
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendIID(buf []byte, addr ip6.Address) []byte {
	return append(buf, addr[8:16]...)
}

// Decompress is the inverse of Compress given the same link-layer addresses
// and context table the sender used.
func Decompress(raw []byte, src, dst LinkAddr, ctx ContextTable) (*Packet, error) {
	if len(raw) < 2 || raw[0]&dispatchMask != dispatchIPHC {
		return nil, errNotIPHC
	}
	b0, b1 := raw[0], raw[1]
	rest := raw[2:]

	haveCID := b0&cidBit != 0
	var sci, dci uint8
	if haveCID {
		if len(rest) < 1 {
			return nil, errTooShort
		}
		sci, dci = rest[0]>>4, rest[0]&0xf
		rest = rest[1:]
	}

	h := ip6.Header{}
	if (b0>>tfShift)&0x3 != tfElideAll {
		// Only full elision is produced by Compress; anything else in a
		// frame from this stack is malformed.
		return nil, errTooShort
	}

	nhElided := b0&nhBit != 0
	if !nhElided {
		if len(rest) < 1 {
			return nil, errTooShort
		}
		h.NextHeader = rest[0]
		rest = rest[1:]
	} else {
		h.NextHeader = ip6.NextHeaderUDP
	}

	switch (b0 >> hlShift) & 0x3 {
	case hl1:
		h.HopLimit = 1
	case hl64:
		h.HopLimit = 64
	case hl255:
		h.HopLimit = 255
	default:
		if len(rest) < 1 {
			return nil, errTooShort
		}
		h.HopLimit = rest[0]
		rest = rest[1:]
	}

	sac := b1&sacBit != 0
	sam := (b1 >> samShift) & 0x3
	var err error
	h.Src, rest, err = decompressAddr(rest, sam, sac, sci, src, ctx, false)
	if err != nil {
		return nil, err
	}

	m := b1&mBit != 0
	dac := b1&dacBit != 0
	dam := (b1 >> damShift) & 0x3
	h.Dst, rest, err = decompressAddr(rest, dam, dac, dci, dst, ctx, m)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if nhElided {
		payload, err = decodeUDPNHC(rest)
		if err != nil {
			return nil, err
		}
	} else {
		payload = rest
	}
	return &Packet{Header: h, Payload: payload}, nil
}

func decompressAddr(rest []byte, mode byte, stateful bool, cid uint8, link LinkAddr, ctx ContextTable, multicast bool) (ip6.Address, []byte, error) {
	var addr ip6.Address

	if multicast && mode == 0x3 {
		if len(rest) < 1 {
			return addr, nil, errTooShort
		}
		addr[0], addr[1] = 0xff, 0x02
		addr[15] = rest[0]
		return addr, rest[1:], nil
	}

	prefix := func() ip6.Address {
		if stateful && ctx != nil {
			if c, ok := ctx.ContextByID(cid); ok {
				return c.Prefix
			}
		}
		ll, _ := link.linkLocal()
		return ll
	}

	switch mode {
	case samInline:
		if len(rest) < 16 {
			return addr, nil, errTooShort
		}
		copy(addr[:], rest[:16])
		return addr, rest[16:], nil
	case sam64:
		if len(rest) < 8 {
			return addr, nil, errTooShort
		}
		addr = prefix()
		copy(addr[8:16], rest[:8])
		return addr, rest[8:], nil
	case sam16:
		if len(rest) < 2 {
			return addr, nil, errTooShort
		}
		addr = prefix()
		addr[11], addr[12] = 0xff, 0xfe
		copy(addr[14:16], rest[:2])
		return addr, rest[2:], nil
	default: // samElided
		if stateful {
			addr = prefix()
			if short, ok := link.iid16(); ok {
				addr[11], addr[12] = 0xff, 0xfe
				binary.BigEndian.PutUint16(addr[14:16], short)
				return addr, rest, nil
			}
			copy(addr[8:16], deriveIID(link))
			return addr, rest, nil
		}
		ll, ok := link.linkLocal()
		if !ok {
			return addr, nil, errTooShort
		}
		return ll, rest, nil
	}
}

func deriveIID(link LinkAddr) []byte {
	ll, _ := link.linkLocal()
	return ll[8:16]
}
