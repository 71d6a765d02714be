package ip6

import "github.com/openthread-go/threadcore/internal/buffer"

// PseudoHeaderChecksum computes the RFC 2460 §8.1 upper-layer checksum:
// the ones-complement sum of the IPv6 pseudo-header (source, destination,
// upper-layer length, next header) and the upper-layer message itself.
// The message bytes are read straight out of msg's buffer chain in
// fixed-size strides rather than linearized first, per §4.6.
func PseudoHeaderChecksum(src, dst Address, nextHeader uint8, msg *buffer.Message, offset, n int) uint16 {
	var sum uint32
	sum += sumBytes(src[:])
	sum += sumBytes(dst[:])
	sum += uint32(n >> 16)
	sum += uint32(n & 0xffff)
	sum += uint32(nextHeader)

	var chunk [128]byte
	remaining := n
	pos := offset
	var carry byte
	haveCarry := false
	for remaining > 0 {
		take := len(chunk)
		if take > remaining {
			take = remaining
		}
		got := msg.Read(pos, take, chunk[:take])
		if got == 0 {
			break
		}
		buf := chunk[:got]
		if haveCarry {
			buf = append([]byte{carry}, buf...)
			haveCarry = false
		}
		if len(buf)%2 == 1 {
			carry = buf[len(buf)-1]
			haveCarry = true
			buf = buf[:len(buf)-1]
		}
		sum += sumBytes(buf)
		pos += got
		remaining -= got
	}
	if haveCarry {
		sum += uint32(carry) << 8
	}

	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

// ChecksumBytes is the plain-slice form of PseudoHeaderChecksum, used when
// the upper-layer payload is already a contiguous slice (e.g. inside
// lowpan's decompression path, before a Message exists).
func ChecksumBytes(src, dst Address, nextHeader uint8, payload []byte) uint16 {
	var sum uint32
	sum += sumBytes(src[:])
	sum += sumBytes(dst[:])
	n := len(payload)
	sum += uint32(n >> 16)
	sum += uint32(n & 0xffff)
	sum += uint32(nextHeader)
	sum += sumBytes(payload)
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

func sumBytes(b []byte) uint32 {
	var sum uint32
	i := 0
	for ; i+1 < len(b); i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if i < len(b) {
		sum += uint32(b[i]) << 8
	}
	return sum
}
