package ip6

import "errors"

// MPLOptionType is the IPv6 hop-by-hop option type for MPL (RFC 7731 §6).
const MPLOptionType = 0x6d

// Seed length codes, RFC 7731 §6.1.
const (
	mplSeedLen0  = 0 // seed elided, derived from IPv6 source address
	mplSeedLen2  = 1 // 2-byte seed
	mplSeedLen8  = 2 // 8-byte seed
	mplSeedLen16 = 3 // 16-byte seed
)

// MPLOption is the decoded content of an MPL hop-by-hop option: the flag
// octet (S|M|V|rsv) plus the sequence number and seed ID used to key
// duplicate suppression.
type MPLOption struct {
	Sequence uint8
	Seed     Address // zero-extended/truncated seed value, keyed by SeedLenCode
	SeedLenCode uint8
}

var errMPLOptionTooShort = errors.New("ip6: MPL option too short")

// EncodeMPLOption wraps an MPLOption as a 2-byte-aligned hop-by-hop
// options header containing a single MPL option followed by Pad1/PadN as
// needed, ready to prepend after the fixed IPv6 header (NextHeader must be
// set to the option's original NextHeaderHopByHop by the caller).
func EncodeMPLOption(opt MPLOption, nextHeader uint8) []byte {
	seedBytes := seedLenBytes(opt.SeedLenCode)
	optLen := 2 + seedBytes // flags + sequence + seed
	body := make([]byte, 2+optLen)
	body[0] = MPLOptionType
	body[1] = byte(optLen)
	body[2] = opt.SeedLenCode << 6
	body[3] = opt.Sequence
	copy(body[4:4+seedBytes], opt.Seed[16-seedBytes:])

	total := 2 + len(body) // HBH nextHeader+hdrExtLen octets + option
	pad := (8 - total%8) % 8
	hdr := make([]byte, 2, total+pad)
	hdr[0] = nextHeader
	hdr = append(hdr, body...)
	if pad == 1 {
		hdr = append(hdr, 0x00) // Pad1
	} else if pad > 1 {
		hdr = append(hdr, 0x01, byte(pad-2))
		hdr = append(hdr, make([]byte, pad-2)...)
	}
	hdr[1] = byte(len(hdr)/8 - 1)
	return hdr
}

// DecodeMPLOption scans a hop-by-hop options header (as it appears right
// after the fixed IPv6 header) for an MPL option. It returns the option,
// the header's declared NextHeader, the header's total length in bytes,
// and whether an MPL option was found.
func DecodeMPLOption(hbh []byte) (MPLOption, uint8, int, bool, error) {
	if len(hbh) < 2 {
		return MPLOption{}, 0, 0, false, errMPLOptionTooShort
	}
	nextHeader := hbh[0]
	hdrLen := (int(hbh[1]) + 1) * 8
	if hdrLen > len(hbh) {
		return MPLOption{}, 0, 0, false, errMPLOptionTooShort
	}

	i := 2
	for i < hdrLen {
		optType := hbh[i]
		if optType == 0x00 { // Pad1
			i++
			continue
		}
		if i+1 >= hdrLen {
			return MPLOption{}, 0, 0, false, errMPLOptionTooShort
		}
		optLen := int(hbh[i+1])
		if i+2+optLen > hdrLen {
			return MPLOption{}, 0, 0, false, errMPLOptionTooShort
		}
		if optType == MPLOptionType {
			if optLen < 2 {
				return MPLOption{}, 0, 0, false, errMPLOptionTooShort
			}
			seedLenCode := hbh[i+2] >> 6
			seedBytes := seedLenBytes(seedLenCode)
			if optLen < 2+seedBytes {
				return MPLOption{}, 0, 0, false, errMPLOptionTooShort
			}
			var seed Address
			copy(seed[16-seedBytes:], hbh[i+4:i+4+seedBytes])
			return MPLOption{Sequence: hbh[i+3], Seed: seed, SeedLenCode: seedLenCode}, nextHeader, hdrLen, true, nil
		}
		i += 2 + optLen
	}
	return MPLOption{}, nextHeader, hdrLen, false, nil
}

func seedLenBytes(code uint8) int {
	switch code {
	case mplSeedLen0:
		return 0
	case mplSeedLen2:
		return 2
	case mplSeedLen8:
		return 8
	default:
		return 16
	}
}
