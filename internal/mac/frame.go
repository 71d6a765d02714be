package mac

import (
	"encoding/binary"
	"errors"
)

// FrameType identifies the IEEE 802.15.4 frame types the MAC constructs and
// parses (§4.4).
type FrameType uint8

const (
	FrameTypeBeacon FrameType = 0x0
	FrameTypeData   FrameType = 0x1
	FrameTypeAck    FrameType = 0x2
	FrameTypeCmd    FrameType = 0x3 // carries Beacon Request / Data Request
)

// AddressMode selects short (2-byte) or extended (8-byte) addressing for
// one address field.
type AddressMode uint8

const (
	AddrModeNone  AddressMode = 0x0
	AddrModeShort AddressMode = 0x2
	AddrModeExt   AddressMode = 0x3
)

// SecurityLevel is the auxiliary security header's security level field.
type SecurityLevel uint8

const (
	SecurityNone        SecurityLevel = 0
	SecurityEncMIC32     SecurityLevel = 5
	SecurityEncMIC64     SecurityLevel = 6
	SecurityEncMIC128    SecurityLevel = 7
)

// TagLen returns the CCM tag length in bytes implied by the security level.
func (s SecurityLevel) TagLen() int {
	switch s {
	case SecurityEncMIC32:
		return 4
	case SecurityEncMIC64:
		return 8
	case SecurityEncMIC128:
		return 16
	default:
		return 0
	}
}

// KeyIDMode selects how the auxiliary security header identifies the key:
// Thread always uses mode 1 (key index only, implicit key source).
type KeyIDMode uint8

const (
	KeyIDModeImplicit KeyIDMode = 0
	KeyIDModeIndex    KeyIDMode = 1
)

// AuxSecurityHeader is the IEEE 802.15.4 auxiliary security header (§4.4
// security).
type AuxSecurityHeader struct {
	Level         SecurityLevel
	KeyIDMode     KeyIDMode
	FrameCounter  uint32
	KeyIndex      uint8 // meaningful when KeyIDMode == KeyIDModeIndex
}

// Frame is the parsed/in-progress representation of one 802.15.4 frame.
// Payload is the MAC payload (for Data frames: the 6LoWPAN/mesh datagram);
// it excludes the 2-byte trailing FCS, which is verified/appended
// separately.
type Frame struct {
	Type            FrameType
	SecurityEnabled bool
	AckRequest      bool
	PANIDCompress   bool

	Sequence uint8

	DstPANID  uint16
	DstAddr   Address
	SrcPANID  uint16
	SrcAddr   Address

	Aux AuxSecurityHeader

	Payload []byte
}

// Address is a frame address field that may be short or extended,
// discriminated by Mode.
type Address struct {
	Mode  AddressMode
	Short ShortAddress
	Ext   ExtAddress
}

var errShortFrame = errors.New("mac: frame too short")
var errBadAddrMode = errors.New("mac: unsupported address mode")

// fcf bit layout (IEEE 802.15.4-2006 §7.2.1).
const (
	fcfTypeMask       = 0x0007
	fcfSecurityBit    = 1 << 3
	fcfPendingBit     = 1 << 4
	fcfAckReqBit      = 1 << 5
	fcfPANIDCompress  = 1 << 6
	fcfDstModeShift   = 10
	fcfDstModeMask    = 0x3 << fcfDstModeShift
	fcfVersionShift   = 12
	fcfVersionMask    = 0x3 << fcfVersionShift
	fcfSrcModeShift   = 14
	fcfSrcModeMask    = 0x3 << fcfSrcModeShift
)

// Encode serializes f into its wire representation, not including the
// trailing 2-byte FCS (the caller/radio driver appends or verifies it).
func (f *Frame) Encode() []byte {
	buf := make([]byte, 0, 32+len(f.Payload))
	buf = append(buf, 0, 0) // FCF placeholder
	buf = append(buf, f.Sequence)

	var fcf uint16
	fcf |= uint16(f.Type) & fcfTypeMask
	if f.SecurityEnabled {
		fcf |= fcfSecurityBit
	}
	if f.AckRequest {
		fcf |= fcfAckReqBit
	}
	if f.PANIDCompress {
		fcf |= fcfPANIDCompress
	}
	fcf |= 1 << fcfVersionShift // frame version 1 (2006)

	if f.DstAddr.Mode != AddrModeNone {
		fcf |= uint16(f.DstAddr.Mode) << fcfDstModeShift
		var panid [2]byte
		binary.LittleEndian.PutUint16(panid[:], f.DstPANID)
		buf = append(buf, panid[:]...)
		buf = appendAddr(buf, f.DstAddr)
	}
	if f.SrcAddr.Mode != AddrModeNone {
		fcf |= uint16(f.SrcAddr.Mode) << fcfSrcModeShift
		if !f.PANIDCompress {
			var panid [2]byte
			binary.LittleEndian.PutUint16(panid[:], f.SrcPANID)
			buf = append(buf, panid[:]...)
		}
		buf = appendAddr(buf, f.SrcAddr)
	}

	binary.LittleEndian.PutUint16(buf[0:2], fcf)

	if f.SecurityEnabled {
		secCtl := byte(f.Aux.Level) | byte(f.Aux.KeyIDMode)<<3
		buf = append(buf, secCtl)
		var counter [4]byte
		binary.LittleEndian.PutUint32(counter[:], f.Aux.FrameCounter)
		buf = append(buf, counter[:]...)
		if f.Aux.KeyIDMode == KeyIDModeIndex {
			buf = append(buf, f.Aux.KeyIndex)
		}
	}

	buf = append(buf, f.Payload...)
	return buf
}

func appendAddr(buf []byte, a Address) []byte {
	switch a.Mode {
	case AddrModeShort:
		var s [2]byte
		binary.LittleEndian.PutUint16(s[:], uint16(a.Short))
		return append(buf, s[:]...)
	case AddrModeExt:
		rev := make([]byte, 8)
		for i := 0; i < 8; i++ {
			rev[i] = a.Ext[7-i]
		}
		return append(buf, rev...)
	default:
		return buf
	}
}

func readAddr(buf []byte, mode AddressMode) (Address, []byte, error) {
	switch mode {
	case AddrModeNone:
		return Address{Mode: AddrModeNone}, buf, nil
	case AddrModeShort:
		if len(buf) < 2 {
			return Address{}, nil, errShortFrame
		}
		return Address{Mode: AddrModeShort, Short: ShortAddress(binary.LittleEndian.Uint16(buf))}, buf[2:], nil
	case AddrModeExt:
		if len(buf) < 8 {
			return Address{}, nil, errShortFrame
		}
		var ext ExtAddress
		for i := 0; i < 8; i++ {
			ext[i] = buf[7-i]
		}
		return Address{Mode: AddrModeExt, Ext: ext}, buf[8:], nil
	default:
		return Address{}, nil, errBadAddrMode
	}
}

// DecodeFrame parses a wire-format frame (without trailing FCS). Malformed
// input returns an error; per §4.4/§7 callers must treat this as a silent
// drop, not surface it to the application.
func DecodeFrame(buf []byte) (*Frame, error) {
	if len(buf) < 3 {
		return nil, errShortFrame
	}
	fcf := binary.LittleEndian.Uint16(buf[0:2])
	f := &Frame{
		Type:            FrameType(fcf & fcfTypeMask),
		SecurityEnabled: fcf&fcfSecurityBit != 0,
		AckRequest:      fcf&fcfAckReqBit != 0,
		PANIDCompress:   fcf&fcfPANIDCompress != 0,
		Sequence:        buf[2],
	}
	rest := buf[3:]

	dstMode := AddressMode((fcf & fcfDstModeMask) >> fcfDstModeShift)
	srcMode := AddressMode((fcf & fcfSrcModeMask) >> fcfSrcModeShift)

	if dstMode != AddrModeNone {
		if len(rest) < 2 {
			return nil, errShortFrame
		}
		f.DstPANID = binary.LittleEndian.Uint16(rest)
		rest = rest[2:]
		addr, next, err := readAddr(rest, dstMode)
		if err != nil {
			return nil, err
		}
		f.DstAddr = addr
		rest = next
	}
	if srcMode != AddrModeNone {
		if !f.PANIDCompress {
			if len(rest) < 2 {
				return nil, errShortFrame
			}
			f.SrcPANID = binary.LittleEndian.Uint16(rest)
			rest = rest[2:]
		} else {
			f.SrcPANID = f.DstPANID
		}
		addr, next, err := readAddr(rest, srcMode)
		if err != nil {
			return nil, err
		}
		f.SrcAddr = addr
		rest = next
	}

	if f.SecurityEnabled {
		if len(rest) < 1 {
			return nil, errShortFrame
		}
		secCtl := rest[0]
		f.Aux.Level = SecurityLevel(secCtl & 0x7)
		f.Aux.KeyIDMode = KeyIDMode((secCtl >> 3) & 0x3)
		rest = rest[1:]
		if len(rest) < 4 {
			return nil, errShortFrame
		}
		f.Aux.FrameCounter = binary.LittleEndian.Uint32(rest)
		rest = rest[4:]
		if f.Aux.KeyIDMode == KeyIDModeIndex {
			if len(rest) < 1 {
				return nil, errShortFrame
			}
			f.Aux.KeyIndex = rest[0]
			rest = rest[1:]
		}
	}

	f.Payload = rest
	return f, nil
}
