package mle

import (
	"encoding/binary"
	"errors"
)

// MLE TLV types this stack encodes/parses (§4.9; a subset of the full
// Thread TLV registry, limited to what the role state machine and
// advertisements in this spec actually use).
const (
	TLVSourceAddress      uint8 = 0
	TLVMode               uint8 = 1
	TLVTimeout            uint8 = 2
	TLVChallenge          uint8 = 3
	TLVResponse           uint8 = 4
	TLVLinkFrameCounter   uint8 = 5
	TLVMLEFrameCounter    uint8 = 6
	TLVRoute              uint8 = 9
	TLVAddress16          uint8 = 10
	TLVLeaderData         uint8 = 11
	TLVNetworkData        uint8 = 12
	TLVTLVRequest         uint8 = 13
	TLVVersion            uint8 = 18
)

// TLV is one decoded type-length-value element.
type TLV struct {
	Type  uint8
	Value []byte
}

var errTLVTooShort = errors.New("mle: tlv too short")

// EncodeTLVs concatenates tlvs into their wire form: 1-byte type, 1-byte
// length, value bytes. Thread TLVs only ever need the long (2-byte-length)
// form for Network Data, which callers encode as a single TLVNetworkData
// value themselves; this encoder always takes the short form since every
// TLV used in this spec fits in 255 bytes.
func EncodeTLVs(tlvs []TLV) []byte {
	var buf []byte
	for _, t := range tlvs {
		buf = append(buf, t.Type, byte(len(t.Value)))
		buf = append(buf, t.Value...)
	}
	return buf
}

// DecodeTLVs splits buf into its TLV elements.
func DecodeTLVs(buf []byte) ([]TLV, error) {
	var out []TLV
	for len(buf) > 0 {
		if len(buf) < 2 {
			return nil, errTLVTooShort
		}
		typ, length := buf[0], int(buf[1])
		buf = buf[2:]
		if len(buf) < length {
			return nil, errTLVTooShort
		}
		out = append(out, TLV{Type: typ, Value: append([]byte(nil), buf[:length]...)})
		buf = buf[length:]
	}
	return out, nil
}

// Find returns the first TLV of the given type, if present.
func Find(tlvs []TLV, typ uint8) (TLV, bool) {
	for _, t := range tlvs {
		if t.Type == typ {
			return t, true
		}
	}
	return TLV{}, false
}

// LeaderData is the decoded form of the Leader Data TLV (§4.9
// advertisement contents).
type LeaderData struct {
	PartitionID    uint32
	Weighting      uint8
	DataVersion    uint8
	StableVersion  uint8
	LeaderRouterID uint8
}

// Encode serializes LeaderData to its 8-byte TLV value.
func (l LeaderData) Encode() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], l.PartitionID)
	buf[4] = l.Weighting
	buf[5] = l.DataVersion
	buf[6] = l.StableVersion
	buf[7] = l.LeaderRouterID
	return buf
}

// DecodeLeaderData parses an 8-byte Leader Data TLV value.
func DecodeLeaderData(buf []byte) (LeaderData, error) {
	if len(buf) < 8 {
		return LeaderData{}, errTLVTooShort
	}
	return LeaderData{
		PartitionID:    binary.BigEndian.Uint32(buf[0:4]),
		Weighting:      buf[4],
		DataVersion:    buf[5],
		StableVersion:  buf[6],
		LeaderRouterID: buf[7],
	}, nil
}

// RouteEntry is one router's column in the Route TLV's cost matrix: its
// router ID and the advertising router's route cost to reach it (0 for the
// advertiser itself, 0xff when it is unreachable).
type RouteEntry struct {
	RouterID int
	Cost     uint8
}

// EncodeRoute serializes a Route TLV value: 1 byte router-ID mask
// (unused here, always 0, since this implementation inspects entries by
// router ID directly rather than bitmask position) followed by a router-ID
// byte and a cost byte per entry, in the order entries are given.
func EncodeRoute(entries []RouteEntry) []byte {
	buf := make([]byte, 1+len(entries)*2)
	buf[0] = 0
	for i, e := range entries {
		buf[1+2*i] = byte(e.RouterID)
		buf[1+2*i+1] = e.Cost
	}
	return buf
}

// DecodeRoute parses a Route TLV value built by EncodeRoute.
func DecodeRoute(buf []byte) ([]RouteEntry, error) {
	if len(buf) < 1 || (len(buf)-1)%2 != 0 {
		return nil, errTLVTooShort
	}
	n := (len(buf) - 1) / 2
	out := make([]RouteEntry, n)
	for i := 0; i < n; i++ {
		out[i] = RouteEntry{RouterID: int(buf[1+2*i]), Cost: buf[1+2*i+1]}
	}
	return out, nil
}

// LinkQualityToCost maps a 3-level link quality (1 worst .. 3 best) to the
// route-cost units used in Route TLV cost matrices and next-hop
// computation, per §4.9's fixed table.
func LinkQualityToCost(lq uint8) uint8 {
	switch lq {
	case 1:
		return 6
	case 2:
		return 2
	case 3:
		return 1
	default:
		return 0xff // no link
	}
}
