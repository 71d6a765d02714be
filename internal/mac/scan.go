package mac

import "encoding/binary"

// MAC command frame identifiers carried as the first payload byte of a Cmd
// frame (§4.4).
const (
	cmdDataRequest   = 0x04
	cmdBeaconRequest = 0x07
)

// IsDataRequest reports whether a Cmd frame's payload is a Data Request,
// used by the mesh forwarder's indirect-transmission logic (§4.5) to
// recognize a sleepy child polling for a held frame.
func IsDataRequest(payload []byte) bool {
	return len(payload) >= 1 && payload[0] == cmdDataRequest
}

// BeaconInfo is the content of a received Beacon frame reported to an
// active-scan callback (§4.4).
type BeaconInfo struct {
	NetworkName  string
	ExtPANID     [8]byte
	Channel      uint8
	RSSI         int8
}

// EncodeBeaconPayload serializes the beacon payload the MAC emits in
// response to a Beacon Request, restricted to what Thread needs for a
// commissioner to recognize a candidate network.
func EncodeBeaconPayload(name string, extPANID [8]byte, channel uint8) []byte {
	nameBytes := []byte(name)
	if len(nameBytes) > 16 {
		nameBytes = nameBytes[:16]
	}
	buf := make([]byte, 0, 1+16+8+1)
	buf = append(buf, byte(len(nameBytes)))
	padded := make([]byte, 16)
	copy(padded, nameBytes)
	buf = append(buf, padded...)
	buf = append(buf, extPANID[:]...)
	buf = append(buf, channel)
	return buf
}

// DecodeBeaconPayload is the inverse of EncodeBeaconPayload.
func DecodeBeaconPayload(payload []byte, rssi int8) (BeaconInfo, error) {
	if len(payload) < 1+16+8+1 {
		return BeaconInfo{}, errShortFrame
	}
	nameLen := int(payload[0])
	if nameLen > 16 {
		nameLen = 16
	}
	var extPANID [8]byte
	copy(extPANID[:], payload[17:25])
	return BeaconInfo{
		NetworkName: string(payload[1 : 1+nameLen]),
		ExtPANID:    extPANID,
		Channel:     payload[25],
		RSSI:        rssi,
	}, nil
}

// scanDurationMs maps a scan-duration exponent to milliseconds, per the
// 802.15.4 formula aBaseSuperframeDuration * (2^n + 1) scaled to the
// millisecond granularity this runtime works in.
func scanDurationMs(exponent uint8) uint32 {
	symbolsPerSuperframe := uint32(960)
	symbolPeriodUs := uint32(16)
	units := (uint32(1)<<exponent + 1) * symbolsPerSuperframe * symbolPeriodUs
	return units / 1000
}

func littleEndianUint16(v uint16) [2]byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b
}
