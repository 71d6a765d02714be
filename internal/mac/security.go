package mac

import (
	"github.com/openthread-go/threadcore/internal/crypto"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

// SecurityContext is the collaborator the MAC layer consults for keys and
// replay protection. It is implemented above this package (by the key
// manager plus the neighbor table) so mac stays free of a dependency on
// either — §4.8/§4.4 security.
type SecurityContext interface {
	// KeyForEncrypt returns the key and key index to use for an outgoing
	// frame under the current sequence, plus the next frame counter value
	// to stamp and persist.
	KeyForEncrypt() (key [16]byte, keyIndex uint8, counter uint32)
	// KeyForDecrypt resolves the key for an incoming key index (current
	// vs previous sequence).
	KeyForDecrypt(keyIndex uint8) (key [16]byte, ok bool)
	// CheckAndRecordReplay reports whether counter is acceptable for ext
	// (strictly greater than the last accepted counter) and, if so,
	// records it as the new high-water mark.
	CheckAndRecordReplay(ext ExtAddress, counter uint32) bool
}

// securityHeaderBytes returns the bytes that sit before Payload in the
// encoded frame — used as CCM associated data, since 802.15.4 authenticates
// the addressing fields but only encrypts the payload.
func securityHeaderBytes(f *Frame) []byte {
	cp := *f
	cp.Payload = nil
	full := cp.Encode()
	return full
}

// nonce builds the 13-byte CCM nonce: ext address || frame counter ||
// security level, per §4.4.
func nonce(ext ExtAddress, counter uint32, level SecurityLevel) [13]byte {
	var n [13]byte
	copy(n[0:8], ext[:])
	n[8] = byte(counter >> 24)
	n[9] = byte(counter >> 16)
	n[10] = byte(counter >> 8)
	n[11] = byte(counter)
	n[12] = byte(level)
	return n
}

// Encrypt secures f in place: it stamps the auxiliary security header with
// a fresh frame counter and key index from sec, then AES-CCM encrypts the
// payload, appending the authentication tag.
func Encrypt(f *Frame, srcExt ExtAddress, level SecurityLevel, sec SecurityContext) threaderr.Error {
	key, keyIndex, counter := sec.KeyForEncrypt()
	f.SecurityEnabled = true
	f.Aux = AuxSecurityHeader{Level: level, KeyIDMode: KeyIDModeIndex, FrameCounter: counter, KeyIndex: keyIndex}

	header := securityHeaderBytes(f)
	tagLen := level.TagLen()

	ccm, err := crypto.NewCCM(key[:], nonce(srcExt, counter, level), len(header), len(f.Payload), tagLen)
	if err != nil {
		return threaderr.Security
	}
	ccm.ProcessHeader(header)
	cipher := make([]byte, len(f.Payload))
	ccm.EncryptPayload(cipher, f.Payload)
	tag := ccm.Finalize()

	f.Payload = append(cipher, tag...)
	return threaderr.None
}

// Decrypt verifies and decrypts an incoming secured frame in place.
// Replay, unknown key index, and tag-mismatch all return Security per
// §4.4/§7 (silent drop at the MAC layer).
func Decrypt(f *Frame, srcExt ExtAddress, sec SecurityContext) threaderr.Error {
	if !f.SecurityEnabled {
		return threaderr.None
	}
	if !sec.CheckAndRecordReplay(srcExt, f.Aux.FrameCounter) {
		return threaderr.Security
	}
	key, ok := sec.KeyForDecrypt(f.Aux.KeyIndex)
	if !ok {
		return threaderr.Security
	}

	tagLen := f.Aux.Level.TagLen()
	if len(f.Payload) < tagLen {
		return threaderr.Parse
	}
	cipher := f.Payload[:len(f.Payload)-tagLen]
	wantTag := f.Payload[len(f.Payload)-tagLen:]

	header := securityHeaderBytes(f)
	ccm, err := crypto.NewCCM(key[:], nonce(srcExt, f.Aux.FrameCounter, f.Aux.Level), len(header), len(cipher), tagLen)
	if err != nil {
		return threaderr.Security
	}
	ccm.ProcessHeader(header)
	plain := make([]byte, len(cipher))
	ccm.DecryptPayload(plain, cipher)
	gotTag := ccm.Finalize()

	if !constantTimeEqual(gotTag, wantTag) {
		return threaderr.Security
	}
	f.Payload = plain
	return threaderr.None
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
