package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// DeriveKey computes the 32-byte per-sequence key material from the
// 16-byte master key, per §3: HMAC-SHA-256(master, seq || "Thread"). Bytes
// [0,16) are the MLE key, [16,32) are the MAC key. The function is pure:
// repeated calls with the same inputs yield the same output, which is the
// property §8's key-derivation law tests.
func DeriveKey(master []byte, seq uint32) [32]byte {
	mac := hmac.New(sha256.New, master)
	var seqBytes [4]byte
	seqBytes[0] = byte(seq >> 24)
	seqBytes[1] = byte(seq >> 16)
	seqBytes[2] = byte(seq >> 8)
	seqBytes[3] = byte(seq)
	mac.Write(seqBytes[:])
	mac.Write([]byte("Thread"))

	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// MLEKey returns the first 16 bytes of a derived key.
func MLEKey(derived [32]byte) [16]byte {
	var k [16]byte
	copy(k[:], derived[:16])
	return k
}

// MACKey returns the second 16 bytes of a derived key.
func MACKey(derived [32]byte) [16]byte {
	var k [16]byte
	copy(k[:], derived[16:32])
	return k
}
