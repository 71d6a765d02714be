// Package keymanager implements the Thread key manager (§4.8): the master
// key, the current/previous MAC and MLE key sequence, and per-peer replay
// protection used by both mac.SecurityContext and MLE's own security.
package keymanager

import (
	"github.com/openthread-go/threadcore/internal/crypto"
	"github.com/openthread-go/threadcore/internal/mac"
)

// NeighborMarker is the collaborator whose previous_key bit gets set on
// every known neighbor when the sequence advances, so frames still
// arriving under the old key are recognized rather than dropped as stale.
// Implemented by the MLE neighbor table; KeyManager only depends on this
// narrow interface to stay free of a dependency on mle.
type NeighborMarker interface {
	MarkAllNeighborsPreviousKeyUsed()
}

// KeyManager holds the master key and derives the current/previous MAC
// and MLE keys from it, per §4.8.
type KeyManager struct {
	masterKey [16]byte

	currentSeq     uint32
	previousSeq    uint32
	previousValid  bool
	currentCounter uint32
	previousCounter uint32

	replay map[mac.ExtAddress]uint32
}

// New returns a KeyManager seeded with masterKey at sequence 0.
func New(masterKey [16]byte) *KeyManager {
	return &KeyManager{
		masterKey: masterKey,
		replay:    make(map[mac.ExtAddress]uint32),
	}
}

// CurrentSequence returns the active key sequence number.
func (k *KeyManager) CurrentSequence() uint32 { return k.currentSeq }

// keyIndex maps a key sequence to its 1-based MAC key index, per Thread's
// convention: index = (sequence & 0x7f) + 1.
func keyIndex(seq uint32) uint8 {
	return uint8(seq&0x7f) + 1
}

func (k *KeyManager) deriveMAC(seq uint32) [16]byte {
	return crypto.MACKey(crypto.DeriveKey(k.masterKey[:], seq))
}

// DeriveMLEKey returns the MLE security key for the current sequence.
func (k *KeyManager) DeriveMLEKey() [16]byte {
	return crypto.MLEKey(crypto.DeriveKey(k.masterKey[:], k.currentSeq))
}

// SetCurrentKeySequence advances the active sequence to seq: the prior
// current sequence becomes the (now valid) previous sequence, both frame
// counters reset to zero, and every known neighbor has its previous_key
// bit marked so a frame that arrives still encrypted under the old key is
// recognized as legitimate rather than replay-rejected, per §4.8.
func (k *KeyManager) SetCurrentKeySequence(seq uint32, neighbors NeighborMarker) {
	k.previousSeq = k.currentSeq
	k.previousValid = true
	k.currentSeq = seq
	k.currentCounter = 0
	k.previousCounter = 0
	if neighbors != nil {
		neighbors.MarkAllNeighborsPreviousKeyUsed()
	}
}

// GetTemporaryMacKey derives the MAC key for an arbitrary sequence without
// caching it anywhere, used to bootstrap a peer whose sequence doesn't
// match this node's current one (§4.8).
func (k *KeyManager) GetTemporaryMacKey(seq uint32) [16]byte {
	return k.deriveMAC(seq)
}

// KeyForEncrypt implements mac.SecurityContext: it returns the current
// key, its key index, and the next frame counter value, advancing the
// counter as a side effect (§4.4/§4.8: "Key manager counters: incremented
// only from the main loop").
func (k *KeyManager) KeyForEncrypt() (key [16]byte, idx uint8, counter uint32) {
	key = k.deriveMAC(k.currentSeq)
	idx = keyIndex(k.currentSeq)
	counter = k.currentCounter
	k.currentCounter++
	return key, idx, counter
}

// KeyForDecrypt resolves idx against the current sequence, then (if
// valid) the previous one.
func (k *KeyManager) KeyForDecrypt(idx uint8) (key [16]byte, ok bool) {
	if idx == keyIndex(k.currentSeq) {
		return k.deriveMAC(k.currentSeq), true
	}
	if k.previousValid && idx == keyIndex(k.previousSeq) {
		return k.deriveMAC(k.previousSeq), true
	}
	return [16]byte{}, false
}

// CheckAndRecordReplay implements mac.SecurityContext: counter is
// accepted only if strictly greater than the last one recorded for ext,
// and is the new high-water mark on acceptance.
func (k *KeyManager) CheckAndRecordReplay(ext mac.ExtAddress, counter uint32) bool {
	last, seen := k.replay[ext]
	if seen && counter <= last {
		return false
	}
	k.replay[ext] = counter
	return true
}

// ForgetNeighbor drops replay state for ext, called when a neighbor is
// removed from the table so a later peer reusing the same ext address
// (unlikely, but the table is caller-controlled) doesn't inherit a stale
// high-water mark.
func (k *KeyManager) ForgetNeighbor(ext mac.ExtAddress) {
	delete(k.replay, ext)
}
