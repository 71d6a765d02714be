// Package crypto implements the frame-security primitives spec §4.3 needs:
// AES-128 single-block encryption, AES-CCM* authenticated encryption (the
// 802.15.4-2006 Annex B construction), and the HMAC-SHA-256 key schedule of
// §3. AES-128 and SHA-256 themselves are standard, widely audited
// primitives with no meaningful alternative implementation in the example
// corpus or the wider ecosystem worth displacing stdlib for — see
// DESIGN.md for why crypto/aes, crypto/sha256 and crypto/hmac are used
// directly rather than a third-party crypto package. The CCM* framing
// itself (not available in the standard library, which only ships GCM) is
// hand-rolled here, which is the actual domain logic this package exists
// to provide.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
)

// ECB wraps a single AES-128 block cipher instance for one-block
// encryption, per §4.3 ("Single-block encrypt only; decrypt is not
// required because CCM uses ECB-encrypt for both directions").
type ECB struct {
	block cipher.Block
}

// NewECB expands a 16-byte key into round keys.
func NewECB(key []byte) (*ECB, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &ECB{block: block}, nil
}

// EncryptBlock encrypts exactly one 16-byte block in place into dst.
func (e *ECB) EncryptBlock(dst, src *[16]byte) {
	e.block.Encrypt(dst[:], src[:])
}
