package crypto

import "encoding/binary"

// CCM implements the AES-CCM* authenticated encryption construction from
// IEEE 802.15.4-2006 Annex B: CBC-MAC over an associated-data header
// followed by CTR-mode encryption of the payload, with the tag itself
// masked by the CTR keystream's block zero (§4.3). L (the length-field
// size) is fixed at 2 bytes, matching the 13-byte nonce 802.15.4 uses.
type CCM struct {
	ecb       *ECB
	nonce     [13]byte
	tagLen    int
	headerLen int
	payload   int

	mac        [16]byte
	macBlock   [16]byte // partially filled CBC-MAC input block
	macFill    int
	counter    uint16
	sBlockZero [16]byte
	started    bool
}

// NewCCM initializes a CCM instance for one message. tagLen must be 4, 8,
// or 16 per §4.3.
func NewCCM(key []byte, nonce [13]byte, headerLen, payloadLen, tagLen int) (*CCM, error) {
	if tagLen != 4 && tagLen != 8 && tagLen != 16 {
		return nil, errInvalidTagLen
	}
	ecb, err := NewECB(key)
	if err != nil {
		return nil, err
	}
	c := &CCM{ecb: ecb, nonce: nonce, tagLen: tagLen, headerLen: headerLen, payload: payloadLen}
	c.initMAC()
	return c, nil
}

type ccmError string

func (e ccmError) Error() string { return string(e) }

const errInvalidTagLen = ccmError("ccm: tag length must be 4, 8 or 16")

func (c *CCM) flags(hasAdata bool) byte {
	var f byte
	if hasAdata {
		f |= 1 << 6
	}
	f |= byte((c.tagLen-2)/2) << 3
	f |= byte(1) // L-1, L=2
	return f
}

func (c *CCM) formatB0() [16]byte {
	var b0 [16]byte
	b0[0] = c.flags(c.headerLen > 0)
	copy(b0[1:14], c.nonce[:])
	binary.BigEndian.PutUint16(b0[14:16], uint16(c.payload))
	return b0
}

func (c *CCM) formatA(counter uint16) [16]byte {
	var a [16]byte
	a[0] = byte(1) // L-1, no Adata bit for counter blocks
	copy(a[1:14], c.nonce[:])
	binary.BigEndian.PutUint16(a[14:16], counter)
	return a
}

// xorBlock XORs src into dst in place, 16 bytes.
func xorBlock(dst *[16]byte, src [16]byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func (c *CCM) initMAC() {
	b0 := c.formatB0()
	c.ecb.EncryptBlock(&c.mac, &b0)

	if c.headerLen > 0 {
		var lenPrefix [2]byte
		binary.BigEndian.PutUint16(lenPrefix[:], uint16(c.headerLen))
		c.macBlock[0] = lenPrefix[0]
		c.macBlock[1] = lenPrefix[1]
		c.macFill = 2
	}

	a0 := c.formatA(0)
	c.ecb.EncryptBlock(&c.sBlockZero, &a0)
	c.counter = 1
	c.started = true
}

func (c *CCM) absorbMACBlockIfFull() {
	if c.macFill == 16 {
		xorBlock(&c.mac, c.macBlock)
		var next [16]byte
		c.ecb.EncryptBlock(&next, &c.mac)
		c.mac = next
		c.macBlock = [16]byte{}
		c.macFill = 0
	}
}

// ProcessHeader feeds associated-data (the frame's unencrypted header)
// into the running CBC-MAC. Must be called, in order, before
// EncryptPayload/DecryptPayload, with exactly headerLen total bytes
// across all calls.
func (c *CCM) ProcessHeader(data []byte) {
	for _, b := range data {
		c.macBlock[c.macFill] = b
		c.macFill++
		c.absorbMACBlockIfFull()
	}
}

func (c *CCM) flushHeaderPadding() {
	if c.macFill > 0 {
		xorBlock(&c.mac, c.macBlock)
		var next [16]byte
		c.ecb.EncryptBlock(&next, &c.mac)
		c.mac = next
		c.macBlock = [16]byte{}
		c.macFill = 0
	}
}

// EncryptPayload encrypts src into dst (len(src) bytes, may alias) using
// CTR-mode keystream blocks, simultaneously folding the plaintext into the
// CBC-MAC (encryption MACs the plaintext, per §4.3).
func (c *CCM) EncryptPayload(dst, src []byte) {
	c.flushHeaderPadding()
	for len(src) > 0 {
		n := 16
		if n > len(src) {
			n = len(src)
		}
		var block [16]byte
		copy(block[:], src[:n])
		xorBlock(&c.mac, block)
		var next [16]byte
		c.ecb.EncryptBlock(&next, &c.mac)
		c.mac = next

		a := c.formatA(c.counter)
		c.counter++
		var keystream [16]byte
		c.ecb.EncryptBlock(&keystream, &a)
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ keystream[i]
		}
		src = src[n:]
		dst = dst[n:]
	}
}

// DecryptPayload reverses EncryptPayload: it recovers plaintext from
// ciphertext and folds the recovered plaintext into the CBC-MAC, so that
// Finalize produces the same tag an honest sender would have produced.
func (c *CCM) DecryptPayload(dst, src []byte) {
	c.flushHeaderPadding()
	for len(src) > 0 {
		n := 16
		if n > len(src) {
			n = len(src)
		}
		a := c.formatA(c.counter)
		c.counter++
		var keystream [16]byte
		c.ecb.EncryptBlock(&keystream, &a)

		var block [16]byte
		for i := 0; i < n; i++ {
			block[i] = src[i] ^ keystream[i]
			dst[i] = block[i]
		}
		xorBlock(&c.mac, block)
		var next [16]byte
		c.ecb.EncryptBlock(&next, &c.mac)
		c.mac = next

		src = src[n:]
		dst = dst[n:]
	}
}

// Finalize returns the authentication tag (tagLen bytes), masked by the
// CTR keystream's counter-zero block so the tag itself never leaks raw
// CBC-MAC output.
func (c *CCM) Finalize() []byte {
	c.flushHeaderPadding()
	tag := make([]byte, c.tagLen)
	for i := 0; i < c.tagLen; i++ {
		tag[i] = c.mac[i] ^ c.sBlockZero[i]
	}
	return tag
}
