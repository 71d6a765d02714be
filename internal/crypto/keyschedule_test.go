package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKeyIsPure(t *testing.T) {
	master := make([]byte, 16)
	a := DeriveKey(master, 5)
	b := DeriveKey(master, 5)
	assert.Equal(t, a, b)
}

func TestDeriveKeyVariesBySequence(t *testing.T) {
	master := make([]byte, 16)
	a := DeriveKey(master, 0)
	b := DeriveKey(master, 1)
	assert.NotEqual(t, a, b)
}

func TestMLEAndMACKeysAreDisjointHalves(t *testing.T) {
	master := make([]byte, 16)
	d := DeriveKey(master, 3)
	mle := MLEKey(d)
	mac := MACKey(d)
	assert.Equal(t, d[:16], mle[:])
	assert.Equal(t, d[16:32], mac[:])
}
