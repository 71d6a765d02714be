package ip6

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMPLOptionRoundTrip(t *testing.T) {
	var seed Address
	seed[14], seed[15] = 0xab, 0xcd

	opt := MPLOption{Sequence: 42, Seed: seed, SeedLenCode: mplSeedLen2}
	hbh := EncodeMPLOption(opt, NextHeaderUDP)

	assert.Equal(t, 0, len(hbh)%8)

	got, nextHeader, hdrLen, found, err := DecodeMPLOption(hbh)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, NextHeaderUDP, nextHeader)
	assert.Equal(t, len(hbh), hdrLen)
	assert.Equal(t, opt.Sequence, got.Sequence)
	assert.Equal(t, opt.Seed, got.Seed)
	assert.Equal(t, opt.SeedLenCode, got.SeedLenCode)
}

func TestDecodeMPLOptionRejectsTruncated(t *testing.T) {
	_, _, _, _, err := DecodeMPLOption([]byte{NextHeaderUDP})
	assert.Error(t, err)
}

func TestDecodeMPLOptionNotPresent(t *testing.T) {
	hbh := []byte{NextHeaderUDP, 0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	_, _, _, found, err := DecodeMPLOption(hbh)
	require.NoError(t, err)
	assert.False(t, found)
}
