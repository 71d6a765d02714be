package netdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/ip6"
)

func TestPrefixTLVRoundTrip(t *testing.T) {
	var prefix ip6.Address
	prefix[0], prefix[1] = 0xfd, 0x00

	entries := []PrefixEntry{{
		Prefix: prefix, PrefixLength: 64, Stable: true,
		HasContext: true, ContextID: 3, Compress: true,
		OnMesh: true, DefaultRoute: true, Preference: 1,
	}}
	raw := EncodeTLVs(entries)
	got, err := DecodeTLVs(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entries[0].Prefix, got[0].Prefix)
	assert.Equal(t, entries[0].PrefixLength, got[0].PrefixLength)
	assert.Equal(t, uint8(3), got[0].ContextID)
	assert.True(t, got[0].Compress)
	assert.True(t, got[0].OnMesh)
	assert.True(t, got[0].DefaultRoute)
}

func TestDecodeTLVsRejectsTruncated(t *testing.T) {
	_, err := DecodeTLVs([]byte{TLVPrefix, 10, 0, 64})
	assert.Error(t, err)
}

func TestDecodeTLVsSkipsUnknownType(t *testing.T) {
	raw := []byte{0xff, 2, 0xaa, 0xbb}
	got, err := DecodeTLVs(raw)
	require.NoError(t, err)
	assert.Empty(t, got)
}
