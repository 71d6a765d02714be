package lowpan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/ip6"
)

func TestFragmentReassemblyRoundTrip(t *testing.T) {
	datagram := make([]byte, 20)
	for i := range datagram {
		datagram[i] = byte(i)
	}

	first := EncodeFirstFragment(uint16(len(datagram)), 0xBEEF, datagram[:8])
	second := EncodeSubsequentFragment(uint16(len(datagram)), 0xBEEF, 1, datagram[8:16])
	third := EncodeSubsequentFragment(uint16(len(datagram)), 0xBEEF, 2, datagram[16:])

	r := NewReassembler()
	var src, dst ip6.Address
	src[0] = 1
	dst[0] = 2

	got, err := r.Add(src, dst, second, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, r.Pending())

	got, err = r.Add(src, dst, first, 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.Add(src, dst, third, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, datagram, got)
	assert.Equal(t, 0, r.Pending())
}

func TestReassemblyPurgeAfterTimeout(t *testing.T) {
	r := NewReassembler()
	var src, dst ip6.Address

	first := EncodeFirstFragment(20, 1, make([]byte, 8))
	_, err := r.Add(src, dst, first, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Pending())

	dropped := r.Purge(1000 + ReassemblyTimeoutMs - 1)
	assert.Equal(t, 0, dropped)

	dropped = r.Purge(1000 + ReassemblyTimeoutMs)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, r.Pending())
}

func TestIsFragmentDistinguishesFromIPHC(t *testing.T) {
	assert.True(t, IsFragment(EncodeFirstFragment(10, 1, nil)))
	assert.False(t, IsFragment([]byte{dispatchIPHC, 0x00}))
}
