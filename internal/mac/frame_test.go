package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	f := &Frame{
		Type:       FrameTypeData,
		AckRequest: true,
		Sequence:   42,
		DstPANID:   0x1234,
		DstAddr:    Address{Mode: AddrModeShort, Short: 0x0401},
		SrcPANID:   0x1234,
		SrcAddr:    Address{Mode: AddrModeExt, Ext: ExtAddress{1, 2, 3, 4, 5, 6, 7, 8}},
		Payload:    []byte("hello"),
	}
	f.PANIDCompress = true

	raw := f.Encode()
	got, err := DecodeFrame(raw)
	require.NoError(t, err)

	assert.Equal(t, f.Type, got.Type)
	assert.Equal(t, f.Sequence, got.Sequence)
	assert.True(t, got.AckRequest)
	assert.Equal(t, f.DstAddr, got.DstAddr)
	assert.Equal(t, f.SrcAddr, got.SrcAddr)
	assert.Equal(t, f.Payload, got.Payload)
}

func TestDecodeFrameTooShortIsParseError(t *testing.T) {
	_, err := DecodeFrame([]byte{0x01})
	assert.Error(t, err)
}

func TestRLOC16PackingAndUnpacking(t *testing.T) {
	r := NewRLOC16(5, 3)
	assert.Equal(t, 5, r.RouterID())
	assert.Equal(t, 3, r.ChildID())
	assert.False(t, r.IsRouterRLOC())

	router := NewRLOC16(5, 0)
	assert.True(t, router.IsRouterRLOC())
	assert.True(t, router.HasSameRouter(r))
}
