package posix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	payload := []byte{0x01, fend, 0x02, fesc, 0x03}
	wire := encodeFrame(payload)

	var dec frameDecoder
	var got []byte
	for _, b := range wire {
		if out, ok := dec.Feed(b); ok {
			got = out
		}
	}
	assert.Equal(t, payload, got)
}

func TestFrameDecoderHandlesBackToBackFrames(t *testing.T) {
	var dec frameDecoder
	wire := append(encodeFrame([]byte{1, 2}), encodeFrame([]byte{3, 4})...)

	var frames [][]byte
	for _, b := range wire {
		if out, ok := dec.Feed(b); ok {
			frames = append(frames, append([]byte{}, out...))
		}
	}
	require.Len(t, frames, 2)
	assert.Equal(t, []byte{1, 2}, frames[0])
	assert.Equal(t, []byte{3, 4}, frames[1])
}
