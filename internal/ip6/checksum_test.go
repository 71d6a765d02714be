package ip6

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/buffer"
)

func TestPseudoHeaderChecksumMatchesContiguousForm(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}

	want := ChecksumBytes(src, dst, NextHeaderUDP, payload)

	pool := buffer.NewPool(8)
	msg, err := buffer.NewMessage(pool, 0, buffer.TypeIPv6)
	require.Equal(t, 0, int(err))
	require.Equal(t, 0, int(msg.Append(payload)))

	got := PseudoHeaderChecksum(src, dst, NextHeaderUDP, msg, 0, len(payload))
	require.Equal(t, want, got)
}
