package ip6

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoRequestReplyRoundTrip(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}

	req := BuildEchoRequest(src, dst, 0x1234, 7, []byte("hello"))
	msg, err := ParseEcho(src, dst, req)
	require.NoError(t, err)
	assert.False(t, msg.Reply)
	assert.Equal(t, uint16(0x1234), msg.ID)
	assert.Equal(t, uint16(7), msg.Seq)
	assert.Equal(t, []byte("hello"), msg.Data)

	reply := BuildEchoReply(dst, src, msg.ID, msg.Seq, msg.Data)
	replyMsg, err := ParseEcho(dst, src, reply)
	require.NoError(t, err)
	assert.True(t, replyMsg.Reply)
}

func TestEchoRejectsCorruptChecksum(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}
	req := BuildEchoRequest(src, dst, 1, 1, []byte("payload"))
	req[len(req)-1] ^= 0xff

	_, err := ParseEcho(src, dst, req)
	assert.Error(t, err)
}

func TestDestinationUnreachableTruncatesInvokingPacket(t *testing.T) {
	src := Address{0xfe, 0x80, 1}
	dst := Address{0xfe, 0x80, 2}
	invoking := make([]byte, 2000)
	msg := BuildDestinationUnreachable(src, dst, ICMPCodeNoRoute, invoking)
	assert.Equal(t, uint8(ICMPTypeDestinationUnreachable), msg[0])
	assert.Less(t, len(msg), len(invoking))
}
