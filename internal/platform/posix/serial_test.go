package posix

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// A pseudo-terminal stands in for the real radio co-processor device here,
// the same trick the teacher's kiss.go uses pty.Open for (there, to hand a
// KISS TNC to another process without a real serial port; here, to drive
// Serial's read loop without real hardware attached).
func TestSerialEnableDeliversBytesWrittenByPeer(t *testing.T) {
	ptm, pts, err := pty.Open()
	require.NoError(t, err)
	defer ptm.Close()

	s := NewSerial(pts.Name(), 115200)
	received := make(chan []byte, 1)
	s.SetReceiveCallback(func(b []byte) { received <- b })

	require.NoError(t, s.Enable())
	defer s.Disable()
	pts.Close()

	_, err = ptm.Write([]byte{0xC0, 0x01, 0x02, 0xC0})
	require.NoError(t, err)

	select {
	case b := <-received:
		require.Equal(t, []byte{0xC0, 0x01, 0x02, 0xC0}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bytes from peer")
	}
}

func TestSerialSendWritesToPeer(t *testing.T) {
	ptm, pts, err := pty.Open()
	require.NoError(t, err)
	defer ptm.Close()

	s := NewSerial(pts.Name(), 115200)
	require.NoError(t, s.Enable())
	defer s.Disable()
	pts.Close()

	done := make(chan struct{}, 1)
	s.SetSendDoneCallback(func() { done <- struct{}{} })

	require.NoError(t, s.Send([]byte{0xAA, 0xBB}))

	buf := make([]byte, 2)
	ptm.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := ptm.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, buf[:n])

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send-done callback never fired")
	}
}
