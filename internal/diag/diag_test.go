package diag

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct{ snap Snapshot }

func (f fakeSource) Snapshot() Snapshot { return f.snap }

func TestFetchRoundTripsSnapshot(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "diag.sock")
	want := Snapshot{
		NetworkName: "TestNet",
		Role:        "router",
		RLOC16:      0x0400,
		Channel:     15,
		Neighbors:   []NeighborInfo{{ExtAddr: "0011223344556677", RLOC16: 0x1000, LinkQuality: 3}},
	}

	srv, err := Listen(sockPath, fakeSource{snap: want})
	require.NoError(t, err)
	defer srv.Close()
	go srv.Serve()

	var got Snapshot
	require.Eventually(t, func() bool {
		var err error
		got, err = Fetch(sockPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, want, got)
}

func TestListenReplacesStaleSocketFile(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "diag.sock")

	srv1, err := Listen(sockPath, fakeSource{})
	require.NoError(t, err)
	go srv1.Serve()
	srv1.Close()

	srv2, err := Listen(sockPath, fakeSource{snap: Snapshot{NetworkName: "Second"}})
	require.NoError(t, err)
	defer srv2.Close()
	go srv2.Serve()

	var got Snapshot
	require.Eventually(t, func() bool {
		var err error
		got, err = Fetch(sockPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Second", got.NetworkName)
}
