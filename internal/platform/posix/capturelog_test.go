package posix

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureLogDisabledWithEmptyDir(t *testing.T) {
	c, err := NewCaptureLog("")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, c.Write([]byte{1, 2, 3})) // nil receiver is a no-op
}

func TestCaptureLogWritesToDailyFile(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCaptureLog(dir)
	require.NoError(t, err)
	require.NotNil(t, c)

	require.NoError(t, c.Write([]byte{0xde, 0xad}))
	require.NoError(t, c.Write([]byte{0xbe, 0xef}))
	require.NoError(t, c.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)
}
