package netdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/ip6"
)

type fakeSender struct {
	last []byte
	n    int
}

func (s *fakeSender) SendServerData(tlvs []byte) {
	s.last = tlvs
	s.n++
}

func TestLocalAddPrefixRegisters(t *testing.T) {
	fs := &fakeSender{}
	l := NewLocal(fs)

	var prefix ip6.Address
	prefix[0] = 0xfd
	l.AddPrefix(PrefixEntry{Prefix: prefix, PrefixLength: 64, OnMesh: true})

	assert.Equal(t, 1, fs.n)
	require.Len(t, l.Entries(), 1)
}

func TestLocalRemovePrefixReregisters(t *testing.T) {
	fs := &fakeSender{}
	l := NewLocal(fs)
	p := PrefixEntry{PrefixLength: 64, OnMesh: true}
	l.AddPrefix(p)
	l.RemovePrefix(p)

	assert.Equal(t, 2, fs.n)
	assert.Empty(t, l.Entries())
}
