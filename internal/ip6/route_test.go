package ip6

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openthread-go/threadcore/internal/mac"
)

func TestRouteLookupLongestPrefixWins(t *testing.T) {
	rt := NewRouteTable()
	meshLocal := Address{0xfd, 0x00, 0xde, 0xad}
	onMesh := Address{0xfd, 0x00, 0xde, 0xad, 0xbe, 0xef}

	rt.AddRoute(RouteEntry{Prefix: meshLocal, PrefixLen: 64, NextHop: mac.NewRLOC16(1, 0)})
	rt.AddRoute(RouteEntry{Prefix: onMesh, PrefixLen: 80, NextHop: mac.NewRLOC16(2, 0)})

	dst := onMesh
	dst[15] = 1
	next, ok := rt.RouteLookup(dst)
	assert.True(t, ok)
	assert.Equal(t, mac.NewRLOC16(2, 0), next)
}

func TestRouteLookupNoMatch(t *testing.T) {
	rt := NewRouteTable()
	_, ok := rt.RouteLookup(Address{0xff, 0x02})
	assert.False(t, ok)
}

func TestRemoveRoutesViaDropsMatchingRouter(t *testing.T) {
	rt := NewRouteTable()
	prefix := Address{0xfd, 0x00}
	rt.AddRoute(RouteEntry{Prefix: prefix, PrefixLen: 16, NextHop: mac.NewRLOC16(5, 0)})

	rt.RemoveRoutesVia(5)
	_, ok := rt.RouteLookup(Address{0xfd, 0x00, 1})
	assert.False(t, ok)
}

func TestSelectSourcePrefersLongestMatch(t *testing.T) {
	dst := Address{0xfd, 0x00, 0xde, 0xad, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}
	meshLocal := Address{0xfd, 0x00, 0xde, 0xad, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}
	linkLocal := Address{0xfe, 0x80}

	got, ok := SelectSource(dst, []Address{linkLocal, meshLocal})
	assert.True(t, ok)
	assert.Equal(t, meshLocal, got)
}
