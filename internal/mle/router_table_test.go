package mle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/mac"
)

func TestRouterTableDirectNeighborIsOneHop(t *testing.T) {
	rt := NewRouterTable(1)
	rt.SetDirectNeighborCost(2, LinkQualityToCost(3))
	rt.Recompute()

	cost, ok := rt.CostTo(2)
	require.True(t, ok)
	assert.Equal(t, LinkQualityToCost(3), cost)

	next, ok := rt.GetNextHop(mac.NewRLOC16(2, 0))
	require.True(t, ok)
	assert.Equal(t, mac.NewRLOC16(2, 0), next)
}

func TestRouterTableMultiHopViaAdvertisement(t *testing.T) {
	rt := NewRouterTable(1)
	rt.SetDirectNeighborCost(2, LinkQualityToCost(3)) // self -> 2, cost 1
	rt.ApplyAdvertisement(2, []RouteEntry{
		{RouterID: 1, Cost: LinkQualityToCost(3)},
		{RouterID: 3, Cost: LinkQualityToCost(2)}, // 2 -> 3, cost 2
	})
	rt.Recompute()

	cost, ok := rt.CostTo(3)
	require.True(t, ok)
	assert.Equal(t, LinkQualityToCost(3)+LinkQualityToCost(2), cost)

	next, ok := rt.GetNextHop(mac.NewRLOC16(3, 5))
	require.True(t, ok)
	assert.Equal(t, mac.NewRLOC16(2, 0), next)
}

func TestRouterTableDestinationOnOwnRouterIDIsDirect(t *testing.T) {
	rt := NewRouterTable(1)
	next, ok := rt.GetNextHop(mac.NewRLOC16(1, 7))
	require.True(t, ok)
	assert.Equal(t, mac.NewRLOC16(1, 7), next)
}

func TestRouterTableUnreachableRouterHasNoRoute(t *testing.T) {
	rt := NewRouterTable(1)
	rt.Recompute()
	_, ok := rt.GetNextHop(mac.NewRLOC16(9, 0))
	assert.False(t, ok)
}

func TestRouterTableRemoveRouterDropsRoutes(t *testing.T) {
	rt := NewRouterTable(1)
	rt.SetDirectNeighborCost(2, LinkQualityToCost(3))
	rt.Recompute()
	require.True(t, func() bool { _, ok := rt.CostTo(2); return ok }())

	rt.RemoveRouter(2)
	rt.Recompute()
	_, ok := rt.CostTo(2)
	assert.False(t, ok)
}

func TestLinkQualityToCostMapping(t *testing.T) {
	assert.Equal(t, uint8(6), LinkQualityToCost(1))
	assert.Equal(t, uint8(2), LinkQualityToCost(2))
	assert.Equal(t, uint8(1), LinkQualityToCost(3))
}
