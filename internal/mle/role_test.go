package mle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/mac"
	"github.com/openthread-go/threadcore/internal/runtime"
)

func TestStartSendsParentRequestAndEntersDetached(t *testing.T) {
	sched := runtime.NewScheduler()
	sent := false
	m := New(sched, mac.ExtAddress{1}, Hooks{SendParentRequest: func() { sent = true }})

	m.Start()
	assert.Equal(t, RoleDetached, m.Role())
	assert.True(t, sent)
}

func TestParentWindowPicksBestCandidateByLinkMargin(t *testing.T) {
	sched := runtime.NewScheduler()
	var chosen ParentCandidate
	m := New(sched, mac.ExtAddress{1}, Hooks{SendChildIDRequest: func(c ParentCandidate) { chosen = c }})
	m.Start()

	worse := ParentCandidate{ExtAddr: mac.ExtAddress{2}, LinkMargin: 10, LeaderRouteCost: 1}
	better := ParentCandidate{ExtAddr: mac.ExtAddress{3}, LinkMargin: 20, LeaderRouteCost: 5}
	m.OfferParentResponse(worse)
	m.OfferParentResponse(better)

	m.onParentWindowExpired()
	assert.Equal(t, better.ExtAddr, chosen.ExtAddr)
}

func TestBecomeChildSetsRLOC16(t *testing.T) {
	sched := runtime.NewScheduler()
	m := New(sched, mac.ExtAddress{1}, Hooks{})
	m.Start()
	m.BecomeChild(mac.NewRLOC16(4, 2))
	assert.Equal(t, RoleChild, m.Role())
	assert.Equal(t, mac.NewRLOC16(4, 2), m.RLOC16())
}

func TestRequestRouterPromotionSucceeds(t *testing.T) {
	sched := runtime.NewScheduler()
	advertised := false
	m := New(sched, mac.ExtAddress{1}, Hooks{
		SendAddressSolicit: func() (int, bool) { return 7, true },
		SendAdvertisement:  func() { advertised = true },
	})
	m.Start()
	m.BecomeChild(mac.NewRLOC16(4, 2))

	err := m.RequestRouterPromotion()
	require.Equal(t, 0, int(err))
	assert.Equal(t, RoleRouter, m.Role())
	assert.Equal(t, mac.NewRLOC16(7, 0), m.RLOC16())

	m.onAdvertisementDue()
	assert.True(t, advertised)
}

func TestRequestRouterPromotionFailsWithoutRLOC16(t *testing.T) {
	sched := runtime.NewScheduler()
	m := New(sched, mac.ExtAddress{1}, Hooks{SendAddressSolicit: func() (int, bool) { return 0, false }})
	m.Start()
	m.BecomeChild(mac.NewRLOC16(4, 2))

	err := m.RequestRouterPromotion()
	assert.NotEqual(t, 0, int(err))
	assert.Equal(t, RoleChild, m.Role())
}

func TestBecomeLeaderOnTimeout(t *testing.T) {
	sched := runtime.NewScheduler()
	m := New(sched, mac.ExtAddress{1}, Hooks{SendAddressSolicit: func() (int, bool) { return 7, true }})
	m.Start()
	m.BecomeChild(mac.NewRLOC16(4, 2))
	require.Equal(t, 0, int(m.RequestRouterPromotion()))

	m.onLeaderTimeout()
	assert.Equal(t, RoleLeader, m.Role())
}

func TestDowngradeAfterSustainedLowNeighborCount(t *testing.T) {
	sched := runtime.NewScheduler()
	released := false
	m := New(sched, mac.ExtAddress{1}, Hooks{
		SendAddressSolicit: func() (int, bool) { return 7, true },
		SendAddressRelease: func(routerID int) { released = true },
	})
	m.Start()
	m.BecomeChild(mac.NewRLOC16(4, 2))
	m.RequestRouterPromotion()

	m.NoteRouterNeighborCount(0)
	m.onDowngradeBreachSustained()

	assert.Equal(t, RoleChild, m.Role())
	assert.True(t, released)
}

func TestWinsLeaderTiebreak(t *testing.T) {
	assert.True(t, WinsLeaderTiebreak(10, mac.ExtAddress{1}, 5, mac.ExtAddress{2}))
	assert.False(t, WinsLeaderTiebreak(5, mac.ExtAddress{1}, 10, mac.ExtAddress{2}))
	assert.True(t, WinsLeaderTiebreak(5, mac.ExtAddress{2}, 5, mac.ExtAddress{1}))
}

func TestTrackChildFiresChildUpdateAtHalfTimeout(t *testing.T) {
	sched := runtime.NewScheduler()
	var updated mac.ExtAddress
	m := New(sched, mac.ExtAddress{1}, Hooks{SendChildUpdate: func(ext mac.ExtAddress) { updated = ext }})

	m.TrackChild(mac.ExtAddress{5}, 1000)
	m.onChildUpdateDue(mac.ExtAddress{5})
	assert.Equal(t, mac.ExtAddress{5}, updated)

	m.UntrackChild(mac.ExtAddress{5})
	assert.NotContains(t, m.childUpdateTimers, mac.ExtAddress{5})
}
