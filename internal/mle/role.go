package mle

import (
	"github.com/openthread-go/threadcore/internal/mac"
	"github.com/openthread-go/threadcore/internal/runtime"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

// Role is one state of the device-role state machine (§4.9).
type Role int

const (
	RoleDisabled Role = iota
	RoleDetached
	RoleChild
	RoleRouter
	RoleLeader
)

func (r Role) String() string {
	switch r {
	case RoleDisabled:
		return "disabled"
	case RoleDetached:
		return "detached"
	case RoleChild:
		return "child"
	case RoleRouter:
		return "router"
	case RoleLeader:
		return "leader"
	default:
		return "unknown"
	}
}

// Timing constants from §4.9/§9.
const (
	minAdvertisementIntervalMs = 1000
	maxAdvertisementIntervalMs = 32000
	networkIDTimeoutMs         = 120000 // kNetworkIdTimeout
	parentResponseWindowMs     = 2000
	routerDowngradeSustainMs   = 15000 // how long kRouterDowngradeThreshold must be breached before downgrading
)

// RouterDowngradeThreshold is the minimum neighbor-router count a Router
// must sustain before it is downgraded back to Child (§4.9).
const RouterDowngradeThreshold = 2

// ParentCandidate is one Parent Response collected during a parent
// request window.
type ParentCandidate struct {
	ExtAddr        mac.ExtAddress
	RLOC16         mac.ShortAddress
	LinkMargin     uint8
	LeaderRouteCost uint8
}

// betterThan ranks a candidate by link margin first, then leader route cost
// (lower is better) as the tiebreak, per §4.9's "best response by link
// margin + leader route cost".
func (c ParentCandidate) betterThan(other ParentCandidate) bool {
	if c.LinkMargin != other.LinkMargin {
		return c.LinkMargin > other.LinkMargin
	}
	return c.LeaderRouteCost < other.LeaderRouteCost
}

// Hooks are the outbound actions the role machine triggers; RoleMachine
// itself only tracks state and timers; the stack wiring supplies how each
// message actually goes out (as an MLE-secured multicast/unicast via
// mesh.Forwarder) and comes back in.
type Hooks struct {
	SendParentRequest   func()
	SendChildIDRequest  func(candidate ParentCandidate)
	SendAdvertisement   func()
	SendAddressSolicit  func() (routerID int, ok bool)
	SendAddressRelease  func(routerID int)
	SendChildUpdate     func(ext mac.ExtAddress)
}

// RoleMachine drives the §4.9 transitions: Detached -> Child -> Router ->
// Leader, and the reverse downgrades, all timer- and message-triggered
// exactly as in the teacher's event-driven style (state changes happen
// inside handler/timer callbacks, never inline with I/O).
type RoleMachine struct {
	sched *runtime.Scheduler
	hooks Hooks

	role        Role
	rloc16      mac.ShortAddress
	routerID    int
	partitionID uint32
	leaderWeight uint8
	selfExt     mac.ExtAddress

	parentCandidates   []ParentCandidate
	parentWindowTimer  *runtime.Timer

	advTimer         *runtime.Timer
	advIntervalMs    uint32

	leaderTimeoutTimer *runtime.Timer

	downgradeBreachTimer *runtime.Timer

	childUpdateTimers map[mac.ExtAddress]*runtime.Timer
	childTimeoutMs    map[mac.ExtAddress]uint32
}

// New constructs a RoleMachine in the Disabled role.
func New(sched *runtime.Scheduler, selfExt mac.ExtAddress, hooks Hooks) *RoleMachine {
	m := &RoleMachine{
		sched:             sched,
		hooks:             hooks,
		role:              RoleDisabled,
		selfExt:           selfExt,
		childUpdateTimers: make(map[mac.ExtAddress]*runtime.Timer),
		childTimeoutMs:    make(map[mac.ExtAddress]uint32),
	}
	m.parentWindowTimer = sched.NewTimer(m.onParentWindowExpired)
	m.advTimer = sched.NewTimer(m.onAdvertisementDue)
	m.leaderTimeoutTimer = sched.NewTimer(m.onLeaderTimeout)
	m.downgradeBreachTimer = sched.NewTimer(m.onDowngradeBreachSustained)
	return m
}

// Role returns the current role.
func (m *RoleMachine) Role() Role { return m.role }

// RLOC16 returns this node's current RLOC16 (meaningful once Child or
// above).
func (m *RoleMachine) RLOC16() mac.ShortAddress { return m.rloc16 }

// Start transitions Disabled -> Detached and begins attach by sending a
// Parent Request and opening the response-collection window.
func (m *RoleMachine) Start() {
	m.role = RoleDetached
	m.parentCandidates = nil
	if m.hooks.SendParentRequest != nil {
		m.hooks.SendParentRequest()
	}
	m.parentWindowTimer.Start(parentResponseWindowMs)
}

// OfferParentResponse records one Parent Response heard during the
// collection window.
func (m *RoleMachine) OfferParentResponse(c ParentCandidate) {
	if m.role != RoleDetached {
		return
	}
	m.parentCandidates = append(m.parentCandidates, c)
}

func (m *RoleMachine) onParentWindowExpired() {
	if m.role != RoleDetached || len(m.parentCandidates) == 0 {
		return
	}
	best := m.parentCandidates[0]
	for _, c := range m.parentCandidates[1:] {
		if c.betterThan(best) {
			best = c
		}
	}
	if m.hooks.SendChildIDRequest != nil {
		m.hooks.SendChildIDRequest(best)
	}
}

// BecomeChild completes attach once a Child ID Response carries an
// allocated RLOC16.
func (m *RoleMachine) BecomeChild(rloc16 mac.ShortAddress) {
	m.role = RoleChild
	m.rloc16 = rloc16
	m.routerID = rloc16.RouterID()
	m.parentWindowTimer.Stop()
}

// RequestRouterPromotion sends an Address Solicit and, on success,
// transitions Child -> Router, per §4.9.
func (m *RoleMachine) RequestRouterPromotion() threaderr.Error {
	if m.role != RoleChild {
		return threaderr.InvalidState
	}
	if m.hooks.SendAddressSolicit == nil {
		return threaderr.Failed
	}
	routerID, ok := m.hooks.SendAddressSolicit()
	if !ok {
		return threaderr.Failed
	}
	m.becomeRouter(routerID)
	return threaderr.None
}

func (m *RoleMachine) becomeRouter(routerID int) {
	m.role = RoleRouter
	m.routerID = routerID
	m.rloc16 = mac.NewRLOC16(routerID, 0)
	m.advIntervalMs = minAdvertisementIntervalMs
	m.advTimer.Start(m.advIntervalMs)
}

func (m *RoleMachine) onAdvertisementDue() {
	if m.role != RoleRouter && m.role != RoleLeader {
		return
	}
	if m.hooks.SendAdvertisement != nil {
		m.hooks.SendAdvertisement()
	}
	m.advIntervalMs *= 2
	if m.advIntervalMs > maxAdvertisementIntervalMs {
		m.advIntervalMs = maxAdvertisementIntervalMs
	}
	m.advTimer.Start(m.advIntervalMs)
}

// ResetAdvertisementBackoff restarts the advertisement interval at its
// minimum, used after a topology change so neighbors learn the new state
// promptly instead of waiting out the current backed-off interval.
func (m *RoleMachine) ResetAdvertisementBackoff() {
	if m.role != RoleRouter && m.role != RoleLeader {
		return
	}
	m.advIntervalMs = minAdvertisementIntervalMs
	m.advTimer.Start(m.advIntervalMs)
}

// NoteLeaderSeen restarts the kNetworkIdTimeout countdown; if it ever
// fires, this node has gone kNetworkIdTimeout without hearing from any
// Leader and may form its own partition.
func (m *RoleMachine) NoteLeaderSeen() {
	if m.role == RoleRouter {
		m.leaderTimeoutTimer.Start(networkIDTimeoutMs)
	}
}

func (m *RoleMachine) onLeaderTimeout() {
	if m.role != RoleRouter {
		return
	}
	m.BecomeLeader(m.partitionID+1, m.leaderWeight)
}

// BecomeLeader transitions Router -> Leader, either on partition
// formation or after a leader timeout with the winning tie-break, per
// §4.9.
func (m *RoleMachine) BecomeLeader(partitionID uint32, weight uint8) {
	m.role = RoleLeader
	m.partitionID = partitionID
	m.leaderWeight = weight
	m.leaderTimeoutTimer.Stop()
	m.advIntervalMs = minAdvertisementIntervalMs
	m.advTimer.Start(m.advIntervalMs)
}

// WinsLeaderTiebreak reports whether this node's (weight, ext address)
// beats other's under a detected-no-leader condition: higher weight wins,
// ties broken by the numerically greater extended address.
func WinsLeaderTiebreak(selfWeight uint8, selfExt mac.ExtAddress, otherWeight uint8, otherExt mac.ExtAddress) bool {
	if selfWeight != otherWeight {
		return selfWeight > otherWeight
	}
	for i := 0; i < 8; i++ {
		if selfExt[i] != otherExt[i] {
			return selfExt[i] > otherExt[i]
		}
	}
	return false
}

// NoteRouterNeighborCount is called whenever the count of directly
// connected peer routers changes; if it drops below
// RouterDowngradeThreshold and stays there for routerDowngradeSustainMs,
// this Router downgrades back to Child.
func (m *RoleMachine) NoteRouterNeighborCount(count int) {
	if m.role != RoleRouter {
		m.downgradeBreachTimer.Stop()
		return
	}
	if count < RouterDowngradeThreshold {
		if !m.downgradeBreachTimer.IsRunning() {
			m.downgradeBreachTimer.Start(routerDowngradeSustainMs)
		}
	} else {
		m.downgradeBreachTimer.Stop()
	}
}

func (m *RoleMachine) onDowngradeBreachSustained() {
	if m.role != RoleRouter {
		return
	}
	if m.hooks.SendAddressRelease != nil {
		m.hooks.SendAddressRelease(m.routerID)
	}
	m.role = RoleChild
	m.advTimer.Stop()
}

// TrackChild starts a repeating keep-alive timer for a child neighbor,
// firing a Child Update Request at half its poll timeout so the child's
// liveness is checked well before the parent would otherwise expire it
// (supplemented from original_source/'s child keep-alive behavior).
func (m *RoleMachine) TrackChild(ext mac.ExtAddress, timeoutMs uint32) {
	m.childTimeoutMs[ext] = timeoutMs
	t, ok := m.childUpdateTimers[ext]
	if !ok {
		ext := ext
		t = m.sched.NewTimer(func() { m.onChildUpdateDue(ext) })
		m.childUpdateTimers[ext] = t
	}
	t.Start(timeoutMs / 2)
}

// UntrackChild stops and forgets a child's keep-alive timer, e.g. when it
// is removed from the neighbor table.
func (m *RoleMachine) UntrackChild(ext mac.ExtAddress) {
	if t, ok := m.childUpdateTimers[ext]; ok {
		t.Stop()
		delete(m.childUpdateTimers, ext)
	}
	delete(m.childTimeoutMs, ext)
}

func (m *RoleMachine) onChildUpdateDue(ext mac.ExtAddress) {
	if m.hooks.SendChildUpdate != nil {
		m.hooks.SendChildUpdate(ext)
	}
	if t, ok := m.childUpdateTimers[ext]; ok {
		t.Start(m.childTimeoutMs[ext] / 2)
	}
}
