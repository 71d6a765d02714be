// Package resolver implements the Thread address resolver (§4.11): a
// bounded cache mapping an EID to the RLOC16 believed to own it, backed by
// multicast Address-Query/Address-Notification CoAP exchanges. Grounded on
// mle's neighbor/router tables for its bounded-table, timer-driven-aging
// shape.
package resolver

import (
	"github.com/openthread-go/threadcore/internal/ip6"
	"github.com/openthread-go/threadcore/internal/mac"
	"github.com/openthread-go/threadcore/internal/runtime"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

// State is one cache entry's lifecycle stage, per §4.11.
type State int

const (
	StateInvalid State = iota
	StateDiscover
	StateRetry
	StateValid
)

const (
	maxCacheEntries = 16

	// queryTimeoutMs bounds how long a Discover slot waits for an
	// Address-Notification before moving to Retry.
	queryTimeoutMs = 3000

	// maxFailureCount bounds how many Retry attempts are made before a
	// slot gives up and reverts to Invalid.
	maxFailureCount = 2

	agingTickMs = 1000
)

type cacheEntry struct {
	eid          ip6.Address
	state        State
	rloc16       mac.ShortAddress
	timeoutMs    uint32 // remaining ms in the current Discover/Retry wait
	failureCount int
	pending      []func(mac.ShortAddress)
}

// QuerySender issues a multicast Address-Query CoAP request for eid; the
// stack wiring supplies the actual CoAP client over the mesh-local
// multicast address.
type QuerySender interface {
	SendAddressQuery(eid ip6.Address)
}

// Cache is the address-resolver table: one bounded slot per
// concurrently-resolving-or-resolved EID.
type Cache struct {
	sender  QuerySender
	entries []cacheEntry // bounded, linearly scanned like mac.Whitelist
	timer   *runtime.Timer
}

// New constructs an empty resolver cache and starts its 1-second aging
// timer (§4.11).
func New(sched *runtime.Scheduler, sender QuerySender) *Cache {
	c := &Cache{sender: sender}
	c.timer = sched.NewTimer(c.onAgingTick)
	c.timer.Start(agingTickMs)
	return c
}

func (c *Cache) find(eid ip6.Address) *cacheEntry {
	for i := range c.entries {
		if c.entries[i].eid == eid {
			return &c.entries[i]
		}
	}
	return nil
}

// Resolve looks up eid. If a Valid entry exists, it returns the cached
// RLOC16 immediately. Otherwise it allocates (or reuses) a slot, marks it
// Discover, issues a multicast Address-Query, and returns AddressQuery to
// signal the caller that resolution is pending; onResolved (if non-nil) is
// invoked once the query resolves. If the query's retries run out, the slot
// is reset and its pending callbacks are dropped without being invoked.
func (c *Cache) Resolve(eid ip6.Address, onResolved func(mac.ShortAddress)) (mac.ShortAddress, threaderr.Error) {
	if e := c.find(eid); e != nil {
		switch e.state {
		case StateValid:
			return e.rloc16, threaderr.None
		case StateDiscover, StateRetry:
			if onResolved != nil {
				e.pending = append(e.pending, onResolved)
			}
			return 0, threaderr.AddressQuery
		}
	}

	e := c.allocate(eid)
	if e == nil {
		return 0, threaderr.NoBufs
	}
	if onResolved != nil {
		e.pending = append(e.pending, onResolved)
	}
	c.startQuery(e)
	return 0, threaderr.AddressQuery
}

func (c *Cache) allocate(eid ip6.Address) *cacheEntry {
	for i := range c.entries {
		if c.entries[i].state == StateInvalid {
			c.entries[i] = cacheEntry{eid: eid}
			return &c.entries[i]
		}
	}
	if len(c.entries) < maxCacheEntries {
		c.entries = append(c.entries, cacheEntry{eid: eid})
		return &c.entries[len(c.entries)-1]
	}
	return nil
}

func (c *Cache) startQuery(e *cacheEntry) {
	e.state = StateDiscover
	e.timeoutMs = queryTimeoutMs
	if c.sender != nil {
		c.sender.SendAddressQuery(e.eid)
	}
}

// NotifyAddress handles an inbound Address-Notification: if a Discover (or
// Retry) slot is waiting on eid, it is promoted to Valid and every pending
// caller registered against it is released.
func (c *Cache) NotifyAddress(eid ip6.Address, rloc16 mac.ShortAddress) {
	e := c.find(eid)
	if e == nil || e.state == StateValid {
		return
	}
	e.state = StateValid
	e.rloc16 = rloc16
	e.failureCount = 0
	pending := e.pending
	e.pending = nil
	for _, cb := range pending {
		cb(rloc16)
	}
}

// Remove invalidates every cache entry whose RLOC16 belongs to routerID,
// called when a router leaves the partition (§4.11).
func (c *Cache) Remove(routerID int) {
	for i := range c.entries {
		e := &c.entries[i]
		if e.state == StateValid && e.rloc16.RouterID() == routerID {
			*e = cacheEntry{}
		}
	}
}

// onAgingTick runs every agingTickMs: Discover slots whose timeout has
// expired move to Retry (re-issuing the query) up to maxFailureCount times,
// after which the slot reverts to Invalid and any pending callers are
// dropped (their Resolve call already returned AddressQuery; there is no
// further notification on failure, mirroring the original's fire-and-forget
// retry budget).
func (c *Cache) onAgingTick() {
	for i := range c.entries {
		e := &c.entries[i]
		if e.state != StateDiscover && e.state != StateRetry {
			continue
		}
		if e.timeoutMs > agingTickMs {
			e.timeoutMs -= agingTickMs
			continue
		}
		if e.failureCount >= maxFailureCount {
			*e = cacheEntry{}
			continue
		}
		e.failureCount++
		e.state = StateRetry
		e.timeoutMs = queryTimeoutMs
		if c.sender != nil {
			c.sender.SendAddressQuery(e.eid)
		}
	}
	c.timer.Start(agingTickMs)
}

// State reports the current state of eid's cache slot, for diagnostics.
func (c *Cache) State(eid ip6.Address) State {
	if e := c.find(eid); e != nil {
		return e.state
	}
	return StateInvalid
}
