package ip6

import "github.com/openthread-go/threadcore/internal/mac"

// RouteEntry is one row of the static portion of the routing table: a
// prefix and the RLOC16 of the next hop that advertises it. Thread's
// dynamic on-mesh routes (learned from Network Data) are added and removed
// through the same table by the netdata/mle layers at runtime.
type RouteEntry struct {
	Prefix    Address
	PrefixLen int
	NextHop   mac.ShortAddress
	// Preference mirrors RFC 4191 route preference (-1, 0, +1); higher
	// wins a tie in prefix length.
	Preference int8
}

// RouteTable holds the set of known routes and resolves a destination
// address to the next hop that should receive it (§4.6: "static route
// table plus per-netif RouteLookup").
type RouteTable struct {
	entries []RouteEntry
}

// NewRouteTable returns an empty route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{}
}

// AddRoute inserts or replaces the entry for prefix/prefixLen.
func (t *RouteTable) AddRoute(e RouteEntry) {
	for i, existing := range t.entries {
		if existing.Prefix == e.Prefix && existing.PrefixLen == e.PrefixLen {
			t.entries[i] = e
			return
		}
	}
	t.entries = append(t.entries, e)
}

// RemoveRoutesVia drops every entry whose next hop belongs to routerID,
// used when a router leaves the partition.
func (t *RouteTable) RemoveRoutesVia(routerID int) {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.NextHop.RouterID() != routerID {
			kept = append(kept, e)
		}
	}
	t.entries = kept
}

// RouteLookup returns the next-hop RLOC16 for dst: the entry with the
// longest matching prefix, ties broken by higher Preference. Reports false
// (NoRoute) when nothing matches.
func (t *RouteTable) RouteLookup(dst Address) (mac.ShortAddress, bool) {
	best := -1
	var bestEntry RouteEntry
	for _, e := range t.entries {
		if !dst.HasPrefix(e.Prefix, e.PrefixLen) {
			continue
		}
		if e.PrefixLen > best || (e.PrefixLen == best && e.Preference > bestEntry.Preference) {
			best = e.PrefixLen
			bestEntry = e
		}
	}
	if best < 0 {
		return 0, false
	}
	return bestEntry.NextHop, true
}

// SelectSource picks, from candidates, the address whose prefix best
// matches dst (RFC 6724-lite: longest common prefix wins, first candidate
// breaks ties).
func SelectSource(dst Address, candidates []Address) (Address, bool) {
	if len(candidates) == 0 {
		return Address{}, false
	}
	best := candidates[0]
	bestLen := PrefixMatchLength(dst, best)
	for _, c := range candidates[1:] {
		if l := PrefixMatchLength(dst, c); l > bestLen {
			best, bestLen = c, l
		}
	}
	return best, true
}
