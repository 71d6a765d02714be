// Package mle implements Mesh Link Establishment (§4.9): the role state
// machine, the neighbor and router next-hop tables, advertisements, and
// MLE message security.
package mle

import (
	"github.com/openthread-go/threadcore/internal/mac"
)

// Neighbor is one entry of the neighbor table: a device (child, parent, or
// peer router) this node has a direct radio link to. Grounded on the
// teacher's mheard_t: a last-heard timestamp keyed by link identity, kept
// in a flat map rather than a linked list since our table is bounded and
// needs lookup by both ext address and RLOC16.
type Neighbor struct {
	ExtAddr mac.ExtAddress
	RLOC16  mac.ShortAddress

	LastHeardMs uint32
	LinkQuality uint8 // 1 (worst) .. 3 (best), per §4.9 advertisement cost mapping

	IsChild         bool
	Mode            Mode
	PreviousKeyUsed bool // sticky until the neighbor is next seen under the current key
}

// NeighborTable is the bounded set of direct-link neighbors (§5: "Memory...
// fixed-size, bounded pools"). maxNeighbors caps it; once full, Add fails
// rather than evicting an existing neighbor.
type NeighborTable struct {
	maxNeighbors int
	byExt        map[mac.ExtAddress]*Neighbor
}

// NewNeighborTable returns an empty table that holds at most max entries.
func NewNeighborTable(max int) *NeighborTable {
	return &NeighborTable{maxNeighbors: max, byExt: make(map[mac.ExtAddress]*Neighbor)}
}

// Add inserts n, or updates the existing entry for n.ExtAddr. Reports
// false (NoBufs in the caller's terms) if the table is full and n.ExtAddr
// isn't already present.
func (t *NeighborTable) Add(n Neighbor) bool {
	if _, ok := t.byExt[n.ExtAddr]; !ok && len(t.byExt) >= t.maxNeighbors {
		return false
	}
	cp := n
	t.byExt[n.ExtAddr] = &cp
	return true
}

// Remove drops the neighbor, if present.
func (t *NeighborTable) Remove(ext mac.ExtAddress) {
	delete(t.byExt, ext)
}

// ByExt looks up a neighbor by its extended address.
func (t *NeighborTable) ByExt(ext mac.ExtAddress) (*Neighbor, bool) {
	n, ok := t.byExt[ext]
	return n, ok
}

// ByRLOC16 looks up a neighbor by its short address; O(n) since RLOC16 can
// change (router ID reassignment) without the ext address changing, so
// the map is keyed on the stable identity.
func (t *NeighborTable) ByRLOC16(rloc16 mac.ShortAddress) (*Neighbor, bool) {
	for _, n := range t.byExt {
		if n.RLOC16 == rloc16 {
			return n, true
		}
	}
	return nil, false
}

// All returns every neighbor, in no particular order.
func (t *NeighborTable) All() []*Neighbor {
	out := make([]*Neighbor, 0, len(t.byExt))
	for _, n := range t.byExt {
		out = append(out, n)
	}
	return out
}

// Len reports the current neighbor count.
func (t *NeighborTable) Len() int { return len(t.byExt) }

// Touch implements mesh.NeighborTable: it records nowMs as the neighbor's
// last-heard time on every successful send or receive.
func (t *NeighborTable) Touch(ext mac.ExtAddress, nowMs uint32) {
	if n, ok := t.byExt[ext]; ok {
		n.LastHeardMs = nowMs
	}
}

// ResolveLinkAddress implements half of mesh.NextHopResolver: the
// extended address to frame a unicast transmission to a known neighbor
// RLOC16.
func (t *NeighborTable) ResolveLinkAddress(rloc16 mac.ShortAddress) (mac.ExtAddress, bool) {
	n, ok := t.ByRLOC16(rloc16)
	if !ok {
		return mac.ExtAddress{}, false
	}
	return n.ExtAddr, true
}

// MarkAllNeighborsPreviousKeyUsed implements keymanager.NeighborMarker:
// called when the key sequence advances so frames still arriving under
// the previous key are recognized rather than replay-rejected.
func (t *NeighborTable) MarkAllNeighborsPreviousKeyUsed() {
	for _, n := range t.byExt {
		n.PreviousKeyUsed = true
	}
}
