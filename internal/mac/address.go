// Package mac implements IEEE 802.15.4-2006 frame construction and
// parsing, CSMA-CA transmission, ACK/retry, channel scan and the
// extended-address whitelist filter (§4.4).
package mac

import "fmt"

// ExtAddress is an 8-byte IEEE extended address.
type ExtAddress [8]byte

func (a ExtAddress) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x%02x%02x",
		a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7])
}

// ShortAddress is the 2-byte short address. On a Thread network it doubles
// as the RLOC16: (router_id << 10) | child_id (§3).
type ShortAddress uint16

const (
	// RLOC16 layout.
	childIDBits   = 10
	childIDMask   = (1 << childIDBits) - 1
	maxChildID    = 511
	maxRouterID   = 62
	invalidRLOC16 = ShortAddress(0xfffe)

	// BroadcastShortAddress is the 802.15.4 short-address broadcast value,
	// heard by every neighbor on the channel in one transmission.
	BroadcastShortAddress = ShortAddress(0xffff)
)

// NewRLOC16 packs a router ID and child ID into a short address, per §3.
func NewRLOC16(routerID int, childID int) ShortAddress {
	return ShortAddress((routerID << childIDBits) | (childID & childIDMask))
}

// RouterID extracts the router ID component of an RLOC16.
func (s ShortAddress) RouterID() int { return int(s) >> childIDBits }

// ChildID extracts the child ID component of an RLOC16.
func (s ShortAddress) ChildID() int { return int(s) & childIDMask }

// IsRouterRLOC reports whether this RLOC16 identifies a router itself
// (child ID zero) rather than one of its children.
func (s ShortAddress) IsRouterRLOC() bool { return s.ChildID() == 0 }

// HasSameRouter reports whether s and other share the same router ID,
// i.e. other is a child of the router s addresses or vice versa.
func (s ShortAddress) HasSameRouter(other ShortAddress) bool {
	return s.RouterID() == other.RouterID()
}
