package mle

import "github.com/openthread-go/threadcore/internal/mac"

// RouterTable computes next-hop routes to every known router ID from the
// Route TLV cost matrices carried in received Advertisements, per §4.9:
// "Routers recompute next-hop tables from received advertisements using
// shortest-cost path". It implements half of mesh.NextHopResolver; the
// other half (ResolveLinkAddress) is the neighbor table's job, since only
// neighbors (not arbitrary routers) have a known link-layer address.
type RouterTable struct {
	selfRouterID int

	// adjacency[a][b] is the direct link cost router a advertises to
	// router b. adjacency[selfRouterID] is populated locally from this
	// node's own neighbor link qualities; every other row comes from a
	// received Advertisement's Route TLV.
	adjacency map[int]map[int]uint8

	nextHop map[int]int // routerID -> next-hop routerID, recomputed by Recompute
	cost    map[int]uint8
}

const infiniteCost = 0xff

// NewRouterTable returns a table rooted at selfRouterID with no known
// links yet.
func NewRouterTable(selfRouterID int) *RouterTable {
	return &RouterTable{
		selfRouterID: selfRouterID,
		adjacency:    map[int]map[int]uint8{selfRouterID: {}},
		nextHop:      map[int]int{},
		cost:         map[int]uint8{},
	}
}

// SetDirectNeighborCost records the cost to a directly-connected peer
// router (LinkQualityToCost of that neighbor's link quality), replacing
// whatever was there. Call Recompute afterward.
func (r *RouterTable) SetDirectNeighborCost(routerID int, cost uint8) {
	r.adjacency[r.selfRouterID][routerID] = cost
	if _, ok := r.adjacency[routerID]; !ok {
		r.adjacency[routerID] = map[int]uint8{}
	}
}

// RemoveRouter drops every adjacency entry naming routerID, used when a
// router leaves the partition.
func (r *RouterTable) RemoveRouter(routerID int) {
	delete(r.adjacency, routerID)
	for _, row := range r.adjacency {
		delete(row, routerID)
	}
	delete(r.nextHop, routerID)
	delete(r.cost, routerID)
}

// ApplyAdvertisement records fromRouterID's advertised cost matrix (its
// Route TLV, decoded) as that router's adjacency row. Call Recompute
// afterward.
func (r *RouterTable) ApplyAdvertisement(fromRouterID int, entries []RouteEntry) {
	row := make(map[int]uint8, len(entries))
	for _, e := range entries {
		if e.Cost != infiniteCost {
			row[e.RouterID] = e.Cost
		}
	}
	r.adjacency[fromRouterID] = row
}

// Recompute rebuilds the next-hop table with a Bellman-Ford relaxation
// over the current adjacency (simpler to keep correct under frequent
// small updates than a full Dijkstra re-run, and the router count is
// small enough that the extra passes cost nothing observable).
func (r *RouterTable) Recompute() {
	dist := map[int]uint8{r.selfRouterID: 0}
	next := map[int]int{}

	changed := true
	for pass := 0; changed && pass < len(r.adjacency)+1; pass++ {
		changed = false
		for from, row := range r.adjacency {
			fromDist, ok := dist[from]
			if !ok {
				continue
			}
			for to, cost := range row {
				nd := addCost(fromDist, cost)
				if cur, ok := dist[to]; !ok || nd < cur {
					dist[to] = nd
					if from == r.selfRouterID {
						next[to] = to
					} else if n, ok := next[from]; ok {
						next[to] = n
					}
					changed = true
				}
			}
		}
	}

	delete(dist, r.selfRouterID)
	r.cost = dist
	r.nextHop = next
}

func addCost(a, b uint8) uint8 {
	sum := int(a) + int(b)
	if sum > infiniteCost {
		return infiniteCost
	}
	return uint8(sum)
}

// CostTo returns the computed route cost to routerID, if reachable.
func (r *RouterTable) CostTo(routerID int) (uint8, bool) {
	c, ok := r.cost[routerID]
	return c, ok
}

// RouteEntries returns the full cost matrix row for this node, suitable
// for EncodeRoute in this node's own Advertisement.
func (r *RouterTable) RouteEntries() []RouteEntry {
	out := make([]RouteEntry, 0, len(r.cost)+1)
	out = append(out, RouteEntry{RouterID: r.selfRouterID, Cost: 0})
	for id, c := range r.cost {
		out = append(out, RouteEntry{RouterID: id, Cost: c})
	}
	return out
}

// GetNextHop implements mesh.NextHopResolver. A destination on this
// node's own router ID is a direct child, reachable without routing; any
// other router ID is resolved through the computed next-hop table.
func (r *RouterTable) GetNextHop(dest mac.ShortAddress) (mac.ShortAddress, bool) {
	destRouter := dest.RouterID()
	if destRouter == r.selfRouterID {
		return dest, true
	}
	next, ok := r.nextHop[destRouter]
	if !ok {
		return 0, false
	}
	return mac.NewRLOC16(next, 0), true
}
