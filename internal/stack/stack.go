// Package stack wires every protocol-layer package into the single Stack
// value a running node holds (§9's "a Stack struct tying the layers
// together" re-architecture note). Nothing here implements protocol
// behavior; it only constructs the layers in dependency order and resolves
// the narrow interfaces each layer depends on.
package stack

import (
	"github.com/openthread-go/threadcore/internal/coap"
	"github.com/openthread-go/threadcore/internal/diag"
	"github.com/openthread-go/threadcore/internal/ip6"
	"github.com/openthread-go/threadcore/internal/keymanager"
	"github.com/openthread-go/threadcore/internal/lowpan"
	"github.com/openthread-go/threadcore/internal/mac"
	"github.com/openthread-go/threadcore/internal/mesh"
	"github.com/openthread-go/threadcore/internal/mle"
	"github.com/openthread-go/threadcore/internal/netdata"
	"github.com/openthread-go/threadcore/internal/platform"
	"github.com/openthread-go/threadcore/internal/resolver"
	"github.com/openthread-go/threadcore/internal/runtime"
)

// nextHopResolver composes mle's RouterTable (router-level cost/next-hop)
// and NeighborTable (link-address resolution) into the single interface
// mesh.Forwarder depends on — each table naturally owns half of
// mesh.NextHopResolver, so wiring them together is this package's job
// rather than either mle type's.
type nextHopResolver struct {
	routers   *mle.RouterTable
	neighbors *mle.NeighborTable
}

func (r nextHopResolver) GetNextHop(dest mac.ShortAddress) (mac.ShortAddress, bool) {
	return r.routers.GetNextHop(dest)
}

func (r nextHopResolver) ResolveLinkAddress(rloc16 mac.ShortAddress) (mac.ExtAddress, bool) {
	return r.neighbors.ResolveLinkAddress(rloc16)
}

// localAddressChecker implements mesh.LocalAddressChecker over the node's
// own mesh-local address and subscribed multicast groups.
type localAddressChecker struct {
	meshLocal  ip6.Address
	subscribed map[ip6.Address]bool
}

func (c *localAddressChecker) IsLocalUnicast(addr ip6.Address) bool {
	return addr == c.meshLocal
}

func (c *localAddressChecker) IsSubscribedMulticast(addr ip6.Address) bool {
	return c.subscribed[addr]
}

func (c *localAddressChecker) Subscribe(addr ip6.Address)   { c.subscribed[addr] = true }
func (c *localAddressChecker) Unsubscribe(addr ip6.Address) { delete(c.subscribed, addr) }

// ip6Delivery implements mesh.Deliverer: the ip6 core's input dispatch for
// datagrams the mesh forwarder has decided are for local consumption.
type ip6Delivery struct {
	sockets *ip6.UDPSockets
	mpl     *mesh.MPL
	now     func() uint32
}

func (d *ip6Delivery) DeliverLocal(pkt *lowpan.Packet) {
	if pkt.Header.NextHeader == ip6.NextHeaderHopByHop {
		opt, nextHeader, hdrLen, found, err := ip6.DecodeMPLOption(pkt.Payload)
		if err == nil && found {
			isNew := d.mpl.ProcessInbound(opt)
			pkt.Header.NextHeader = nextHeader
			pkt.Payload = pkt.Payload[hdrLen:]
			if !isNew {
				return
			}
			d.mpl.Reflood(pkt)
		}
	}
	switch pkt.Header.NextHeader {
	case ip6.NextHeaderUDP:
		d.sockets.Dispatch(pkt.Header.Src, pkt.Header.Dst, pkt.Payload)
	}
}

// Stack is every layer of one running Thread node, wired together.
type Stack struct {
	Scheduler *runtime.Scheduler
	KeyMgr    *keymanager.KeyManager
	MAC       *mac.MAC
	Forwarder *mesh.Forwarder
	MPL       *mesh.MPL
	Neighbors *mle.NeighborTable
	Routers   *mle.RouterTable
	Role      *mle.RoleMachine
	Sockets   *ip6.UDPSockets
	Routes    *ip6.RouteTable
	CoAP      *coap.Server
	Local     *netdata.Local
	Leader    *netdata.Leader
	Resolver  *resolver.Cache

	localAddr   *localAddressChecker
	networkName string
}

// Options configures New. MasterKey is the 16-byte Thread network key;
// SelfExt/SelfShort are this node's own addressing; MeshLocalPrefix seeds
// 6LoWPAN compression context 0.
type Options struct {
	MasterKey       [16]byte
	SelfExt         mac.ExtAddress
	SelfShort       mac.ShortAddress
	MeshLocalPrefix ip6.Address
	Radio           platform.Radio
	Random          platform.Random
	Now             func() uint32
}

// New constructs every layer and wires their cross-package interfaces,
// leaving the caller to call Role.Start() once the radio is ready.
func New(opts Options) *Stack {
	sched := runtime.NewScheduler()
	keyMgr := keymanager.New(opts.MasterKey)
	m := mac.New(sched, opts.Radio, opts.Random, keyMgr)
	m.SetIdentity(0xface, opts.SelfExt, opts.SelfShort)

	neighbors := mle.NewNeighborTable(256)
	routers := mle.NewRouterTable(opts.SelfShort.RouterID())
	resolve := nextHopResolver{routers: routers, neighbors: neighbors}

	localAddr := &localAddressChecker{meshLocal: opts.MeshLocalPrefix, subscribed: make(map[ip6.Address]bool)}

	leader := netdata.NewLeader(opts.Now, nil)
	contexts := lowpan.Contexts0{MeshLocalPrefix: opts.MeshLocalPrefix}

	sockets := ip6.NewUDPSockets()

	s := &Stack{
		Scheduler: sched,
		KeyMgr:    keyMgr,
		MAC:       m,
		Neighbors: neighbors,
		Routers:   routers,
		Sockets:   sockets,
		Routes:    ip6.NewRouteTable(),
		Local:     netdata.NewLocal(nil),
		Leader:    leader,
		localAddr: localAddr,
	}

	delivery := &ip6Delivery{sockets: sockets, now: opts.Now}
	s.Forwarder = mesh.New(m, mergedContextTable{contexts, leader}, resolve, neighbors, localAddr, delivery, opts.Now)
	s.Forwarder.SetIdentity(opts.SelfExt, opts.SelfShort)
	s.MPL = mesh.NewMPL(s.Forwarder, opts.MeshLocalPrefix, opts.Now)
	delivery.mpl = s.MPL

	s.Role = mle.New(sched, opts.SelfExt, mle.Hooks{})
	s.CoAP = coap.NewServer()
	s.Resolver = resolver.New(sched, nil)

	return s
}

// networkName is carried separately from Options since it is configuration
// (config.Config.NetworkName), not a wiring dependency of any layer; the
// caller sets it once via SetNetworkName for Snapshot to report.
func (s *Stack) SetNetworkName(name string) { s.networkName = name }

// Snapshot implements diag.Source: the read-only protocol-state view
// cmd/threadmon polls over the diagnostic socket.
func (s *Stack) Snapshot() diag.Snapshot {
	neighbors := make([]diag.NeighborInfo, 0, s.Neighbors.Len())
	for _, n := range s.Neighbors.All() {
		neighbors = append(neighbors, diag.NeighborInfo{
			ExtAddr:     n.ExtAddr.String(),
			RLOC16:      uint16(n.RLOC16),
			LastHeardMs: n.LastHeardMs,
			LinkQuality: n.LinkQuality,
			IsChild:     n.IsChild,
		})
	}

	entries := s.Leader.All()
	prefixes := make([]diag.PrefixInfo, 0, len(entries))
	for _, e := range entries {
		prefixes = append(prefixes, diag.PrefixInfo{
			Prefix: e.Prefix.String(),
			Length: e.PrefixLength,
			Stable: e.Stable,
		})
	}

	return diag.Snapshot{
		NetworkName:              s.networkName,
		Role:                     s.Role.Role().String(),
		RLOC16:                   uint16(s.Role.RLOC16()),
		Channel:                  s.MAC.Channel(),
		Neighbors:                neighbors,
		NetworkData:              prefixes,
		NetworkDataVersion:       s.Leader.Version(),
		NetworkDataStableVersion: s.Leader.StableVersion(),
	}
}

// mergedContextTable combines the mesh-local-only Contexts0 table with the
// Leader's allocated contexts, so 6LoWPAN compression sees context 0
// (mesh-local) plus whatever additional prefixes Network Data has assigned.
// ContextByID sends ID 0 to Contexts0 and every other ID to the Leader;
// ContextForPrefix asks the Leader first and falls back to Contexts0. The
// two tables are population-disjoint (Leader never allocates ID 0), so no
// merge-conflict logic is needed.
type mergedContextTable struct {
	base   lowpan.Contexts0
	leader *netdata.Leader
}

func (m mergedContextTable) ContextByID(id uint8) (lowpan.Context, bool) {
	if id == 0 {
		return m.base.ContextByID(0)
	}
	return m.leader.ContextByID(id)
}

func (m mergedContextTable) ContextForPrefix(addr ip6.Address) (uint8, lowpan.Context, bool) {
	if id, ctx, ok := m.leader.ContextForPrefix(addr); ok {
		return id, ctx, ok
	}
	return m.base.ContextForPrefix(addr)
}
