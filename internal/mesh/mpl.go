package mesh

import (
	"github.com/openthread-go/threadcore/internal/ip6"
	"github.com/openthread-go/threadcore/internal/lowpan"
	"github.com/openthread-go/threadcore/internal/threaderr"
)

// mplBroadcaster is the subset of Forwarder the disseminator needs,
// narrowed to keep MPL's dependency surface small and testable in
// isolation from the full mesh wiring.
type mplBroadcaster interface {
	SendLinkLocalMulticast(pkt *lowpan.Packet, done func(threaderr.Error)) threaderr.Error
}

// MPL implements RFC 7731 trickle-free flooding for Thread's realm-local
// and link-local multicast scopes: every node that hears a new (seed,
// sequence) pair re-sends the datagram exactly once. Grounded on
// ip6.MPLDedupe for the suppression table; this type adds the
// neighbor/MAC-facing retransmission the mesh layer alone can do (see
// forwarder.go's dispatch comment).
type MPL struct {
	dedupe      *ip6.MPLDedupe
	forwarder   mplBroadcaster
	localSeed   ip6.Address
	nextSeq     uint8
	now         func() uint32
}

// NewMPL constructs an MPL disseminator. localSeed is this node's MPL
// Seed ID, conventionally its RLOC16-derived mesh-local address.
func NewMPL(forwarder mplBroadcaster, localSeed ip6.Address, now func() uint32) *MPL {
	return &MPL{
		dedupe:    ip6.NewMPLDedupe(),
		forwarder: forwarder,
		localSeed: localSeed,
		now:       now,
	}
}

// Originate floods a datagram this node is sending for the first time:
// it stamps a fresh sequence number under the local seed, remembers it so
// an echo of our own transmission is not re-flooded, and broadcasts once.
func (m *MPL) Originate(pkt *lowpan.Packet) threaderr.Error {
	seq := m.nextSeq
	m.nextSeq++
	m.dedupe.Remember(m.localSeed, seq, m.now())
	return m.forwarder.SendLinkLocalMulticast(pkt, nil)
}

// ProcessInbound is called with a received multicast datagram's MPL
// option; it returns true when (seed, sequence) is new and the datagram
// should be delivered locally (if subscribed) and re-flooded once, false
// when it is a duplicate that should be silently dropped.
func (m *MPL) ProcessInbound(opt ip6.MPLOption) bool {
	return m.dedupe.CheckAndRemember(opt.Seed, opt.Sequence, m.now())
}

// Reflood re-broadcasts a datagram ProcessInbound has just accepted as
// new, completing one hop of the flood.
func (m *MPL) Reflood(pkt *lowpan.Packet) threaderr.Error {
	return m.forwarder.SendLinkLocalMulticast(pkt, nil)
}
