// Package lowpan implements RFC 6282 IPHC header compression and
// fragmentation/reassembly of oversized IPv6 datagrams over 802.15.4
// (§4.5). It depends only on ip6 addressing and the shared buffer pool; it
// never depends on mesh or mac, so context compression and fragmentation
// can be tested in isolation from forwarding decisions.
package lowpan

import "github.com/openthread-go/threadcore/internal/ip6"

// Context is one entry of the compression context table Network Data
// maintains (§4.10): a prefix that IPHC may substitute for an address's
// leading bits when SAC/DAC selects stateful compression.
type Context struct {
	Prefix       ip6.Address
	PrefixLength int
	Compress     bool // CompressFlag: usable for compression, not just decompression
}

// ContextTable resolves compression contexts by ID and by longest matching
// prefix. The netdata package implements this over its local/leader context
// entries; lowpan depends only on this narrow interface to avoid an import
// cycle.
type ContextTable interface {
	ContextByID(id uint8) (Context, bool)
	ContextForPrefix(addr ip6.Address) (id uint8, ctx Context, ok bool)
}

// Contexts0 is a static table with only the mandatory context 0 (mesh-local
// prefix), usable by tests and by nodes before Network Data has populated
// any additional context.
type Contexts0 struct {
	MeshLocalPrefix ip6.Address
}

func (c Contexts0) ContextByID(id uint8) (Context, bool) {
	if id != 0 {
		return Context{}, false
	}
	return Context{Prefix: c.MeshLocalPrefix, PrefixLength: 64, Compress: true}, true
}

func (c Contexts0) ContextForPrefix(addr ip6.Address) (uint8, Context, bool) {
	ctx, _ := c.ContextByID(0)
	if addr.HasPrefix(ctx.Prefix, ctx.PrefixLength) {
		return 0, ctx, true
	}
	return 0, Context{}, false
}
