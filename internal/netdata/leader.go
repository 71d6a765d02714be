package netdata

import (
	"github.com/openthread-go/threadcore/internal/ip6"
	"github.com/openthread-go/threadcore/internal/lowpan"
)

// maxContextID is the number of 4-bit context IDs; ID 0 is reserved for the
// mesh-local prefix and is never allocated here.
const maxContextID = 16

// contextIDReuseDelayMs is kContextIdReuseDelay: a freed context ID cannot
// be reallocated until this long after it was freed, so in-flight frames
// compressed against the old meaning are not misdecompressed against a new
// one (§4.10).
const contextIDReuseDelayMs = 48 * 60 * 60 * 1000

type contextSlot struct {
	inUse      bool
	prefix     PrefixEntry
	freedAtMs  uint32
	wasFreed   bool
}

// Leader holds the authoritative, merged Network Data for the partition:
// one registered entry set per router that has sent Server Data, a running
// version/stable_version pair, and the context-ID allocator.
type Leader struct {
	now func() uint32

	byRouter map[int][]PrefixEntry
	contexts [maxContextID]contextSlot

	version       uint8
	stableVersion uint8

	distribute func(tlvs []byte, version, stableVersion uint8)
}

// NewLeader constructs an empty Leader network data store. distribute is
// invoked after every merge that changes the data, to push an MLE Data
// Response to the rest of the partition.
func NewLeader(now func() uint32, distribute func(tlvs []byte, version, stableVersion uint8)) *Leader {
	return &Leader{
		now:        now,
		byRouter:   make(map[int][]PrefixEntry),
		distribute: distribute,
	}
}

// RegisterServerData merges one router's full local entry set (replacing
// whatever it had registered before), allocating a context ID for any new
// prefix that needs one, and bumps version (and stable_version, if any
// stable TLV changed) before redistributing.
func (l *Leader) RegisterServerData(routerID int, entries []PrefixEntry) {
	stableChanged := l.stableTLVsDiffer(routerID, entries)

	for i := range entries {
		if entries[i].HasContext {
			entries[i].ContextID = l.allocateOrKeepContext(entries[i])
		}
	}
	l.byRouter[routerID] = entries

	l.version++
	if stableChanged {
		l.stableVersion++
	}
	l.redistribute()
}

func (l *Leader) stableTLVsDiffer(routerID int, entries []PrefixEntry) bool {
	old := l.byRouter[routerID]
	stableCount := func(es []PrefixEntry) int {
		n := 0
		for _, e := range es {
			if e.Stable {
				n++
			}
		}
		return n
	}
	return stableCount(old) != stableCount(entries)
}

// RemoveRouter withdraws every entry a departed router had registered and
// starts the reuse-delay countdown on any context ID it was using.
func (l *Leader) RemoveRouter(routerID int) {
	entries := l.byRouter[routerID]
	delete(l.byRouter, routerID)
	for _, e := range entries {
		if e.HasContext {
			l.freeContext(e.ContextID)
		}
	}
	l.version++
	l.redistribute()
}

func (l *Leader) allocateOrKeepContext(p PrefixEntry) uint8 {
	for id := uint8(1); id < maxContextID; id++ {
		slot := &l.contexts[id]
		if slot.inUse && slot.prefix.Prefix == p.Prefix && slot.prefix.PrefixLength == p.PrefixLength {
			return id
		}
	}
	nowMs := l.now()
	for id := uint8(1); id < maxContextID; id++ {
		slot := &l.contexts[id]
		if slot.inUse {
			continue
		}
		if slot.wasFreed && int32(nowMs-slot.freedAtMs) < contextIDReuseDelayMs {
			continue
		}
		slot.inUse = true
		slot.prefix = p
		slot.wasFreed = false
		return id
	}
	return 0 // pool exhausted; caller's prefix is advertised without compression context
}

func (l *Leader) freeContext(id uint8) {
	if id == 0 || id >= maxContextID {
		return
	}
	l.contexts[id] = contextSlot{wasFreed: true, freedAtMs: l.now()}
}

// All returns every prefix entry currently registered by any router, the
// merged view an MLE Data Response carries.
func (l *Leader) All() []PrefixEntry {
	var out []PrefixEntry
	for _, entries := range l.byRouter {
		out = append(out, entries...)
	}
	return out
}

// Version and StableVersion report the leader's current data/stable_data
// version counters, carried in the Leader Data TLV.
func (l *Leader) Version() uint8       { return l.version }
func (l *Leader) StableVersion() uint8 { return l.stableVersion }

func (l *Leader) redistribute() {
	if l.distribute == nil {
		return
	}
	l.distribute(EncodeTLVs(l.All()), l.version, l.stableVersion)
}

// ContextByID implements lowpan.ContextTable.
func (l *Leader) ContextByID(id uint8) (lowpan.Context, bool) {
	if id == 0 || id >= maxContextID || !l.contexts[id].inUse {
		return lowpan.Context{}, false
	}
	slot := l.contexts[id]
	return lowpan.Context{Prefix: slot.prefix.Prefix, PrefixLength: slot.prefix.PrefixLength, Compress: slot.prefix.Compress}, true
}

// ContextForPrefix implements lowpan.ContextTable, resolving by longest
// matching prefix among allocated contexts (plus the implicit context 0,
// the mesh-local prefix, which the caller's Contexts0/merged table
// supplies — Leader only allocates contexts 1..15 for additional prefixes).
func (l *Leader) ContextForPrefix(addr ip6.Address) (uint8, lowpan.Context, bool) {
	bestID := uint8(0)
	bestLen := -1
	var best lowpan.Context
	found := false
	for id := uint8(1); id < maxContextID; id++ {
		slot := l.contexts[id]
		if !slot.inUse || !slot.prefix.Compress {
			continue
		}
		if addr.HasPrefix(slot.prefix.Prefix, slot.prefix.PrefixLength) && slot.prefix.PrefixLength > bestLen {
			bestID = id
			bestLen = slot.prefix.PrefixLength
			best = lowpan.Context{Prefix: slot.prefix.Prefix, PrefixLength: slot.prefix.PrefixLength, Compress: true}
			found = true
		}
	}
	return bestID, best, found
}
