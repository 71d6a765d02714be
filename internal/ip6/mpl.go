package ip6

// MPL (RFC 7731) floods a multicast datagram across the Thread mesh by
// having every node that hears a new (seed, sequence) pair resend it once
// and suppress anything it has already resent. This file holds the pure
// suppression engine; actual retransmission belongs to the mesh layer,
// which has the neighbor/MAC knowledge needed to flood (see mesh.MPL).
//
// Grounded on the teacher's dedupe.go: a fixed-size ring of recent
// (key, deadline) entries, overwritten oldest-first, checked linearly.

const mplHistorySize = 32

// MPLLifetimeMs is how long a seed/sequence pair is remembered before it
// may be treated as new again, per §4.6 ("entries live 5 seconds").
const MPLLifetimeMs = 5000

type mplEntry struct {
	seed       Address
	sequence   uint8
	used       bool
	expiresMs  uint32
}

// MPLDedupe suppresses repeat forwarding of multicast datagrams already
// seen under the same (seed, sequence) within the last MPLLifetimeMs.
type MPLDedupe struct {
	history   [mplHistorySize]mplEntry
	insertNext int
}

// NewMPLDedupe returns an empty suppression table.
func NewMPLDedupe() *MPLDedupe {
	return &MPLDedupe{}
}

// Seen reports whether (seed, sequence) was already recorded and not yet
// expired as of nowMs.
func (d *MPLDedupe) Seen(seed Address, sequence uint8, nowMs uint32) bool {
	for _, e := range d.history {
		if !e.used || e.seed != seed || e.sequence != sequence {
			continue
		}
		if int32(nowMs-e.expiresMs) >= 0 {
			continue
		}
		return true
	}
	return false
}

// Remember records (seed, sequence) as seen, overwriting the oldest slot
// once the ring is full.
func (d *MPLDedupe) Remember(seed Address, sequence uint8, nowMs uint32) {
	d.history[d.insertNext] = mplEntry{
		seed:      seed,
		sequence:  sequence,
		used:      true,
		expiresMs: nowMs + MPLLifetimeMs,
	}
	d.insertNext++
	if d.insertNext >= mplHistorySize {
		d.insertNext = 0
	}
}

// CheckAndRemember is Seen followed by an unconditional Remember: the
// caller's single call site for "is this new, and if so mark it seen".
// Returns true when the pair is new (the caller should forward it).
func (d *MPLDedupe) CheckAndRemember(seed Address, sequence uint8, nowMs uint32) bool {
	isNew := !d.Seen(seed, sequence, nowMs)
	d.Remember(seed, sequence, nowMs)
	return isNew
}
