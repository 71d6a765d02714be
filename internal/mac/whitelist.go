package mac

import "github.com/openthread-go/threadcore/internal/threaderr"

// maxWhitelistEntries bounds the receive-address filter, per §4.4.
const maxWhitelistEntries = 32

type whitelistEntry struct {
	ext        ExtAddress
	used       bool
	rssiOverride int8
	hasOverride  bool
}

// Whitelist is the MAC's receive-address filter: when enabled, frames from
// extended addresses not in the list are dropped. Entries may carry a
// constant RSSI override, used to normalize link-quality metrics in
// testbeds (§4.4).
type Whitelist struct {
	enabled bool
	entries [maxWhitelistEntries]whitelistEntry
}

// SetEnabled toggles filtering. Disabled, every frame passes.
func (w *Whitelist) SetEnabled(enabled bool) { w.enabled = enabled }

// Enabled reports whether filtering is active.
func (w *Whitelist) Enabled() bool { return w.enabled }

// Add inserts ext into the first free slot. The 33rd add (when all 32 slots
// are occupied) returns NoBufs and leaves every existing entry untouched,
// per §8's boundary behavior.
func (w *Whitelist) Add(ext ExtAddress) threaderr.Error {
	for i := range w.entries {
		if w.entries[i].used && w.entries[i].ext == ext {
			return threaderr.None // already present
		}
	}
	for i := range w.entries {
		if !w.entries[i].used {
			w.entries[i] = whitelistEntry{ext: ext, used: true}
			return threaderr.None
		}
	}
	return threaderr.NoBufs
}

// SetRSSIOverride attaches a constant RSSI override to an existing entry.
func (w *Whitelist) SetRSSIOverride(ext ExtAddress, rssi int8) threaderr.Error {
	for i := range w.entries {
		if w.entries[i].used && w.entries[i].ext == ext {
			w.entries[i].rssiOverride = rssi
			w.entries[i].hasOverride = true
			return threaderr.None
		}
	}
	return threaderr.InvalidArgs
}

// Remove deletes an entry, freeing its slot.
func (w *Whitelist) Remove(ext ExtAddress) {
	for i := range w.entries {
		if w.entries[i].used && w.entries[i].ext == ext {
			w.entries[i] = whitelistEntry{}
		}
	}
}

// Allows reports whether a frame from ext should be accepted: always true
// when the filter is disabled.
func (w *Whitelist) Allows(ext ExtAddress) bool {
	if !w.enabled {
		return true
	}
	for i := range w.entries {
		if w.entries[i].used && w.entries[i].ext == ext {
			return true
		}
	}
	return false
}

// NormalizeRSSI applies ext's RSSI override, if any, to a raw reading.
func (w *Whitelist) NormalizeRSSI(ext ExtAddress, raw int8) int8 {
	for i := range w.entries {
		if w.entries[i].used && w.entries[i].ext == ext && w.entries[i].hasOverride {
			return w.entries[i].rssiOverride
		}
	}
	return raw
}
