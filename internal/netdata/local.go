package netdata

import "fmt"

// ServerDataSender posts this node's local Network Data to the Leader via
// the `a/sd` CoAP resource (coap.URIServerData); the stack wiring supplies
// the actual CoAP client.
type ServerDataSender interface {
	SendServerData(tlvs []byte)
}

// Local holds the on-mesh prefixes and external routes this node wants to
// advertise. Any change is pushed to the Leader in full (Thread registers
// the whole local set on each change rather than a diff).
type Local struct {
	sender  ServerDataSender
	entries map[string]PrefixEntry // keyed by prefix-bits string, see entryKey
}

// NewLocal constructs an empty Local network data set.
func NewLocal(sender ServerDataSender) *Local {
	return &Local{sender: sender, entries: make(map[string]PrefixEntry)}
}

func entryKey(p PrefixEntry) string {
	return fmt.Sprintf("%x/%d", p.Prefix[:], p.PrefixLength)
}

// AddPrefix registers or replaces an on-mesh prefix / external route entry
// and immediately re-registers the full local set with the Leader.
func (l *Local) AddPrefix(p PrefixEntry) {
	l.entries[entryKey(p)] = p
	l.register()
}

// RemovePrefix withdraws a previously added entry and re-registers.
func (l *Local) RemovePrefix(p PrefixEntry) {
	delete(l.entries, entryKey(p))
	l.register()
}

// Entries returns the current local entry set.
func (l *Local) Entries() []PrefixEntry {
	out := make([]PrefixEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	return out
}

func (l *Local) register() {
	if l.sender == nil {
		return
	}
	l.sender.SendServerData(EncodeTLVs(l.Entries()))
}
