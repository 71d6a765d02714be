// Package ip6 implements the host-side IPv6 core: addressing, routing,
// ICMPv6, UDP demultiplexing and MPL (§4.6).
package ip6

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Address is a 128-bit IPv6 address (§3).
type Address [16]byte

// Scope is the multicast/unicast scope an address is derived to have.
type Scope int

const (
	ScopeInterfaceLocal Scope = 0x1
	ScopeLinkLocal      Scope = 0x2
	ScopeRealmLocal     Scope = 0x3
	ScopeAdminLocal     Scope = 0x4
	ScopeSiteLocal      Scope = 0x5
	ScopeOrgLocal       Scope = 0x8
	ScopeGlobal         Scope = 0xE
)

// IsMulticast reports whether the address is ff00::/8.
func (a Address) IsMulticast() bool { return a[0] == 0xff }

// IsLinkLocal reports whether the address is fe80::/10.
func (a Address) IsLinkLocal() bool { return a[0] == 0xfe && (a[1]&0xc0) == 0x80 }

// IsUnspecified reports whether the address is ::.
func (a Address) IsUnspecified() bool { return a == Address{} }

// MulticastScope returns the scope field of a multicast address. Only
// meaningful when IsMulticast is true.
func (a Address) MulticastScope() Scope {
	return Scope(a[1] & 0x0f)
}

// IsAllNodesLinkLocal reports ff02::1.
func (a Address) IsAllNodesLinkLocal() bool {
	return a.IsMulticast() && a.MulticastScope() == ScopeLinkLocal && a[15] == 1 && a.zeroExceptLast()
}

// IsAllRoutersLinkLocal reports ff02::2.
func (a Address) IsAllRoutersLinkLocal() bool {
	return a.IsMulticast() && a.MulticastScope() == ScopeLinkLocal && a[15] == 2 && a.zeroExceptLast()
}

// IsAllNodesRealmLocal reports ff03::1, used for Thread's realm-local
// all-nodes multicast (MPL forwarding domain).
func (a Address) IsAllNodesRealmLocal() bool {
	return a.IsMulticast() && a.MulticastScope() == ScopeRealmLocal && a[15] == 1 && a.zeroExceptLast()
}

func (a Address) zeroExceptLast() bool {
	for i := 2; i < 15; i++ {
		if a[i] != 0 {
			return false
		}
	}
	return true
}

// PrefixMatchLength returns the number of leading bits shared between a and
// b, up to 128, used for longest-prefix-match routing and address
// selection.
func PrefixMatchLength(a, b Address) int {
	n := 0
	for i := 0; i < 16; i++ {
		x := a[i] ^ b[i]
		if x == 0 {
			n += 8
			continue
		}
		for bit := 7; bit >= 0; bit-- {
			if x&(1<<uint(bit)) != 0 {
				return n
			}
			n++
		}
	}
	return n
}

// HasPrefix reports whether a's leading prefixLen bits equal prefix's.
func (a Address) HasPrefix(prefix Address, prefixLen int) bool {
	return PrefixMatchLength(a, prefix) >= prefixLen
}

// String formats the address in standard (non-abbreviated) colon-hex form,
// matching the format the teacher's addressing helpers produce for
// diagnostics: easy to grep, no ambiguity from "::" elision.
func (a Address) String() string {
	parts := make([]string, 8)
	for i := 0; i < 8; i++ {
		parts[i] = hex.EncodeToString(a[2*i : 2*i+2])
	}
	return strings.Join(parts, ":")
}

// ParseAddress parses a colon-hex IPv6 address, either the full 8-group
// form String emits or a form using "::" elision.
func ParseAddress(s string) (Address, error) {
	var a Address
	if strings.Count(s, "::") > 1 {
		return a, errors.New("ip6: multiple '::' in address")
	}

	expandDouble := func(s string) ([]string, error) {
		if !strings.Contains(s, "::") {
			groups := strings.Split(s, ":")
			if len(groups) != 8 {
				return nil, fmt.Errorf("ip6: expected 8 groups, got %d", len(groups))
			}
			return groups, nil
		}
		halves := strings.SplitN(s, "::", 2)
		var left, right []string
		if halves[0] != "" {
			left = strings.Split(halves[0], ":")
		}
		if halves[1] != "" {
			right = strings.Split(halves[1], ":")
		}
		missing := 8 - len(left) - len(right)
		if missing < 0 {
			return nil, errors.New("ip6: too many groups around '::'")
		}
		groups := append([]string{}, left...)
		for i := 0; i < missing; i++ {
			groups = append(groups, "0")
		}
		groups = append(groups, right...)
		return groups, nil
	}

	groups, err := expandDouble(s)
	if err != nil {
		return a, err
	}
	for i, g := range groups {
		if g == "" {
			g = "0"
		}
		v, err := hex.DecodeString(pad4(g))
		if err != nil {
			return a, fmt.Errorf("ip6: bad group %q: %w", g, err)
		}
		copy(a[2*i:2*i+2], v)
	}
	return a, nil
}

func pad4(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
