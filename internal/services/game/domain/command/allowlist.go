package command

import (
	"sort"
	"strings"
)

// ReservedPrefixes are never allowlisted, whatever the configuration says.
var ReservedPrefixes = []string{"SYS_", "CHEAT_", "UI_", "DEV_"}

// IsReserved reports whether t carries a reserved prefix.
func IsReserved(t Type) bool {
	for _, prefix := range ReservedPrefixes {
		if strings.HasPrefix(string(t), prefix) {
			return true
		}
	}
	return false
}

// Allowlist is a normalized set of command types that opt into a System's
// behavior (undo snapshots, action log entries).
type Allowlist struct {
	types map[Type]struct{}
}

// NewAllowlist trims and deduplicates types and drops blank or reserved ones.
func NewAllowlist(types ...Type) Allowlist {
	set := make(map[Type]struct{}, len(types))
	for _, t := range types {
		t = Type(strings.TrimSpace(string(t)))
		if t == "" || IsReserved(t) {
			continue
		}
		set[t] = struct{}{}
	}
	return Allowlist{types: set}
}

// Allows reports whether t is allowlisted. Reserved types never are.
func (a Allowlist) Allows(t Type) bool {
	t = Type(strings.TrimSpace(string(t)))
	if IsReserved(t) {
		return false
	}
	_, ok := a.types[t]
	return ok
}

// Len returns the number of allowlisted types.
func (a Allowlist) Len() int {
	return len(a.types)
}

// Types returns the allowlisted types in sorted order.
func (a Allowlist) Types() []Type {
	out := make([]Type, 0, len(a.types))
	for t := range a.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsAllowlisted is a convenience for checking a raw type list.
func IsAllowlisted(t Type, types []Type) bool {
	return NewAllowlist(types...).Allows(t)
}
