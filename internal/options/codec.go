package options

import (
	"fmt"
	"strings"
)

// MalformedOptionError is returned by Decode when an entry has no "="
// separator. Docker never stores such entries itself, so seeing one means
// the live settings data is corrupt; it is never silently dropped.
type MalformedOptionError struct {
	// Entry is the offending raw string.
	Entry string

	// Index is the position of Entry within the decoded list.
	Index int
}

// Error satisfies the error interface.
func (e *MalformedOptionError) Error() string {
	return fmt.Sprintf("malformed plugin option %q at position %d: expected KEY=VALUE", e.Entry, e.Index)
}

// Encode converts a Map into Docker's flat "KEY=VALUE" list, in insertion
// order. A nil or empty Map yields an empty (non-nil) slice so that it can
// be sent to the Engine API as-is.
func Encode(m *Map) []string {
	out := make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out = append(out, k+"="+v)
	}
	return out
}

// Decode parses a "KEY=VALUE" list into a Map. Each entry is split once,
// on the first "=", so values may themselves contain "=".
//
// An empty or nil list yields an empty Map. A later duplicate key
// overwrites the earlier value but keeps the earlier position.
func Decode(entries []string) (*Map, error) {
	m := NewMap()
	for i, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			return nil, &MalformedOptionError{Entry: entry, Index: i}
		}
		m.Set(key, value)
	}
	return m, nil
}
