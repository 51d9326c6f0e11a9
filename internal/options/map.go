package options

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Map is an insertion-ordered string mapping of plugin settings.
//
// Docker receives plugin settings as a flat list, so the order in which
// keys were declared is the order in which they are sent. A plain Go map
// would randomize that order on every run.
//
// The zero value is an empty, ready to use Map.
type Map struct {
	entries *orderedmap.OrderedMap[string, string]
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{entries: orderedmap.New[string, string]()}
}

// MapOf builds a Map from alternating key/value arguments. It panics on an
// odd argument count and is meant for literals in code and tests.
func MapOf(kv ...string) *Map {
	if len(kv)%2 != 0 {
		panic("options.MapOf: odd number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set assigns value to key. A key that already exists keeps its position.
func (m *Map) Set(key, value string) {
	if m.entries == nil {
		m.entries = orderedmap.New[string, string]()
	}
	m.entries.Set(key, value)
}

// Get returns the value stored for key and whether it was present.
func (m *Map) Get(key string) (string, bool) {
	if m == nil || m.entries == nil {
		return "", false
	}
	return m.entries.Get(key)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, m.Len())
	if m.entries == nil {
		return out
	}
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Len returns the number of entries. A nil Map has length zero.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return m.entries.Len()
}

// Merge copies every entry of other into m, in other's order.
func (m *Map) Merge(other *Map) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		m.Set(k, v)
	}
}

// Equal reports whether both maps hold the same entries. Order is ignored.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, k := range m.Keys() {
		a, _ := m.Get(k)
		b, ok := other.Get(k)
		if !ok || a != b {
			return false
		}
	}
	return true
}

// ToStringMap returns an unordered copy, mainly for diff rendering.
func (m *Map) ToStringMap() map[string]string {
	out := make(map[string]string, m.Len())
	for _, k := range m.Keys() {
		out[k], _ = m.Get(k)
	}
	return out
}

// MarshalJSON writes the entries as a JSON object in insertion order. An
// empty Map is written as {}.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m.Len() == 0 {
		return []byte("{}"), nil
	}
	return m.entries.MarshalJSON()
}

// UnmarshalYAML decodes a YAML mapping while keeping the document's key
// order. Scalar values are taken verbatim (so `1` becomes "1" and `true`
// becomes "true"); a null value becomes the empty string. Nested mappings,
// sequences and repeated keys are rejected because Docker settings are a
// flat list with one entry per key.
//
// JSON documents decode through this method too, since yaml.v3 accepts
// JSON input.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: plugin options must be a mapping", node.Line)
	}

	seen := make(map[string]int, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if first, dup := seen[keyNode.Value]; dup {
			return fmt.Errorf("line %d: option %q already defined at line %d", keyNode.Line, keyNode.Value, first)
		}
		seen[keyNode.Value] = keyNode.Line

		if valueNode.Kind == yaml.AliasNode {
			valueNode = valueNode.Alias
		}
		if valueNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: option %q must have a scalar value", valueNode.Line, keyNode.Value)
		}
	}

	entries := orderedmap.New[string, string](len(node.Content) / 2)
	if err := entries.UnmarshalYAML(node); err != nil {
		return err
	}
	m.entries = entries
	return nil
}
