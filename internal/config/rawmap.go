package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawMap is an untyped configuration mapping that remembers the order its
// keys were written in. Nested mappings decode to *RawMap, sequences to
// []any and scalars to their natural YAML types.
type RawMap struct {
	keys   []string
	values map[string]any
}

// NewRawMap builds a map from alternating keys and values.
func NewRawMap(kv ...any) *RawMap {
	m := &RawMap{values: make(map[string]any)}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return m
}

// ParseRawMap decodes a YAML (or JSON) document whose root is a mapping.
func ParseRawMap(data []byte) (*RawMap, error) {
	m := NewRawMap()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *RawMap) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeNode(node)
	if err != nil {
		return err
	}
	if v == nil {
		*m = RawMap{values: make(map[string]any)}
		return nil
	}
	decoded, ok := v.(*RawMap)
	if !ok {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	*m = *decoded
	return nil
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		m := NewRawMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(n.Content[i].Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

// Set stores v under key, appending key if it is new.
func (m *RawMap) Set(key string, v any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *RawMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *RawMap) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in document order.
func (m *RawMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *RawMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy of m.
func (m *RawMap) Clone() *RawMap {
	if m == nil {
		return nil
	}
	out := NewRawMap()
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.values[k]))
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *RawMap:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}

// String returns the scalar under key rendered as a string.
func (m *RawMap) String(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	return Scalar(v)
}

// Map returns the nested mapping under key.
func (m *RawMap) Map(key string) (*RawMap, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	nested, ok := v.(*RawMap)
	return nested, ok
}

// Strings returns the sequence under key as strings. A lone scalar is
// treated as a one element list.
func (m *RawMap) Strings(key string) []string {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := Scalar(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	if s := Scalar(v); s != "" {
		return []string{s}
	}
	return nil
}

// Bool returns the truthiness of the value under key.
func (m *RawMap) Bool(key string) bool {
	v, ok := m.Get(key)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case int:
		return t != 0
	}
	return false
}

// Int returns the integer under key.
func (m *RawMap) Int(key string) (int, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

// Scalar renders a scalar value as a string. Collections render empty.
func Scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t)
	}
	return ""
}
