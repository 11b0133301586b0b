package reposql

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is an ordered field map. Keys keep their insertion order, which for
// query results is the column order reported by the driver.
//
// Records serve two purposes: the "ordered field map" result shape of custom
// queries, and the value container of entities described at runtime (for
// example from a YAML file) rather than by a Go struct.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record with room for n fields.
func NewRecord(n int) *Record {
	return &Record{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores v under key. A new key is appended after the existing ones;
// an existing key keeps its position.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil || r.values == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil.
func (r *Record) Value(key string) any {
	v, _ := r.Get(key)
	return v
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Values returns the values in key order.
func (r *Record) Values() []any {
	if r == nil {
		return nil
	}
	vs := make([]any, len(r.keys))
	for i, k := range r.keys {
		vs[i] = r.values[k]
	}
	return vs
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// String returns a compact representation such as {id=1, name=a8m}.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalYAML implements yaml.Marshaler and keeps the key order.
func (r *Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range r.Keys() {
		var kn, vn yaml.Node
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		v := r.values[k]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if err := vn.Encode(v); err != nil {
			return nil, fmt.Errorf("reposql: encode field %q: %w", k, err)
		}
		node.Content = append(node.Content, &kn, &vn)
	}
	return node, nil
}
