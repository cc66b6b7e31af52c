package transcoder

import (
	"fmt"
	"strings"
)

// OrderedMap is a string-keyed mapping that remembers insertion order.
// Use it wherever member order matters to the application, such as object
// properties whose valid range depends on a property set earlier.
type OrderedMap struct {
	values map[string]any
	keys   []string
}

// NewOrderedMap returns an empty map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// OrderedMapOf builds a map from alternating keys and values.
// It panics if kv has odd length or a key is not a string.
func OrderedMapOf(kv ...any) *OrderedMap {
	if len(kv)%2 != 0 {
		panic("transcoder: OrderedMapOf needs key/value pairs")
	}
	m := NewOrderedMap()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("transcoder: OrderedMapOf key %d is %T, not string", i/2, kv[i]))
		}
		m.Set(k, kv[i+1])
	}
	return m
}

// Set stores v under key. Existing keys keep their position.
func (m *OrderedMap) Set(key string, v any) *OrderedMap {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key.
func (m *OrderedMap) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			return
		}
	}
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every entry in order until fn returns false.
func (m *OrderedMap) Each(fn func(key string, v any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Map copies the entries into a plain map, dropping the order.
func (m *OrderedMap) Map() map[string]any {
	out := make(map[string]any, m.Len())
	m.Each(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

func (m *OrderedMap) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	m.Each(func(k string, v any) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%q: %v", k, v)
		return true
	})
	b.WriteByte('}')
	return b.String()
}
