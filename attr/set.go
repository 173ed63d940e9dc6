package attr

import (
	"fmt"
	"slices"
	"strings"

	"github.com/twmb/murmur3"
)

// KeyValue is a single attribute.
type KeyValue struct {
	Key   string
	Value Value
}

func (kv KeyValue) Equal(o KeyValue) bool {
	return kv.Key == o.Key && kv.Value.Equal(o.Value)
}

func (kv KeyValue) appendEncoding(b []byte) []byte {
	b = StringValue(kv.Key).appendEncoding(b)
	return kv.Value.appendEncoding(b)
}

func String(k, v string) KeyValue            { return KeyValue{k, StringValue(v)} }
func Bool(k string, v bool) KeyValue         { return KeyValue{k, BoolValue(v)} }
func Int(k string, v int) KeyValue           { return KeyValue{k, IntValue(v)} }
func Int64(k string, v int64) KeyValue       { return KeyValue{k, Int64Value(v)} }
func Uint64(k string, v uint64) KeyValue     { return KeyValue{k, Uint64Value(v)} }
func Float64(k string, v float64) KeyValue   { return KeyValue{k, Float64Value(v)} }
func Bytes(k string, v []byte) KeyValue      { return KeyValue{k, BytesValue(v)} }
func Array(k string, vs ...Value) KeyValue   { return KeyValue{k, ArrayValue(vs...)} }
func Map(k string, kvs ...KeyValue) KeyValue { return KeyValue{k, MapValue(kvs...)} }
func Any(k string, v any) KeyValue           { return KeyValue{k, ValueOf(v)} }

// FromMap converts a Go map of dynamic values, sorted by key.
func FromMap(m map[string]any) []KeyValue {
	kvs := make([]KeyValue, 0, len(m))
	for k, v := range m {
		kvs = append(kvs, Any(k, v))
	}
	slices.SortFunc(kvs, func(a, b KeyValue) int { return strings.Compare(a.Key, b.Key) })
	return kvs
}

// normalize sorts kvs by key and keeps the last occurrence of each key. The
// input is not modified.
func normalize(kvs []KeyValue) []KeyValue {
	if len(kvs) == 0 {
		return nil
	}
	out := slices.Clone(kvs)
	slices.SortStableFunc(out, func(a, b KeyValue) int { return strings.Compare(a.Key, b.Key) })
	w := 0
	for i := range out {
		if w > 0 && out[w-1].Key == out[i].Key {
			out[w-1] = out[i]
			continue
		}
		out[w] = out[i]
		w++
	}
	return out[:w]
}

// Set is an immutable, key-sorted collection of attributes with a hash that
// does not depend on insertion order. Two sets built from the same pairs in
// any order are Equal and share a Hash.
type Set struct {
	kvs  []KeyValue
	hash uint64
}

// NewSet builds a set. Duplicate keys keep the last value given.
func NewSet(kvs ...KeyValue) Set {
	s := Set{kvs: normalize(kvs)}
	var buf []byte
	for _, kv := range s.kvs {
		buf = kv.appendEncoding(buf[:0])
		s.hash ^= murmur3.Sum64(buf)
	}
	return s
}

// Len returns the number of attributes.
func (s Set) Len() int { return len(s.kvs) }

// Hash returns the order-invariant hash of the set.
func (s Set) Hash() uint64 { return s.hash }

// KeyValues returns a copy of the attributes, sorted by key.
func (s Set) KeyValues() []KeyValue { return slices.Clone(s.kvs) }

// Value looks up a key.
func (s Set) Value(key string) (Value, bool) {
	i, ok := slices.BinarySearchFunc(s.kvs, key, func(kv KeyValue, k string) int {
		return strings.Compare(kv.Key, k)
	})
	if !ok {
		return Value{}, false
	}
	return s.kvs[i].Value, true
}

// Equal reports whether both sets hold the same pairs.
func (s Set) Equal(o Set) bool {
	return s.hash == o.hash && slices.EqualFunc(s.kvs, o.kvs, KeyValue.Equal)
}

// Scalar reports whether every value is a scalar, which aggregation keys
// require.
func (s Set) Scalar() bool {
	for _, kv := range s.kvs {
		if !kv.Value.IsScalar() {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	parts := make([]string, len(s.kvs))
	for i, kv := range s.kvs {
		parts[i] = kv.Key + "=" + kv.Value.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// SetMap groups values by attribute set. Lookups hash once and compare only
// within a bucket. The zero SetMap is not usable; use NewSetMap.
type SetMap[V any] struct {
	buckets map[uint64][]entry[V]
	n       int
}

type entry[V any] struct {
	set Set
	val V
}

func NewSetMap[V any]() *SetMap[V] {
	return &SetMap[V]{buckets: make(map[uint64][]entry[V])}
}

// Get returns the value stored for s.
func (m *SetMap[V]) Get(s Set) (V, bool) {
	for _, e := range m.buckets[s.hash] {
		if e.set.Equal(s) {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// Put stores v for s, replacing any previous value.
func (m *SetMap[V]) Put(s Set, v V) {
	b := m.buckets[s.hash]
	for i := range b {
		if b[i].set.Equal(s) {
			b[i].val = v
			return
		}
	}
	m.buckets[s.hash] = append(b, entry[V]{set: s, val: v})
	m.n++
}

// Len returns the number of distinct sets.
func (m *SetMap[V]) Len() int { return m.n }

// Range calls fn for every entry until fn returns false. Order is
// unspecified.
func (m *SetMap[V]) Range(fn func(Set, V) bool) {
	for _, b := range m.buckets {
		for _, e := range b {
			if !fn(e.set, e.val) {
				return
			}
		}
	}
}

// Clear removes every entry.
func (m *SetMap[V]) Clear() {
	clear(m.buckets)
	m.n = 0
}

// MustScalar panics when s cannot be used as an aggregation key.
func MustScalar(s Set) {
	if !s.Scalar() {
		panic(fmt.Sprintf("attr: aggregation key %s holds non-scalar values", s))
	}
}
