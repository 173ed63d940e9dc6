package attr

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConstructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"string", StringValue("a"), KindString},
		{"bool", BoolValue(true), KindBool},
		{"int", IntValue(-3), KindInt64},
		{"int8", Int8Value(-8), KindInt64},
		{"int32", Int32Value(32), KindInt64},
		{"uint", UintValue(3), KindUint64},
		{"uint16", Uint16Value(16), KindUint64},
		{"uint64", Uint64Value(math.MaxUint64), KindUint64},
		{"float32", Float32Value(1.5), KindFloat64},
		{"bytes", BytesValue([]byte{1, 2}), KindBytes},
		{"array", ArrayValue(IntValue(1)), KindArray},
		{"map", MapValue(String("k", "v")), KindMap},
		{"zero", Value{}, KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
		})
	}

	assert.Equal(t, int64(-8), Int8Value(-8).AsInt64())
	assert.Equal(t, uint64(math.MaxUint64), Uint64Value(math.MaxUint64).AsUint64())
	assert.Equal(t, 1.5, Float32Value(1.5).AsFloat64())
	assert.True(t, BoolValue(true).AsBool())
}

func TestValueOf(t *testing.T) {
	assert.Equal(t, KindString, ValueOf("s").Kind())
	assert.Equal(t, KindInt64, ValueOf(int16(4)).Kind())
	assert.Equal(t, KindUint64, ValueOf(uint8(4)).Kind())
	assert.Equal(t, KindFloat64, ValueOf(float32(4)).Kind())
	assert.Equal(t, KindBytes, ValueOf([]byte("x")).Kind())
	assert.Equal(t, "1s", ValueOf(time.Second).AsString())

	arr := ValueOf([]any{"a", 1, struct{}{}})
	require.Equal(t, KindArray, arr.Kind())
	elems := arr.AsArray()
	require.Len(t, elems, 3)
	assert.Equal(t, KindInvalid, elems[2].Kind())

	m := ValueOf(map[string]any{"b": true, "a": "x"})
	require.Equal(t, KindMap, m.Kind())
	kvs := m.AsMap()
	require.Len(t, kvs, 2)
	assert.Equal(t, "a", kvs[0].Key)
	assert.Equal(t, "b", kvs[1].Key)

	assert.False(t, ValueOf(make(chan int)).IsValid())
}

func TestBytesValueCopies(t *testing.T) {
	b := []byte{1, 2, 3}
	v := BytesValue(b)
	b[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, v.AsBytes())

	out := v.AsBytes()
	out[0] = 7
	assert.Equal(t, []byte{1, 2, 3}, v.AsBytes())
}

func TestSetIsOrderInvariant(t *testing.T) {
	a := NewSet(String("method", "GET"), Int("status", 200), Bool("cached", false))
	b := NewSet(Bool("cached", false), String("method", "GET"), Int("status", 200))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, []string{"cached", "method", "status"}, keys(a))
}

func TestSetDistinguishesValues(t *testing.T) {
	a := NewSet(String("k", "1"))
	b := NewSet(Int("k", 1))
	c := NewSet(String("k", "2"))

	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestSetLastWriteWins(t *testing.T) {
	s := NewSet(String("k", "first"), Int("n", 1), String("k", "second"))
	require.Equal(t, 2, s.Len())
	v, ok := s.Value("k")
	require.True(t, ok)
	assert.Equal(t, "second", v.AsString())

	_, ok = s.Value("missing")
	assert.False(t, ok)
}

func TestEmptySet(t *testing.T) {
	a := NewSet()
	b := NewSet()
	assert.True(t, a.Equal(b))
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, uint64(0), a.Hash())
	assert.True(t, a.Scalar())
}

func TestSetScalar(t *testing.T) {
	assert.True(t, NewSet(String("a", "b"), Float64("f", 1), Bytes("b", []byte{1})).Scalar())

	nested := NewSet(Array("a", IntValue(1)))
	assert.False(t, nested.Scalar())
	assert.Panics(t, func() { MustScalar(nested) })
	assert.NotPanics(t, func() { MustScalar(NewSet(String("a", "b"))) })
}

func TestSetMap(t *testing.T) {
	m := NewSetMap[int]()
	s1 := NewSet(String("a", "1"), String("b", "2"))
	s2 := NewSet(String("b", "2"), String("a", "1"))
	s3 := NewSet(String("a", "1"))

	m.Put(s1, 10)
	m.Put(s2, 20)
	m.Put(s3, 30)

	assert.Equal(t, 2, m.Len())
	v, ok := m.Get(s1)
	require.True(t, ok)
	assert.Equal(t, 20, v)

	seen := 0
	m.Range(func(Set, int) bool { seen++; return true })
	assert.Equal(t, 2, seen)

	m.Clear()
	assert.Equal(t, 0, m.Len())
	_, ok = m.Get(s3)
	assert.False(t, ok)
}

func TestValueEqual(t *testing.T) {
	nan := Float64Value(math.NaN())
	assert.True(t, nan.Equal(nan))
	assert.True(t, ArrayValue(IntValue(1), StringValue("x")).Equal(ArrayValue(IntValue(1), StringValue("x"))))
	assert.False(t, ArrayValue(IntValue(1)).Equal(ArrayValue(IntValue(2))))
	assert.True(t, MapValue(Int("a", 1), Int("b", 2)).Equal(MapValue(Int("b", 2), Int("a", 1))))
}

func TestFromMap(t *testing.T) {
	kvs := FromMap(map[string]any{"z": 1, "a": "x"})
	require.Len(t, kvs, 2)
	assert.Equal(t, "a", kvs[0].Key)
	assert.Equal(t, "z", kvs[1].Key)
}

func keys(s Set) []string {
	var out []string
	for _, kv := range s.KeyValues() {
		out = append(out, kv.Key)
	}
	return out
}
