// Package attr defines attribute values, key/value pairs and the immutable
// attribute sets used as aggregation keys.
package attr

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Kind is the type tag of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindBool
	KindInt64
	KindUint64
	KindFloat64
	KindBytes
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindString:  "string",
	KindBool:    "bool",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindFloat64: "float64",
	KindBytes:   "bytes",
	KindArray:   "array",
	KindMap:     "map",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a closed tagged variant. The zero Value is KindInvalid, which
// exporters drop. Values are immutable.
type Value struct {
	kind Kind
	num  uint64     // bool, int64, uint64, float64 bits
	str  string     // string, bytes
	arr  []Value    // array
	kvs  []KeyValue // map, sorted by key
}

func StringValue(v string) Value { return Value{kind: KindString, str: v} }

func BoolValue(v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

func Int64Value(v int64) Value   { return Value{kind: KindInt64, num: uint64(v)} }
func IntValue(v int) Value       { return Int64Value(int64(v)) }
func Int8Value(v int8) Value     { return Int64Value(int64(v)) }
func Int16Value(v int16) Value   { return Int64Value(int64(v)) }
func Int32Value(v int32) Value   { return Int64Value(int64(v)) }
func Uint64Value(v uint64) Value { return Value{kind: KindUint64, num: v} }
func UintValue(v uint) Value     { return Uint64Value(uint64(v)) }
func Uint8Value(v uint8) Value   { return Uint64Value(uint64(v)) }
func Uint16Value(v uint16) Value { return Uint64Value(uint64(v)) }
func Uint32Value(v uint32) Value { return Uint64Value(uint64(v)) }

func Float64Value(v float64) Value { return Value{kind: KindFloat64, num: math.Float64bits(v)} }
func Float32Value(v float32) Value { return Float64Value(float64(v)) }

// BytesValue copies v.
func BytesValue(v []byte) Value { return Value{kind: KindBytes, str: string(v)} }

// ArrayValue copies vs.
func ArrayValue(vs ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(vs)}
}

// MapValue builds a nested map. Duplicate keys keep the last value.
func MapValue(kvs ...KeyValue) Value {
	return Value{kind: KindMap, kvs: normalize(kvs)}
}

// ValueOf converts a dynamic Go value. Unsupported types, and nested values
// that fail to convert, yield an invalid Value rather than an error.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(x)
	case int8:
		return Int8Value(x)
	case int16:
		return Int16Value(x)
	case int32:
		return Int32Value(x)
	case int64:
		return Int64Value(x)
	case uint:
		return UintValue(x)
	case uint8:
		return Uint8Value(x)
	case uint16:
		return Uint16Value(x)
	case uint32:
		return Uint32Value(x)
	case uint64:
		return Uint64Value(x)
	case float32:
		return Float32Value(x)
	case float64:
		return Float64Value(x)
	case []byte:
		return BytesValue(x)
	case fmt.Stringer:
		return StringValue(x.String())
	case []string:
		vs := make([]Value, len(x))
		for i, s := range x {
			vs[i] = StringValue(s)
		}
		return Value{kind: KindArray, arr: vs}
	case []any:
		vs := make([]Value, len(x))
		for i, e := range x {
			vs[i] = ValueOf(e)
		}
		return Value{kind: KindArray, arr: vs}
	case map[string]any:
		kvs := make([]KeyValue, 0, len(x))
		for k, e := range x {
			kvs = append(kvs, KeyValue{Key: k, Value: ValueOf(e)})
		}
		return MapValue(kvs...)
	}
	return Value{}
}

func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v carries a value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsScalar reports whether v may appear in an aggregation key.
func (v Value) IsScalar() bool {
	switch v.kind {
	case KindString, KindBool, KindInt64, KindUint64, KindFloat64, KindBytes:
		return true
	}
	return false
}

func (v Value) AsString() string   { return v.str }
func (v Value) AsBool() bool       { return v.num != 0 }
func (v Value) AsInt64() int64     { return int64(v.num) }
func (v Value) AsUint64() uint64   { return v.num }
func (v Value) AsFloat64() float64 { return math.Float64frombits(v.num) }

// AsBytes returns a copy of the byte payload.
func (v Value) AsBytes() []byte {
	if v.kind != KindBytes {
		return nil
	}
	return []byte(v.str)
}

// AsArray returns a copy of the elements.
func (v Value) AsArray() []Value { return slices.Clone(v.arr) }

// AsMap returns a copy of the entries, sorted by key.
func (v Value) AsMap() []KeyValue { return slices.Clone(v.kvs) }

// Equal reports deep equality. Floats compare by bit pattern, so NaN equals
// an identical NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.num != o.num || v.str != o.str {
		return false
	}
	switch v.kind {
	case KindArray:
		return slices.EqualFunc(v.arr, o.arr, Value.Equal)
	case KindMap:
		return slices.EqualFunc(v.kvs, o.kvs, KeyValue.Equal)
	}
	return true
}

// String renders v for logs and debugging.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return fmt.Sprint(v.AsBool())
	case KindInt64:
		return fmt.Sprint(v.AsInt64())
	case KindUint64:
		return fmt.Sprint(v.num)
	case KindFloat64:
		return fmt.Sprint(v.AsFloat64())
	case KindBytes:
		return fmt.Sprintf("%x", v.str)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindMap:
		parts := make([]string, len(v.kvs))
		for i, kv := range v.kvs {
			parts[i] = kv.Key + "=" + kv.Value.String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return "<invalid>"
}

// appendEncoding writes a kind-tagged, length-prefixed form of v used for
// hashing. Distinct scalar values never share an encoding.
func (v Value) appendEncoding(b []byte) []byte {
	b = append(b, byte(v.kind))
	switch v.kind {
	case KindString, KindBytes:
		b = binary.AppendUvarint(b, uint64(len(v.str)))
		b = append(b, v.str...)
	case KindBool, KindInt64, KindUint64, KindFloat64:
		b = binary.AppendUvarint(b, v.num)
	case KindArray:
		b = binary.AppendUvarint(b, uint64(len(v.arr)))
		for _, e := range v.arr {
			b = e.appendEncoding(b)
		}
	case KindMap:
		b = binary.AppendUvarint(b, uint64(len(v.kvs)))
		for _, kv := range v.kvs {
			b = kv.appendEncoding(b)
		}
	}
	return b
}

