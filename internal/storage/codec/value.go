package codec

import (
	"fmt"
	"sort"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBytes
	KindBool
	KindInt
	KindFloat
	KindText
	KindList
	KindMap
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a closed variant of every payload shape the store can hold.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	list []Value
	m    map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bytes returns a raw byte sequence Value.
func Bytes(b []byte) Value { return Value{kind: KindBytes, raw: b} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text returns a string Value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// List returns an ordered sequence Value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map returns a string-keyed mapping Value.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Kind reports which variant the Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the Value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// BytesValue returns the raw bytes; valid only for KindBytes.
func (v Value) BytesValue() []byte { return v.raw }

// BoolValue returns the boolean; valid only for KindBool.
func (v Value) BoolValue() bool { return v.b }

// IntValue returns the integer; valid only for KindInt.
func (v Value) IntValue() int64 { return v.i }

// FloatValue returns the float; valid only for KindFloat.
func (v Value) FloatValue() float64 { return v.f }

// TextValue returns the string; valid only for KindText.
func (v Value) TextValue() string { return v.s }

// ListValue returns the items; valid only for KindList.
func (v Value) ListValue() []Value { return v.list }

// MapValue returns the mapping; valid only for KindMap.
func (v Value) MapValue() map[string]Value { return v.m }

// Equal reports deep equality of two Values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBytes:
		if len(v.raw) != len(o.raw) {
			return false
		}
		for i := range v.raw {
			if v.raw[i] != o.raw[i] {
				return false
			}
		}
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, vv := range v.m {
			ov, ok := o.m[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the Value for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.raw))
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindText:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		return fmt.Sprintf("list(%d)", len(v.list))
	case KindMap:
		return fmt.Sprintf("map(%d)", len(v.m))
	}
	return "unknown"
}

// Interface converts the Value to the plain Go representation used by the
// structured serializer: nil, []byte, bool, int64, float64, string,
// []interface{}, map[string]interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBytes:
		return v.raw
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// FromInterface builds a Value from a plain Go representation, normalizing
// the numeric types different decoders produce. Unsupported types fail.
func FromInterface(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case []byte:
		return Bytes(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return Text(t), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Map(m), nil
	case map[interface{}]interface{}:
		// Some decoders hand back untyped map keys; only string keys are
		// representable.
		m := make(map[string]Value, len(t))
		for k, item := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, UnsupportedTypeError{Type: fmt.Sprintf("map key %T", k)}
			}
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			m[ks] = v
		}
		return Map(m), nil
	default:
		return Value{}, UnsupportedTypeError{Type: fmt.Sprintf("%T", raw)}
	}
}

// sortedKeys returns map keys in lexicographic order, used to keep the
// serialized form of a Map deterministic.
func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
