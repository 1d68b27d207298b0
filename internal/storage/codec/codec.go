// Package codec maps application values onto the single tagged byte
// sequence the store persists. The first byte of every payload names the
// representation; the rest is the representation-specific body. New
// payload kinds must claim new tag values, never reuse existing ones.
package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Tag is the one-byte discriminator prefixed to every stored payload.
type Tag byte

const (
	// TagRaw marks a payload whose body is an uninterpreted byte sequence.
	TagRaw Tag = 0x01
	// TagStructured marks a payload whose body is a msgpack document.
	TagStructured Tag = 0x02
)

// String returns the tag name for logs and errors.
func (t Tag) String() string {
	switch t {
	case TagRaw:
		return "raw"
	case TagStructured:
		return "structured"
	default:
		return fmt.Sprintf("tag(0x%02x)", byte(t))
	}
}

// Encode converts a Value into its tagged storage form. Byte sequences are
// stored verbatim behind TagRaw; every other variant is serialized with
// msgpack behind TagStructured. Encoding never fails for representable
// values.
func Encode(v Value) ([]byte, error) {
	if v.Kind() == KindBytes {
		raw := v.BytesValue()
		out := make([]byte, 1+len(raw))
		out[0] = byte(TagRaw)
		copy(out[1:], raw)
		return out, nil
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(TagStructured))
	enc := msgpack.NewEncoder(&buf)
	if err := encodeStructured(enc, v); err != nil {
		return nil, fmt.Errorf("encode structured value: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode. An empty payload or an unknown tag byte is a
// corruption-class failure, never a "missing value".
func Decode(data []byte) (Value, error) {
	if len(data) == 0 {
		return Value{}, EmptyPayloadError{}
	}

	switch Tag(data[0]) {
	case TagRaw:
		body := make([]byte, len(data)-1)
		copy(body, data[1:])
		return Bytes(body), nil
	case TagStructured:
		dec := msgpack.NewDecoder(bytes.NewReader(data[1:]))
		raw, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return Value{}, fmt.Errorf("decode structured value: %w", err)
		}
		return FromInterface(raw)
	default:
		return Value{}, UnknownTagError{Tag: data[0]}
	}
}

// encodeStructured writes a Value as msgpack. Map keys are written in
// lexicographic order so equal values always serialize to equal bytes.
func encodeStructured(enc *msgpack.Encoder, v Value) error {
	switch v.Kind() {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.BoolValue())
	case KindInt:
		return enc.EncodeInt(v.IntValue())
	case KindFloat:
		return enc.EncodeFloat64(v.FloatValue())
	case KindText:
		return enc.EncodeString(v.TextValue())
	case KindBytes:
		return enc.EncodeBytes(v.BytesValue())
	case KindList:
		items := v.ListValue()
		if err := enc.EncodeArrayLen(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := encodeStructured(enc, item); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		m := v.MapValue()
		if err := enc.EncodeMapLen(len(m)); err != nil {
			return err
		}
		for _, k := range sortedKeys(m) {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeStructured(enc, m[k]); err != nil {
				return err
			}
		}
		return nil
	default:
		return UnsupportedTypeError{Type: v.Kind().String()}
	}
}
