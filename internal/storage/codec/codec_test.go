package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_RawTag(t *testing.T) {
	payload, err := Encode(Bytes([]byte("hello")))
	require.NoError(t, err)

	assert.Equal(t, byte(TagRaw), payload[0])
	assert.Equal(t, []byte("hello"), payload[1:])
}

func TestEncode_EmptyRaw(t *testing.T) {
	payload, err := Encode(Bytes(nil))
	require.NoError(t, err)

	// An empty byte value still carries its tag; it is distinct from an
	// empty payload.
	assert.Equal(t, []byte{byte(TagRaw)}, payload)

	v, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, KindBytes, v.Kind())
	assert.Empty(t, v.BytesValue())
}

func TestEncode_StructuredTag(t *testing.T) {
	payload, err := Encode(Int(42))
	require.NoError(t, err)

	assert.Equal(t, byte(TagStructured), payload[0])
}

func TestRoundTrip_Raw(t *testing.T) {
	original := Bytes([]byte{0x00, 0x01, 0x02, 0xff})

	payload, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.True(t, original.Equal(decoded))
}

func TestRoundTrip_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"null", Null()},
		{"bool", Bool(true)},
		{"int", Int(-123456789)},
		{"float", Float(3.14159)},
		{"text", Text("hello world")},
		{"empty text", Text("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Encode(tt.value)
			require.NoError(t, err)

			decoded, err := Decode(payload)
			require.NoError(t, err)
			assert.True(t, tt.value.Equal(decoded),
				"expected %s, got %s", tt.value, decoded)
		})
	}
}

func TestRoundTrip_Nested(t *testing.T) {
	original := Map(map[string]Value{
		"name":   Text("sensor-7"),
		"online": Bool(true),
		"reading": Map(map[string]Value{
			"temp":     Float(21.5),
			"sequence": Int(900),
		}),
		"tags":  List(Text("a"), Text("b"), Int(3)),
		"blank": Null(),
	})

	payload, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.True(t, original.Equal(decoded),
		"expected %s, got %s", original, decoded)
}

func TestEncode_Deterministic(t *testing.T) {
	v := Map(map[string]Value{
		"zebra":  Int(1),
		"apple":  Int(2),
		"mango":  Int(3),
		"banana": Int(4),
	})

	first, err := Encode(v)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Encode(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecode_EmptyPayload(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)
	assert.IsType(t, EmptyPayloadError{}, err)

	_, err = Decode([]byte{})
	require.Error(t, err)
	assert.IsType(t, EmptyPayloadError{}, err)
}

func TestDecode_UnknownTag(t *testing.T) {
	_, err := Decode([]byte{0x7f, 0x01, 0x02})
	require.Error(t, err)

	var tagErr UnknownTagError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, byte(0x7f), tagErr.Tag)
}

func TestFromInterface_Numerics(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want Value
	}{
		{"int", int(7), Int(7)},
		{"int32", int32(7), Int(7)},
		{"int64", int64(7), Int(7)},
		{"uint8", uint8(7), Int(7)},
		{"uint64", uint64(7), Int(7)},
		{"float32", float32(1.5), Float(1.5)},
		{"float64", float64(1.5), Float(1.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromInterface(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(v))
		})
	}
}

func TestFromInterface_UnsupportedType(t *testing.T) {
	_, err := FromInterface(make(chan int))
	require.Error(t, err)

	var typeErr UnsupportedTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestFromInterface_NonStringMapKeys(t *testing.T) {
	_, err := FromInterface(map[interface{}]interface{}{1: "one"})
	require.Error(t, err)
}

func TestValue_Interface(t *testing.T) {
	v := Map(map[string]Value{
		"n":    Int(5),
		"list": List(Text("x"), Bool(false)),
	})

	plain := v.Interface()
	m, ok := plain.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(5), m["n"])
	assert.Equal(t, []interface{}{"x", false}, m["list"])
}
