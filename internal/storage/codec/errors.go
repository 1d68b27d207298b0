package codec

import "fmt"

// EmptyPayloadError indicates a stored payload had no tag byte.
type EmptyPayloadError struct{}

func (e EmptyPayloadError) Error() string {
	return "payload is empty: missing tag byte"
}

// UnknownTagError indicates a stored payload carried a tag byte no codec
// variant claims.
type UnknownTagError struct {
	Tag byte
}

func (e UnknownTagError) Error() string {
	return fmt.Sprintf("unknown payload tag 0x%02x", e.Tag)
}

// UnsupportedTypeError indicates a value outside the closed variant set.
type UnsupportedTypeError struct {
	Type string
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported value type %s", e.Type)
}
