// Package codec encodes stored values as msgpack with a hard size bound.
package codec

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"
)

// MaxEncodedSize is the largest encoding a stored value may have.
const MaxEncodedSize = 1024

// ErrTooLarge is returned when a value encodes to more than MaxEncodedSize bytes.
var ErrTooLarge = errors.New("encoded value exceeds maximum size")

var handle = newHandle()

func newHandle() *codec.MsgpackHandle {
	var mh codec.MsgpackHandle
	mh.WriteExt = true
	mh.Canonical = true
	return &mh
}

// Encode returns the msgpack encoding of v, or ErrTooLarge if it would not
// fit in MaxEncodedSize bytes.
func Encode(v any) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, handle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if len(buf) > MaxEncodedSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(buf), MaxEncodedSize)
	}
	return buf, nil
}

// Decode decodes a msgpack value produced by Encode into v.
func Decode(data []byte, v any) error {
	if len(data) > MaxEncodedSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), MaxEncodedSize)
	}
	if err := codec.NewDecoderBytes(data, handle).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
