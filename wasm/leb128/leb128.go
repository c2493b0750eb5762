// Package leb128 implements the LEB128/SLEB128 variable-length integer
// encodings used throughout the WebAssembly binary format.
//
// Every decode function takes a byteSource (anything that can ReadByte,
// which *bytes.Reader satisfies) and returns the decoded value plus the
// count of bytes consumed, so callers can track their own cursor and wrap
// the underlying read error (usually io.EOF) into their own error taxonomy.
package leb128

import "fmt"

// ErrOverflow is returned when a varint's continuation byte is still set
// after the maximum byte length allowed for its target width, or when the
// decoded value's high bits are inconsistent with its target width (e.g. a
// 5-byte varuint32 whose 5th byte carries bits above bit 31).
type ErrOverflow struct {
	// Kind names the varint width that overflowed, e.g. "varuint32".
	Kind string
}

func (e *ErrOverflow) Error() string {
	return fmt.Sprintf("invalid %s: value overflows target width", e.Kind)
}

// ErrInvalidVaru1 is returned when a varuint1 decodes to a value other than
// 0 or 1.
type ErrInvalidVaru1 struct{ Value uint8 }

func (e *ErrInvalidVaru1) Error() string {
	return fmt.Sprintf("invalid varuint1: %d is neither 0 nor 1", e.Value)
}

// byteSource is the minimal surface leb128 needs from its caller: read one
// byte at a time, failing when the input is exhausted. *bytes.Reader
// satisfies this directly.
type byteSource interface {
	ReadByte() (byte, error)
}

// DecodeUint32 reads an unsigned LEB128 value bounded to 5 bytes (32 bits
// of payload, the maximum needed to represent a uint32) from r.
func DecodeUint32(r byteSource) (uint32, uint64, error) {
	v, n, err := decodeVar(r, 5, 32, false)
	if err != nil {
		return 0, n, err
	}
	return uint32(v), n, nil
}

// DecodeUint64 reads an unsigned LEB128 value bounded to 10 bytes (64 bits
// of payload) from r.
func DecodeUint64(r byteSource) (uint64, uint64, error) {
	v, n, err := decodeVar(r, 10, 64, false)
	return uint64(v), n, err
}

// DecodeVaru7 reads a single-byte unsigned LEB128 value (7 bits of
// payload, no continuation permitted).
func DecodeVaru7(r byteSource) (uint8, uint64, error) {
	v, n, err := decodeVar(r, 1, 7, false)
	if err != nil {
		return 0, n, err
	}
	return uint8(v), n, nil
}

// DecodeVaru1 reads a varuint1: a varuint7 whose value must be 0 or 1.
func DecodeVaru1(r byteSource) (uint8, uint64, error) {
	v, n, err := DecodeVaru7(r)
	if err != nil {
		return 0, n, err
	}
	if v > 1 {
		return 0, n, &ErrInvalidVaru1{Value: v}
	}
	return v, n, nil
}

// DecodeVari7 reads a signed LEB128 value from a single 7-bit group, as
// used by ValueType and ElementType.
func DecodeVari7(r byteSource) (int8, uint64, error) {
	v, n, err := decodeVar(r, 1, 7, true)
	if err != nil {
		return 0, n, err
	}
	return int8(v), n, nil
}

// DecodeInt32 reads a signed LEB128 value bounded to 5 bytes.
func DecodeInt32(r byteSource) (int32, uint64, error) {
	v, n, err := decodeVar(r, 5, 32, true)
	if err != nil {
		return 0, n, err
	}
	return int32(v), n, nil
}

// DecodeInt64 reads a signed LEB128 value bounded to 10 bytes.
func DecodeInt64(r byteSource) (int64, uint64, error) {
	return decodeVar(r, 10, 64, true)
}

// decodeVar is the shared LEB128/SLEB128 decode loop.
//
// maxBytes bounds how many bytes may be consumed: the byte bound is per
// target width, 1 for varu7, 5 for varu32, 10 for varu64; targetBits is the
// width of the value being decoded (7, 32, or 64). A continuation bit still
// set on the final permitted byte is malformed (ErrOverflow). When
// maxBytes*7 exceeds targetBits (the varuint32/varuint64
// cases, where 7 doesn't evenly divide the width), the final group's bits
// beyond targetBits are "wasted" bits whose required value depends on
// signedness: they must be all zero for unsigned, or all equal to the
// value's sign bit for signed — otherwise the encoding represents a value
// that doesn't fit the target width, which is also ErrOverflow.
func decodeVar(r byteSource, maxBytes int, targetBits uint, signed bool) (int64, uint64, error) {
	var result int64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, uint64(i), err
		}
		low7 := b & 0x7f
		cont := b&0x80 != 0

		if i == maxBytes-1 && uint(maxBytes)*7 > targetBits {
			availBits := targetBits - shift // 1..6
			validMask := byte(1<<availBits) - 1
			excessMask := 0x7f &^ validMask
			var expected byte
			if signed && (low7>>(availBits-1))&1 == 1 {
				expected = excessMask
			}
			if low7&excessMask != expected {
				return 0, uint64(i + 1), &ErrOverflow{Kind: kindFor(targetBits, signed)}
			}
		}

		result |= int64(low7) << shift
		shift += 7
		if !cont {
			if signed && shift < 64 && low7&0x40 != 0 {
				result |= -1 << shift // sign-extend from the final group's high bit
			}
			return result, uint64(i + 1), nil
		}
	}
	return 0, uint64(maxBytes), &ErrOverflow{Kind: kindFor(targetBits, signed)}
}

func kindFor(targetBits uint, signed bool) string {
	switch {
	case targetBits == 7 && signed:
		return "varint7"
	case targetBits == 7:
		return "varuint7"
	case targetBits == 32 && signed:
		return "varint32"
	case targetBits == 32:
		return "varuint32"
	case targetBits == 64 && signed:
		return "varint64"
	default:
		return "varuint64"
	}
}

// EncodeUint32 returns the unsigned LEB128 encoding of v. It is provided
// for round-trip tests and is not on the decode hot path.
func EncodeUint32(v uint32) []byte {
	return encodeVaru(uint64(v))
}

// EncodeUint64 returns the unsigned LEB128 encoding of v.
func EncodeUint64(v uint64) []byte {
	return encodeVaru(v)
}

func encodeVaru(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// EncodeInt32 returns the signed LEB128 encoding of v.
func EncodeInt32(v int32) []byte {
	return encodeVari(int64(v))
}

// EncodeInt64 returns the signed LEB128 encoding of v.
func EncodeInt64(v int64) []byte {
	return encodeVari(v)
}

func encodeVari(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		done := (v == 0 && !signBitSet) || (v == -1 && signBitSet)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}
