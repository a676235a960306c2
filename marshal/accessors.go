package marshal
// conversion helpers in between decoded Object values and plain Go types.

import (
	"fmt"
	"math/big"
)

// AsInt64 tries to represent obj as an int64.
//
// SmallInt decodes directly; LargeInt is converted via its digit bytes and
// fails if the value doesn't fit in an int64. Go code should use AsInt64 to
// accept normal-range integers independently of which wire tag produced them.
func AsInt64(obj Object) (int64, error) {
	switch o := obj.(type) {
	case SmallInt:
		return o.Value, nil
	case LargeInt:
		v := bigFromDigits(o.Digits)
		if !v.IsInt64() {
			return 0, fmt.Errorf("marshal: large int outside of int64 range")
		}
		return v.Int64(), nil
	}
	return 0, fmt.Errorf("marshal: expect SmallInt|LargeInt; got %T", obj)
}

// AsBigInt represents obj as an arbitrary-precision integer, succeeding for
// both SmallInt and LargeInt.
func AsBigInt(obj Object) (*big.Int, error) {
	switch o := obj.(type) {
	case SmallInt:
		return big.NewInt(o.Value), nil
	case LargeInt:
		return bigFromDigits(o.Digits), nil
	}
	return nil, fmt.Errorf("marshal: expect SmallInt|LargeInt; got %T", obj)
}

// AsBytes tries to represent obj as a raw byte vector.
//
// It succeeds only if obj is Bytes. It does not succeed for String, even
// though a String's underlying storage is also bytes: Bytes and String are
// distinct wire types and are kept distinct here.
func AsBytes(obj Object) ([]byte, error) {
	b, ok := obj.(Bytes)
	if !ok {
		return nil, fmt.Errorf("marshal: expect Bytes; got %T", obj)
	}
	return b.Value, nil
}

// AsString tries to represent obj as UTF-8 text. It succeeds only if obj is
// String (covers every interned and non-interned string tag, since all of
// them decode to the same Go type).
func AsString(obj Object) (string, error) {
	s, ok := obj.(String)
	if !ok {
		return "", fmt.Errorf("marshal: expect String; got %T", obj)
	}
	return s.Value, nil
}

// AsTuple tries to represent obj as a tuple's member indices.
func AsTuple(obj Object) ([]int, error) {
	t, ok := obj.(Tuple)
	if !ok {
		return nil, fmt.Errorf("marshal: expect Tuple; got %T", obj)
	}
	return t.Items, nil
}

// AsCode tries to represent obj as a code object's constructor record.
func AsCode(obj Object) (*CodeConstructor, error) {
	c, ok := obj.(Code)
	if !ok {
		return nil, fmt.Errorf("marshal: expect Code; got %T", obj)
	}
	return c.CodeConstructor, nil
}

// bigFromDigits reverses the encoding written by digitsFromBigInt (see
// decode.go): a leading sign byte (0 for non-negative, 1 for negative)
// followed by the big-endian magnitude. This is an internal storage choice
// for LargeInt, not the wire's own 15-bit marshal digit layout, which
// decodeLongDigits reassembles before ever constructing a LargeInt.
func bigFromDigits(digits []byte) *big.Int {
	if len(digits) == 0 {
		return new(big.Int)
	}
	v := new(big.Int).SetBytes(digits[1:])
	if digits[0] == 1 {
		v.Neg(v)
	}
	return v
}
