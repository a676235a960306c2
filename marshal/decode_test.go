package marshal

import (
	"encoding/hex"
	"errors"
	"testing"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture %q: %v", s, err)
	}
	return b
}

func TestLoadsSmallInt(t *testing.T) {
	region, err := Loads(hexBytes(t, "6901010000"))
	if err != nil {
		t.Fatal(err)
	}
	obj, err := region.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	v, err := AsInt64(obj)
	if err != nil {
		t.Fatal(err)
	}
	if v != 257 {
		t.Errorf("got %d, want 257", v)
	}
}

func TestLoadsSmallIntNegative(t *testing.T) {
	region, err := Loads(hexBytes(t, "69fffeffff"))
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := region.Get(0)
	v, err := AsInt64(obj)
	if err != nil {
		t.Fatal(err)
	}
	if v != -257 {
		t.Errorf("got %d, want -257", v)
	}
}

func TestLoadsInt64(t *testing.T) {
	region, err := Loads(hexBytes(t, "490101000000000000"))
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := region.Get(0)
	v, err := AsInt64(obj)
	if err != nil {
		t.Fatal(err)
	}
	if v != 257 {
		t.Errorf("got %d, want 257", v)
	}
}

func TestLoadsExplicitUnknown(t *testing.T) {
	_, err := Loads(hexBytes(t, "3f"))
	if !errors.Is(err, ErrExplicitUnknown) {
		t.Errorf("got %v, want ErrExplicitUnknown", err)
	}
}

func TestLoadsBareNull(t *testing.T) {
	_, err := Loads(hexBytes(t, "30"))
	if !errors.Is(err, ErrFoundNull) {
		t.Errorf("got %v, want ErrFoundNull", err)
	}
}

func TestLoadsSingletonRegion(t *testing.T) {
	region, err := Loads(hexBytes(t, "4e"))
	if err != nil {
		t.Fatal(err)
	}
	if region.Len() != 1 {
		t.Fatalf("got region of length %d, want 1", region.Len())
	}
	obj, err := region.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := obj.(NoneObject); !ok {
		t.Errorf("got %T, want NoneObject", obj)
	}
}

func TestLoadsTruncatedInput(t *testing.T) {
	_, err := Loads(hexBytes(t, "6901"))
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("got %v, want ErrUnexpectedEOF", err)
	}
}

// TestLoadsSelfReferentialTuple exercises a one-element tuple whose sole
// item is a Ref back to the tuple's own region slot.
func TestLoadsSelfReferentialTuple(t *testing.T) {
	region, err := Loads(hexBytes(t, "a9017200000000"))
	if err != nil {
		t.Fatal(err)
	}
	if region.Len() != 1 {
		t.Fatalf("got region of length %d, want 1", region.Len())
	}
	obj, err := region.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	tup, ok := obj.(Tuple)
	if !ok {
		t.Fatalf("got %T, want Tuple", obj)
	}
	if len(tup.Items) != 1 || tup.Items[0] != 0 {
		t.Errorf("got items %v, want [0]", tup.Items)
	}
}

// TestLoadsSetDedup exercises a set whose first member is a refable int and
// whose second member is a Ref back to it; the two must collapse to a
// single member.
func TestLoadsSetDedup(t *testing.T) {
	region, err := Loads(hexBytes(t, "3c02000000e9050000007200000000"))
	if err != nil {
		t.Fatal(err)
	}
	obj, err := region.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	set, ok := obj.(Set)
	if !ok {
		t.Fatalf("got %T, want Set", obj)
	}
	if len(set.Items) != 1 {
		t.Fatalf("got %d members, want 1", len(set.Items))
	}
	v, err := AsInt64(mustGet(t, region, set.Items[0]))
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Errorf("got %d, want 5", v)
	}
}

func TestLoadsShortAsciiString(t *testing.T) {
	// tag 'z' (short ascii), length 3, "abc"
	region, err := Loads(hexBytes(t, "7a03616263"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := AsString(mustGet(t, region, 0))
	if err != nil {
		t.Fatal(err)
	}
	if s != "abc" {
		t.Errorf("got %q, want %q", s, "abc")
	}
}

func TestLoadsDanglingRef(t *testing.T) {
	// tag 'r' (ref) with index 0, but no refs have been recorded yet.
	_, err := Loads(hexBytes(t, "7200000000"))
	var dangling *DanglingRefError
	if !errors.As(err, &dangling) {
		t.Errorf("got %v, want *DanglingRefError", err)
	}
}

// TestLoadsInternedStringDedup exercises a tuple holding the same interned
// short-ascii string twice: the second occurrence must reuse the first's
// region index instead of allocating a new slot.
func TestLoadsInternedStringDedup(t *testing.T) {
	region, err := Loads(hexBytes(t, "2902da026162da026162"))
	if err != nil {
		t.Fatal(err)
	}
	if region.Len() != 2 {
		t.Fatalf("got region of length %d, want 2", region.Len())
	}
	obj, err := region.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	tup, ok := obj.(Tuple)
	if !ok {
		t.Fatalf("got %T, want Tuple", obj)
	}
	if len(tup.Items) != 2 || tup.Items[0] != tup.Items[1] {
		t.Errorf("got items %v, want both entries equal", tup.Items)
	}
	s, err := AsString(mustGet(t, region, tup.Items[0]))
	if err != nil {
		t.Fatal(err)
	}
	if s != "ab" {
		t.Errorf("got %q, want %q", s, "ab")
	}
}

func mustGet(t *testing.T, region *Region, idx int) Object {
	t.Helper()
	obj, err := region.Get(idx)
	if err != nil {
		t.Fatal(err)
	}
	return obj
}
