package marshal

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Object is a decoded py-object. Every concrete type in this file implements
// it; the set is closed and exhaustively switched on everywhere it matters
// (Region never stores objects behind a map[string]any).
type Object interface {
	isObject()
}

// pendingSlot occupies a Region slot between the moment it is reserved and
// the moment its real value is known. It is never observable outside this
// package: Region.Get refuses to return one (FoundNull would be the wrong
// error here, since this isn't the wire-format Null tag; it signals a bug in
// the unmarshaller if it ever escapes).
type pendingSlot struct{}

func (pendingSlot) isObject() {}

type (
	// NoneObject is Python's None.
	NoneObject struct{}
	// TrueObject and FalseObject are Python's bool singletons.
	TrueObject  struct{}
	FalseObject struct{}
	// StopIterObject is the StopIteration sentinel.
	StopIterObject struct{}
	// EllipsisObject is Python's Ellipsis.
	EllipsisObject struct{}
)

func (NoneObject) isObject()     {}
func (TrueObject) isObject()     {}
func (FalseObject) isObject()    {}
func (StopIterObject) isObject() {}
func (EllipsisObject) isObject() {}

// SmallInt holds both the 32-bit and 64-bit wire integer forms.
type SmallInt struct{ Value int64 }

func (SmallInt) isObject() {}

// LargeInt is an arbitrary precision integer, stored as a sign byte (0 for
// non-negative, 1 for negative) followed by the big-endian magnitude (see
// decodeLongDigits and digitsFromBigInt); the wire's own digit layout is
// not kept.
type LargeInt struct{ Digits []byte }

func (LargeInt) isObject() {}

// Float is a binary64 float.
type Float struct{ Value float64 }

func (Float) isObject() {}

// Complex is a pair of binary64 floats.
type Complex struct{ Real, Imag float64 }

func (Complex) isObject() {}

// Bytes is an immutable byte vector (CPython's TYPE_STRING, named for
// Python 2's str).
type Bytes struct{ Value []byte }

func (Bytes) isObject() {}

// String is immutable UTF-8 text.
type String struct{ Value string }

func (String) isObject() {}

// Tuple, List, Set and FrozenSet hold ordered sequences of region indices.
// Set and FrozenSet are deduplicated and sorted ascending at construction
// time (see dedupIndices); insertion order is not preserved for them.
type (
	Tuple     struct{ Items []int }
	List      struct{ Items []int }
	Set       struct{ Items []int }
	FrozenSet struct{ Items []int }
)

func (Tuple) isObject()     {}
func (List) isObject()      {}
func (Set) isObject()       {}
func (FrozenSet) isObject() {}

// DictPair is one (key, value) entry of a Dict, each side a region index.
type DictPair struct{ Key, Value int }

// Dict preserves insertion order of its pairs.
type Dict struct{ Pairs []DictPair }

func (Dict) isObject() {}

// Code wraps a CodeConstructor.
type Code struct{ *CodeConstructor }

func (Code) isObject() {}

// Region is an append-only, index-addressed pool of immutable objects built
// by Loads. No Object in a Region holds a reference to another Object
// directly; every internal reference is an int index into the same Region.
// Index 0 is the root object. Once Loads returns successfully the Region is
// never mutated again and is safe for concurrent reads.
type Region struct {
	objects []Object
}

// Len returns the number of objects in the region.
func (r *Region) Len() int { return len(r.objects) }

// Get returns the object stored at index i.
func (r *Region) Get(i int) (Object, error) {
	if i < 0 || i >= len(r.objects) {
		return nil, fmt.Errorf("marshal: region index %d out of range [0,%d)", i, len(r.objects))
	}
	if _, ok := r.objects[i].(pendingSlot); ok {
		return nil, fmt.Errorf("marshal: region index %d was never resolved (internal bug)", i)
	}
	return r.objects[i], nil
}

// reserve appends a pendingSlot and returns its index.
func (r *Region) reserve() int {
	idx := len(r.objects)
	r.objects = append(r.objects, pendingSlot{})
	return idx
}

// fill overwrites a previously reserved slot with its final value.
func (r *Region) fill(idx int, obj Object) {
	r.objects[idx] = obj
}

// dedupIndices sorts indices ascending and removes consecutive duplicates,
// per the Set/FrozenSet deduplication invariant: two occurrences of the same
// underlying object (i.e. the same region index, typically reached via a
// Ref) collapse to one member.
func dedupIndices(items []int) []int {
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}
