package marshal

import "fmt"

// CodeConstructor is the code-constructor record described in spec §3.2: the
// on-disk shape of a code object, with every nested object left as a region
// index so Code (and therefore Object) stays a flat, copyable value.
type CodeConstructor struct {
	ArgCount        int32
	PosOnlyArgCount int32
	KwOnlyArgCount  int32
	StackSize       int32
	Flags           int32

	CodeIdx            int // Bytes
	ConstsIdx          int // Tuple
	NamesIdx           int // Tuple
	LocalsPlusNamesIdx int // Tuple
	LocalsPlusKindsIdx int // Bytes
	FilenameIdx        int // String
	NameIdx            int // String
	QualifiedNameIdx   int // String

	FirstLineNo int32

	LineTableIdx      int // Bytes
	ExceptionTableIdx int // Bytes
}

// CodeObject is a borrowed view over a CodeConstructor plus the region it was
// built in, giving the lifter and the abstract interpreter typed accessors
// instead of raw indices. It borrows the region's contents and must not
// outlive it.
type CodeObject struct {
	ctor   *CodeConstructor
	region *Region
}

// Construct resolves a CodeConstructor's nested indices against region,
// validating that each points at the kind of object §3.2 requires.
func (c *CodeConstructor) Construct(region *Region) (CodeObject, error) {
	if _, err := expectBytes(region, c.CodeIdx, "code"); err != nil {
		return CodeObject{}, err
	}
	if _, err := expectTuple(region, c.ConstsIdx, "consts"); err != nil {
		return CodeObject{}, err
	}
	if _, err := expectTuple(region, c.NamesIdx, "names"); err != nil {
		return CodeObject{}, err
	}
	if _, err := expectTuple(region, c.LocalsPlusNamesIdx, "locals_plus_names"); err != nil {
		return CodeObject{}, err
	}
	if _, err := expectBytes(region, c.LocalsPlusKindsIdx, "locals_plus_kinds"); err != nil {
		return CodeObject{}, err
	}
	if _, err := expectBytes(region, c.LineTableIdx, "line_table"); err != nil {
		return CodeObject{}, err
	}
	if _, err := expectBytes(region, c.ExceptionTableIdx, "exception_table"); err != nil {
		return CodeObject{}, err
	}
	return CodeObject{ctor: c, region: region}, nil
}

func expectBytes(region *Region, idx int, field string) (Bytes, error) {
	obj, err := region.Get(idx)
	if err != nil {
		return Bytes{}, fmt.Errorf("marshal: code.%s: %w", field, err)
	}
	b, ok := obj.(Bytes)
	if !ok {
		return Bytes{}, fmt.Errorf("marshal: code.%s: expected Bytes, got %T", field, obj)
	}
	return b, nil
}

func expectTuple(region *Region, idx int, field string) (Tuple, error) {
	obj, err := region.Get(idx)
	if err != nil {
		return Tuple{}, fmt.Errorf("marshal: code.%s: %w", field, err)
	}
	t, ok := obj.(Tuple)
	if !ok {
		return Tuple{}, fmt.Errorf("marshal: code.%s: expected Tuple, got %T", field, obj)
	}
	return t, nil
}

// Code returns the raw bytecode byte stream.
func (c CodeObject) Code() []byte {
	b, _ := expectBytes(c.region, c.ctor.CodeIdx, "code")
	return b.Value
}

// Consts returns the consts tuple's member indices.
func (c CodeObject) Consts() []int {
	t, _ := expectTuple(c.region, c.ctor.ConstsIdx, "consts")
	return t.Items
}

// Names returns the names tuple's member indices.
func (c CodeObject) Names() []int {
	t, _ := expectTuple(c.region, c.ctor.NamesIdx, "names")
	return t.Items
}

// LocalsPlusNames returns the locals_plus_names tuple's member indices.
func (c CodeObject) LocalsPlusNames() []int {
	t, _ := expectTuple(c.region, c.ctor.LocalsPlusNamesIdx, "locals_plus_names")
	return t.Items
}

// LocalsPlusKinds returns the raw locals_plus_kinds byte vector, one byte
// per entry of LocalsPlusNames, encoding whether that slot is a plain local,
// a cell, or a free variable.
func (c CodeObject) LocalsPlusKinds() []byte {
	b, _ := expectBytes(c.region, c.ctor.LocalsPlusKindsIdx, "locals_plus_kinds")
	return b.Value
}

// Region returns the region this view was constructed against, so callers
// holding only a CodeObject can still resolve Consts()/Names() entries.
func (c CodeObject) Region() *Region { return c.region }

// StackSize is the maximum operand stack depth the compiler computed for
// this code object.
func (c CodeObject) StackSize() int32 { return c.ctor.StackSize }

// ArgCount, PosOnlyArgCount and KwOnlyArgCount mirror the record fields.
func (c CodeObject) ArgCount() int32        { return c.ctor.ArgCount }
func (c CodeObject) PosOnlyArgCount() int32 { return c.ctor.PosOnlyArgCount }
func (c CodeObject) KwOnlyArgCount() int32  { return c.ctor.KwOnlyArgCount }

// ExceptionTable returns the raw exception-table bytes. Per spec §1,
// exception-table semantics are parsed but never interpreted; callers that
// want to decode it are expected to do so themselves.
func (c CodeObject) ExceptionTable() []byte {
	b, _ := expectBytes(c.region, c.ctor.ExceptionTableIdx, "exception_table")
	return b.Value
}
