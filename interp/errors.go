package interp

import "fmt"

// Kind classifies an evaluation Error.
type Kind int

const (
	// ParseError means the underlying lift.Lift call failed; Err holds the
	// error it returned (a *lift.Error or lift.ErrOddLengthCode).
	ParseError Kind = iota
	// PoppedEmptyStack means a block tried to pop more values than its
	// predecessors pushed, which should never happen for well-formed
	// bytecode and indicates either a bug here or a code object this
	// package doesn't model correctly yet.
	PoppedEmptyStack
	// StackOpOutOfBounds means a CopyInstr's index reached below the
	// bottom of the block's virtual stack.
	StackOpOutOfBounds
	// BlockWithNonEmptyStack means a block's virtual stack was non-empty
	// at its end, violating the invariant that nothing but named places
	// carries state across a block boundary.
	BlockWithNonEmptyStack
	// UnresolvablePlace means an UnresolvedPlace variant has no
	// resolution rule (only reachable if lift ever starts emitting a
	// variant this package doesn't expect).
	UnresolvablePlace
	// PlaceIndexOutOfRange means a LocalPlace's index fell outside the
	// code object's locals_plus_kinds table.
	PlaceIndexOutOfRange
)

// Error is the abstract interpreter's error taxonomy.
type Error struct {
	Kind    Kind
	Operand uint32
	// Err holds the wrapped cause when Kind == ParseError.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ParseError:
		return fmt.Sprintf("interp: %v", e.Err)
	case PoppedEmptyStack:
		return "interp: popped an empty stack"
	case StackOpOutOfBounds:
		return fmt.Sprintf("interp: stack operation index %d out of bounds", e.Operand)
	case BlockWithNonEmptyStack:
		return "interp: block ended with a non-empty stack"
	case UnresolvablePlace:
		return "interp: place has no resolution rule"
	case PlaceIndexOutOfRange:
		return fmt.Sprintf("interp: place index %d out of range", e.Operand)
	}
	return "interp: unknown error"
}

// Unwrap exposes the wrapped lift.Error for ParseError, so callers can
// errors.As straight through to it.
func (e *Error) Unwrap() error { return e.Err }
