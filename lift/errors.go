package lift

import (
	"errors"
	"fmt"
)

// ErrOddLengthCode means a code object's raw bytecode had odd length. Since
// Python 3.6 bytecode is always (opcode, arg) byte pairs; this should only
// happen on a corrupt or truncated input.
var ErrOddLengthCode = errors.New("lift: code byte string has odd length")

// Error is the lifter's error taxonomy. Every failure Lift returns other
// than ErrOddLengthCode is a *Error, so callers can errors.As to recover
// the offending opcode or operand.
type Error struct {
	Kind Kind
	// Operand carries the value relevant to Kind: the oversized small-int
	// arg, the out-of-range binary/compare selector, the overflowing
	// extension accumulator, the unimplemented opcode, or the malformed
	// jump target, depending on Kind.
	Operand uint32
}

// Kind classifies a lifter Error.
type Kind int

const (
	// SmallIntTooLarge means a LOAD_SMALL_INT-style opcode's argument,
	// after extension, exceeded what the single-byte small-int operand
	// form can hold.
	SmallIntTooLarge Kind = iota
	// OutOfBoundsBinOp means a BINARY_OP opcode's selector did not match
	// any of the known operator codes.
	OutOfBoundsBinOp
	// OutOfBoundsCompareOp means a COMPARE_OP opcode's selector did not
	// match any of the known comparison codes.
	OutOfBoundsCompareOp
	// ArgExtendWouldOverflow means a run of EXTENDED_ARG opcodes
	// accumulated more bits than a 32-bit argument can hold.
	ArgExtendWouldOverflow
	// NotYetImplementedInstruction means the opcode byte has no lifting
	// rule at all, as opposed to a valid opcode with an out-of-range
	// operand.
	NotYetImplementedInstruction
	// JumpPastEnd means a jump's computed target landed at or past the end
	// of the instruction stream.
	JumpPastEnd
	// JumpBeforeStart means a backward jump's computed target underflowed
	// before the start of the instruction stream.
	JumpBeforeStart
)

func (e *Error) Error() string {
	switch e.Kind {
	case SmallIntTooLarge:
		return fmt.Sprintf("lift: small int operand %d too large", e.Operand)
	case OutOfBoundsBinOp:
		return fmt.Sprintf("lift: binary op selector %d out of range", e.Operand)
	case OutOfBoundsCompareOp:
		return fmt.Sprintf("lift: compare op selector %d out of range", e.Operand)
	case ArgExtendWouldOverflow:
		return fmt.Sprintf("lift: EXTENDED_ARG accumulator %d would overflow", e.Operand)
	case NotYetImplementedInstruction:
		return fmt.Sprintf("lift: opcode %d has no lifting rule", e.Operand)
	case JumpPastEnd:
		return fmt.Sprintf("lift: jump target %d lands past the end of the instruction stream", e.Operand)
	case JumpBeforeStart:
		return fmt.Sprintf("lift: jump target underflows by %d", e.Operand)
	}
	return "lift: unknown error"
}
