// Package lift converts a CPython code object's raw (opcode, arg) byte
// pairs into a typed, version-agnostic instruction list: multi-byte
// arguments are folded in, opcode families that only differ by addressing
// mode are collapsed into one instruction shape, and jump targets are
// renormalized from raw instruction-pair deltas into indices into the
// returned slice.
package lift

// Instruction is a single lifted bytecode operation. The set of concrete
// types is closed and is exhaustively switched on by the abstract
// interpreter; it is never represented as a bare opcode/arg pair once past
// this package.
type Instruction interface {
	isInstruction()
}

type (
	// LoadConstInstr pushes a constant onto the stack.
	LoadConstInstr struct{ Value Constant }
	// LoadInstr pushes the value held at a place onto the stack.
	LoadInstr struct{ From UnresolvedPlace }
	// StoreInstr pops the stack and writes the value into a place.
	StoreInstr struct{ Into UnresolvedPlace }
	// PopInstr discards the top of the stack.
	PopInstr struct{}
	// CopyInstr pushes a copy of the stack item N slots below the top
	// (N=0 duplicates the top itself).
	CopyInstr struct{ N uint32 }
	// SwapInstr exchanges the top of the stack with the item N slots below
	// it (N=0 leaves the stack unchanged).
	SwapInstr struct{ N uint32 }
	// UnaryOpInstr replaces the top of the stack with the result of a unary
	// operator applied to it.
	UnaryOpInstr struct{ Op UnaryOp }
	// BinaryOpInstr pops two values and pushes the result of a binary or
	// comparison operator applied to them.
	BinaryOpInstr struct{ Op BinOp }
	// JumpInstr transfers control to Target, an index into the lifted
	// instruction slice, either unconditionally or conditioned on the
	// truthiness of the top of the stack.
	JumpInstr struct {
		Class  JumpClass
		Target uint32
	}
	// CallInstr pops N+2 values (the callable, its receiver, and N
	// arguments) and pushes the call's result.
	CallInstr struct{ N uint32 }
	// ReturnInstr pops the stack and returns it from the enclosing code
	// object.
	ReturnInstr struct{}
	// MakeFunctionInstr builds a function object from the top of the stack.
	MakeFunctionInstr struct{}
	// CoercionInstr applies an implicit protocol coercion to the top of the
	// stack without changing stack depth.
	CoercionInstr struct{ Op Coercion }
)

func (LoadConstInstr) isInstruction()    {}
func (LoadInstr) isInstruction()         {}
func (StoreInstr) isInstruction()        {}
func (PopInstr) isInstruction()          {}
func (CopyInstr) isInstruction()         {}
func (SwapInstr) isInstruction()         {}
func (UnaryOpInstr) isInstruction()      {}
func (BinaryOpInstr) isInstruction()     {}
func (JumpInstr) isInstruction()         {}
func (CallInstr) isInstruction()         {}
func (ReturnInstr) isInstruction()       {}
func (MakeFunctionInstr) isInstruction() {}
func (CoercionInstr) isInstruction()     {}

// UnresolvedPlace names a storage location by its raw index into one of the
// code object's name/variable tables; the abstract interpreter resolves it
// against the owning code object's symbol tables into a Place.
type UnresolvedPlace interface {
	isUnresolvedPlace()
}

type (
	// GlobalPlace indexes the names table, naming a module global.
	GlobalPlace struct{ Index uint32 }
	// LocalPlace indexes the locals_plus table, naming a local, cell, or
	// free variable slot.
	LocalPlace struct{ Index uint32 }
	// CellPlace indexes the locals_plus table, restricted to cell/free
	// variable slots specifically.
	CellPlace struct{ Index uint32 }
	// NamePlace indexes the names table in a context where the name is
	// resolved dynamically (not a fast local).
	NamePlace struct{ Index uint32 }
)

func (GlobalPlace) isUnresolvedPlace() {}
func (LocalPlace) isUnresolvedPlace()  {}
func (CellPlace) isUnresolvedPlace()   {}
func (NamePlace) isUnresolvedPlace()   {}

// Constant is an operand of LoadConstInstr.
type Constant interface {
	isConstant()
}

type (
	// ConstByIndex names an entry of the code object's consts tuple.
	ConstByIndex struct{ Index uint32 }
	// ConstSmallInt is an immediate small integer, not read from consts.
	ConstSmallInt struct{ Value uint8 }
	// ConstNone is the None singleton, pushed directly by certain desugared
	// jump opcodes rather than read from consts.
	ConstNone struct{}
	// ConstNull marks a pushed NULL, used ahead of unbound-method-style
	// calls and global lookups.
	ConstNull struct{}
)

func (ConstByIndex) isConstant()  {}
func (ConstSmallInt) isConstant() {}
func (ConstNone) isConstant()     {}
func (ConstNull) isConstant()     {}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	UnaryNegative UnaryOp = iota
	UnaryLogicalNot
	UnaryInvert
)

// BinOp identifies a binary or comparison operator. Comparison operators
// share this type with arithmetic ones because both pop two operands and
// push one result; the abstract interpreter does not need to distinguish
// them structurally.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinPower
	BinDiv
	BinFloorDiv
	BinRemainder
	BinAnd
	BinOr
	BinXor
	BinLShift
	BinRShift
	BinMatMul
	BinInplaceAdd
	BinInplaceSub
	BinInplaceMul
	BinInplacePower
	BinInplaceDiv
	BinInplaceFloorDiv
	BinInplaceRemainder
	BinInplaceAnd
	BinInplaceOr
	BinInplaceXor
	BinInplaceLShift
	BinInplaceRShift
	BinInplaceMatMul
	BinSubscript
	BinEq
	BinNe
	BinGt
	BinLt
	BinGtEq
	BinLtEq
	BinIs
)

// JumpClass distinguishes an unconditional jump from one gated on the
// truthiness of the top of the stack.
type JumpClass int

const (
	JumpAlways JumpClass = iota
	JumpIfFalse
)

// Coercion identifies an implicit protocol coercion, emitted by the
// dedicated coercion opcodes and by a comparison whose result is forced to
// bool.
type Coercion int

const (
	CoerceBool Coercion = iota
	CoerceIter
	CoerceAwaitable
	CoerceAsyncIter
)
