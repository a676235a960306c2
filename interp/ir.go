// Package interp partitions a lifted instruction list into basic blocks and
// symbolically evaluates each block's stack effects into statements plus a
// control-flow terminator, producing a block-keyed control flow graph.
//
// It assumes the operand stack is always empty at the start and end of
// every block: nothing is carried across a block boundary except through
// named places (locals, cells, globals).
package interp

import "github.com/leastinformednerd/cpybc/lift"

// Expr is a symbolic value: the result of a load, constant, or operation.
// No tracking of data flow between separate uses of the same place is
// done; every Load re-reads its place fresh.
type Expr interface {
	isExpr()
}

type (
	// ConstantExpr is an immediate value pushed by LoadConstInstr.
	ConstantExpr struct{ Value lift.Constant }
	// LoadExpr reads a resolved place.
	LoadExpr struct{ From Place }
	// UnaryOpExpr applies a unary operator to Operand.
	UnaryOpExpr struct {
		Op      lift.UnaryOp
		Operand Expr
	}
	// BinaryOpExpr applies a binary or comparison operator to Lhs and Rhs.
	BinaryOpExpr struct {
		Op       lift.BinOp
		Lhs, Rhs Expr
	}
	// CoercionExpr applies an implicit protocol coercion to Operand.
	CoercionExpr struct {
		Op      lift.Coercion
		Operand Expr
	}
	// MakeFunctionExpr builds a function object from Operand.
	MakeFunctionExpr struct{ Operand Expr }
	// CallExpr calls Func, bound to Receiver, with Args.
	CallExpr struct {
		Func, Receiver Expr
		Args           []Expr
	}
)

func (ConstantExpr) isExpr()     {}
func (LoadExpr) isExpr()         {}
func (UnaryOpExpr) isExpr()      {}
func (BinaryOpExpr) isExpr()     {}
func (CoercionExpr) isExpr()     {}
func (MakeFunctionExpr) isExpr() {}
func (CallExpr) isExpr()         {}

// Statement is one effect-bearing operation within a block.
type Statement interface {
	isStatement()
}

type (
	// TrivialStatement evaluates Expr for its side effects and discards the
	// result.
	TrivialStatement struct{ Expr Expr }
	// StoreStatement evaluates Expr and writes it into Into.
	StoreStatement struct {
		Expr Expr
		Into Place
	}
	// ReturnStatement evaluates Expr and returns it from the code object.
	ReturnStatement struct{ Expr Expr }
	// IfStatement is never present in a finished Block's Body: it is
	// consumed to build a ConditionalJumpFlow terminator.
	IfStatement struct {
		Expr   Expr
		Target uint32
	}
	// JumpStatement is never present in a finished Block's Body: it is
	// consumed to build an UnconditionalFlow terminator.
	JumpStatement struct{ Target uint32 }
)

func (TrivialStatement) isStatement() {}
func (StoreStatement) isStatement()   {}
func (ReturnStatement) isStatement()  {}
func (IfStatement) isStatement()      {}
func (JumpStatement) isStatement()    {}

// Block is one basic block: a straight-line run of statements ending in a
// terminator that names where control goes next.
type Block struct {
	Body        []Statement
	ControlFlow ControlFlow
}

// ControlFlow is a block's terminator.
type ControlFlow interface {
	isControlFlow()
}

type (
	// UnconditionalFlow means the block falls through or jumps
	// unconditionally to the block starting at Target.
	UnconditionalFlow struct{ Target uint32 }
	// ConditionalJumpFlow means the block's last evaluated expression
	// decides whether control goes to IfTrue (falls through) or IfFalse
	// (the jump target).
	ConditionalJumpFlow struct {
		IfTrue, IfFalse uint32
		Expr            Expr
	}
	// TerminatesFlow means the block returns or is the last block in the
	// code object.
	TerminatesFlow struct{}
)

func (UnconditionalFlow) isControlFlow()   {}
func (ConditionalJumpFlow) isControlFlow() {}
func (TerminatesFlow) isControlFlow()      {}

// Place is a resolved storage location, as opposed to lift.UnresolvedPlace
// which only carries a raw table index.
type Place interface {
	isPlace()
}

type (
	// LocalPlace is a plain fast local variable slot.
	LocalPlace struct{ Index uint32 }
	// GlobalPlace is a module-global, resolved dynamically by name.
	GlobalPlace struct{ Index uint32 }
	// CellPlace is a closure cell or free variable slot.
	CellPlace struct{ Index uint32 }
)

func (LocalPlace) isPlace()  {}
func (GlobalPlace) isPlace() {}
func (CellPlace) isPlace()   {}
