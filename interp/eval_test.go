package interp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leastinformednerd/cpybc/lift"
	"github.com/leastinformednerd/cpybc/marshal"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// codeObjectFromHex decodes a hand-built marshal blob whose root is a single
// Code object, and constructs the CodeObject view over it.
func codeObjectFromHex(t *testing.T, s string) marshal.CodeObject {
	t.Helper()
	region, err := marshal.Loads(hexBytes(t, s))
	require.NoError(t, err)
	obj, err := region.Get(0)
	require.NoError(t, err)
	ctor, err := marshal.AsCode(obj)
	require.NoError(t, err)
	code, err := ctor.Construct(region)
	require.NoError(t, err)
	return code
}

// TestEvalConditionalBranches exercises a code object of the shape
//
//	if <const>:
//	    return <const>
//	else:
//	    return <const>
//
// checking that it partitions into exactly three blocks and that the
// entry block's terminator is a ConditionalJumpFlow pointing at the other
// two.
func TestEvalConditionalBranches(t *testing.T) {
	// argcount..flags all 0, stacksize 0 (unchecked by Eval); code:
	//   LOAD_CONST 0; JUMP_IF_FALSE 1; LOAD_CONST 0; RETURN_VALUE;
	//   LOAD_CONST 0; RETURN_VALUE
	// consts: (1,); names/localsplusnames/localspluskinds empty.
	blob := "63" +
		"00000000" + "00000000" + "00000000" + "00000000" + "00000000" +
		"730c000000" + "520064015200230052002300" +
		"290169" + "01000000" +
		"2900" +
		"2900" +
		"7300000000" +
		"7a0174" +
		"7a0166" +
		"7a0166" +
		"01000000" +
		"7300000000" +
		"7300000000"

	code := codeObjectFromHex(t, blob)

	blocks, err := Eval(code)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	entry, ok := blocks[0]
	require.True(t, ok)
	require.Empty(t, entry.Body)
	cond, ok := entry.ControlFlow.(ConditionalJumpFlow)
	require.True(t, ok)
	require.Equal(t, uint32(2), cond.IfTrue)
	require.Equal(t, uint32(4), cond.IfFalse)
	require.Equal(t, ConstantExpr{Value: lift.ConstByIndex{Index: 0}}, cond.Expr)

	trueBranch, ok := blocks[2]
	require.True(t, ok)
	require.Len(t, trueBranch.Body, 1)
	require.Equal(t, TerminatesFlow{}, trueBranch.ControlFlow)
	ret, ok := trueBranch.Body[0].(ReturnStatement)
	require.True(t, ok)
	require.Equal(t, ConstantExpr{Value: lift.ConstByIndex{Index: 0}}, ret.Expr)

	falseBranch, ok := blocks[4]
	require.True(t, ok)
	require.Len(t, falseBranch.Body, 1)
	require.Equal(t, TerminatesFlow{}, falseBranch.ControlFlow)
}

// TestEvalReturnConstant exercises the minimal full-pipeline scenario: a
// code object that just returns a constant.
func TestEvalReturnConstant(t *testing.T) {
	// argcount..flags all 0, stacksize 0; code: LOAD_CONST 0; RETURN_VALUE;
	// consts: (5,).
	blob := "63" +
		"00000000" + "00000000" + "00000000" + "00000000" + "00000000" +
		"7304000000" + "52002300" +
		"2901" + "6905000000" +
		"2900" +
		"2900" +
		"7300000000" +
		"7a0174" +
		"7a0166" +
		"7a0166" +
		"01000000" +
		"7300000000" +
		"7300000000"

	code := codeObjectFromHex(t, blob)

	blocks, err := Eval(code)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	block, ok := blocks[0]
	require.True(t, ok)
	require.Len(t, block.Body, 1)
	ret, ok := block.Body[0].(ReturnStatement)
	require.True(t, ok)
	require.Equal(t, ConstantExpr{Value: lift.ConstByIndex{Index: 0}}, ret.Expr)
	require.Equal(t, TerminatesFlow{}, block.ControlFlow)
}

// TestEvalIdentityFunction exercises a single-argument function that
// returns its own argument unchanged.
func TestEvalIdentityFunction(t *testing.T) {
	// argcount 1, stacksize 1; code: LOAD_FAST 0; RETURN_VALUE;
	// locals_plus: ("x",), locals_plus_kinds: [0x00] (plain local).
	blob := "63" +
		"01000000" + "00000000" + "00000000" + "01000000" + "00000000" +
		"7304000000" + "53002300" +
		"2900" +
		"2900" +
		"29017a0178" +
		"730100000000" +
		"7a0174" +
		"7a0166" +
		"7a0166" +
		"01000000" +
		"7300000000" +
		"7300000000"

	code := codeObjectFromHex(t, blob)

	blocks, err := Eval(code)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	block := blocks[0]
	require.Len(t, block.Body, 1)
	ret, ok := block.Body[0].(ReturnStatement)
	require.True(t, ok)
	require.Equal(t, LoadExpr{From: LocalPlace{Index: 0}}, ret.Expr)
}

// TestEvalTwoLevelClosure exercises a two-level closure: an outer function
// whose argument is captured as a cell, and a nested inner function,
// reached via MakeFunction over a nested code object, that reads it back
// as a free variable alongside its own local argument.
func TestEvalTwoLevelClosure(t *testing.T) {
	// Outer: argcount 1 ("x", stored as a cell); code: LOAD_CONST 0 (the
	// inner code object); MAKE_FUNCTION; RETURN_VALUE.
	// Inner: argcount 1 ("y", plain local; "x" captured at index 1, free);
	// code: LOAD_FAST 1 (x); LOAD_FAST 0 (y); BINARY_OP Add; RETURN_VALUE.
	blob := "63" +
		"01000000" + "00000000" + "00000000" + "01000000" + "00000000" +
		"7306000000" + "520017002300" +
		"2901" +
		"63" +
		"01000000" + "00000000" + "00000000" + "02000000" + "00000000" +
		"7308000000" + "530153002c002300" +
		"2900" +
		"2900" +
		"2902" + "7a0179" + "7a0178" +
		"7302000000" + "0080" +
		"7a0174" +
		"7a0167" +
		"7a0167" +
		"01000000" +
		"7300000000" +
		"7300000000" +
		"2900" +
		"29017a0178" +
		"7301000000" + "40" +
		"7a0174" +
		"7a0166" +
		"7a0166" +
		"01000000" +
		"7300000000" +
		"7300000000"

	outer := codeObjectFromHex(t, blob)

	blocks, err := Eval(outer)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	ret, ok := blocks[0].Body[0].(ReturnStatement)
	require.True(t, ok)
	makeFn, ok := ret.Expr.(MakeFunctionExpr)
	require.True(t, ok)
	require.Equal(t, ConstantExpr{Value: lift.ConstByIndex{Index: 0}}, makeFn.Operand)

	region := outer.Region()
	innerObj, err := region.Get(outer.Consts()[0])
	require.NoError(t, err)
	innerCtor, err := marshal.AsCode(innerObj)
	require.NoError(t, err)
	inner, err := innerCtor.Construct(region)
	require.NoError(t, err)

	innerBlocks, err := Eval(inner)
	require.NoError(t, err)
	require.Len(t, innerBlocks, 1)
	innerRet, ok := innerBlocks[0].Body[0].(ReturnStatement)
	require.True(t, ok)
	add, ok := innerRet.Expr.(BinaryOpExpr)
	require.True(t, ok)
	require.Equal(t, lift.BinAdd, add.Op)
	require.Equal(t, LoadExpr{From: CellPlace{Index: 1}}, add.Lhs)
	require.Equal(t, LoadExpr{From: LocalPlace{Index: 0}}, add.Rhs)
}

func TestEvalCopyOutOfBoundsErrors(t *testing.T) {
	ctx := &evalCtx{instrs: []lift.Instruction{
		lift.LoadConstInstr{Value: lift.ConstNone{}},
		lift.CopyInstr{N: 5},
		lift.ReturnInstr{},
	}}
	_, err := ctx.processBlock(blockBounds{start: 0, end: uint32(len(ctx.instrs))})
	require.Error(t, err)
	var evalErr *Error
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, StackOpOutOfBounds, evalErr.Kind)
}

func TestEvalSwapOutOfBoundsIsSilentNoOp(t *testing.T) {
	// Swap(5) on a one-deep stack has no valid partner index; unlike Copy
	// this must not error, it's a no-op, then the value loaded is returned
	// unchanged.
	ctx := &evalCtx{instrs: []lift.Instruction{
		lift.LoadConstInstr{Value: lift.ConstNone{}},
		lift.SwapInstr{N: 5},
		lift.ReturnInstr{},
	}}
	block, err := ctx.processBlock(blockBounds{start: 0, end: uint32(len(ctx.instrs))})
	require.NoError(t, err)
	require.Len(t, block.Body, 1)
	ret, ok := block.Body[0].(ReturnStatement)
	require.True(t, ok)
	require.Equal(t, ConstantExpr{Value: lift.ConstNone{}}, ret.Expr)
}

func TestEvalSwapZeroIsSilentNoOp(t *testing.T) {
	ctx := &evalCtx{instrs: []lift.Instruction{
		lift.LoadConstInstr{Value: lift.ConstNone{}},
		lift.SwapInstr{N: 0},
		lift.ReturnInstr{},
	}}
	block, err := ctx.processBlock(blockBounds{start: 0, end: uint32(len(ctx.instrs))})
	require.NoError(t, err)
	require.Len(t, block.Body, 1)
}

func TestEvalBlockWithNonEmptyStackErrors(t *testing.T) {
	ctx := &evalCtx{instrs: []lift.Instruction{
		lift.LoadConstInstr{Value: lift.ConstNone{}},
		lift.LoadConstInstr{Value: lift.ConstNone{}},
		lift.ReturnInstr{},
	}}
	_, err := ctx.processBlock(blockBounds{start: 0, end: uint32(len(ctx.instrs))})
	require.Error(t, err)
	var evalErr *Error
	require.ErrorAs(t, err, &evalErr)
	require.Equal(t, BlockWithNonEmptyStack, evalErr.Kind)
}

func TestEvalCallPopOrder(t *testing.T) {
	// func, receiver, arg0 pushed in that order; Call(1) should bind them
	// back up correctly rather than reversed.
	ctx := &evalCtx{instrs: []lift.Instruction{
		lift.LoadInstr{From: lift.NamePlace{Index: 0}},   // func
		lift.LoadInstr{From: lift.NamePlace{Index: 1}},   // receiver
		lift.LoadConstInstr{Value: lift.ConstNone{}},     // arg0
		lift.CallInstr{N: 1},
		lift.ReturnInstr{},
	}}
	block, err := ctx.processBlock(blockBounds{start: 0, end: uint32(len(ctx.instrs))})
	require.NoError(t, err)
	ret, ok := block.Body[0].(ReturnStatement)
	require.True(t, ok)
	call, ok := ret.Expr.(CallExpr)
	require.True(t, ok)
	require.Equal(t, LoadExpr{From: GlobalPlace{Index: 0}}, call.Func)
	require.Equal(t, LoadExpr{From: GlobalPlace{Index: 1}}, call.Receiver)
	require.Equal(t, []Expr{ConstantExpr{Value: lift.ConstNone{}}}, call.Args)
}

func TestEvalBinaryOpPopOrder(t *testing.T) {
	// Lhs is pushed first, Rhs second; BinaryOp must keep them in that
	// order rather than swapped.
	ctx := &evalCtx{instrs: []lift.Instruction{
		lift.LoadInstr{From: lift.NamePlace{Index: 0}}, // lhs
		lift.LoadInstr{From: lift.NamePlace{Index: 1}}, // rhs
		lift.BinaryOpInstr{Op: lift.BinSub},
		lift.ReturnInstr{},
	}}
	block, err := ctx.processBlock(blockBounds{start: 0, end: uint32(len(ctx.instrs))})
	require.NoError(t, err)
	ret := block.Body[0].(ReturnStatement)
	binop := ret.Expr.(BinaryOpExpr)
	require.Equal(t, LoadExpr{From: GlobalPlace{Index: 0}}, binop.Lhs)
	require.Equal(t, LoadExpr{From: GlobalPlace{Index: 1}}, binop.Rhs)
}
