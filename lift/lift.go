package lift

import "golang.org/x/exp/slices"

// Lift converts a code object's raw (opcode, arg) byte pairs into a typed,
// version-agnostic instruction list. Jump targets in the returned
// instructions are indices into the returned slice, not byte offsets or
// opcode-pair offsets into code.
//
// The opcode numbers below are specific to one CPython bytecode revision
// and are deliberately left as magic numbers rather than named constants:
// naming them would suggest a stability they don't have across versions,
// and the numbers themselves are the only thing this function depends on.
func Lift(code []byte) ([]Instruction, error) {
	if len(code)%2 != 0 {
		return nil, ErrOddLengthCode
	}

	var out []Instruction
	var mapping []uint32

	var argExtension uint32
	var instructionCount uint32

	push := func(instr Instruction) {
		out = append(out, instr)
		mapping = append(mapping, instructionCount)
	}
	extendArg := func(base uint8) uint32 {
		v := uint32(base) + argExtension
		argExtension = 0
		return v
	}

	for i := 0; i < len(code); i += 2 {
		op, arg := code[i], code[i+1]

		switch op {
		// Load consts
		case 82:
			push(LoadConstInstr{Value: ConstByIndex{Index: extendArg(arg)}})
		case 94:
			n := extendArg(arg)
			if n > 255 {
				return nil, &Error{Kind: SmallIntTooLarge, Operand: n}
			}
			push(LoadConstInstr{Value: ConstSmallInt{Value: arg}})
		case 33:
			argExtension = 0
			push(LoadConstInstr{Value: ConstNull{}})

		// Loads
		case 92:
			push(LoadConstInstr{Value: ConstNull{}})
			push(LoadInstr{From: GlobalPlace{Index: extendArg(arg) >> 1}})
		case 83, 84, 85, 86, 88:
			push(LoadInstr{From: LocalPlace{Index: extendArg(arg)}})
		case 87, 89:
			a := extendArg(arg)
			push(LoadInstr{From: LocalPlace{Index: a >> 4}})
			push(LoadInstr{From: LocalPlace{Index: a & 15}})
		case 93:
			push(LoadInstr{From: NamePlace{Index: extendArg(arg)}})

		// Stores
		case 112:
			push(StoreInstr{Into: LocalPlace{Index: extendArg(arg)}})
		case 115:
			push(StoreInstr{Into: GlobalPlace{Index: extendArg(arg)}})
		case 114:
			a := extendArg(arg)
			push(StoreInstr{Into: LocalPlace{Index: a >> 4}})
			push(StoreInstr{Into: LocalPlace{Index: a * 15}})
		case 116:
			push(StoreInstr{Into: NamePlace{Index: extendArg(arg)}})

		// Paired load + store
		case 113:
			a := extendArg(arg)
			push(StoreInstr{Into: LocalPlace{Index: a >> 4}})
			push(LoadInstr{From: LocalPlace{Index: a & 15}})

		// Pops
		case 9, 30, 31:
			argExtension = 0
			push(PopInstr{})

		// Copy / Swap
		case 59:
			push(CopyInstr{N: extendArg(arg)})
		case 117:
			push(SwapInstr{N: extendArg(arg)})

		// Binary ops
		case 44:
			n := extendArg(arg)
			binOp, err := decodeBinOp(n)
			if err != nil {
				return nil, err
			}
			push(BinaryOpInstr{Op: binOp})

		// Comparison ops
		case 56:
			a := extendArg(arg)
			cmpOp, err := decodeCompareOp(a >> 5)
			if err != nil {
				return nil, err
			}
			push(BinaryOpInstr{Op: cmpOp})
			if a&16 != 0 {
				push(CoercionInstr{Op: CoerceBool})
			}

		// Is op
		case 74:
			argExtension = 0
			push(BinaryOpInstr{Op: BinIs})

		// Unary ops
		case 41:
			argExtension = 0
			push(UnaryOpInstr{Op: UnaryNegative})
		case 42:
			argExtension = 0
			push(UnaryOpInstr{Op: UnaryLogicalNot})
		case 40:
			argExtension = 0
			push(UnaryOpInstr{Op: UnaryInvert})

		// Jumps
		case 100:
			target := instructionCount + 2 + extendArg(arg)
			if int(target) >= len(code)/2 {
				return nil, &Error{Kind: JumpPastEnd, Operand: target}
			}
			push(JumpInstr{Class: JumpIfFalse, Target: target})
		case 101:
			target := instructionCount + 2 + extendArg(arg)
			if int(target) >= len(code)/2 {
				return nil, &Error{Kind: JumpPastEnd, Operand: target}
			}
			push(LoadConstInstr{Value: ConstNone{}})
			push(BinaryOpInstr{Op: BinIs})
			push(UnaryOpInstr{Op: UnaryLogicalNot})
			push(JumpInstr{Class: JumpIfFalse, Target: target})
		case 102:
			target := instructionCount + 2 + extendArg(arg)
			if int(target) >= len(code)/2 {
				return nil, &Error{Kind: JumpPastEnd, Operand: target}
			}
			push(LoadConstInstr{Value: ConstNone{}})
			push(BinaryOpInstr{Op: BinIs})
			push(JumpInstr{Class: JumpIfFalse, Target: target})
		case 103:
			target := instructionCount + 2 + extendArg(arg)
			if int(target) >= len(code)/2 {
				return nil, &Error{Kind: JumpPastEnd, Operand: target}
			}
			push(UnaryOpInstr{Op: UnaryLogicalNot})
			push(JumpInstr{Class: JumpIfFalse, Target: target})
		case 77:
			target := instructionCount + 1 + extendArg(arg)
			if int(target) >= len(code)/2 {
				return nil, &Error{Kind: JumpPastEnd, Operand: target}
			}
			push(JumpInstr{Class: JumpAlways, Target: target})
		case 75:
			a := extendArg(arg)
			if a > instructionCount+1 {
				return nil, &Error{Kind: JumpBeforeStart, Operand: a - instructionCount - 1}
			}
			target := instructionCount + 1 - a
			push(JumpInstr{Class: JumpAlways, Target: target})

		// Call
		case 52:
			push(CallInstr{N: extendArg(arg)})

		// Return
		case 35:
			argExtension = 0
			push(ReturnInstr{})

		// Coercions
		case 39:
			argExtension = 0
			push(CoercionInstr{Op: CoerceBool})
		case 16:
			argExtension = 0
			push(CoercionInstr{Op: CoerceIter})
		case 71:
			argExtension = 0
			push(CoercionInstr{Op: CoerceAwaitable})
		case 14:
			argExtension = 0
			push(CoercionInstr{Op: CoerceAsyncIter})

		// Make function
		case 23:
			argExtension = 0
			push(MakeFunctionInstr{})

		// Extend args
		case 69:
			if argExtension > (1<<24)-1 {
				return nil, &Error{Kind: ArgExtendWouldOverflow, Operand: argExtension}
			}
			argExtension += uint32(arg)
			argExtension <<= 8

		// NOPs
		case 27, 0, 128, 28:
			argExtension = 0

		default:
			return nil, &Error{Kind: NotYetImplementedInstruction, Operand: uint32(op)}
		}

		instructionCount++
	}

	if err := patchJumpTargets(out, mapping); err != nil {
		return nil, err
	}
	return out, nil
}

// patchJumpTargets rewrites each JumpInstr's Target from an absolute
// position in the original instruction-pair stream into an index into out,
// using mapping (which records, for each emitted Instruction, the original
// instruction_count it came from) to translate between the two spaces.
func patchJumpTargets(out []Instruction, mapping []uint32) error {
	for i, instr := range out {
		jmp, ok := instr.(JumpInstr)
		if !ok {
			continue
		}
		newTarget, _ := slices.BinarySearchFunc(mapping, jmp.Target, func(a, b uint32) int {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			default:
				return 0
			}
		})
		if newTarget == len(mapping) {
			panic("lift: jump target patching found an out-of-bounds target, which indicates a bug in Lift")
		}
		jmp.Target = uint32(newTarget)
		out[i] = jmp
	}
	return nil
}

func decodeBinOp(n uint32) (BinOp, error) {
	switch n {
	case 0:
		return BinAdd, nil
	case 1:
		return BinAnd, nil
	case 2:
		return BinFloorDiv, nil
	case 3:
		return BinLShift, nil
	case 4:
		return BinMatMul, nil
	case 5:
		return BinMul, nil
	case 6:
		return BinRemainder, nil
	case 7:
		return BinOr, nil
	case 8:
		return BinPower, nil
	case 9:
		return BinRShift, nil
	case 10:
		return BinSub, nil
	case 11:
		return BinDiv, nil
	case 12:
		return BinXor, nil
	case 13:
		return BinInplaceAdd, nil
	case 14:
		return BinInplaceAnd, nil
	case 15:
		return BinInplaceFloorDiv, nil
	case 16:
		return BinInplaceLShift, nil
	case 17:
		return BinInplaceMatMul, nil
	case 18:
		return BinInplaceMul, nil
	case 19:
		return BinInplaceRemainder, nil
	case 20:
		return BinInplaceOr, nil
	case 21:
		return BinInplacePower, nil
	case 22:
		return BinInplaceRShift, nil
	case 23:
		return BinInplaceSub, nil
	case 24:
		return BinInplaceDiv, nil
	case 25:
		return BinInplaceXor, nil
	case 26:
		return BinSubscript, nil
	}
	return 0, &Error{Kind: OutOfBoundsBinOp, Operand: n}
}

func decodeCompareOp(n uint32) (BinOp, error) {
	switch n {
	case 0:
		return BinLt, nil
	case 1:
		return BinLtEq, nil
	case 2:
		return BinEq, nil
	case 3:
		return BinNe, nil
	case 4:
		return BinGt, nil
	case 5:
		return BinGtEq, nil
	}
	return 0, &Error{Kind: OutOfBoundsCompareOp, Operand: n}
}
