package interp

import (
	"sort"

	"github.com/leastinformednerd/cpybc/lift"
	"github.com/leastinformednerd/cpybc/marshal"
)

// Eval lifts code's raw bytecode and abstractly interprets it into a
// control flow graph, keyed by each block's first instruction index.
func Eval(code marshal.CodeObject) (map[uint32]Block, error) {
	instrs, err := lift.Lift(code.Code())
	if err != nil {
		return nil, &Error{Kind: ParseError, Err: err}
	}

	ctx := &evalCtx{
		instrs: instrs,
		code:   code,
		cache:  NewPlaceCache(),
	}

	blocks := make(map[uint32]Block, len(ctx.blockBounds()))
	for _, bounds := range ctx.blockBounds() {
		block, err := ctx.processBlock(bounds)
		if err != nil {
			return nil, err
		}
		blocks[bounds.start] = block
	}
	return blocks, nil
}

type evalCtx struct {
	instrs []lift.Instruction
	code   marshal.CodeObject
	cache  *PlaceCache

	stack []Expr
}

type blockBounds struct{ start, end uint32 }

// blockBounds computes every block boundary: position 0, the end of the
// instruction stream, and the position right after every jump/return plus
// every jump's target. The resulting sorted boundary set is reduced into
// half-open [start,end) ranges.
func (c *evalCtx) blockBounds() []blockBounds {
	set := map[uint32]struct{}{0: {}, uint32(len(c.instrs)): {}}
	for i, instr := range c.instrs {
		switch in := instr.(type) {
		case lift.JumpInstr:
			set[in.Target] = struct{}{}
			set[uint32(i)+1] = struct{}{}
		case lift.ReturnInstr:
			set[uint32(i)+1] = struct{}{}
		}
	}

	positions := make([]uint32, 0, len(set))
	for p := range set {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	bounds := make([]blockBounds, 0, len(positions))
	for i := 0; i+1 < len(positions); i++ {
		bounds = append(bounds, blockBounds{start: positions[i], end: positions[i+1]})
	}
	return bounds
}

// processBlock symbolically evaluates one block's instructions against a
// fresh virtual stack, which must end empty, then synthesizes the block's
// terminator from its last statement.
func (c *evalCtx) processBlock(bounds blockBounds) (Block, error) {
	c.stack = c.stack[:0]
	var body []Statement

	for _, instr := range c.instrs[bounds.start:bounds.end] {
		switch in := instr.(type) {
		case lift.LoadConstInstr:
			c.push(ConstantExpr{Value: in.Value})

		case lift.LoadInstr:
			place, err := EvalPlace(c.code, in.From, c.cache)
			if err != nil {
				return Block{}, err
			}
			c.push(LoadExpr{From: place})

		case lift.StoreInstr:
			expr, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			place, err := EvalPlace(c.code, in.Into, c.cache)
			if err != nil {
				return Block{}, err
			}
			body = append(body, StoreStatement{Expr: expr, Into: place})

		case lift.PopInstr:
			expr, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			body = append(body, TrivialStatement{Expr: expr})

		case lift.CopyInstr:
			idx := len(c.stack) - 1 - int(in.N)
			if idx < 0 {
				return Block{}, &Error{Kind: StackOpOutOfBounds, Operand: in.N}
			}
			c.push(c.stack[idx])

		case lift.SwapInstr:
			// A Swap whose index is zero or out of bounds is a silent no-op,
			// not an error: this asymmetry with Copy is intentional.
			if in.N == 0 {
				continue
			}
			top := len(c.stack) - 1
			other := top - int(in.N)
			if other < 0 {
				continue
			}
			c.stack[top], c.stack[other] = c.stack[other], c.stack[top]

		case lift.UnaryOpInstr:
			operand, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			c.push(UnaryOpExpr{Op: in.Op, Operand: operand})

		case lift.BinaryOpInstr:
			rhs, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			lhs, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			c.push(BinaryOpExpr{Op: in.Op, Lhs: lhs, Rhs: rhs})

		case lift.CoercionInstr:
			operand, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			c.push(CoercionExpr{Op: in.Op, Operand: operand})

		case lift.MakeFunctionInstr:
			operand, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			c.push(MakeFunctionExpr{Operand: operand})

		case lift.CallInstr:
			args := make([]Expr, in.N)
			for i := int(in.N) - 1; i >= 0; i-- {
				arg, err := c.pop()
				if err != nil {
					return Block{}, err
				}
				args[i] = arg
			}
			receiver, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			fn, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			c.push(CallExpr{Func: fn, Receiver: receiver, Args: args})

		case lift.JumpInstr:
			if in.Class == lift.JumpIfFalse {
				expr, err := c.pop()
				if err != nil {
					return Block{}, err
				}
				body = append(body, IfStatement{Expr: expr, Target: in.Target})
			} else {
				body = append(body, JumpStatement{Target: in.Target})
			}

		case lift.ReturnInstr:
			expr, err := c.pop()
			if err != nil {
				return Block{}, err
			}
			body = append(body, ReturnStatement{Expr: expr})
		}
	}

	if len(c.stack) != 0 {
		return Block{}, &Error{Kind: BlockWithNonEmptyStack}
	}

	body, flow := c.terminatorFor(body, bounds)
	return Block{Body: body, ControlFlow: flow}, nil
}

// terminatorFor inspects the last statement of a block to decide its
// control flow, returning body with that last statement stripped when it
// was consumed into the terminator. Return always terminates. An If or
// Jump statement is consumed into the matching terminator. Anything else,
// including an empty body, falls through: to the next block if there is
// one, or Terminates if this is the last block in the stream.
func (c *evalCtx) terminatorFor(body []Statement, bounds blockBounds) ([]Statement, ControlFlow) {
	if len(body) == 0 {
		return body, fallthroughFlow(bounds, len(c.instrs))
	}
	switch last := body[len(body)-1].(type) {
	case ReturnStatement:
		return body, TerminatesFlow{}
	case IfStatement:
		return body[:len(body)-1], ConditionalJumpFlow{IfTrue: bounds.end, IfFalse: last.Target, Expr: last.Expr}
	case JumpStatement:
		return body[:len(body)-1], UnconditionalFlow{Target: last.Target}
	default:
		return body, fallthroughFlow(bounds, len(c.instrs))
	}
}

func fallthroughFlow(bounds blockBounds, total int) ControlFlow {
	if int(bounds.end) == total {
		return TerminatesFlow{}
	}
	return UnconditionalFlow{Target: bounds.end}
}

func (c *evalCtx) push(e Expr) { c.stack = append(c.stack, e) }

func (c *evalCtx) pop() (Expr, error) {
	if len(c.stack) == 0 {
		return nil, &Error{Kind: PoppedEmptyStack}
	}
	last := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return last, nil
}
