package mir

import (
	"fmt"

	"github.com/mikeyobrien/tonic/lang/ir"
)

// Error reports a lowering failure, matching lang/ir's Error shape and
// original_source/src/mir/lower.rs's MirLoweringError.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// binaryKindByName maps lang/ir's fixed binary mnemonics to MIR binary
// instruction kinds, the Go-side equivalent of
// original_source/src/mir/lower/ops.rs matching on IrOp::Binary variants
// directly; NotIn has no counterpart in the original's MirBinaryKind set
// since the original grammar lacks a `not in` operator.
var binaryKindByName = map[string]BinaryKind{
	"add_int": BinaryKindAddInt, "sub_int": BinaryKindSubInt,
	"mul_int": BinaryKindMulInt, "div_int": BinaryKindDivInt,
	"cmp_eq": BinaryKindCmpIntEq, "cmp_neq": BinaryKindCmpIntNeq,
	"cmp_lt": BinaryKindCmpIntLt, "cmp_lte": BinaryKindCmpIntLte,
	"cmp_gt": BinaryKindCmpIntGt, "cmp_gte": BinaryKindCmpIntGte,
	"concat": BinaryKindConcat, "in": BinaryKindIn, "not_in": BinaryKindNotIn,
	"list_concat": BinaryKindPlusPlus, "list_subtract": BinaryKindMinusMinus,
	"make_range": BinaryKindRange,
}

// unaryKindByName maps lang/ir's fixed unary mnemonics to MIR unary
// instruction kinds; pos_int/neg_int/bitwise_not have no counterpart in the
// original's MirUnaryKind since the original grammar lacks those operators.
var unaryKindByName = map[string]UnaryKind{
	"to_string": UnaryKindToString, "not": UnaryKindNot, "bang": UnaryKindBang,
	"raise": UnaryKindRaise, "pos_int": UnaryKindPosInt, "neg_int": UnaryKindNegInt,
	"bitwise_not": UnaryKindBitwiseNot,
}

// binaryResultType mirrors original_source/src/mir/lower/ops.rs's per-kind
// result type assignment: int-producing arithmetic keeps Int, comparisons
// and membership tests produce Bool, everything else (concat, list
// append/subtract, range construction) stays Dynamic since the static type
// system does not track element/collection shapes at this stage.
func binaryResultType(kind BinaryKind) Type {
	switch kind {
	case BinaryKindAddInt, BinaryKindSubInt, BinaryKindMulInt, BinaryKindDivInt:
		return TypeInt
	case BinaryKindCmpIntEq, BinaryKindCmpIntNeq, BinaryKindCmpIntLt, BinaryKindCmpIntLte,
		BinaryKindCmpIntGt, BinaryKindCmpIntGte, BinaryKindIn, BinaryKindNotIn:
		return TypeBool
	default:
		return TypeDynamic
	}
}

// unaryResultType mirrors the same source for unary kinds: to_string
// produces String, not/bang produce Bool, the three arithmetic/bitwise
// extensions stay Int, raise never returns (Dynamic, since the static type
// system has no bottom type here).
func unaryResultType(kind UnaryKind) Type {
	switch kind {
	case UnaryKindToString:
		return TypeString
	case UnaryKindNot, UnaryKindBang:
		return TypeBool
	case UnaryKindPosInt, UnaryKindNegInt, UnaryKindBitwiseNot:
		return TypeInt
	default:
		return TypeDynamic
	}
}

// inferCallType mirrors original_source/src/mir/lower/ops.rs's
// infer_call_type: a call to the "ok"/"err" builtins produces a Result,
// everything else (user functions, every other builtin) is Dynamic since
// this stage does not have access to the typing pass's inferred signatures.
func inferCallType(callee ir.CallTarget) Type {
	if callee.Builtin == "ok" || callee.Builtin == "err" {
		return TypeResult
	}
	return TypeDynamic
}

// stackValue is one value produced by a lowered op, tracked on the
// compile-time stack that lowerOps threads through a block.
type stackValue struct {
	id  ValueID
	typ Type
}

type blockBuilder struct {
	id           uint32
	args         []TypedName
	argValues    []ValueID
	instructions []Instruction
	terminator   Terminator
}

// Lower translates lang/ir's flat stack ops into MIR's block-structured CFG
// form (spec.md §4.6), faithfully porting
// original_source/src/mir/lower.rs's FunctionLowerer.
func Lower(prog *ir.Program) (*Program, error) {
	out := &Program{}
	for _, fn := range prog.Functions {
		lowered, err := lowerFunction(fn)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, lowered)
	}
	return out, nil
}

func lowerFunction(fn *ir.Function) (*Function, error) {
	l := &functionLowerer{name: fn.Name}
	params := make([]TypedName, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = TypedName{Name: p, Type: TypeDynamic}
	}
	l.params = params

	entry, _ := l.createBlockWithArgs(nil)
	l.entryBlock = entry

	_, stack, err := l.lowerOps(entry, nil, fn.Ops)
	if err != nil {
		return nil, err
	}
	if len(stack) != 0 {
		return nil, fail("unterminated MIR stack in function %s", fn.Name)
	}
	for _, b := range l.blocks {
		if b.terminator == nil {
			return nil, fail("block %d in function %s has no terminator", b.id, fn.Name)
		}
	}

	blocks := make([]*Block, len(l.blocks))
	for i, b := range l.blocks {
		blocks[i] = &Block{ID: b.id, Args: b.args, ArgValues: b.argValues, Instructions: b.instructions, Terminator: b.terminator}
	}
	return &Function{
		Name: fn.Name, Params: params, ParamPatterns: fn.ParamPatterns, GuardOps: fn.GuardOps,
		EntryBlock: l.entryBlock, Blocks: blocks,
	}, nil
}

// functionLowerer threads block construction and SSA value allocation while
// lowering one function's ops, matching
// original_source/src/mir/lower.rs's FunctionLowerer.
type functionLowerer struct {
	name       string
	params     []TypedName
	entryBlock uint32
	blocks     []*blockBuilder
	nextValue  ValueID
}

func (l *functionLowerer) allocValue() ValueID {
	v := l.nextValue
	l.nextValue++
	return v
}

// createBlockWithArgs appends a new block, auto-naming its parameters
// "b{id}_arg{index}" and allocating each a fresh SSA value id, returning
// the block id and the allocated argument value ids in order.
func (l *functionLowerer) createBlockWithArgs(argTypes []Type) (uint32, []ValueID) {
	id := uint32(len(l.blocks))
	args := make([]TypedName, len(argTypes))
	argValues := make([]ValueID, len(argTypes))
	for i, t := range argTypes {
		args[i] = TypedName{Name: fmt.Sprintf("b%d_arg%d", id, i), Type: t}
		argValues[i] = l.allocValue()
	}
	l.blocks = append(l.blocks, &blockBuilder{id: id, args: args, argValues: argValues})
	return id, argValues
}

func (l *functionLowerer) block(id uint32) *blockBuilder {
	return l.blocks[id]
}

func (l *functionLowerer) setTerminator(id uint32, t Terminator, what string) error {
	b := l.block(id)
	if b.terminator != nil {
		return fail("block %d already terminated while lowering %s", id, what)
	}
	b.terminator = t
	return nil
}

func (l *functionLowerer) emit(blockID uint32, instr Instruction) {
	b := l.block(blockID)
	b.instructions = append(b.instructions, instr)
}

func popStack(stack []stackValue, what string) ([]stackValue, stackValue, error) {
	if len(stack) == 0 {
		return nil, stackValue{}, fail("stack underflow while lowering %s", what)
	}
	last := stack[len(stack)-1]
	return stack[:len(stack)-1], last, nil
}

func popN(stack []stackValue, n int, what string) ([]stackValue, []stackValue, error) {
	if len(stack) < n {
		return nil, nil, fail("stack underflow while lowering %s", what)
	}
	split := len(stack) - n
	rest := make([]stackValue, n)
	copy(rest, stack[split:])
	return stack[:split], rest, nil
}

// lowerOps lowers a flat op sequence into the current block, branching into
// fresh blocks for Case/Cond/ShortCircuit and continuing in whichever block
// control flow merges back into. Returns the block lowering ended in and the
// live compile-time value stack, mirroring
// original_source/src/mir/lower.rs's lower_ops.
func (l *functionLowerer) lowerOps(blockID uint32, stack []stackValue, ops []ir.Op) (uint32, []stackValue, error) {
	for _, op := range ops {
		switch x := op.(type) {
		case ir.Return:
			stack2, v, err := popStack(stack, "return")
			if err != nil {
				return 0, nil, err
			}
			if err := l.setTerminator(blockID, Return{Value: v.id}, "return"); err != nil {
				return 0, nil, err
			}
			stack = stack2
		case ir.Case:
			var err error
			blockID, stack, err = l.lowerCase(blockID, stack, x)
			if err != nil {
				return 0, nil, err
			}
		case ir.Cond:
			var err error
			blockID, stack, err = l.lowerCond(blockID, stack, x)
			if err != nil {
				return 0, nil, err
			}
		case ir.ShortCircuit:
			var err error
			blockID, stack, err = l.lowerShortCircuit(blockID, stack, x)
			if err != nil {
				return 0, nil, err
			}
		default:
			var err error
			stack, err = l.lowerLinearOp(blockID, stack, op)
			if err != nil {
				return 0, nil, err
			}
		}
	}
	return blockID, stack, nil
}

// lowerCase lowers a Case op into a Match terminator: one block per branch
// body plus a shared merge block taking the case's result as a single
// Dynamic-typed argument, per original_source/src/mir/lower.rs's lower_case.
func (l *functionLowerer) lowerCase(blockID uint32, stack []stackValue, x ir.Case) (uint32, []stackValue, error) {
	stack, scrutinee, err := popStack(stack, "case")
	if err != nil {
		return 0, nil, err
	}
	merge, mergeArgs := l.createBlockWithArgs([]Type{TypeDynamic})

	arms := make([]MatchArm, len(x.Branches))
	for i, branch := range x.Branches {
		bodyBlock, _ := l.createBlockWithArgs(nil)
		arms[i] = MatchArm{Pattern: branch.Pattern, GuardOps: branch.GuardOps, Target: bodyBlock}

		bodyEnd, bodyStack, err := l.lowerOps(bodyBlock, nil, branch.Ops)
		if err != nil {
			return 0, nil, err
		}
		_, result, err := popStack(bodyStack, "case branch")
		if err != nil {
			return 0, nil, err
		}
		if err := l.setTerminator(bodyEnd, Jump{Target: merge, Args: []ValueID{result.id}}, "case branch"); err != nil {
			return 0, nil, err
		}
	}
	if err := l.setTerminator(blockID, Match{Scrutinee: scrutinee.id, Arms: arms}, "case"); err != nil {
		return 0, nil, err
	}

	return merge, append(stack, stackValue{id: mergeArgs[0], typ: TypeDynamic}), nil
}

// lowerCond lowers a Cond op using a Branch terminator per guard, the
// divergence documented in mir.go and DESIGN.md since Cond is not part of
// the ported original pipeline. Each guard's ops run in their own block;
// on true, control jumps to that branch's body block, on false it falls
// through to the next guard's block (allocated after the current branch's
// body has been lowered), or, for the last branch, reuses its own body block as the
// false target, relying on cond's conventional `true -> ...` catch-all
// final branch.
func (l *functionLowerer) lowerCond(blockID uint32, stack []stackValue, x ir.Cond) (uint32, []stackValue, error) {
	merge, mergeArgs := l.createBlockWithArgs([]Type{TypeDynamic})
	current := blockID

	for i, branch := range x.Branches {
		guardEnd, guardStack, err := l.lowerOps(current, nil, branch.GuardOps)
		if err != nil {
			return 0, nil, err
		}
		_, cond, err := popStack(guardStack, "cond guard")
		if err != nil {
			return 0, nil, err
		}

		bodyBlock, _ := l.createBlockWithArgs(nil)
		bodyEnd, bodyStack, err := l.lowerOps(bodyBlock, nil, branch.Ops)
		if err != nil {
			return 0, nil, err
		}
		_, result, err := popStack(bodyStack, "cond branch")
		if err != nil {
			return 0, nil, err
		}
		if err := l.setTerminator(bodyEnd, Jump{Target: merge, Args: []ValueID{result.id}}, "cond branch"); err != nil {
			return 0, nil, err
		}

		falseTarget := bodyBlock
		if i+1 < len(x.Branches) {
			falseTarget, _ = l.createBlockWithArgs(nil)
		}
		if err := l.setTerminator(guardEnd, Branch{Condition: cond.id, OnTrue: bodyBlock, OnFalse: falseTarget}, "cond guard"); err != nil {
			return 0, nil, err
		}
		current = falseTarget
	}

	return merge, append(stack, stackValue{id: mergeArgs[0], typ: TypeDynamic}), nil
}

// lowerShortCircuit lowers a ShortCircuit op into a ShortCircuit terminator,
// per original_source/src/mir/lower.rs's lower_short_circuit: the left
// value is already on the stack, the right ops lower into a fresh block,
// and a short-circuit block threads the left value straight to the merge
// without evaluating the right side.
func (l *functionLowerer) lowerShortCircuit(blockID uint32, stack []stackValue, x ir.ShortCircuit) (uint32, []stackValue, error) {
	stack, left, err := popStack(stack, "short circuit")
	if err != nil {
		return 0, nil, err
	}
	merge, mergeArgs := l.createBlockWithArgs([]Type{TypeBool})
	rhsBlock, _ := l.createBlockWithArgs(nil)
	shortBlock, _ := l.createBlockWithArgs(nil)

	if err := l.setTerminator(shortBlock, Jump{Target: merge, Args: []ValueID{left.id}}, "short circuit"); err != nil {
		return 0, nil, err
	}

	rhsEnd, rhsStack, err := l.lowerOps(rhsBlock, nil, x.RightOps)
	if err != nil {
		return 0, nil, err
	}
	_, rhsResult, err := popStack(rhsStack, "short circuit rhs")
	if err != nil {
		return 0, nil, err
	}
	if err := l.setTerminator(rhsEnd, Jump{Target: merge, Args: []ValueID{rhsResult.id}}, "short circuit rhs"); err != nil {
		return 0, nil, err
	}

	var op ShortCircuitOp
	switch x.Kind {
	case "and_and":
		op = ShortCircuitAndAnd
	case "or_or":
		op = ShortCircuitOrOr
	case "and":
		op = ShortCircuitAnd
	case "or":
		op = ShortCircuitOr
	default:
		return 0, nil, fail("unknown short circuit kind %q", x.Kind)
	}
	if err := l.setTerminator(blockID, ShortCircuit{
		Op: op, Condition: left.id, OnEvaluateRHS: rhsBlock, OnShortCircuit: shortBlock,
	}, "short circuit"); err != nil {
		return 0, nil, err
	}

	return merge, append(stack, stackValue{id: mergeArgs[0], typ: TypeBool}), nil
}

// lowerLinearOp translates every IR op that does not itself branch,
// porting original_source/src/mir/lower/ops.rs's lower_linear_op
// exhaustively over lang/ir's concrete Op catalog.
func (l *functionLowerer) lowerLinearOp(blockID uint32, stack []stackValue, op ir.Op) ([]stackValue, error) {
	switch x := op.(type) {
	case ir.ConstInt:
		d := l.allocValue()
		l.emit(blockID, ConstInt{Dest: d, Value: x.Value})
		return append(stack, stackValue{id: d, typ: TypeInt}), nil
	case ir.ConstFloat:
		d := l.allocValue()
		l.emit(blockID, ConstFloat{Dest: d, Value: x.Value})
		return append(stack, stackValue{id: d, typ: TypeFloat}), nil
	case ir.ConstBool:
		d := l.allocValue()
		l.emit(blockID, ConstBool{Dest: d, Value: x.Value})
		return append(stack, stackValue{id: d, typ: TypeBool}), nil
	case ir.ConstNil:
		d := l.allocValue()
		l.emit(blockID, ConstNil{Dest: d})
		return append(stack, stackValue{id: d, typ: TypeNil}), nil
	case ir.ConstString:
		d := l.allocValue()
		l.emit(blockID, ConstString{Dest: d, Value: x.Value})
		return append(stack, stackValue{id: d, typ: TypeString}), nil
	case ir.ConstAtom:
		d := l.allocValue()
		l.emit(blockID, ConstAtom{Dest: d, Value: x.Value})
		return append(stack, stackValue{id: d, typ: TypeAtom}), nil
	case ir.LoadVariable:
		d := l.allocValue()
		l.emit(blockID, LoadVariable{Dest: d, Name: x.Name})
		return append(stack, stackValue{id: d, typ: TypeDynamic}), nil
	case ir.UnaryOp:
		stack2, input, err := popStack(stack, "unary")
		if err != nil {
			return nil, err
		}
		kind, ok := unaryKindByName[x.Name]
		if !ok {
			return nil, fail("unknown unary op %q", x.Name)
		}
		d := l.allocValue()
		resultType := unaryResultType(kind)
		l.emit(blockID, Unary{Dest: d, Kind: kind, Input: input.id, ValueType: resultType})
		return append(stack2, stackValue{id: d, typ: resultType}), nil
	case ir.BinaryOp:
		stack2, pair, err := popN(stack, 2, "binary")
		if err != nil {
			return nil, err
		}
		kind, ok := binaryKindByName[x.Name]
		if !ok {
			return nil, fail("unknown binary op %q", x.Name)
		}
		d := l.allocValue()
		resultType := binaryResultType(kind)
		l.emit(blockID, Binary{Dest: d, Kind: kind, Left: pair[0].id, Right: pair[1].id, ValueType: resultType})
		return append(stack2, stackValue{id: d, typ: resultType}), nil
	case ir.Call:
		stack2, args, err := popN(stack, x.Argc, "call")
		if err != nil {
			return nil, err
		}
		argIDs := make([]ValueID, len(args))
		for i, a := range args {
			argIDs[i] = a.id
		}
		d := l.allocValue()
		resultType := inferCallType(x.Callee)
		l.emit(blockID, Call{Dest: d, Callee: x.Callee, Args: argIDs, ValueType: resultType})
		return append(stack2, stackValue{id: d, typ: resultType}), nil
	case ir.CallValue:
		stack2, args, err := popN(stack, x.Argc, "call_value")
		if err != nil {
			return nil, err
		}
		stack2, callee, err := popStack(stack2, "call_value")
		if err != nil {
			return nil, err
		}
		argIDs := make([]ValueID, len(args))
		for i, a := range args {
			argIDs[i] = a.id
		}
		d := l.allocValue()
		l.emit(blockID, CallValue{Dest: d, Callee: callee.id, Args: argIDs})
		return append(stack2, stackValue{id: d, typ: TypeDynamic}), nil
	case ir.MakeClosure:
		d := l.allocValue()
		l.emit(blockID, MakeClosure{Dest: d, Params: x.Params, Ops: x.Ops})
		return append(stack, stackValue{id: d, typ: TypeClosure}), nil
	case ir.Question:
		stack2, input, err := popStack(stack, "question")
		if err != nil {
			return nil, err
		}
		d := l.allocValue()
		l.emit(blockID, Question{Dest: d, Input: input.id})
		return append(stack2, stackValue{id: d, typ: TypeDynamic}), nil
	case ir.Try:
		d := l.allocValue()
		l.emit(blockID, Legacy{Dest: d, Source: x})
		return append(stack, stackValue{id: d, typ: TypeDynamic}), nil
	case ir.For:
		d := l.allocValue()
		l.emit(blockID, Legacy{Dest: d, Source: x})
		return append(stack, stackValue{id: d, typ: TypeDynamic}), nil
	default:
		return nil, fail("unsupported op for mir lowering: %T", op)
	}
}
