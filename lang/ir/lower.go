package ir

import (
	"fmt"

	"github.com/mikeyobrien/tonic/lang/ast"
)

// builtinNames mirrors lang/resolver's and lang/typing's copy of the same
// canonical list (spec.md §4.5): the set of bare call names IR lowering
// resolves to Builtin{name} instead of Function{qualified_name}. See
// DESIGN.md for why each stage keeps its own copy rather than sharing one
// from lang/runtime (this package would otherwise need to import
// lang/runtime just for a name set, the same reasoning already accepted for
// lang/resolver and lang/typing).
var builtinNames = map[string]bool{
	"ok": true, "err": true, "tuple": true, "list": true, "map": true,
	"map_empty": true, "map_put": true, "map_update": true, "map_access": true,
	"keyword": true, "keyword_append": true, "host_call": true,
	"protocol_dispatch": true, "div": true, "rem": true,
	"byte_size": true, "bit_size": true,
	"is_int": true, "is_bool": true, "is_nil": true, "is_atom": true,
	"is_string": true, "is_list": true, "is_tuple": true, "is_map": true,
	"is_result": true, "is_closure": true,
}

// binaryOpNames maps ast.BinaryOp to the fixed IR mnemonic spec.md §4.5
// calls for, each naming an operator implemented in lang/runtime/ops.go
// (see BinaryOp's doc comment).
var binaryOpNames = map[ast.BinaryOp]string{
	ast.BinAdd: "add_int", ast.BinSub: "sub_int", ast.BinMul: "mul_int", ast.BinDiv: "div_int",
	ast.BinEq: "cmp_eq", ast.BinNeq: "cmp_neq", ast.BinLt: "cmp_lt", ast.BinLte: "cmp_lte",
	ast.BinGt: "cmp_gt", ast.BinGte: "cmp_gte",
	ast.BinConcat: "concat", ast.BinIn: "in", ast.BinNotIn: "not_in",
	ast.BinPlusPlus: "list_concat", ast.BinMinusMinus: "list_subtract", ast.BinRange: "make_range",
}

var shortCircuitKinds = map[ast.BinaryOp]string{
	ast.BinAndAnd: "and_and", ast.BinOrOr: "or_or", ast.BinAnd: "and", ast.BinOr: "or",
}

var unaryOpNames = map[ast.UnaryOp]string{
	ast.UnaryPlus: "pos_int", ast.UnaryMinus: "neg_int", ast.UnaryNot: "not",
	ast.UnaryBang: "bang", ast.UnaryBitwiseNot: "bitwise_not",
	ast.UnaryToString: "to_string", ast.UnaryRaise: "raise",
}

// Error reports a lowering failure (a construct the prior pipeline stages
// accepted but this lowerer cannot yet turn into ops), carrying the source
// offset of the offending node, matching original_source/src/ir.rs's
// LoweringError.
type Error struct {
	Message string
	Offset  int
}

func (e *Error) Error() string { return fmt.Sprintf("%s at offset %d", e.Message, e.Offset) }

func unsupported(kind string, offset int) error {
	return &Error{Message: fmt.Sprintf("unsupported expression for ir lowering: %s", kind), Offset: offset}
}

// Lower walks every module's every function and produces its stack IR
// (spec.md §4.5). The AST is assumed to have already passed the resolver and
// type inferencer; this pass does no validation of its own beyond what is
// needed to choose which op to emit.
func Lower(tree *ast.Ast) (*Program, error) {
	prog := &Program{}
	for _, mod := range tree.Modules {
		for _, fn := range mod.Functions {
			lowered, err := lowerFunction(mod.Name, fn)
			if err != nil {
				return nil, err
			}
			prog.Functions = append(prog.Functions, lowered)
		}
	}
	return prog, nil
}

func lowerFunction(module string, fn *ast.Function) (*Function, error) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
	}
	var ops []Op
	l := &lowerer{module: module}
	ops, err := l.expr(fn.Body)
	if err != nil {
		return nil, err
	}
	ops = append(ops, Return{})
	return &Function{Name: ast.QualifiedName(module, fn.Name), Params: params, Ops: ops}, nil
}

// lowerer carries the enclosing module name needed to qualify bare call
// targets (spec.md §4.3's "Module.fn" qualification rule).
type lowerer struct {
	module string
}

func (l *lowerer) block(e ast.Expr) ([]Op, error) {
	return l.expr(e)
}

func (l *lowerer) expr(e ast.Expr) ([]Op, error) {
	switch x := e.(type) {
	case *ast.IntExpr:
		return []Op{ConstInt{Value: x.Value}}, nil
	case *ast.FloatExpr:
		return []Op{ConstFloat{Value: x.Value}}, nil
	case *ast.BoolExpr:
		return []Op{ConstBool{Value: x.Value}}, nil
	case *ast.NilExpr:
		return []Op{ConstNil{}}, nil
	case *ast.StringExpr:
		return []Op{ConstString{Value: x.Value}}, nil
	case *ast.AtomExpr:
		return []Op{ConstAtom{Value: x.Value}}, nil
	case *ast.VariableExpr:
		return []Op{LoadVariable{Name: x.Name}}, nil
	case *ast.UnaryExpr:
		return l.unary(x)
	case *ast.BinaryExpr:
		return l.binary(x)
	case *ast.CallExpr:
		return l.call(x)
	case *ast.CallValueExpr:
		return l.callValue(x)
	case *ast.CaptureExpr:
		return l.capture(x)
	case *ast.PipeExpr:
		return l.pipe(x)
	case *ast.QuestionExpr:
		ops, err := l.expr(x.Value)
		if err != nil {
			return nil, err
		}
		return append(ops, Question{}), nil
	case *ast.CaseExpr:
		return l.caseExpr(x)
	case *ast.CondExpr:
		return l.condExpr(x)
	case *ast.FnExpr:
		return l.fnExpr(x)
	case *ast.CollectionExpr:
		return l.collection(x)
	case *ast.ForExpr:
		return l.forExpr(x)
	case *ast.TryExpr:
		return l.tryExpr(x)
	default:
		start, _ := e.Span()
		return nil, unsupported(fmt.Sprintf("%T", e), int(start))
	}
}

func (l *lowerer) unary(x *ast.UnaryExpr) ([]Op, error) {
	ops, err := l.expr(x.Value)
	if err != nil {
		return nil, err
	}
	return append(ops, UnaryOp{Name: unaryOpNames[x.Op]}), nil
}

func (l *lowerer) binary(x *ast.BinaryExpr) ([]Op, error) {
	if kind, ok := shortCircuitKinds[x.Op]; ok {
		left, err := l.expr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := l.expr(x.Right)
		if err != nil {
			return nil, err
		}
		return append(left, ShortCircuit{Kind: kind, RightOps: right}), nil
	}
	left, err := l.expr(x.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.expr(x.Right)
	if err != nil {
		return nil, err
	}
	ops := append(left, right...)
	return append(ops, BinaryOp{Name: binaryOpNames[x.Op]}), nil
}

// qualifyCallee resolves a bare callee to a builtin or a module-qualified
// function name, matching lang/resolver's same decision (spec.md §4.3/§4.5):
// a name already containing "." is a qualified call and is never treated as
// a builtin.
func (l *lowerer) qualifyCallee(callee string) CallTarget {
	if builtinNames[callee] {
		return CallTarget{Builtin: callee}
	}
	if containsDot(callee) {
		return CallTarget{Function: callee}
	}
	return CallTarget{Function: ast.QualifiedName(l.module, callee)}
}

func containsDot(s string) bool {
	for _, r := range s {
		if r == '.' {
			return true
		}
	}
	return false
}

func (l *lowerer) call(x *ast.CallExpr) ([]Op, error) {
	var ops []Op
	for _, arg := range x.Args {
		argOps, err := l.expr(arg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, argOps...)
	}
	return append(ops, Call{Callee: l.qualifyCallee(x.Callee), Argc: len(x.Args)}), nil
}

func (l *lowerer) callValue(x *ast.CallValueExpr) ([]Op, error) {
	calleeOps, err := l.expr(x.Callee)
	if err != nil {
		return nil, err
	}
	ops := append([]Op{}, calleeOps...)
	for _, arg := range x.Args {
		argOps, err := l.expr(arg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, argOps...)
	}
	return append(ops, CallValue{Argc: len(x.Args)}), nil
}

// capture lowers `&name/arity` into a MakeClosure that forwards its
// parameters to a Call of the named function, giving the capture a first-
// class closure value without a dedicated runtime "function reference"
// variant.
func (l *lowerer) capture(x *ast.CaptureExpr) ([]Op, error) {
	params := make([]string, x.Arity)
	var body []Op
	for i := 0; i < x.Arity; i++ {
		name := fmt.Sprintf("_capture_arg%d", i)
		params[i] = name
		body = append(body, LoadVariable{Name: name})
	}
	body = append(body, Call{Callee: l.qualifyCallee(x.Name), Argc: x.Arity})
	return []Op{MakeClosure{Params: params, Ops: body}}, nil
}

// pipe rewrites `left |> right` into a call with left prepended to right's
// argument list (spec.md §4.5); a pipe into anything but a bare call just
// lowers both sides and calls the right side as a closure value, matching
// lang/typing's same fallback for a non-call pipe target.
func (l *lowerer) pipe(x *ast.PipeExpr) ([]Op, error) {
	if call, ok := x.Right.(*ast.CallExpr); ok {
		rewritten := &ast.CallExpr{Base: call.Base, Callee: call.Callee, Args: append([]ast.Expr{x.Left}, call.Args...)}
		return l.call(rewritten)
	}
	calleeOps, err := l.expr(x.Right)
	if err != nil {
		return nil, err
	}
	leftOps, err := l.expr(x.Left)
	if err != nil {
		return nil, err
	}
	ops := append(append([]Op{}, calleeOps...), leftOps...)
	return append(ops, CallValue{Argc: 1}), nil
}

func (l *lowerer) branch(b ast.CaseBranch) (CaseBranch, error) {
	ops, err := l.expr(b.Body)
	if err != nil {
		return CaseBranch{}, err
	}
	var guardOps []Op
	if b.Guard != nil {
		guardOps, err = l.expr(b.Guard)
		if err != nil {
			return CaseBranch{}, err
		}
	}
	return CaseBranch{Pattern: b.Pattern, GuardOps: guardOps, Ops: ops}, nil
}

func (l *lowerer) caseExpr(x *ast.CaseExpr) ([]Op, error) {
	subjectOps, err := l.expr(x.Subject)
	if err != nil {
		return nil, err
	}
	branches := make([]CaseBranch, len(x.Branches))
	for i, b := range x.Branches {
		lowered, err := l.branch(b)
		if err != nil {
			return nil, err
		}
		branches[i] = lowered
	}
	return append(subjectOps, Case{Branches: branches}), nil
}

func (l *lowerer) condExpr(x *ast.CondExpr) ([]Op, error) {
	branches := make([]CondBranch, len(x.Branches))
	for i, b := range x.Branches {
		guardOps, err := l.expr(b.Guard)
		if err != nil {
			return nil, err
		}
		bodyOps, err := l.expr(b.Body)
		if err != nil {
			return nil, err
		}
		branches[i] = CondBranch{GuardOps: guardOps, Ops: bodyOps}
	}
	return []Op{Cond{Branches: branches}}, nil
}

func (l *lowerer) fnExpr(x *ast.FnExpr) ([]Op, error) {
	params := make([]string, len(x.Params))
	for i, p := range x.Params {
		params[i] = p.Name
	}
	body, err := l.expr(x.Body)
	if err != nil {
		return nil, err
	}
	return []Op{MakeClosure{Params: params, Ops: body}}, nil
}

func (l *lowerer) collection(x *ast.CollectionExpr) ([]Op, error) {
	var ops []Op
	switch x.Kind {
	case ast.CollectionTuple:
		for _, item := range x.Items {
			itemOps, err := l.expr(item)
			if err != nil {
				return nil, err
			}
			ops = append(ops, itemOps...)
		}
		return append(ops, Call{Callee: CallTarget{Builtin: "tuple"}, Argc: len(x.Items)}), nil
	case ast.CollectionList:
		for _, item := range x.Items {
			itemOps, err := l.expr(item)
			if err != nil {
				return nil, err
			}
			ops = append(ops, itemOps...)
		}
		return append(ops, Call{Callee: CallTarget{Builtin: "list"}, Argc: len(x.Items)}), nil
	case ast.CollectionMap:
		return l.collectionEntries(x.Entries, "map_empty", "map_put")
	case ast.CollectionKeyword:
		return l.collectionEntries(x.Entries, "", "keyword_append")
	default:
		start, _ := x.Span()
		return nil, unsupported("collection kind", int(start))
	}
}

// collectionEntries lowers Map/Keyword literals as a fold: an initial empty
// collection (map_empty for Map; the first entry's keyword builtin call for
// Keyword, which has no empty constructor) followed by one append/put call
// per remaining entry.
func (l *lowerer) collectionEntries(entries []ast.CollectionEntry, emptyBuiltin, appendBuiltin string) ([]Op, error) {
	var ops []Op
	start := 0
	if emptyBuiltin != "" {
		ops = append(ops, Call{Callee: CallTarget{Builtin: emptyBuiltin}, Argc: 0})
	} else if len(entries) > 0 {
		keyOps, err := l.expr(entries[0].Key)
		if err != nil {
			return nil, err
		}
		valueOps, err := l.expr(entries[0].Value)
		if err != nil {
			return nil, err
		}
		ops = append(ops, keyOps...)
		ops = append(ops, valueOps...)
		ops = append(ops, Call{Callee: CallTarget{Builtin: "keyword"}, Argc: 2})
		start = 1
	}
	for _, entry := range entries[start:] {
		keyOps, err := l.expr(entry.Key)
		if err != nil {
			return nil, err
		}
		valueOps, err := l.expr(entry.Value)
		if err != nil {
			return nil, err
		}
		ops = append(ops, keyOps...)
		ops = append(ops, valueOps...)
		ops = append(ops, Call{Callee: CallTarget{Builtin: appendBuiltin}, Argc: 3})
	}
	return ops, nil
}

func (l *lowerer) forExpr(x *ast.ForExpr) ([]Op, error) {
	generators := make([]ForGenerator, len(x.Generators))
	for i, g := range x.Generators {
		sourceOps, err := l.expr(g.Source)
		if err != nil {
			return nil, err
		}
		generators[i] = ForGenerator{Pattern: g.Pattern, SourceOps: sourceOps}
	}
	var guardOps []Op
	for _, filter := range x.Filters {
		ops, err := l.expr(filter)
		if err != nil {
			return nil, err
		}
		guardOps = append(guardOps, ops...)
	}
	bodyOps, err := l.expr(x.Body)
	if err != nil {
		return nil, err
	}
	var intoOps []Op
	if x.Into != nil {
		intoOps, err = l.expr(x.Into)
		if err != nil {
			return nil, err
		}
	}
	return []Op{For{Generators: generators, BodyOps: bodyOps, GuardOps: guardOps, IntoOps: intoOps}}, nil
}

func (l *lowerer) tryExpr(x *ast.TryExpr) ([]Op, error) {
	bodyOps, err := l.expr(x.Body)
	if err != nil {
		return nil, err
	}
	rescue := make([]CaseBranch, len(x.Rescue))
	for i, b := range x.Rescue {
		lowered, err := l.branch(b)
		if err != nil {
			return nil, err
		}
		rescue[i] = lowered
	}
	catch := make([]CaseBranch, len(x.Catch))
	for i, b := range x.Catch {
		lowered, err := l.branch(b)
		if err != nil {
			return nil, err
		}
		catch[i] = lowered
	}
	var afterOps []Op
	if x.After != nil {
		afterOps, err = l.expr(x.After)
		if err != nil {
			return nil, err
		}
	}
	return []Op{Try{BodyOps: bodyOps, Rescue: rescue, Catch: catch, AfterOps: afterOps}}, nil
}
