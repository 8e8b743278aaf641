package typing

import (
	"fmt"
	"strings"

	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/diag"
	"github.com/mikeyobrien/tonic/lang/token"
)

// env is a lexical chain of name->Type bindings, mirroring lang/resolver's
// scope but carrying a Type instead of a presence flag: function parameters,
// fn-literal parameters and pattern-introduced names all bind here.
type env struct {
	parent *env
	vars   map[string]Type
}

func newEnv(parent *env) *env {
	return &env{parent: parent, vars: make(map[string]Type)}
}

func (e *env) bind(name string, t Type) { e.vars[name] = t }

func (e *env) lookup(name string) (Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

// Infer runs spec.md §4.4's inference pass over every function of tree,
// returning a Summary of finalized signatures or the first diagnostic
// encountered. Inference stops at the first error, matching
// original_source/src/typing.rs's `?`-propagating control flow rather than
// lang/resolver's collect-every-error style: a type error in one function
// can invalidate the fresh variables any later function's inference would
// otherwise reuse, so there is no well-defined way to keep going.
func Infer(tree *ast.Ast) (*Summary, error) {
	s := newSolver()
	sigs := make(map[string]*signature)

	for _, mod := range tree.Modules {
		for _, fn := range mod.Functions {
			sigs[ast.QualifiedName(mod.Name, fn.Name)] = &signature{
				params: paramTypes(s, fn.Params),
				ret:    s.fresh(),
			}
		}
	}

	inf := &inferencer{solver: s, sigs: sigs}

	for _, mod := range tree.Modules {
		for _, fn := range mod.Functions {
			if err := inf.function(mod.Name, fn); err != nil {
				return nil, err
			}
		}
	}

	out := make(map[string]string, len(sigs))
	for name, sig := range sigs {
		out[name] = sig.render(s)
	}
	return &Summary{signatures: out}, nil
}

// paramTypes allocates one type per parameter: the annotated concrete type
// if present (spec.md §4.2's `name: int` / `name: dynamic`), otherwise a
// fresh type variable.
func paramTypes(s *solver, params []ast.Param) []Type {
	out := make([]Type, len(params))
	for i, p := range params {
		switch p.TypeAnnotation {
		case ast.AnnotationInt:
			out[i] = typeInt
		case ast.AnnotationDynamic:
			out[i] = typeDynamic
		default:
			out[i] = s.fresh()
		}
	}
	return out
}

type inferencer struct {
	solver *solver
	sigs   map[string]*signature
}

func (inf *inferencer) function(module string, fn *ast.Function) error {
	sig := inf.sigs[ast.QualifiedName(module, fn.Name)]
	top := newEnv(nil)

	for _, p := range fn.Params {
		if p.Default != nil {
			if _, err := inf.expr(module, top, p.Default); err != nil {
				return err
			}
		}
	}
	for i, p := range fn.Params {
		top.bind(p.Name, sig.params[i])
	}

	bodyType, err := inf.expr(module, top, fn.Body)
	if err != nil {
		return err
	}
	if !inf.solver.unify(sig.ret, bodyType) {
		return inf.mismatch(sig.ret, bodyType, fn.Body)
	}
	return nil
}

// mismatch renders an E2001 diagnostic (spec.md §4.4): "type mismatch:
// expected <t>, found <t> at offset N", with the offset baked into the
// message text rather than carried in Diagnostic.Offset, matching how the
// typed-diagnostic shape (spec.md §6.5) renders when no derived snippet is
// requested.
func (inf *inferencer) mismatch(expected, found Type, node ast.Node) error {
	start, _ := node.Span()
	msg := fmt.Sprintf("type mismatch: expected %s, found %s at offset %d",
		inf.solver.resolve(expected).label(), inf.solver.resolve(found).label(), int(start))
	return diag.Coded(diag.CodeTypeMismatch, msg)
}

func (inf *inferencer) questionMismatch(found Type, node ast.Node) error {
	start, _ := node.Span()
	msg := fmt.Sprintf("`?` operator requires a result operand, found %s at offset %d",
		inf.solver.resolve(found).label(), int(start))
	return diag.Coded(diag.CodeQuestionNonResult, msg)
}

func (inf *inferencer) nonExhaustive(node ast.Node) error {
	start, _ := node.Span()
	msg := fmt.Sprintf("non-exhaustive case expression: missing wildcard branch at offset %d", int(start))
	return diag.Coded(diag.CodeNonExhaustive, msg)
}

func (inf *inferencer) expr(module string, e *env, x ast.Expr) (Type, error) {
	switch x := x.(type) {
	case *ast.IntExpr:
		return typeInt, nil
	case *ast.FloatExpr:
		return typeFloat, nil
	case *ast.BoolExpr:
		return typeBool, nil
	case *ast.NilExpr:
		return typeNil, nil
	case *ast.StringExpr:
		return typeString, nil
	case *ast.AtomExpr:
		return typeAtom, nil

	case *ast.VariableExpr:
		// A resolved program always has every VariableExpr bound (lang/resolver
		// already rejected anything that doesn't); falling back to a fresh var
		// here just means a variable this pass has never seen finalizes as
		// dynamic, rather than panicking on a pipeline invariant this package
		// does not itself enforce.
		if t, ok := e.lookup(x.Name); ok {
			return t, nil
		}
		return inf.solver.fresh(), nil

	case *ast.UnaryExpr:
		return inf.unary(module, e, x)

	case *ast.BinaryExpr:
		return inf.binary(module, e, x)

	case *ast.CallExpr:
		return inf.call(module, e, x.Offset, x.Callee, x.Args)

	case *ast.CallValueExpr:
		calleeType, err := inf.expr(module, e, x.Callee)
		if err != nil {
			return Type{}, err
		}
		if !inf.solver.unify(typeClosure, calleeType) {
			return Type{}, inf.mismatch(typeClosure, calleeType, x.Callee)
		}
		for _, a := range x.Args {
			if _, err := inf.expr(module, e, a); err != nil {
				return Type{}, err
			}
		}
		return typeDynamic, nil

	case *ast.CaptureExpr:
		return typeClosure, nil

	case *ast.PipeExpr:
		return inf.pipe(module, e, x)

	case *ast.QuestionExpr:
		v, err := inf.expr(module, e, x.Value)
		if err != nil {
			return Type{}, err
		}
		if !inf.solver.unify(typeResult, v) {
			return Type{}, inf.questionMismatch(v, x.Value)
		}
		return typeDynamic, nil

	case *ast.CaseExpr:
		return inf.caseExpr(module, e, x)

	case *ast.CondExpr:
		return inf.condExpr(module, e, x)

	case *ast.FnExpr:
		inner := newEnv(e)
		for _, p := range x.Params {
			if p.Default != nil {
				if _, err := inf.expr(module, e, p.Default); err != nil {
					return Type{}, err
				}
			}
		}
		for _, p := range x.Params {
			switch p.TypeAnnotation {
			case ast.AnnotationInt:
				inner.bind(p.Name, typeInt)
			case ast.AnnotationDynamic:
				inner.bind(p.Name, typeDynamic)
			default:
				inner.bind(p.Name, inf.solver.fresh())
			}
		}
		if _, err := inf.expr(module, inner, x.Body); err != nil {
			return Type{}, err
		}
		return typeClosure, nil

	case *ast.CollectionExpr:
		for _, it := range x.Items {
			if _, err := inf.expr(module, e, it); err != nil {
				return Type{}, err
			}
		}
		for _, en := range x.Entries {
			if en.Key != nil {
				if _, err := inf.expr(module, e, en.Key); err != nil {
					return Type{}, err
				}
			}
			if _, err := inf.expr(module, e, en.Value); err != nil {
				return Type{}, err
			}
		}
		return typeDynamic, nil

	case *ast.ForExpr:
		return inf.forExpr(module, e, x)

	case *ast.TryExpr:
		return inf.tryExpr(module, e, x)

	default:
		panic(fmt.Sprintf("typing: unexpected expr %T", x))
	}
}

func (inf *inferencer) unary(module string, e *env, x *ast.UnaryExpr) (Type, error) {
	v, err := inf.expr(module, e, x.Value)
	if err != nil {
		return Type{}, err
	}
	switch x.Op {
	case ast.UnaryPlus, ast.UnaryMinus, ast.UnaryBitwiseNot:
		if !inf.solver.unify(typeInt, v) {
			return Type{}, inf.mismatch(typeInt, v, x.Value)
		}
		return typeInt, nil
	case ast.UnaryNot, ast.UnaryBang:
		if !inf.solver.unify(typeBool, v) {
			return Type{}, inf.mismatch(typeBool, v, x.Value)
		}
		return typeBool, nil
	case ast.UnaryToString:
		// to_string accepts any value (every runtime value has a textual
		// rendering); only its operand's own errors need propagating.
		return typeString, nil
	case ast.UnaryRaise:
		// raise never returns to its call site, so its "result" type unifies
		// with whatever the surrounding context expects.
		return inf.solver.fresh(), nil
	default:
		return typeDynamic, nil
	}
}

func (inf *inferencer) binary(module string, e *env, x *ast.BinaryExpr) (Type, error) {
	l, err := inf.expr(module, e, x.Left)
	if err != nil {
		return Type{}, err
	}
	r, err := inf.expr(module, e, x.Right)
	if err != nil {
		return Type{}, err
	}

	switch x.Op {
	case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinDiv:
		if !inf.solver.unify(typeInt, l) {
			return Type{}, inf.mismatch(typeInt, l, x.Left)
		}
		if !inf.solver.unify(typeInt, r) {
			return Type{}, inf.mismatch(typeInt, r, x.Right)
		}
		return typeInt, nil

	case ast.BinEq, ast.BinNeq, ast.BinLt, ast.BinLte, ast.BinGt, ast.BinGte:
		if !inf.solver.unify(typeInt, l) {
			return Type{}, inf.mismatch(typeInt, l, x.Left)
		}
		if !inf.solver.unify(typeInt, r) {
			return Type{}, inf.mismatch(typeInt, r, x.Right)
		}
		return typeBool, nil

	case ast.BinConcat:
		if !inf.solver.unify(typeString, l) {
			return Type{}, inf.mismatch(typeString, l, x.Left)
		}
		if !inf.solver.unify(typeString, r) {
			return Type{}, inf.mismatch(typeString, r, x.Right)
		}
		return typeString, nil

	case ast.BinIn, ast.BinNotIn:
		return typeBool, nil

	case ast.BinPlusPlus, ast.BinMinusMinus:
		return typeDynamic, nil

	case ast.BinRange:
		if !inf.solver.unify(typeInt, l) {
			return Type{}, inf.mismatch(typeInt, l, x.Left)
		}
		if !inf.solver.unify(typeInt, r) {
			return Type{}, inf.mismatch(typeInt, r, x.Right)
		}
		return typeDynamic, nil

	case ast.BinAndAnd, ast.BinOrOr, ast.BinAnd, ast.BinOr:
		if !inf.solver.unify(typeBool, l) {
			return Type{}, inf.mismatch(typeBool, l, x.Left)
		}
		if !inf.solver.unify(typeBool, r) {
			return Type{}, inf.mismatch(typeBool, r, x.Right)
		}
		return typeBool, nil

	default:
		return typeDynamic, nil
	}
}

// call type-checks a bare or qualified call: a user-declared function's
// signature unifies each argument with the corresponding parameter
// variable (spec.md §4.4); a builtin's fixed-arity signature does the same
// against its concrete parameter types, and a variadic builtin only infers
// each argument for nested errors. Arity mismatches against a user-declared
// function are reported as an untyped diagnostic (no code), grounded on
// original_source/src/typing.rs's identically-shaped arity check.
func (inf *inferencer) call(module string, e *env, offset token.Pos, callee string, args []ast.Expr) (Type, error) {
	argTypes := make([]Type, len(args))
	for i, a := range args {
		t, err := inf.expr(module, e, a)
		if err != nil {
			return Type{}, err
		}
		argTypes[i] = t
	}

	target := callee
	if !strings.Contains(callee, ".") {
		target = ast.QualifiedName(module, callee)
	}

	if sig, ok := inf.sigs[target]; ok {
		if len(sig.params) != len(args) {
			return Type{}, diag.New(fmt.Sprintf("arity mismatch for %s: expected %d args, found %d", target, len(sig.params), len(args)))
		}
		for i, pt := range sig.params {
			if !inf.solver.unify(pt, argTypes[i]) {
				return Type{}, inf.mismatch(pt, argTypes[i], args[i])
			}
		}
		return sig.ret, nil
	}

	if b, ok := builtinSignatures[callee]; ok {
		if !b.variadic {
			if len(b.params) != len(args) {
				return Type{}, diag.New(fmt.Sprintf("arity mismatch for %s: expected %d args, found %d", callee, len(b.params), len(args)))
			}
			for i, pt := range b.params {
				if !inf.solver.unify(pt, argTypes[i]) {
					return Type{}, inf.mismatch(pt, argTypes[i], args[i])
				}
			}
		}
		return b.ret, nil
	}

	// A resolved program never reaches this: lang/resolver already rejected
	// any callee that is neither a declared function nor a builtin.
	return typeDynamic, nil
}

func (inf *inferencer) pipe(module string, e *env, x *ast.PipeExpr) (Type, error) {
	leftType, err := inf.expr(module, e, x.Left)
	if err != nil {
		return Type{}, err
	}

	call, ok := x.Right.(*ast.CallExpr)
	if !ok {
		// Right isn't call-shaped (e.g. piping into a bare variable holding a
		// closure); IR lowering's rewrite (spec.md §4.5) does not apply here,
		// so just type-check it standalone and return its type.
		return inf.expr(module, e, x.Right)
	}

	argTypes := make([]Type, len(call.Args)+1)
	argTypes[0] = leftType
	argExprs := make([]ast.Expr, len(call.Args)+1)
	argExprs[0] = x.Left
	for i, a := range call.Args {
		t, err := inf.expr(module, e, a)
		if err != nil {
			return Type{}, err
		}
		argTypes[i+1] = t
		argExprs[i+1] = a
	}

	target := call.Callee
	if !strings.Contains(call.Callee, ".") {
		target = ast.QualifiedName(module, call.Callee)
	}

	if sig, ok := inf.sigs[target]; ok {
		if len(sig.params) != len(argTypes) {
			return Type{}, diag.New(fmt.Sprintf("arity mismatch for %s: expected %d args, found %d", target, len(sig.params), len(argTypes)))
		}
		for i, pt := range sig.params {
			if !inf.solver.unify(pt, argTypes[i]) {
				return Type{}, inf.mismatch(pt, argTypes[i], argExprs[i])
			}
		}
		return sig.ret, nil
	}

	if b, ok := builtinSignatures[call.Callee]; ok {
		if !b.variadic {
			if len(b.params) != len(argTypes) {
				return Type{}, diag.New(fmt.Sprintf("arity mismatch for %s: expected %d args, found %d", call.Callee, len(b.params), len(argTypes)))
			}
			for i, pt := range b.params {
				if !inf.solver.unify(pt, argTypes[i]) {
					return Type{}, inf.mismatch(pt, argTypes[i], argExprs[i])
				}
			}
		}
		return b.ret, nil
	}

	return typeDynamic, nil
}

func (inf *inferencer) caseExpr(module string, e *env, x *ast.CaseExpr) (Type, error) {
	if _, err := inf.expr(module, e, x.Subject); err != nil {
		return Type{}, err
	}
	if len(x.Branches) == 0 {
		return Type{}, diag.New("case expression has no branches")
	}

	hasCatchAll := false
	for _, b := range x.Branches {
		if isCatchAllPattern(b.Pattern) {
			hasCatchAll = true
			break
		}
	}
	if !hasCatchAll {
		return Type{}, inf.nonExhaustive(x)
	}

	var result *Type
	for _, b := range x.Branches {
		branch := newEnv(e)
		bindPatternTypes(inf.solver, branch, b.Pattern)
		if b.Guard != nil {
			gt, err := inf.expr(module, branch, b.Guard)
			if err != nil {
				return Type{}, err
			}
			if !inf.solver.unify(typeBool, gt) {
				return Type{}, inf.mismatch(typeBool, gt, b.Guard)
			}
		}
		bt, err := inf.expr(module, branch, b.Body)
		if err != nil {
			return Type{}, err
		}
		if result == nil {
			result = &bt
		} else if !inf.solver.unify(*result, bt) {
			return Type{}, inf.mismatch(*result, bt, b.Body)
		}
	}
	return *result, nil
}

func (inf *inferencer) condExpr(module string, e *env, x *ast.CondExpr) (Type, error) {
	if len(x.Branches) == 0 {
		return typeDynamic, nil
	}
	var result *Type
	for _, b := range x.Branches {
		gt, err := inf.expr(module, e, b.Guard)
		if err != nil {
			return Type{}, err
		}
		if !inf.solver.unify(typeBool, gt) {
			return Type{}, inf.mismatch(typeBool, gt, b.Guard)
		}
		bt, err := inf.expr(module, newEnv(e), b.Body)
		if err != nil {
			return Type{}, err
		}
		if result == nil {
			result = &bt
		} else if !inf.solver.unify(*result, bt) {
			return Type{}, inf.mismatch(*result, bt, b.Body)
		}
	}
	return *result, nil
}

func (inf *inferencer) forExpr(module string, e *env, x *ast.ForExpr) (Type, error) {
	if x.Into != nil {
		if _, err := inf.expr(module, e, x.Into); err != nil {
			return Type{}, err
		}
	}
	cur := e
	for _, g := range x.Generators {
		if _, err := inf.expr(module, cur, g.Source); err != nil {
			return Type{}, err
		}
		cur = newEnv(cur)
		bindPatternTypes(inf.solver, cur, g.Pattern)
	}
	for _, f := range x.Filters {
		ft, err := inf.expr(module, cur, f)
		if err != nil {
			return Type{}, err
		}
		if !inf.solver.unify(typeBool, ft) {
			return Type{}, inf.mismatch(typeBool, ft, f)
		}
	}
	if _, err := inf.expr(module, cur, x.Body); err != nil {
		return Type{}, err
	}
	return typeDynamic, nil
}

func (inf *inferencer) tryExpr(module string, e *env, x *ast.TryExpr) (Type, error) {
	result, err := inf.expr(module, newEnv(e), x.Body)
	if err != nil {
		return Type{}, err
	}
	for _, arms := range [][]ast.CaseBranch{x.Rescue, x.Catch} {
		for _, a := range arms {
			branch := newEnv(e)
			bindPatternTypes(inf.solver, branch, a.Pattern)
			if a.Guard != nil {
				gt, err := inf.expr(module, branch, a.Guard)
				if err != nil {
					return Type{}, err
				}
				if !inf.solver.unify(typeBool, gt) {
					return Type{}, inf.mismatch(typeBool, gt, a.Guard)
				}
			}
			bt, err := inf.expr(module, branch, a.Body)
			if err != nil {
				return Type{}, err
			}
			if !inf.solver.unify(result, bt) {
				return Type{}, inf.mismatch(result, bt, a.Body)
			}
		}
	}
	if x.After != nil {
		if _, err := inf.expr(module, newEnv(e), x.After); err != nil {
			return Type{}, err
		}
	}
	return result, nil
}

// isCatchAllPattern reports whether p matches any value: a wildcard or a
// plain bind, the two pattern kinds spec.md §4.4 calls "Wildcard | Bind |
// Variable" (this AST has no separate "Variable" pattern kind distinct from
// Bind; see DESIGN.md).
func isCatchAllPattern(p ast.Pattern) bool {
	switch p.(type) {
	case *ast.WildcardPattern, *ast.BindPattern:
		return true
	default:
		return false
	}
}

// bindPatternTypes binds every name p introduces to a fresh type variable.
// Pattern matching is not itself structurally typed (spec.md §4.4 has no
// constructor for tuple/list/map shapes), so a bound name's type is driven
// entirely by how the branch body and guard use it afterward, exactly like
// a function parameter.
func bindPatternTypes(s *solver, e *env, p ast.Pattern) {
	switch p := p.(type) {
	case *ast.BindPattern:
		e.bind(p.Name, s.fresh())
	case *ast.TuplePattern:
		for _, it := range p.Items {
			bindPatternTypes(s, e, it)
		}
	case *ast.ListPattern:
		for _, it := range p.Items {
			bindPatternTypes(s, e, it)
		}
		if p.Tail != nil {
			bindPatternTypes(s, e, p.Tail)
		}
	case *ast.MapPattern:
		for _, en := range p.Entries {
			bindPatternTypes(s, e, en.Value)
		}
	}
}
