// ir_eval.go evaluates raw lang/ir op sequences directly: MIR lowering
// deliberately left Try, For, and every closure body as opaque ir.Op trees
// rather than structurally lowering them into CFG blocks (see lang/mir's
// DESIGN.md entry on Legacy/MakeClosure), so the interpreter needs a
// reentrant evaluator over the same stack-machine shape lang/ir's doc
// comment describes, independent of the mir block walker in interp.go.
//
// Grounded loosely on spec.md §3.3's stack-machine semantics and
// lang/ir/lower.go's emission order for each structured op (confirmed by
// reading how each op pushes/pops around its operands); no original_source
// reference exists for this evaluator (see interp.go's package doc).
package interp

import (
	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/mir"
	"github.com/mikeyobrien/tonic/lang/runtime"
	"github.com/mikeyobrien/tonic/lang/token"
)

// evalIROps runs ops as a single self-contained expression and requires
// exactly one value remain on the stack, the shape every call site in this
// package needs (a guard, a case/cond/try/closure body, an after block).
func (in *Interp) evalIROps(ops []ir.Op, vars map[string]runtime.Value, depth int) (runtime.Value, error) {
	stack, err := in.evalIROpsStack(ops, vars, depth)
	if err != nil {
		return nil, err
	}
	if len(stack) != 1 {
		return nil, fail("expression left %d values on the stack, expected 1", len(stack))
	}
	return stack[0], nil
}

func popOp(stack []runtime.Value) ([]runtime.Value, runtime.Value, error) {
	if len(stack) == 0 {
		return nil, nil, fail("stack underflow")
	}
	return stack[:len(stack)-1], stack[len(stack)-1], nil
}

func popNOp(stack []runtime.Value, n int) ([]runtime.Value, []runtime.Value, error) {
	if len(stack) < n {
		return nil, nil, fail("stack underflow: need %d values, have %d", n, len(stack))
	}
	args := make([]runtime.Value, n)
	copy(args, stack[len(stack)-n:])
	return stack[:len(stack)-n], args, nil
}

// evalIROpsStack runs ops against a fresh stack and returns whatever values
// remain at the end (ordinarily exactly one; see evalIROps).
func (in *Interp) evalIROpsStack(ops []ir.Op, vars map[string]runtime.Value, depth int) ([]runtime.Value, error) {
	var stack []runtime.Value
	for _, op := range ops {
		var err error
		stack, err = in.evalOneIROp(op, stack, vars, depth)
		if err != nil {
			return nil, err
		}
	}
	return stack, nil
}

func (in *Interp) evalOneIROp(op ir.Op, stack []runtime.Value, vars map[string]runtime.Value, depth int) ([]runtime.Value, error) {
	switch x := op.(type) {
	case ir.ConstInt:
		return append(stack, runtime.Int(x.Value)), nil
	case ir.ConstFloat:
		return append(stack, runtime.Float(x.Value)), nil
	case ir.ConstBool:
		return append(stack, runtime.Bool(x.Value)), nil
	case ir.ConstNil:
		return append(stack, runtime.Nil{}), nil
	case ir.ConstAtom:
		return append(stack, runtime.Atom(x.Value)), nil
	case ir.ConstString:
		return append(stack, runtime.String(x.Value)), nil

	case ir.LoadVariable:
		v, ok := vars[x.Name]
		if !ok {
			return nil, fail("undefined variable %q", x.Name)
		}
		return append(stack, v), nil

	case ir.Call:
		stack, args, err := popNOp(stack, x.Argc)
		if err != nil {
			return nil, err
		}
		v, err := in.dispatchCall(x.Callee, args, depth)
		if err != nil {
			return nil, err
		}
		return append(stack, v), nil

	case ir.CallValue:
		stack, args, err := popNOp(stack, x.Argc)
		if err != nil {
			return nil, err
		}
		stack, calleeVal, err := popOp(stack)
		if err != nil {
			return nil, err
		}
		callee, ok := calleeVal.(*runtime.Closure)
		if !ok {
			return nil, fail("call_value target is not a closure, found %s", calleeVal.Kind())
		}
		v, err := callee.Invoke(args, token.NoPos)
		if err != nil {
			return nil, err
		}
		return append(stack, v), nil

	case ir.BinaryOp:
		stack, args, err := popNOp(stack, 2)
		if err != nil {
			return nil, err
		}
		v, err := evalBinaryByName(x.Name, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return append(stack, v), nil

	case ir.UnaryOp:
		stack, arg, err := popOp(stack)
		if err != nil {
			return nil, err
		}
		v, err := evalUnary(mir.UnaryKind(x.Name), arg)
		if err != nil {
			return nil, err
		}
		return append(stack, v), nil

	case ir.Question:
		stack, v, err := popOp(stack)
		if err != nil {
			return nil, err
		}
		switch rv := v.(type) {
		case runtime.ResultOk:
			return append(stack, rv.Value), nil
		case runtime.ResultErr:
			return nil, &questionShortCircuit{Value: rv}
		default:
			return nil, fail("? operator requires a result value, found %s", v.Kind())
		}

	case ir.Return:
		// Never actually emitted except at a function's own top level
		// (which this evaluator never runs directly; see interp.go's
		// package doc), so this just stops processing further ops.
		return stack, nil

	case ir.Case:
		stack, scrutinee, err := popOp(stack)
		if err != nil {
			return nil, err
		}
		v, matched, err := in.selectAndEvalCaseBranches(scrutinee, x.Branches, vars, depth)
		if err != nil {
			return nil, err
		}
		if !matched {
			return nil, fail("no case clause matched")
		}
		return append(stack, v), nil

	case ir.Cond:
		for _, branch := range x.Branches {
			g, err := in.evalIROps(branch.GuardOps, vars, depth)
			if err != nil {
				return nil, err
			}
			b, ok := g.(runtime.Bool)
			if !ok || !bool(b) {
				continue
			}
			v, err := in.evalIROps(branch.Ops, vars, depth)
			if err != nil {
				return nil, err
			}
			return append(stack, v), nil
		}
		return nil, fail("cond: no branch matched")

	case ir.ShortCircuit:
		stack, condVal, err := popOp(stack)
		if err != nil {
			return nil, err
		}
		cond, ok := condVal.(runtime.Bool)
		if !ok {
			return nil, fail("short_circuit condition is not a bool, found %s", condVal.Kind())
		}
		switch x.Kind {
		case "and_and", "and":
			if !bool(cond) {
				return append(stack, cond), nil
			}
		case "or_or", "or":
			if bool(cond) {
				return append(stack, cond), nil
			}
		default:
			return nil, fail("unhandled short_circuit kind %q", x.Kind)
		}
		v, err := in.evalIROps(x.RightOps, vars, depth)
		if err != nil {
			return nil, err
		}
		return append(stack, v), nil

	case ir.Try:
		v, err := in.evalTry(x, vars, depth)
		if err != nil {
			return nil, err
		}
		return append(stack, v), nil

	case ir.For:
		v, err := in.evalFor(x, vars, depth)
		if err != nil {
			return nil, err
		}
		return append(stack, v), nil

	case ir.MakeClosure:
		captured := cloneVars(vars)
		closure := &runtime.Closure{
			Arity: len(x.Params),
			Call:  in.makeClosureCallable(x.Params, x.Ops, captured, depth),
		}
		return append(stack, closure), nil

	default:
		return nil, fail("unhandled ir op %T", op)
	}
}

// evalBinaryByName dispatches an ir.BinaryOp's raw mnemonic onto
// lang/runtime/ops.go's functions (the six cmp_* mnemonics share CmpInt;
// not_in negates InOperator's result). This is a distinct name
// space from mir.BinaryKind, which lang/mir/lower.go translates these same
// names into (see binaryKindByName there) — mir's kind strings describe its
// own lowered representation, not lang/ir's raw mnemonics.
func evalBinaryByName(name string, left, right runtime.Value) (runtime.Value, error) {
	switch name {
	case "add_int":
		return runtime.AddInt(left, right, token.NoPos)
	case "sub_int":
		return runtime.SubInt(left, right, token.NoPos)
	case "mul_int":
		return runtime.MulInt(left, right, token.NoPos)
	case "div_int":
		return runtime.DivInt(left, right, token.NoPos)
	case "cmp_eq":
		return runtime.CmpInt(runtime.CmpEq, left, right, token.NoPos)
	case "cmp_neq":
		return runtime.CmpInt(runtime.CmpNotEq, left, right, token.NoPos)
	case "cmp_lt":
		return runtime.CmpInt(runtime.CmpLt, left, right, token.NoPos)
	case "cmp_lte":
		return runtime.CmpInt(runtime.CmpLte, left, right, token.NoPos)
	case "cmp_gt":
		return runtime.CmpInt(runtime.CmpGt, left, right, token.NoPos)
	case "cmp_gte":
		return runtime.CmpInt(runtime.CmpGte, left, right, token.NoPos)
	case "concat":
		return runtime.Concat(left, right, token.NoPos)
	case "in":
		return runtime.InOperator(left, right, token.NoPos)
	case "not_in":
		return negateBool(runtime.InOperator(left, right, token.NoPos))
	case "list_concat":
		return runtime.ListConcat(left, right, token.NoPos)
	case "list_subtract":
		return runtime.ListSubtract(left, right, token.NoPos)
	case "make_range":
		return runtime.MakeRange(left, right, token.NoPos)
	default:
		return nil, fail("unhandled binary op %q", name)
	}
}

// selectAndEvalCaseBranches tries each branch's pattern (and `when` guard,
// if present) against value in order, evaluating and returning the first
// matching branch's body. Shared by ir.Case and by ir.Try's rescue/catch
// arm lists.
func (in *Interp) selectAndEvalCaseBranches(value runtime.Value, branches []ir.CaseBranch, vars map[string]runtime.Value, depth int) (runtime.Value, bool, error) {
	for _, branch := range branches {
		trial := map[string]runtime.Value{}
		if !runtime.Match(value, branch.Pattern, vars, trial) {
			continue
		}
		merged := cloneVars(vars)
		mergeInto(merged, trial)
		if len(branch.GuardOps) > 0 {
			g, err := in.evalIROps(branch.GuardOps, merged, depth)
			if err != nil {
				return nil, false, err
			}
			if b, ok := g.(runtime.Bool); !ok || !bool(b) {
				continue
			}
		}
		v, err := in.evalIROps(branch.Ops, merged, depth)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	return nil, false, nil
}

// evalLegacy executes a mir.Legacy instruction's wrapped ir.Op (always Try
// or For; see lang/mir's DESIGN.md entry on why those two are never
// structurally lowered).
func (in *Interp) evalLegacy(op ir.Op, vars map[string]runtime.Value, depth int) (runtime.Value, error) {
	switch x := op.(type) {
	case ir.Try:
		return in.evalTry(x, vars, depth)
	case ir.For:
		return in.evalFor(x, vars, depth)
	default:
		return nil, fail("legacy instruction wraps unsupported op %T", op)
	}
}

// evalTry runs x.BodyOps, routing a *runtime.Raised error through Rescue
// then Catch (first matching branch wins, exactly like selectAndEval
// CaseBranches), and always runs AfterOps for its side effects before
// returning, mirroring a `finally` block. Neither a `?`-triggered
// questionShortCircuit nor an ordinary *runtime.Error is caught by
// rescue/catch: only an explicit `raise` is catchable (spec.md's try/
// rescue/catch is this language's exception mechanism, distinct from the
// Result-based `?` error channel).
func (in *Interp) evalTry(x ir.Try, vars map[string]runtime.Value, depth int) (runtime.Value, error) {
	result, err := in.evalIROps(x.BodyOps, vars, depth)

	if raised, ok := err.(*runtime.Raised); ok {
		if v, matched, rerr := in.selectAndEvalCaseBranches(raised.Value, x.Rescue, vars, depth); rerr != nil {
			result, err = nil, rerr
		} else if matched {
			result, err = v, nil
		} else if v, matched, cerr := in.selectAndEvalCaseBranches(raised.Value, x.Catch, vars, depth); cerr != nil {
			result, err = nil, cerr
		} else if matched {
			result, err = v, nil
		} else {
			result, err = nil, raised
		}
	}

	if x.AfterOps != nil {
		if _, afterErr := in.evalIROps(x.AfterOps, vars, depth); afterErr != nil {
			return nil, afterErr
		}
	}
	return result, err
}

// evalFor implements the `for` comprehension: a cartesian product over every
// generator's materialized source, filtered by GuardOps (every filter
// expression's result ANDed together — lowering concatenates all filters
// into one flat op list with no separator, so this evaluator ANDs whatever
// values remain on the stack after running it rather than assuming exactly
// one, since it cannot recover the individual filter boundaries; see
// DESIGN.md), collecting each surviving body result into a List by default
// or, when `into:` is present, folding results into the evaluated target
// (List via Concat, Map via Put, Keyword via Append — results must then be
// Tuple(key, value) pairs).
func (in *Interp) evalFor(x ir.For, vars map[string]runtime.Value, depth int) (runtime.Value, error) {
	sources := make([][]runtime.Value, len(x.Generators))
	for i, gen := range x.Generators {
		v, err := in.evalIROps(gen.SourceOps, vars, depth)
		if err != nil {
			return nil, err
		}
		elems, err := materializeIterable(v)
		if err != nil {
			return nil, err
		}
		sources[i] = elems
	}

	var results []runtime.Value
	var recurse func(level int, scope map[string]runtime.Value) error
	recurse = func(level int, scope map[string]runtime.Value) error {
		if level == len(x.Generators) {
			if len(x.GuardOps) > 0 {
				stack, err := in.evalIROpsStack(x.GuardOps, scope, depth)
				if err != nil {
					return err
				}
				for _, v := range stack {
					if !v.Truth() {
						return nil
					}
				}
			}
			v, err := in.evalIROps(x.BodyOps, scope, depth)
			if err != nil {
				return err
			}
			results = append(results, v)
			return nil
		}
		for _, elem := range sources[level] {
			trial := map[string]runtime.Value{}
			if !runtime.Match(elem, x.Generators[level].Pattern, vars, trial) {
				continue
			}
			child := cloneVars(scope)
			mergeInto(child, trial)
			if err := recurse(level+1, child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := recurse(0, cloneVars(vars)); err != nil {
		return nil, err
	}

	if len(x.IntoOps) == 0 {
		return runtime.NewList(results), nil
	}
	acc, err := in.evalIROps(x.IntoOps, vars, depth)
	if err != nil {
		return nil, err
	}
	return foldInto(acc, results)
}

func foldInto(acc runtime.Value, results []runtime.Value) (runtime.Value, error) {
	switch a := acc.(type) {
	case *runtime.List:
		return a.Concat(runtime.NewList(results)), nil
	case *runtime.Map:
		m := a
		for _, r := range results {
			t, ok := r.(runtime.Tuple)
			if !ok {
				return nil, fail("for: into a map requires each result to be a 2-tuple, found %s", r.Kind())
			}
			m = m.Put(t.Left, t.Right)
		}
		return m, nil
	case *runtime.Keyword:
		k := a
		for _, r := range results {
			t, ok := r.(runtime.Tuple)
			if !ok {
				return nil, fail("for: into a keyword list requires each result to be a 2-tuple, found %s", r.Kind())
			}
			k = k.Append(t.Left, t.Right)
		}
		return k, nil
	default:
		return nil, fail("for: cannot collect results into a %s", acc.Kind())
	}
}

func materializeIterable(v runtime.Value) ([]runtime.Value, error) {
	switch x := v.(type) {
	case *runtime.List:
		return x.Elems, nil
	case runtime.Range:
		out := make([]runtime.Value, 0, max64(x.End-x.Start+1, 0))
		for i := x.Start; i <= x.End; i++ {
			out = append(out, runtime.Int(i))
		}
		return out, nil
	case runtime.SteppedRange:
		var out []runtime.Value
		if x.Step > 0 {
			for i := x.Start; i <= x.End; i += x.Step {
				out = append(out, runtime.Int(i))
			}
		} else if x.Step < 0 {
			for i := x.Start; i >= x.End; i += x.Step {
				out = append(out, runtime.Int(i))
			}
		} else {
			return nil, fail("for: stepped range has a zero step")
		}
		return out, nil
	default:
		return nil, fail("for: source is not iterable, found %s", v.Kind())
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// makeClosureCallable builds the Callable a *runtime.Closure invokes: a
// fresh call boundary over captured (a snapshot of the defining scope taken
// at closure-creation time — Tonic bindings are never mutated in place, so
// closing over a copy is equivalent to closing over the live environment)
// with params bound positionally, absorbing any `?` short-circuit raised
// within the closure's own body the same way callFunction does for a named
// function.
func (in *Interp) makeClosureCallable(params []string, ops []ir.Op, captured map[string]runtime.Value, depth int) runtime.Callable {
	return func(args []runtime.Value) (runtime.Value, error) {
		child := cloneVars(captured)
		for i, p := range params {
			child[p] = args[i]
		}
		v, err := in.evalIROps(ops, child, depth+1)
		if qs, ok := err.(*questionShortCircuit); ok {
			return qs.Value, nil
		}
		return v, err
	}
}
