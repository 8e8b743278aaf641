// Package resolver implements spec.md §4.3: it builds a module/function
// symbol graph from the parsed Ast and walks every expression, checking that
// every call target and every variable reference resolves. The scope-chain
// push/pop idiom (a linked list of lexical blocks, innermost first) and the
// pattern of collecting every error rather than stopping at the first are
// adapted from the teacher's lang/resolver, itself adapted from
// github.com/google/starlark-go's resolver.
//
// Tonic has no assignment statements, classes or labels, so the teacher's
// Binding/Scope/Cell/Free machinery (built to support Starlark's closures,
// const locals and goto labels) does not carry over: every binding here
// happens through function parameters or pattern matching, and closure
// variable capture is computed independently by the native backend by
// walking a closure body for free-variable loads (spec.md §4.8.2), not by
// the resolver. See DESIGN.md for the full accounting of what was dropped.
package resolver

import (
	"fmt"
	"strings"

	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/diag"
	"github.com/mikeyobrien/tonic/lang/token"
)

// builtinNames is the set of names IR lowering resolves to Builtin{name}
// rather than Function{qualified_name} (spec.md §4.5). A bare call to one of
// these never needs a matching user-declared function: `list(1, 2)` resolves
// even though no module declares a function named `list`. Qualified calls
// (`Module.list(...)`) are never treated as builtins, matching spec.md §4.3's
// qualified-call rule (look up the named module only).
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

// scope is one lexical block: a set of names bound in it, chained to its
// enclosing scope. Looking up a name walks the chain outward, so a nested
// fn/case/for/try body can see names bound by any enclosing block,
// including another function's parameters (closure capture).
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]bool)}
}

func (s *scope) bind(name string) { s.names[name] = true }

func (s *scope) resolves(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

// Resolve checks every module in tree: that every bare and qualified call
// target names a declared function, and that every variable reference
// resolves to an enclosing binding. file is used only to attach snippet
// context to reported diagnostics.
func Resolve(tree *ast.Ast, file *token.File) error {
	r := &resolver{
		modules: make(map[string]map[string]bool),
		file:    file,
		errs:    &diag.List{},
	}
	for _, mod := range tree.Modules {
		fns := make(map[string]bool, len(mod.Functions))
		for _, fn := range mod.Functions {
			fns[fn.Name] = true
		}
		r.modules[mod.Name] = fns
	}

	for _, mod := range tree.Modules {
		for _, fn := range mod.Functions {
			r.function(mod.Name, fn)
		}
	}

	r.errs.Sort()
	return r.errs.Err()
}

type resolver struct {
	modules map[string]map[string]bool
	file    *token.File
	errs    *diag.List
}

func (r *resolver) errorf(curModule, curFn string, pos token.Pos, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.errs.Add(diag.CodedAt(diag.CodeUndefinedSymbol, fmt.Sprintf("%s in %s.%s", msg, curModule, curFn), pos, r.file))
}

func (r *resolver) function(module string, fn *ast.Function) {
	top := newScope(nil)
	for _, p := range fn.Params {
		if p.Default != nil {
			r.expr(module, fn.Name, top, p.Default)
		}
	}
	for _, p := range fn.Params {
		top.bind(p.Name)
	}
	if fn.Body != nil {
		r.expr(module, fn.Name, top, fn.Body)
	}
}

// callTarget resolves a Call's callee string, which is either a bare name
// (looked up in the current module) or a "Module.fn" qualified name
// (spec.md §4.3). Arity is never checked here; that is the type
// inferencer's job.
func (r *resolver) callTarget(module, fn string, pos token.Pos, callee string) {
	if mod, name, ok := strings.Cut(callee, "."); ok {
		fns, known := r.modules[mod]
		if !known || !fns[name] {
			r.errorf(module, fn, pos, "undefined symbol '%s'", callee)
		}
		return
	}
	if builtinNames[callee] {
		return
	}
	if fns := r.modules[module]; !fns[callee] {
		r.errorf(module, fn, pos, "undefined symbol '%s'", callee)
	}
}

func (r *resolver) expr(module, fn string, sc *scope, e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntExpr, *ast.FloatExpr, *ast.BoolExpr, *ast.NilExpr, *ast.StringExpr, *ast.AtomExpr:
		// literals: nothing to resolve

	case *ast.VariableExpr:
		if !sc.resolves(e.Name) {
			r.errorf(module, fn, e.Offset, "undefined symbol '%s'", e.Name)
		}

	case *ast.UnaryExpr:
		r.expr(module, fn, sc, e.Value)

	case *ast.BinaryExpr:
		r.expr(module, fn, sc, e.Left)
		r.expr(module, fn, sc, e.Right)

	case *ast.CallExpr:
		r.callTarget(module, fn, e.Offset, e.Callee)
		for _, a := range e.Args {
			r.expr(module, fn, sc, a)
		}

	case *ast.CallValueExpr:
		r.expr(module, fn, sc, e.Callee)
		for _, a := range e.Args {
			r.expr(module, fn, sc, a)
		}

	case *ast.CaptureExpr:
		r.callTarget(module, fn, e.Offset, e.Name)

	case *ast.PipeExpr:
		r.expr(module, fn, sc, e.Left)
		r.expr(module, fn, sc, e.Right)

	case *ast.QuestionExpr:
		r.expr(module, fn, sc, e.Value)

	case *ast.CaseExpr:
		r.expr(module, fn, sc, e.Subject)
		for _, b := range e.Branches {
			branch := newScope(sc)
			r.bindPattern(branch, b.Pattern)
			if b.Guard != nil {
				r.expr(module, fn, branch, b.Guard)
			}
			r.expr(module, fn, branch, b.Body)
		}

	case *ast.CondExpr:
		for _, b := range e.Branches {
			r.expr(module, fn, sc, b.Guard)
			r.expr(module, fn, newScope(sc), b.Body)
		}

	case *ast.FnExpr:
		inner := newScope(sc)
		for _, p := range e.Params {
			if p.Default != nil {
				r.expr(module, fn, sc, p.Default)
			}
		}
		for _, p := range e.Params {
			inner.bind(p.Name)
		}
		r.expr(module, fn, inner, e.Body)

	case *ast.CollectionExpr:
		for _, it := range e.Items {
			r.expr(module, fn, sc, it)
		}
		for _, en := range e.Entries {
			if en.Key != nil {
				r.expr(module, fn, sc, en.Key)
			}
			r.expr(module, fn, sc, en.Value)
		}

	case *ast.ForExpr:
		cur := sc
		if e.Into != nil {
			r.expr(module, fn, cur, e.Into)
		}
		for _, g := range e.Generators {
			r.expr(module, fn, cur, g.Source)
			cur = newScope(cur)
			r.bindPattern(cur, g.Pattern)
		}
		for _, f := range e.Filters {
			r.expr(module, fn, cur, f)
		}
		r.expr(module, fn, cur, e.Body)

	case *ast.TryExpr:
		r.expr(module, fn, newScope(sc), e.Body)
		r.tryArms(module, fn, sc, e.Rescue)
		r.tryArms(module, fn, sc, e.Catch)
		if e.After != nil {
			r.expr(module, fn, newScope(sc), e.After)
		}

	default:
		panic(fmt.Sprintf("resolver: unexpected expr %T", e))
	}
}

func (r *resolver) tryArms(module, fn string, sc *scope, arms []ast.CaseBranch) {
	for _, a := range arms {
		branch := newScope(sc)
		r.bindPattern(branch, a.Pattern)
		if a.Guard != nil {
			r.expr(module, fn, branch, a.Guard)
		}
		r.expr(module, fn, branch, a.Body)
	}
}

// bindPattern binds every name a pattern introduces into sc. Pin patterns
// reference an already-bound name rather than introducing one, but whether
// that name actually resolves is left to a later pass over the pattern's
// owning expression tree: the resolver here only tracks *new* bindings,
// matching spec.md §4.3's narrower mandate (call targets and variable
// references), not full pattern well-formedness.
func (r *resolver) bindPattern(sc *scope, p ast.Pattern) {
	switch p := p.(type) {
	case *ast.BindPattern:
		sc.bind(p.Name)
	case *ast.TuplePattern:
		for _, it := range p.Items {
			r.bindPattern(sc, it)
		}
	case *ast.ListPattern:
		for _, it := range p.Items {
			r.bindPattern(sc, it)
		}
		if p.Tail != nil {
			r.bindPattern(sc, p.Tail)
		}
	case *ast.MapPattern:
		for _, en := range p.Entries {
			r.bindPattern(sc, en.Value)
		}
	}
}
