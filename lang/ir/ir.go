// Package ir implements spec.md §3.3/§4.5: a stack-machine intermediate
// representation lowered from the typed AST, one flat op sequence per
// function plus a handful of structured nodes (Case, Try, For, MakeClosure,
// the four short-circuit operators) that carry nested op sequences of their
// own. Every Op is JSON-serializable with a snake_case "op" discriminator
// (SPEC_FULL.md §6.2), grounded on original_source/src/ir.rs's
// `#[serde(tag = "op", rename_all = "snake_case")]` IrOp enum, expanded here
// from that file's four-variant toy (ConstInt/Call/AddInt/Return) to the
// full catalog spec.md §3.3 describes.
//
// Unlike the teacher's lang/compiler (a flat bytecode assembler compiling
// directly to a VM's Funcode), this package's Program is a tree-shaped,
// JSON-round-trippable value: the teacher has no stage analogous to IR
// lowering since Starlark's machine executes compiled bytecode directly.
package ir

import (
	"encoding/json"

	"github.com/mikeyobrien/tonic/lang/ast"
)

// Program is a whole lowered compilation unit: spec.md §3.3's
// `IrProgram = [IrFunction]`.
type Program struct {
	Functions []*Function
}

// Function is one lowered function body: spec.md §3.3's
// `IrFunction = { name, params, param_patterns?, guard_ops?, ops }`.
// ParamPatterns and GuardOps are both nil for the common case of a plain
// name-only parameter list with no function-clause guard.
type Function struct {
	Name          string
	Params        []string
	ParamPatterns []ast.Pattern // nil unless a parameter uses pattern syntax
	GuardOps      []Op          // nil unless the clause has a `when` guard
	Ops           []Op
}

// Op is implemented by every IR instruction.
type Op interface {
	opNode()
}

// CallTarget is Call's callee: either a user function (qualified name) or a
// known builtin, matching spec.md §4.5's `Function{qualified_name}` /
// `Builtin{name}` split (restored as a first-class IR type per SPEC_FULL.md
// §9, rather than the toy's bare string).
type CallTarget struct {
	Function string // qualified "Module.fn" name, or "" if Builtin is set
	Builtin  string // builtin name, or "" if Function is set
}

func (t CallTarget) MarshalJSON() ([]byte, error) {
	if t.Builtin != "" {
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Name string `json:"name"`
		}{"builtin", t.Builtin})
	}
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}{"function", t.Function})
}

// CaseBranch is one lowered `pattern (when guard)? -> body` arm, shared by
// Case, Try's rescue/catch, and nothing else (For's generators have their
// own shape below since they have no guard-per-clause and no body ops of
// their own, only a shared loop body).
type CaseBranch struct {
	Pattern  ast.Pattern
	GuardOps []Op // nil if no `when` clause
	Ops      []Op
}

// ForGenerator is one lowered `pattern <- source` clause of a for-comprehension.
type ForGenerator struct {
	Pattern   ast.Pattern
	SourceOps []Op
}

// CondBranch is one lowered `guard -> body` arm of a cond expression.
type CondBranch struct {
	GuardOps []Op
	Ops      []Op
}

type opBase struct{}

func (opBase) opNode() {}

// --- constants ---

type ConstInt struct {
	opBase
	Value int64
}

func (o ConstInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"op"`
		Value int64  `json:"value"`
	}{"const_int", o.Value})
}

type ConstFloat struct {
	opBase
	Value string
}

func (o ConstFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"op"`
		Value string `json:"value"`
	}{"const_float", o.Value})
}

type ConstBool struct {
	opBase
	Value bool
}

func (o ConstBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"op"`
		Value bool   `json:"value"`
	}{"const_bool", o.Value})
}

type ConstNil struct{ opBase }

func (o ConstNil) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op string `json:"op"`
	}{"const_nil"})
}

type ConstAtom struct {
	opBase
	Value string
}

func (o ConstAtom) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"op"`
		Value string `json:"value"`
	}{"const_atom", o.Value})
}

type ConstString struct {
	opBase
	Value string
}

func (o ConstString) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"op"`
		Value string `json:"value"`
	}{"const_string", o.Value})
}

// --- variables and calls ---

type LoadVariable struct {
	opBase
	Name string
}

func (o LoadVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string `json:"op"`
		Name string `json:"name"`
	}{"load_variable", o.Name})
}

type Call struct {
	opBase
	Callee CallTarget
	Argc   int
}

func (o Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string     `json:"op"`
		Callee CallTarget `json:"callee"`
		Argc   int        `json:"argc"`
	}{"call", o.Callee, o.Argc})
}

// CallValue pops a closure value then its args (spec.md §3.3).
type CallValue struct {
	opBase
	Argc int
}

func (o CallValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string `json:"op"`
		Argc int    `json:"argc"`
	}{"call_value", o.Argc})
}

// --- operators ---
//
// BinaryOp/UnaryOp carry a fixed IR mnemonic (spec.md §4.5's "binary
// operators have fixed IR names"). Each binary mnemonic names an operator
// implemented in lang/runtime/ops.go (the six cmp_* mnemonics share CmpInt,
// in/not_in share InOperator); MIR lowering and the interpreter map Name
// onto those functions.

type BinaryOp struct {
	opBase
	Name string
}

func (o BinaryOp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string `json:"op"`
		Name string `json:"name"`
	}{"binary", o.Name})
}

type UnaryOp struct {
	opBase
	Name string
}

func (o UnaryOp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string `json:"op"`
		Name string `json:"name"`
	}{"unary", o.Name})
}

// Question implements the postfix `?` operator.
type Question struct{ opBase }

func (o Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op string `json:"op"`
	}{"question"})
}

// Return ends a function, popping its final value.
type Return struct{ opBase }

func (o Return) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op string `json:"op"`
	}{"return"})
}

// --- structured ops ---

type Case struct {
	opBase
	Branches []CaseBranch
}

func (o Case) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op       string       `json:"op"`
		Branches []CaseBranch `json:"branches"`
	}{"case", o.Branches})
}

// Cond lowers a `cond do branch* end` expression: each branch's GuardOps are
// evaluated in order until one is truthy, then its Ops produce the result.
// Not named in spec.md §3.3's IrOp list directly, but `cond` is surface
// grammar the parser/resolver/typing stages already accept (spec.md §4.1's
// keyword list, §4.2's primary-expression grammar); lowering needs a node
// for it since it is not sugar for anything else in this IR.
type Cond struct {
	opBase
	Branches []CondBranch
}

func (o Cond) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op       string       `json:"op"`
		Branches []CondBranch `json:"branches"`
	}{"cond", o.Branches})
}

// ShortCircuit implements the four short-circuiting logical operators
// (&&, ||, and, or). Kind is one of "and_and", "or_or", "and", "or".
type ShortCircuit struct {
	opBase
	Kind     string
	RightOps []Op
}

func (o ShortCircuit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op       string `json:"op"`
		Kind     string `json:"kind"`
		RightOps []Op   `json:"right_ops"`
	}{"short_circuit", o.Kind, o.RightOps})
}

type Try struct {
	opBase
	BodyOps  []Op
	Rescue   []CaseBranch
	Catch    []CaseBranch
	AfterOps []Op // nil if no `after` clause
}

func (o Try) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op       string       `json:"op"`
		BodyOps  []Op         `json:"body_ops"`
		Rescue   []CaseBranch `json:"rescue"`
		Catch    []CaseBranch `json:"catch"`
		AfterOps []Op         `json:"after_ops,omitempty"`
	}{"try", o.BodyOps, o.Rescue, o.Catch, o.AfterOps})
}

type For struct {
	opBase
	Generators []ForGenerator
	BodyOps    []Op
	GuardOps   []Op // nil if no filter
	IntoOps    []Op // nil if collecting into a List (the default)
}

func (o For) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op         string         `json:"op"`
		Generators []ForGenerator `json:"generators"`
		BodyOps    []Op           `json:"body_ops"`
		GuardOps   []Op           `json:"guard_ops,omitempty"`
		IntoOps    []Op           `json:"into_ops,omitempty"`
	}{"for", o.Generators, o.BodyOps, o.GuardOps, o.IntoOps})
}

// MakeClosure builds a closure value from an anonymous fn literal or a
// capture expression (spec.md §3.3, §4.8.2). Captures are not computed here:
// the native backend walks Ops for free LoadVariable names at codegen time
// (spec.md §4.8.2); the interpreter instead closes over a copy of its
// environment taken when the closure is built, needing no separate capture
// list.
type MakeClosure struct {
	opBase
	Params []string
	Ops    []Op
}

func (o MakeClosure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string   `json:"op"`
		Params []string `json:"params"`
		Ops    []Op     `json:"ops"`
	}{"make_closure", o.Params, o.Ops})
}
