// Package mir implements spec.md §3.4/§4.6/§4.7: a CFG representation with
// block parameters (standing in for SSA phi nodes) lowered from lang/ir's
// flat stack ops, plus a per-block constant-folding pass the native backend
// runs before codegen. Grounded on original_source/src/mir.rs's MirProgram/
// MirFunction/MirBlock/MirInstruction/MirTerminator shapes, including their
// exact `#[serde(tag = "op"/"kind", rename_all = "snake_case")]` JSON
// conventions (SPEC_FULL.md §6.3).
package mir

import (
	"encoding/json"

	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/ir"
)

// ValueID names an SSA value within a function.
type ValueID = uint32

// Type is a MIR static type tag, serialized lowercase (spec.md §6.3).
type Type string

const (
	TypeInt     Type = "int"
	TypeFloat   Type = "float"
	TypeBool    Type = "bool"
	TypeNil     Type = "nil"
	TypeString  Type = "string"
	TypeAtom    Type = "atom"
	TypeResult  Type = "result"
	TypeClosure Type = "closure"
	TypeDynamic Type = "dynamic"
)

type Program struct {
	Functions []*Function
}

type Function struct {
	Name          string
	Params        []TypedName
	ParamPatterns []ast.Pattern // nil unless a parameter uses pattern syntax
	GuardOps      []ir.Op       // nil unless the clause has a `when` guard
	EntryBlock    uint32
	Blocks        []*Block
}

type TypedName struct {
	Name string
	Type Type
}

func (t TypedName) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
		Type Type   `json:"type"`
	}{t.Name, t.Type})
}

// Block is one CFG node. ArgValues holds the SSA value id bound to each of
// Args in order when control enters via a Jump/Match/ShortCircuit/Branch
// edge; this is not part of original_source/src/mir.rs's MirBlock shape
// (which never needed an executable interpreter) but is required to
// actually bind incoming Jump arguments to values instructions can
// reference, so it is carried alongside Args rather than re-derived.
type Block struct {
	ID           uint32
	Args         []TypedName
	ArgValues    []ValueID
	Instructions []Instruction
	Terminator   Terminator
}

func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           uint32        `json:"id"`
		Args         []TypedName   `json:"args"`
		ArgValues    []ValueID     `json:"arg_values"`
		Instructions []Instruction `json:"instructions"`
		Terminator   Terminator    `json:"terminator"`
	}{b.ID, b.Args, b.ArgValues, b.Instructions, b.Terminator})
}

// Instruction is implemented by every MIR instruction.
type Instruction interface {
	instrNode()
}

type instrBase struct{}

func (instrBase) instrNode() {}

// UnaryKind enumerates the unary instruction kinds. ToString/Not/Bang/Raise
// are the four carried from the original's MirUnaryKind; PosInt/NegInt/
// BitwiseNot extend it since Tonic's surface grammar has unary `+`/`-`/`~`
// operators the teacher's original language did not (see DESIGN.md).
type UnaryKind string

const (
	UnaryKindToString   UnaryKind = "to_string"
	UnaryKindNot        UnaryKind = "not"
	UnaryKindBang       UnaryKind = "bang"
	UnaryKindRaise      UnaryKind = "raise"
	UnaryKindPosInt     UnaryKind = "pos_int"
	UnaryKindNegInt     UnaryKind = "neg_int"
	UnaryKindBitwiseNot UnaryKind = "bitwise_not"
)

// BinaryKind enumerates the binary instruction kinds, matching
// original_source/src/mir.rs's MirBinaryKind; NotIn extends it for Tonic's
// `not in` operator, which the original grammar lacks.
type BinaryKind string

const (
	BinaryKindAddInt     BinaryKind = "add_int"
	BinaryKindSubInt     BinaryKind = "sub_int"
	BinaryKindMulInt     BinaryKind = "mul_int"
	BinaryKindDivInt     BinaryKind = "div_int"
	BinaryKindCmpIntEq   BinaryKind = "cmp_int_eq"
	BinaryKindCmpIntNeq  BinaryKind = "cmp_int_not_eq"
	BinaryKindCmpIntLt   BinaryKind = "cmp_int_lt"
	BinaryKindCmpIntLte  BinaryKind = "cmp_int_lte"
	BinaryKindCmpIntGt   BinaryKind = "cmp_int_gt"
	BinaryKindCmpIntGte  BinaryKind = "cmp_int_gte"
	BinaryKindConcat     BinaryKind = "concat"
	BinaryKindIn         BinaryKind = "in"
	BinaryKindNotIn      BinaryKind = "not_in"
	BinaryKindPlusPlus   BinaryKind = "plus_plus"
	BinaryKindMinusMinus BinaryKind = "minus_minus"
	BinaryKindRange      BinaryKind = "range"
)

type ConstInt struct {
	instrBase
	Dest  ValueID
	Value int64
}

func (i ConstInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string  `json:"op"`
		Dest  ValueID `json:"dest"`
		Value int64   `json:"value"`
		Type  Type    `json:"type"`
	}{"const_int", i.Dest, i.Value, TypeInt})
}

type ConstFloat struct {
	instrBase
	Dest  ValueID
	Value string
}

func (i ConstFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string  `json:"op"`
		Dest  ValueID `json:"dest"`
		Value string  `json:"value"`
		Type  Type    `json:"type"`
	}{"const_float", i.Dest, i.Value, TypeFloat})
}

type ConstBool struct {
	instrBase
	Dest  ValueID
	Value bool
}

func (i ConstBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string  `json:"op"`
		Dest  ValueID `json:"dest"`
		Value bool    `json:"value"`
		Type  Type    `json:"type"`
	}{"const_bool", i.Dest, i.Value, TypeBool})
}

type ConstNil struct {
	instrBase
	Dest ValueID
}

func (i ConstNil) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string  `json:"op"`
		Dest ValueID `json:"dest"`
		Type Type    `json:"type"`
	}{"const_nil", i.Dest, TypeNil})
}

type ConstString struct {
	instrBase
	Dest  ValueID
	Value string
}

func (i ConstString) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string  `json:"op"`
		Dest  ValueID `json:"dest"`
		Value string  `json:"value"`
		Type  Type    `json:"type"`
	}{"const_string", i.Dest, i.Value, TypeString})
}

type ConstAtom struct {
	instrBase
	Dest  ValueID
	Value string
}

func (i ConstAtom) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string  `json:"op"`
		Dest  ValueID `json:"dest"`
		Value string  `json:"value"`
		Type  Type    `json:"type"`
	}{"const_atom", i.Dest, i.Value, TypeAtom})
}

type LoadVariable struct {
	instrBase
	Dest ValueID
	Name string
}

func (i LoadVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string  `json:"op"`
		Dest ValueID `json:"dest"`
		Name string  `json:"name"`
		Type Type    `json:"type"`
	}{"load_variable", i.Dest, i.Name, TypeDynamic})
}

type Unary struct {
	instrBase
	Dest      ValueID
	Kind      UnaryKind
	Input     ValueID
	ValueType Type
}

func (i Unary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string    `json:"op"`
		Dest  ValueID   `json:"dest"`
		Kind  UnaryKind `json:"kind"`
		Input ValueID   `json:"input"`
		Type  Type      `json:"type"`
	}{"unary", i.Dest, i.Kind, i.Input, i.ValueType})
}

type Binary struct {
	instrBase
	Dest        ValueID
	Kind        BinaryKind
	Left, Right ValueID
	ValueType   Type
}

func (i Binary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string     `json:"op"`
		Dest  ValueID    `json:"dest"`
		Kind  BinaryKind `json:"kind"`
		Left  ValueID    `json:"left"`
		Right ValueID    `json:"right"`
		Type  Type       `json:"type"`
	}{"binary", i.Dest, i.Kind, i.Left, i.Right, i.ValueType})
}

type Call struct {
	instrBase
	Dest      ValueID
	Callee    ir.CallTarget
	Args      []ValueID
	ValueType Type
}

func (i Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string        `json:"op"`
		Dest   ValueID       `json:"dest"`
		Callee ir.CallTarget `json:"callee"`
		Args   []ValueID     `json:"args"`
		Type   Type          `json:"type"`
	}{"call", i.Dest, i.Callee, i.Args, i.ValueType})
}

type CallValue struct {
	instrBase
	Dest   ValueID
	Callee ValueID
	Args   []ValueID
}

func (i CallValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string    `json:"op"`
		Dest   ValueID   `json:"dest"`
		Callee ValueID   `json:"callee"`
		Args   []ValueID `json:"args"`
		Type   Type      `json:"type"`
	}{"call_value", i.Dest, i.Callee, i.Args, TypeDynamic})
}

// MakeClosure keeps the closure body as nested IR ops rather than further
// lowering it to MIR: the native backend's closure-descriptor pass (spec.md
// §4.8.2) walks these raw ops for free-variable capture analysis, and the
// interpreter executes closures by re-entering IR evaluation directly.
type MakeClosure struct {
	instrBase
	Dest   ValueID
	Params []string
	Ops    []ir.Op
}

func (i MakeClosure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string   `json:"op"`
		Dest   ValueID  `json:"dest"`
		Params []string `json:"params"`
		Ops    []ir.Op  `json:"ops"`
		Type   Type     `json:"type"`
	}{"make_closure", i.Dest, i.Params, i.Ops, TypeClosure})
}

type Question struct {
	instrBase
	Dest  ValueID
	Input ValueID
}

func (i Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string  `json:"op"`
		Dest  ValueID `json:"dest"`
		Input ValueID `json:"input"`
		Type  Type    `json:"type"`
	}{"question", i.Dest, i.Input, TypeDynamic})
}

// MatchPattern tests a single value against a single pattern, used for a
// standalone pattern match outside of a branching case. Tonic's surface
// grammar has no such standalone match expression (patterns only ever
// appear in case/try/for/function-clause position, all of which lower to
// Case or a structured op instead), so nothing in this pipeline currently
// constructs one; the type is kept for MIR file-format parity with
// original_source/src/mir.rs.
type MatchPattern struct {
	instrBase
	Dest    ValueID
	Input   ValueID
	Pattern ast.Pattern
}

func (i MatchPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op      string      `json:"op"`
		Dest    ValueID     `json:"dest"`
		Input   ValueID     `json:"input"`
		Pattern ast.Pattern `json:"pattern"`
		Type    Type        `json:"type"`
	}{"match_pattern", i.Dest, i.Input, i.Pattern, TypeDynamic})
}

// Legacy wraps an IR op (Try or For) that MIR does not structurally lower;
// its runtime semantics are delegated to tn_runtime_try/tn_runtime_for
// (spec.md §4.6) or to the interpreter's direct IR evaluator.
type Legacy struct {
	instrBase
	Dest   ValueID
	Source ir.Op
}

func (i Legacy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string  `json:"op"`
		Dest   ValueID `json:"dest"`
		Source ir.Op   `json:"source"`
		Type   Type    `json:"type"`
	}{"legacy", i.Dest, i.Source, TypeDynamic})
}

// Terminator is implemented by every block terminator.
type Terminator interface {
	termNode()
}

type termBase struct{}

func (termBase) termNode() {}

type Return struct {
	termBase
	Value ValueID
}

func (t Return) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string  `json:"kind"`
		Value ValueID `json:"value"`
	}{"return", t.Value})
}

type Jump struct {
	termBase
	Target uint32
	Args   []ValueID
}

func (t Jump) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string    `json:"kind"`
		Target uint32    `json:"target"`
		Args   []ValueID `json:"args"`
	}{"jump", t.Target, t.Args})
}

// MatchArm is one `pattern (when guard)? -> target` arm of a Match
// terminator, mirroring a lowered Case branch.
type MatchArm struct {
	Pattern  ast.Pattern
	GuardOps []ir.Op // nil if no `when` clause
	Target   uint32
}

func (a MatchArm) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pattern  ast.Pattern `json:"pattern"`
		GuardOps []ir.Op     `json:"guard_ops,omitempty"`
		Target   uint32      `json:"target"`
	}{a.Pattern, a.GuardOps, a.Target})
}

type Match struct {
	termBase
	Scrutinee ValueID
	Arms      []MatchArm
}

func (t Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      string     `json:"kind"`
		Scrutinee ValueID    `json:"scrutinee"`
		Arms      []MatchArm `json:"arms"`
	}{"match", t.Scrutinee, t.Arms})
}

// ShortCircuitOp names which of the four logical operators a ShortCircuit
// terminator implements.
type ShortCircuitOp string

const (
	ShortCircuitAndAnd ShortCircuitOp = "and_and"
	ShortCircuitOrOr   ShortCircuitOp = "or_or"
	ShortCircuitAnd    ShortCircuitOp = "and"
	ShortCircuitOr     ShortCircuitOp = "or"
)

type ShortCircuit struct {
	termBase
	Op             ShortCircuitOp
	Condition      ValueID
	OnEvaluateRHS  uint32
	OnShortCircuit uint32
}

func (t ShortCircuit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind           string         `json:"kind"`
		Op             ShortCircuitOp `json:"op"`
		Condition      ValueID        `json:"condition"`
		OnEvaluateRHS  uint32         `json:"on_evaluate_rhs"`
		OnShortCircuit uint32         `json:"on_short_circuit"`
	}{"short_circuit", t.Op, t.Condition, t.OnEvaluateRHS, t.OnShortCircuit})
}

// Branch is a two-way conditional jump on a known-boolean value, used only
// to lower `cond` (see DESIGN.md): unlike ShortCircuit, which is specific to
// the four logical combinators and always produces a merged boolean result,
// Branch just picks one of two successor blocks and is not part of
// original_source/src/mir.rs's terminator set.
type Branch struct {
	termBase
	Condition ValueID
	OnTrue    uint32
	OnFalse   uint32
}

func (t Branch) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      string  `json:"kind"`
		Condition ValueID `json:"condition"`
		OnTrue    uint32  `json:"on_true"`
		OnFalse   uint32  `json:"on_false"`
	}{"branch", t.Condition, t.OnTrue, t.OnFalse})
}
