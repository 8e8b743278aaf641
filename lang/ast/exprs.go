package ast

import "github.com/mikeyobrien/tonic/lang/token"

// base carries the fields common to every expression node: its id and
// source offset (spec.md §3.2 "all carry id, offset").
type Base struct {
	NodeID string
	Offset token.Pos
}

func (b *Base) ID() string { return b.NodeID }

func (b *Base) Span() (start, end token.Pos) { return b.Offset, b.Offset }

func (b *Base) exprNode() {}

// IntExpr is an integer literal.
type IntExpr struct {
	Base
	Value int64
}

func (e *IntExpr) String() string { return "int" }
func (e *IntExpr) Walk(Visitor)   {}

// FloatExpr is a float literal. Floats are carried through the pipeline as
// opaque values: no arithmetic path exists for them in the core (spec.md §9
// open question 3).
type FloatExpr struct {
	Base
	Value string // preserves the literal's original textual form
}

func (e *FloatExpr) String() string { return "float" }
func (e *FloatExpr) Walk(Visitor)   {}

// BoolExpr is a boolean literal.
type BoolExpr struct {
	Base
	Value bool
}

func (e *BoolExpr) String() string { return "bool" }
func (e *BoolExpr) Walk(Visitor)   {}

// NilExpr is the `nil` literal.
type NilExpr struct {
	Base
}

func (e *NilExpr) String() string { return "nil" }
func (e *NilExpr) Walk(Visitor)   {}

// StringExpr is a string literal; the raw body is carried verbatim, no
// escape processing happens in the lexer (spec.md §4.1).
type StringExpr struct {
	Base
	Value string
}

func (e *StringExpr) String() string { return "string" }
func (e *StringExpr) Walk(Visitor)   {}

// AtomExpr is an atom literal, e.g. `:ok`.
type AtomExpr struct {
	Base
	Value string
}

func (e *AtomExpr) String() string { return "atom :" + e.Value }
func (e *AtomExpr) Walk(Visitor)   {}

// VariableExpr references a bound name.
type VariableExpr struct {
	Base
	Name string
}

func (e *VariableExpr) String() string { return "var " + e.Name }
func (e *VariableExpr) Walk(Visitor)   {}

// UnaryOp enumerates the prefix/postfix unary operators (spec.md §3.2).
type UnaryOp int

//nolint:revive
const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
	UnaryBang
	UnaryBitwiseNot
	UnaryToString
	UnaryRaise
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryPlus:
		return "+"
	case UnaryMinus:
		return "-"
	case UnaryNot:
		return "not"
	case UnaryBang:
		return "!"
	case UnaryBitwiseNot:
		return "~"
	case UnaryToString:
		return "to_string"
	case UnaryRaise:
		return "raise"
	default:
		return "unary?"
	}
}

// UnaryExpr applies a unary operator to Value.
type UnaryExpr struct {
	Base
	Op    UnaryOp
	Value Expr
}

func (e *UnaryExpr) String() string { return "unary " + e.Op.String() }
func (e *UnaryExpr) Walk(v Visitor) { Walk(v, e.Value) }

// BinaryOp enumerates every infix operator, including the four
// short-circuiting logical variants (And/Or keywords, AndAnd/OrOr symbols)
// which IR lowering treats specially (spec.md §4.5, §4.6).
type BinaryOp int

//nolint:revive
const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinEq
	BinNeq
	BinLt
	BinLte
	BinGt
	BinGte
	BinConcat     // <>
	BinIn         // in
	BinNotIn      // not in
	BinPlusPlus   // ++
	BinMinusMinus // --
	BinRange      // ..
	BinAndAnd     // &&
	BinOrOr       // ||
	BinAnd        // and
	BinOr         // or
)

// IsShortCircuit reports whether op is one of the four logical
// short-circuiting operators.
func (op BinaryOp) IsShortCircuit() bool {
	return op == BinAndAnd || op == BinOrOr || op == BinAnd || op == BinOr
}

func (op BinaryOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinEq:
		return "=="
	case BinNeq:
		return "!="
	case BinLt:
		return "<"
	case BinLte:
		return "<="
	case BinGt:
		return ">"
	case BinGte:
		return ">="
	case BinConcat:
		return "<>"
	case BinIn:
		return "in"
	case BinNotIn:
		return "not in"
	case BinPlusPlus:
		return "++"
	case BinMinusMinus:
		return "--"
	case BinRange:
		return ".."
	case BinAndAnd:
		return "&&"
	case BinOrOr:
		return "||"
	case BinAnd:
		return "and"
	case BinOr:
		return "or"
	default:
		return "binop?"
	}
}

// BinaryExpr applies a binary operator to Left and Right.
type BinaryExpr struct {
	Base
	Op          BinaryOp
	Left, Right Expr
}

func (e *BinaryExpr) String() string { return "binary " + e.Op.String() }
func (e *BinaryExpr) Walk(v Visitor) {
	Walk(v, e.Left)
	Walk(v, e.Right)
}

// CallExpr is a function call `callee(args...)`. Callee is either a bare
// name (resolved in the current module) or a `Module.fn` qualified name
// (spec.md §4.3).
type CallExpr struct {
	Base
	Callee string
	Args   []Expr
}

func (e *CallExpr) String() string { return "call " + e.Callee }
func (e *CallExpr) Walk(v Visitor) {
	for _, a := range e.Args {
		Walk(v, a)
	}
}

// CallValueExpr is `fun.(args...)`, calling a closure value rather than a
// named function; lowered to MIR's CallValue (spec.md §4.6).
type CallValueExpr struct {
	Base
	Callee Expr
	Args   []Expr
}

func (e *CallValueExpr) String() string { return "call value" }
func (e *CallValueExpr) Walk(v Visitor) {
	Walk(v, e.Callee)
	for _, a := range e.Args {
		Walk(v, a)
	}
}

// CaptureExpr is `&name/arity`, capturing a named function as a closure
// value without calling it.
type CaptureExpr struct {
	Base
	Name  string
	Arity int
}

func (e *CaptureExpr) String() string { return "capture" }
func (e *CaptureExpr) Walk(Visitor)   {}

// PipeExpr is `left |> right`, rewritten by IR lowering into a call with
// left prepended to right's argument list (spec.md §4.5).
type PipeExpr struct {
	Base
	Left, Right Expr
}

func (e *PipeExpr) String() string { return "pipe" }
func (e *PipeExpr) Walk(v Visitor) {
	Walk(v, e.Left)
	Walk(v, e.Right)
}

// QuestionExpr is the postfix `?` operator.
type QuestionExpr struct {
	Base
	Value Expr
}

func (e *QuestionExpr) String() string { return "question" }
func (e *QuestionExpr) Walk(v Visitor) { Walk(v, e.Value) }

// CaseBranch is one `pattern (when guard)? -> body` arm of a case
// expression.
type CaseBranch struct {
	Pattern Pattern
	Guard   Expr // nil if no `when` clause
	Body    Expr
}

// CaseExpr is a `case subject do branch* end` expression.
type CaseExpr struct {
	Base
	Subject  Expr
	Branches []CaseBranch
}

func (e *CaseExpr) String() string { return "case" }
func (e *CaseExpr) Walk(v Visitor) {
	Walk(v, e.Subject)
	for _, b := range e.Branches {
		Walk(v, b.Pattern)
		if b.Guard != nil {
			Walk(v, b.Guard)
		}
		Walk(v, b.Body)
	}
}

// CondBranch is one `guard -> body` arm of a cond expression.
type CondBranch struct {
	Guard Expr
	Body  Expr
}

// CondExpr is a `cond do branch* end` expression: each Branches[i].Guard is
// tried in order, and the first truthy one's Body is evaluated.
type CondExpr struct {
	Base
	Branches []CondBranch
}

func (e *CondExpr) String() string { return "cond" }
func (e *CondExpr) Walk(v Visitor) {
	for _, b := range e.Branches {
		Walk(v, b.Guard)
		Walk(v, b.Body)
	}
}

// FnExpr is an anonymous function literal `fn params -> body end`, lowered
// to IR's MakeClosure.
type FnExpr struct {
	Base
	Params []Param
	Body   Expr
}

func (e *FnExpr) String() string { return "fn" }
func (e *FnExpr) Walk(v Visitor) { Walk(v, e.Body) }

// CollectionKind enumerates the four collection literal shapes of the value
// model (spec.md §3.5).
type CollectionKind int

//nolint:revive
const (
	CollectionTuple CollectionKind = iota
	CollectionList
	CollectionMap
	CollectionKeyword
)

func (k CollectionKind) String() string {
	switch k {
	case CollectionTuple:
		return "tuple"
	case CollectionList:
		return "list"
	case CollectionMap:
		return "map"
	case CollectionKeyword:
		return "keyword"
	default:
		return "collection?"
	}
}

// CollectionEntry is one key/value pair of a map or keyword literal. Key is
// nil for list/tuple items, which are carried in CollectionExpr.Items
// instead.
type CollectionEntry struct {
	Key   Expr
	Value Expr
}

// CollectionExpr is a tuple/list/map/keyword literal. Tuple literals must
// have exactly two Items (spec.md §3.5); that invariant is enforced by the
// type inferencer, not the parser, matching how the parser "ignores
// exhaustiveness" for case (spec.md §4.2).
type CollectionExpr struct {
	Base
	Kind    CollectionKind
	Items   []Expr            // for Tuple/List
	Entries []CollectionEntry // for Map/Keyword
}

func (e *CollectionExpr) String() string { return e.Kind.String() + " literal" }
func (e *CollectionExpr) Walk(v Visitor) {
	for _, it := range e.Items {
		Walk(v, it)
	}
	for _, en := range e.Entries {
		if en.Key != nil {
			Walk(v, en.Key)
		}
		Walk(v, en.Value)
	}
}

// Generator is one `pattern <- source` clause of a for-comprehension.
type Generator struct {
	Pattern Pattern
	Source  Expr
}

// ForExpr is a list comprehension: `for gen, gen, filter? do body (into: x)? end`,
// lowered to IR's `For{generators, body_ops, guard?, into?, reduce?}` (spec.md
// §3.3). Reduce clauses are not part of the surface grammar yet (see
// DESIGN.md); Into is nil when no `into:` clause is present, in which case
// the comprehension collects into a List.
type ForExpr struct {
	Base
	Generators []Generator
	Filters    []Expr // boolean filter expressions interspersed with generators
	Body       Expr
	Into       Expr
}

func (e *ForExpr) String() string { return "for" }
func (e *ForExpr) Walk(v Visitor) {
	for _, g := range e.Generators {
		Walk(v, g.Pattern)
		Walk(v, g.Source)
	}
	for _, f := range e.Filters {
		Walk(v, f)
	}
	Walk(v, e.Body)
	if e.Into != nil {
		Walk(v, e.Into)
	}
}

// TryExpr is `try do body (rescue arm*)? (catch arm*)? (after expr)? end`,
// lowered to IR's `Try{body, rescue, catch, after}` (spec.md §3.3). Rescue
// and catch arms share the pattern/guard/body shape of a case branch.
type TryExpr struct {
	Base
	Body   Expr
	Rescue []CaseBranch
	Catch  []CaseBranch
	After  Expr // nil if no `after` clause
}

func (e *TryExpr) String() string { return "try" }
func (e *TryExpr) Walk(v Visitor) {
	Walk(v, e.Body)
	for _, a := range e.Rescue {
		Walk(v, a.Pattern)
		if a.Guard != nil {
			Walk(v, a.Guard)
		}
		Walk(v, a.Body)
	}
	for _, a := range e.Catch {
		Walk(v, a.Pattern)
		if a.Guard != nil {
			Walk(v, a.Guard)
		}
		Walk(v, a.Body)
	}
	if e.After != nil {
		Walk(v, e.After)
	}
}
