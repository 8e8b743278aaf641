// Package ast defines the abstract syntax tree produced by the parser:
// modules containing functions, whose bodies are expressions composed per
// spec.md §3.2. Every node carries a deterministic id (module-0001,
// expr-0002, function-0003, ...) drawn from one counter by a fresh IDGen per
// parse, so that two parses of byte-identical source produce identical ids
// (spec.md §8 property 1). A module is numbered when its header is parsed;
// a function, expression or pattern is numbered once its children have been
// parsed, so a parent's id follows its children's rather than preceding it.
package ast

import (
	"fmt"

	"github.com/mikeyobrien/tonic/lang/token"
)

// Node is implemented by every AST node.
type Node interface {
	fmt.Stringer

	// ID returns the node's deterministic identifier.
	ID() string
	// Span reports the node's byte offset span [start, end) in the source.
	Span() (start, end token.Pos)
	// Walk visits the node's children with v, implementing the Visitor
	// pattern (see Visitor and Walk).
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// IDGen assigns deterministic, monotonically-increasing node ids scoped to a
// single parse. A fresh IDGen used for two parses of the same source text
// yields identical ids for identical nodes, in the order the parser
// requests them.
type IDGen struct {
	next int
}

// NewIDGen creates a fresh id generator.
func NewIDGen() *IDGen {
	return &IDGen{}
}

// Next returns the next id, prefixed with the given node kind; all kinds
// share one counter, e.g. Next("module") -> "module-0001", then
// Next("expr") -> "expr-0002", ...
func (g *IDGen) Next(kind string) string {
	g.next++
	return fmt.Sprintf("%s-%04d", kind, g.next)
}

// Ast is the root of a parsed program: a sequence of modules in document
// order.
type Ast struct {
	Modules []*Module
}

// Module corresponds to a single `defmodule Name do ... end` block.
type Module struct {
	NodeID     string
	Name       string
	Functions  []*Function
	Start, End token.Pos
}

func (m *Module) ID() string                   { return m.NodeID }
func (m *Module) Span() (start, end token.Pos) { return m.Start, m.End }
func (m *Module) String() string               { return "module " + m.Name }
func (m *Module) Walk(v Visitor) {
	for _, fn := range m.Functions {
		Walk(v, fn)
	}
}

// Param is a function parameter: a name plus an optional type annotation
// (only Int or Dynamic are legal annotations per spec.md §4.2) and an
// optional default value introduced by `\`.
type Param struct {
	Name           string
	TypeAnnotation TypeAnnotation
	Default        Expr // nil if no `\` default
	Pos            token.Pos
}

// TypeAnnotation enumerates the type annotations a parameter may carry.
type TypeAnnotation int

const (
	AnnotationNone TypeAnnotation = iota
	AnnotationInt
	AnnotationDynamic
)

// Function corresponds to a `def`/`defp` declaration. IsPrivate is true for
// `defp`.
type Function struct {
	NodeID     string
	Name       string
	Params     []Param
	Body       Expr
	IsPrivate  bool
	Start, End token.Pos
}

func (f *Function) ID() string                   { return f.NodeID }
func (f *Function) Span() (start, end token.Pos) { return f.Start, f.End }
func (f *Function) String() string {
	kind := "def"
	if f.IsPrivate {
		kind = "defp"
	}
	return fmt.Sprintf("%s %s/%d", kind, f.Name, len(f.Params))
}
func (f *Function) Walk(v Visitor) {
	if f.Body != nil {
		Walk(v, f.Body)
	}
}

// QualifiedName returns "Module.Function", the name used for IR lowering and
// native-backend mangling.
func QualifiedName(module, function string) string {
	return module + "." + function
}
