// Package parser implements the recursive-descent parser that builds an
// Ast from a token stream (spec.md §4.2). The panic/recover error-mode
// idiom and expect/error helpers are adapted from the teacher's
// lang/parser; the grammar itself is Tonic's own.
package parser

import (
	"fmt"

	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/diag"
	"github.com/mikeyobrien/tonic/lang/lexer"
	"github.com/mikeyobrien/tonic/lang/token"
)

// Parse parses a single source file into an Ast. The returned error, if
// non-nil, wraps every diagnostic accumulated while parsing (see
// lang/diag.Error).
func Parse(filename string, src []byte) (*ast.Ast, *token.File, error) {
	file := token.NewFile(filename, src)
	var errs diag.List
	lx := lexer.New(file, src, &errs)
	toks := lx.All()

	p := &parser{file: file, toks: toks, ids: ast.NewIDGen(), errs: &errs}
	tree := p.parseProgram()
	errs.Sort()
	return tree, file, errs.Err()
}

// errPanicMode unwinds the recursive descent back to parseModule on a
// syntax error, mirroring the teacher's panic-mode recovery.
var errPanicMode = fmt.Errorf("parser: panic mode")

type parser struct {
	file *token.File
	toks []lexer.TokenValue
	pos  int // index into toks of the current token

	ids  *ast.IDGen
	errs *diag.List
}

func (p *parser) cur() lexer.TokenValue { return p.toks[p.pos] }
func (p *parser) tok() token.Token      { return p.toks[p.pos].Kind }

func (p *parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *parser) at(kinds ...token.Token) bool {
	cur := p.tok()
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

func (p *parser) expect(kind token.Token) lexer.TokenValue {
	tv := p.cur()
	if tv.Kind != kind {
		p.errorExpected(kind.GoString())
	}
	p.advance()
	return tv
}

func (p *parser) errorExpected(what string) {
	tv := p.cur()
	p.errs.Add(diag.At(fmt.Sprintf("expected %s, found %s", what, describeTok(tv)), tv.Pos))
	panic(errPanicMode)
}

func describeTok(tv lexer.TokenValue) string {
	if tv.Kind == token.IDENT || tv.Kind == token.INT || tv.Kind == token.FLOAT ||
		tv.Kind == token.STRING || tv.Kind == token.ATOM {
		return tv.Lit
	}
	return tv.Kind.GoString()
}

func (p *parser) errorf(pos token.Pos, format string, args ...interface{}) {
	p.errs.Add(diag.At(fmt.Sprintf(format, args...), pos))
}

func (p *parser) parseProgram() *ast.Ast {
	tree := &ast.Ast{}
	for !p.at(token.EOF) {
		mod := p.recoverModule()
		if mod != nil {
			tree.Modules = append(tree.Modules, mod)
		}
	}
	return tree
}

// recoverModule parses one module, recovering to the next `defmodule` or
// EOF on a syntax error so the rest of the file still parses.
func (p *parser) recoverModule() (mod *ast.Module) {
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			mod = nil
			for !p.at(token.DEFMODULE, token.EOF) {
				p.advance()
			}
		}
	}()
	return p.parseModule()
}

func (p *parser) parseModule() *ast.Module {
	start := p.expect(token.DEFMODULE).Pos
	name := p.expect(token.IDENT).Lit
	p.expect(token.DO)

	m := &ast.Module{NodeID: p.ids.Next("module"), Name: name, Start: start}
	for !p.at(token.END, token.EOF) {
		m.Functions = append(m.Functions, p.parseFunction())
	}
	end := p.expect(token.END).Pos
	m.End = end
	return m
}

func (p *parser) parseFunction() *ast.Function {
	private := false
	var start token.Pos
	if p.at(token.DEFP) {
		private = true
		start = p.expect(token.DEFP).Pos
	} else {
		start = p.expect(token.DEF).Pos
	}
	name := p.expect(token.IDENT).Lit
	p.expect(token.LPAREN)
	params := p.parseParams()
	p.expect(token.RPAREN)
	p.expect(token.DO)
	body := p.parseExpr()
	end := p.expect(token.END).Pos

	return &ast.Function{
		NodeID:    p.ids.Next("function"),
		Name:      name,
		Params:    params,
		Body:      body,
		IsPrivate: private,
		Start:     start,
		End:       end,
	}
}

func (p *parser) parseParams() []ast.Param {
	var params []ast.Param
	if p.at(token.RPAREN) {
		return params
	}
	for {
		tv := p.expect(token.IDENT)
		param := ast.Param{Name: tv.Lit, Pos: tv.Pos}

		if p.at(token.COLON) && p.peekIsAnnotation() {
			p.advance()
			annTok := p.cur()
			p.advance()
			switch {
			case annTok.Kind == token.DYNAMIC:
				param.TypeAnnotation = ast.AnnotationDynamic
			case annTok.Lit == "int":
				param.TypeAnnotation = ast.AnnotationInt
			}
		}
		if p.at(token.BACKSLASH) {
			p.advance()
			param.Default = p.parseExpr()
		}
		params = append(params, param)

		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return params
}

// peekIsAnnotation reports whether the token after a COLON is `dynamic`
// (its own keyword token) or the identifier `int`, the only two legal
// annotations (spec.md §4.2): `name: dynamic`, `name: int`.
func (p *parser) peekIsAnnotation() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	return next.Kind == token.DYNAMIC || (next.Kind == token.IDENT && next.Lit == "int")
}
