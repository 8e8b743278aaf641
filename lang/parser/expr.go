package parser

import (
	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/token"
)

// parseExpr implements the 11-level precedence table of spec.md §4.2,
// lowest (pipe) to highest (postfix `?`).
func (p *parser) parseExpr() ast.Expr {
	return p.parsePipe()
}

func (p *parser) parsePipe() ast.Expr {
	left := p.parseOr()
	for p.at(token.PIPEGT) {
		pos := p.expect(token.PIPEGT).Pos
		right := p.parseOr()
		left = &ast.PipeExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.at(token.OR, token.OROR) {
		op := ast.BinOr
		if p.tok() == token.OROR {
			op = ast.BinOrOr
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseAnd()
		left = mkBinary(p, pos, op, left, right)
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseComparison()
	for p.at(token.AND, token.ANDAND) {
		op := ast.BinAnd
		if p.tok() == token.ANDAND {
			op = ast.BinAndAnd
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseComparison()
		left = mkBinary(p, pos, op, left, right)
	}
	return left
}

var comparisonOps = map[token.Token]ast.BinaryOp{
	token.EQEQ: ast.BinEq,
	token.NEQ:  ast.BinNeq,
	token.LT:   ast.BinLt,
	token.LE:   ast.BinLte,
	token.GT:   ast.BinGt,
	token.GE:   ast.BinGte,
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseInNotIn()
	for {
		op, ok := comparisonOps[p.tok()]
		if !ok {
			return left
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseInNotIn()
		left = mkBinary(p, pos, op, left, right)
	}
}

func (p *parser) parseInNotIn() ast.Expr {
	left := p.parseConcat()
	for {
		if p.at(token.IN) {
			pos := p.cur().Pos
			p.advance()
			right := p.parseConcat()
			left = mkBinary(p, pos, ast.BinIn, left, right)
			continue
		}
		if p.at(token.NOT) && p.peekIsIn() {
			pos := p.cur().Pos
			p.advance()
			p.advance()
			right := p.parseConcat()
			left = mkBinary(p, pos, ast.BinNotIn, left, right)
			continue
		}
		return left
	}
}

func (p *parser) peekIsIn() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	return p.toks[p.pos+1].Kind == token.IN
}

var concatOps = map[token.Token]ast.BinaryOp{
	token.DIAMOND:    ast.BinConcat,
	token.PLUSPLUS:   ast.BinPlusPlus,
	token.MINUSMINUS: ast.BinMinusMinus,
	token.DOTDOT:     ast.BinRange,
}

// parseConcat is right-associative (spec.md §4.2 tier 6).
func (p *parser) parseConcat() ast.Expr {
	left := p.parseAdditive()
	op, ok := concatOps[p.tok()]
	if !ok {
		return left
	}
	pos := p.cur().Pos
	p.advance()
	right := p.parseConcat()
	return mkBinary(p, pos, op, left, right)
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.at(token.PLUS, token.MINUS) {
		op := ast.BinAdd
		if p.tok() == token.MINUS {
			op = ast.BinSub
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseMultiplicative()
		left = mkBinary(p, pos, op, left, right)
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.at(token.STAR, token.SLASH) {
		op := ast.BinMul
		if p.tok() == token.SLASH {
			op = ast.BinDiv
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseUnary()
		left = mkBinary(p, pos, op, left, right)
	}
	return left
}

var unaryOps = map[token.Token]ast.UnaryOp{
	token.PLUS:  ast.UnaryPlus,
	token.MINUS: ast.UnaryMinus,
	token.NOT:   ast.UnaryNot,
	token.BANG:  ast.UnaryBang,
	token.TILDE: ast.UnaryBitwiseNot,
}

func (p *parser) parseUnary() ast.Expr {
	if op, ok := unaryOps[p.tok()]; ok {
		pos := p.cur().Pos
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Op: op, Value: operand}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for p.at(token.QUESTION) {
		pos := p.expect(token.QUESTION).Pos
		e = &ast.QuestionExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Value: e}
	}
	return e
}

func mkBinary(p *parser, pos token.Pos, op ast.BinaryOp, left, right ast.Expr) ast.Expr {
	return &ast.BinaryExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Op: op, Left: left, Right: right}
}
