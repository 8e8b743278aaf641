package parser

import (
	"strconv"

	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/token"
)

// parsePrimary implements precedence tier 11 of spec.md §4.2: literals,
// `(expr)`, case, cond, fn...end, call, capture `&...`, `Module.fn(args)`,
// `fun.(args)`.
func (p *parser) parsePrimary() ast.Expr {
	tv := p.cur()
	switch tv.Kind {
	case token.INT:
		p.advance()
		return &ast.IntExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Int}

	case token.FLOAT:
		p.advance()
		return &ast.FloatExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Lit}

	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BoolExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Kind == token.TRUE}

	case token.NIL:
		p.advance()
		return &ast.NilExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}}

	case token.STRING:
		p.advance()
		return &ast.StringExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Lit}

	case token.ATOM:
		p.advance()
		return &ast.AtomExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Lit}

	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		return inner

	case token.CASE:
		return p.parseCase()

	case token.COND:
		return p.parseCond()

	case token.FN:
		return p.parseFn()

	case token.FOR:
		return p.parseFor()

	case token.TRY:
		return p.parseTry()

	case token.AMP:
		return p.parseCapture()

	case token.LBRACE:
		return p.parseTupleLiteral()

	case token.LBRACK:
		return p.parseListOrKeywordLiteral()

	case token.PERCENT:
		return p.parseMapLiteral()

	case token.IDENT:
		return p.parseIdentOrCall()
	}

	p.errorExpected("expression")
	return nil // unreachable: errorExpected panics
}

func (p *parser) parseIdentOrCall() ast.Expr {
	tv := p.expect(token.IDENT)
	name := tv.Lit

	if p.at(token.LPAREN) {
		args := p.parseCallArgs()
		return &ast.CallExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Callee: name, Args: args}
	}

	var expr ast.Expr = &ast.VariableExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Name: name}

	if p.at(token.DOT) {
		p.advance()
		if p.at(token.LPAREN) {
			args := p.parseCallArgs()
			return &ast.CallValueExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Callee: expr, Args: args}
		}
		fn := p.expect(token.IDENT).Lit
		args := p.parseCallArgs()
		qualified := ast.QualifiedName(name, fn)
		return &ast.CallExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Callee: qualified, Args: args}
	}

	return expr
}

func (p *parser) parseCallArgs() []ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	if !p.at(token.RPAREN) {
		for {
			args = append(args, p.parseExpr())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

// parseCapture parses `&name/arity`, e.g. `&run/1`.
func (p *parser) parseCapture() ast.Expr {
	pos := p.expect(token.AMP).Pos
	name := p.expect(token.IDENT).Lit
	p.expect(token.SLASH)
	arityTok := p.expect(token.INT)
	arity, err := strconv.Atoi(arityTok.Lit)
	if err != nil {
		p.errorf(arityTok.Pos, "invalid capture arity '%s'", arityTok.Lit)
	}
	return &ast.CaptureExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Name: name, Arity: arity}
}

func (p *parser) parseCase() ast.Expr {
	pos := p.expect(token.CASE).Pos
	subject := p.parseExpr()
	p.expect(token.DO)

	var branches []ast.CaseBranch
	for !p.at(token.END, token.EOF) {
		branches = append(branches, p.parseCaseBranch())
		if p.at(token.SEMI) {
			p.advance()
		}
	}
	if len(branches) == 0 {
		p.errorf(pos, "empty case is not allowed")
	}
	p.expect(token.END)
	return &ast.CaseExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Subject: subject, Branches: branches}
}

func (p *parser) parseCaseBranch() ast.CaseBranch {
	pat := p.parsePattern()
	var guard ast.Expr
	if p.at(token.WHEN) {
		p.advance()
		guard = p.parseExpr()
	}
	p.expect(token.ARROW)
	body := p.parseExpr()
	return ast.CaseBranch{Pattern: pat, Guard: guard, Body: body}
}

func (p *parser) parseCond() ast.Expr {
	pos := p.expect(token.COND).Pos
	p.expect(token.DO)

	var branches []ast.CondBranch
	for !p.at(token.END, token.EOF) {
		guard := p.parseExpr()
		p.expect(token.ARROW)
		body := p.parseExpr()
		branches = append(branches, ast.CondBranch{Guard: guard, Body: body})
		if p.at(token.SEMI) {
			p.advance()
		}
	}
	p.expect(token.END)
	return &ast.CondExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Branches: branches}
}

// parseFn parses `fn param, param -> body end`.
func (p *parser) parseFn() ast.Expr {
	pos := p.expect(token.FN).Pos

	var params []ast.Param
	if !p.at(token.ARROW) {
		for {
			tv := p.expect(token.IDENT)
			params = append(params, ast.Param{Name: tv.Lit, Pos: tv.Pos})
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.ARROW)
	body := p.parseExpr()
	p.expect(token.END)
	return &ast.FnExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Params: params, Body: body}
}

// parseTupleLiteral parses `{a, b}`. Arity is not checked here (spec.md
// §3.5): the type inferencer rejects tuples that are not exactly binary.
func (p *parser) parseTupleLiteral() ast.Expr {
	pos := p.expect(token.LBRACE).Pos
	var items []ast.Expr
	if !p.at(token.RBRACE) {
		for {
			items = append(items, p.parseExpr())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.CollectionExpr{
		Base:  ast.Base{NodeID: p.ids.Next("expr"), Offset: pos},
		Kind:  ast.CollectionTuple,
		Items: items,
	}
}

// parseListOrKeywordLiteral parses `[a, b, c]` or, when the first element is
// `ident:`, a keyword list `[k: v, ...]`.
func (p *parser) parseListOrKeywordLiteral() ast.Expr {
	pos := p.expect(token.LBRACK).Pos
	if p.at(token.RBRACK) {
		p.advance()
		return &ast.CollectionExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: pos}, Kind: ast.CollectionList}
	}

	if p.isKeywordEntryStart() {
		var entries []ast.CollectionEntry
		for {
			keyTok := p.expect(token.IDENT)
			p.expect(token.COLON)
			val := p.parseExpr()
			key := &ast.AtomExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: keyTok.Pos}, Value: keyTok.Lit}
			entries = append(entries, ast.CollectionEntry{Key: key, Value: val})
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RBRACK)
		return &ast.CollectionExpr{
			Base:    ast.Base{NodeID: p.ids.Next("expr"), Offset: pos},
			Kind:    ast.CollectionKeyword,
			Entries: entries,
		}
	}

	var items []ast.Expr
	for {
		items = append(items, p.parseExpr())
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACK)
	return &ast.CollectionExpr{
		Base:  ast.Base{NodeID: p.ids.Next("expr"), Offset: pos},
		Kind:  ast.CollectionList,
		Items: items,
	}
}

func (p *parser) isKeywordEntryStart() bool {
	if p.tok() != token.IDENT {
		return false
	}
	if p.pos+1 >= len(p.toks) {
		return false
	}
	return p.toks[p.pos+1].Kind == token.COLON
}

// parseMapLiteral parses `%{key -> value, ...}` (spec.md §3.5), with atom,
// int, string, bool or nil literal keys.
func (p *parser) parseMapLiteral() ast.Expr {
	pos := p.expect(token.PERCENT).Pos
	p.expect(token.LBRACE)

	var entries []ast.CollectionEntry
	if !p.at(token.RBRACE) {
		for {
			key := p.parseMapKey()
			p.expect(token.ARROW)
			val := p.parseExpr()
			entries = append(entries, ast.CollectionEntry{Key: key, Value: val})
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.CollectionExpr{
		Base:    ast.Base{NodeID: p.ids.Next("expr"), Offset: pos},
		Kind:    ast.CollectionMap,
		Entries: entries,
	}
}

// parseMapKey parses a restricted key expression: atom, int, string, bool
// or nil literal (map keys must match exactly, so arbitrary expressions are
// not accepted).
func (p *parser) parseMapKey() ast.Expr {
	tv := p.cur()
	switch tv.Kind {
	case token.ATOM:
		p.advance()
		return &ast.AtomExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Lit}
	case token.INT:
		p.advance()
		return &ast.IntExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Int}
	case token.STRING:
		p.advance()
		return &ast.StringExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Lit}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BoolExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}, Value: tv.Kind == token.TRUE}
	case token.NIL:
		p.advance()
		return &ast.NilExpr{Base: ast.Base{NodeID: p.ids.Next("expr"), Offset: tv.Pos}}
	}
	p.errorExpected("map key")
	return nil
}

// parseFor parses a list comprehension: `for <clause>(, <clause>)* do body
// end`, where a clause is either a generator (`pattern <- source`), a
// boolean filter expression, or the `into: expr` collector clause.
func (p *parser) parseFor() ast.Expr {
	pos := p.expect(token.FOR).Pos

	var gens []ast.Generator
	var filters []ast.Expr
	var into ast.Expr
	for {
		switch {
		case p.at(token.INTO):
			p.advance()
			p.expect(token.COLON)
			into = p.parseExpr()
		case p.clauseIsGenerator():
			pat := p.parsePattern()
			p.expect(token.LARROW)
			src := p.parseExpr()
			gens = append(gens, ast.Generator{Pattern: pat, Source: src})
		default:
			filters = append(filters, p.parseExpr())
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.DO)
	body := p.parseExpr()
	p.expect(token.END)
	return &ast.ForExpr{
		Base:       ast.Base{NodeID: p.ids.Next("expr"), Offset: pos},
		Generators: gens,
		Filters:    filters,
		Body:       body,
		Into:       into,
	}
}

// clauseIsGenerator reports whether the clause starting at the current
// token contains a top-level `<-` before its terminating comma/do, without
// consuming any tokens. Bracket/brace/paren nesting is tracked so a `<-`
// inside a nested call or collection does not count.
func (p *parser) clauseIsGenerator() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
		case token.LARROW:
			if depth == 0 {
				return true
			}
		case token.COMMA, token.DO, token.EOF:
			if depth == 0 {
				return false
			}
		}
	}
	return false
}

// parseTry parses `try do body (rescue arm*)? (catch arm*)? (after expr)?
// end`.
func (p *parser) parseTry() ast.Expr {
	pos := p.expect(token.TRY).Pos
	p.expect(token.DO)
	body := p.parseExpr()

	var rescue, catchArms []ast.CaseBranch
	if p.at(token.RESCUE) {
		p.advance()
		rescue = p.parseTryArms()
	}
	if p.at(token.CATCH) {
		p.advance()
		catchArms = p.parseTryArms()
	}
	var after ast.Expr
	if p.at(token.AFTER) {
		p.advance()
		after = p.parseExpr()
	}
	p.expect(token.END)
	return &ast.TryExpr{
		Base:   ast.Base{NodeID: p.ids.Next("expr"), Offset: pos},
		Body:   body,
		Rescue: rescue,
		Catch:  catchArms,
		After:  after,
	}
}

func (p *parser) parseTryArms() []ast.CaseBranch {
	var arms []ast.CaseBranch
	for !p.at(token.CATCH, token.AFTER, token.END, token.EOF) {
		arms = append(arms, p.parseCaseBranch())
		if p.at(token.SEMI) {
			p.advance()
		}
	}
	return arms
}
