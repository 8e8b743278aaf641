package parser

import (
	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/token"
)

// parsePattern parses one case-branch pattern (spec.md §3.2, §4.2).
// `&name` (the AMP token, reused contextually since patterns never start an
// expression) pins an already-bound variable instead of rebinding it.
func (p *parser) parsePattern() ast.Pattern {
	tv := p.cur()
	switch tv.Kind {
	case token.IDENT:
		p.advance()
		if tv.Lit == "_" {
			return &ast.WildcardPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}}
		}
		return &ast.BindPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}, Name: tv.Lit}

	case token.AMP:
		p.advance()
		name := p.expect(token.IDENT).Lit
		return &ast.PinPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}, Name: name}

	case token.INT:
		p.advance()
		return &ast.IntPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}, Value: tv.Int}

	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BoolPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}, Value: tv.Kind == token.TRUE}

	case token.NIL:
		p.advance()
		return &ast.NilPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}}

	case token.STRING:
		p.advance()
		return &ast.StringPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}, Value: tv.Lit}

	case token.ATOM:
		p.advance()
		return &ast.AtomPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: tv.Pos}, Value: tv.Lit}

	case token.LBRACE:
		return p.parseTuplePattern()

	case token.LBRACK:
		return p.parseListPattern()

	case token.PERCENT:
		return p.parseMapPattern()
	}

	p.errorExpected("pattern")
	return nil
}

func (p *parser) parseTuplePattern() ast.Pattern {
	pos := p.expect(token.LBRACE).Pos
	var items []ast.Pattern
	if !p.at(token.RBRACE) {
		for {
			items = append(items, p.parsePattern())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.TuplePattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: pos}, Items: items}
}

// parseListPattern parses `[a, b]` or the cons form `[head \ tail]` (the
// BACKSLASH token separates head items from the tail binding, reusing the
// `\` token from default-value syntax since the two contexts never
// overlap).
func (p *parser) parseListPattern() ast.Pattern {
	pos := p.expect(token.LBRACK).Pos
	var items []ast.Pattern
	var tail ast.Pattern
	if !p.at(token.RBRACK) {
		for {
			items = append(items, p.parsePattern())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if p.at(token.BACKSLASH) {
			p.advance()
			tail = p.parsePattern()
		}
	}
	p.expect(token.RBRACK)
	return &ast.ListPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: pos}, Items: items, Tail: tail}
}

// parseMapPattern parses `%{key -> pattern, ...}`, matching the map literal
// key separator (spec.md §3.5). A map pattern matches partially: any keys
// present in the scrutinee beyond Entries are ignored.
func (p *parser) parseMapPattern() ast.Pattern {
	pos := p.expect(token.PERCENT).Pos
	p.expect(token.LBRACE)

	var entries []ast.MapEntryPattern
	if !p.at(token.RBRACE) {
		for {
			key := p.parseMapKey()
			p.expect(token.ARROW)
			val := p.parsePattern()
			entries = append(entries, ast.MapEntryPattern{Key: key, Value: val})
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.MapPattern{PatternBase: ast.PatternBase{NodeID: p.ids.Next("pattern"), Offset: pos}, Entries: entries}
}
