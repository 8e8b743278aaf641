// Package lexer transforms UTF-8 source into a stream of tokens (spec.md
// §4.1). The byte-at-a-time scanning loop, its rune decoding fast path and
// its BOM handling are adapted from the teacher's lang/scanner, which in
// turn credits Go's own go/scanner.
package lexer

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/mikeyobrien/tonic/lang/diag"
	"github.com/mikeyobrien/tonic/lang/token"
)

// TokenValue is one scanned token: its kind, source span and literal text.
// Int is populated only for INT tokens.
type TokenValue struct {
	Kind token.Token
	Lit  string
	Pos  token.Pos
	Int  int64
}

// Lexer tokenizes a single source file.
type Lexer struct {
	file *token.File
	src  []byte
	errs *diag.List

	cur  rune
	off  int
	roff int
}

var bom = [2]byte{0xEF, 0xBB} // first two bytes of a UTF-8 BOM; third checked separately

// New creates a Lexer over file/src, appending any lexical errors to errs.
func New(file *token.File, src []byte, errs *diag.List) *Lexer {
	l := &Lexer{file: file, src: src, errs: errs, cur: ' '}
	if len(src) >= 3 && bytes.Equal(src[:2], bom[:]) && src[2] == 0xBF {
		l.off, l.roff = 3, 3
	}
	l.advance()
	return l
}

func (l *Lexer) peek() byte {
	if l.roff < len(l.src) {
		return l.src[l.roff]
	}
	return 0
}

func (l *Lexer) advance() {
	if l.roff >= len(l.src) {
		l.off = len(l.src)
		l.cur = -1
		return
	}
	l.off = l.roff
	r, w := rune(l.src[l.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(l.src[l.roff:])
		if r == utf8.RuneError && w == 1 {
			l.errorf(l.off, "invalid token '%c'", l.src[l.roff])
		}
	}
	l.roff += w
	l.cur = r
}

func (l *Lexer) advanceIf(b byte) bool {
	if l.cur == rune(b) {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) errorf(offset int, format string, args ...interface{}) {
	if l.errs != nil {
		l.errs.Add(diag.At(fmt.Sprintf(format, args...), token.Pos(offset)))
	}
}

// All scans the entire file and returns every token, including the
// terminating EOF (spec.md §4.1 "An Eof token with a zero-width span at
// input length terminates the stream").
func (l *Lexer) All() []TokenValue {
	var out []TokenValue
	for {
		tv := l.Next()
		out = append(out, tv)
		if tv.Kind == token.EOF {
			return out
		}
	}
}

// Next scans and returns the next token.
func (l *Lexer) Next() TokenValue {
	l.skipWhitespace()

	pos := token.Pos(l.off)
	start := l.off

	switch cur := l.cur; {
	case isLetter(cur):
		lit := l.ident()
		return TokenValue{Kind: token.Lookup(lit), Lit: lit, Pos: pos}

	case isDigit(cur):
		return l.number(pos)

	case cur == ':':
		l.advance()
		if isLetter(l.cur) {
			lit := l.ident()
			return TokenValue{Kind: token.ATOM, Lit: lit, Pos: pos}
		}
		return TokenValue{Kind: token.COLON, Lit: ":", Pos: pos}

	case cur == '"':
		return l.stringLit(pos)

	case cur == -1:
		return TokenValue{Kind: token.EOF, Pos: token.Pos(len(l.src))}
	}

	l.advance()
	return l.punct(start, pos)
}

func (l *Lexer) punct(start int, pos token.Pos) TokenValue {
	// l.cur already advanced past the first character at this point; use the
	// byte that was consumed, available at l.src[start].
	c := rune(l.src[start])
	mk := func(tok token.Token) TokenValue { return TokenValue{Kind: tok, Lit: tok.String(), Pos: pos} }

	switch c {
	case '+':
		if l.advanceIf('+') {
			return mk(token.PLUSPLUS)
		}
		return mk(token.PLUS)
	case '-':
		if l.advanceIf('-') {
			return mk(token.MINUSMINUS)
		}
		if l.advanceIf('>') {
			return mk(token.ARROW)
		}
		return mk(token.MINUS)
	case '*':
		return mk(token.STAR)
	case '/':
		return mk(token.SLASH)
	case '%':
		return mk(token.PERCENT)
	case '!':
		if l.advanceIf('=') {
			return mk(token.NEQ)
		}
		return mk(token.BANG)
	case '~':
		return mk(token.TILDE)
	case '=':
		if l.advanceIf('=') {
			return mk(token.EQEQ)
		}
		return mk(token.EQ)
	case '<':
		if l.advanceIf('=') {
			return mk(token.LE)
		}
		if l.advanceIf('>') {
			return mk(token.DIAMOND)
		}
		if l.advanceIf('-') {
			return mk(token.LARROW)
		}
		return mk(token.LT)
	case '>':
		if l.advanceIf('=') {
			return mk(token.GE)
		}
		return mk(token.GT)
	case '&':
		if l.advanceIf('&') {
			return mk(token.ANDAND)
		}
		return mk(token.AMP)
	case '|':
		if l.advanceIf('>') {
			return mk(token.PIPEGT)
		}
		if l.advanceIf('|') {
			return mk(token.OROR)
		}
		l.errorf(start, "invalid token '|'")
		return mk(token.ILLEGAL)
	case '.':
		if l.advanceIf('.') {
			return mk(token.DOTDOT)
		}
		return mk(token.DOT)
	case '\\':
		return mk(token.BACKSLASH)
	case '?':
		return mk(token.QUESTION)
	case ',':
		return mk(token.COMMA)
	case ';':
		return mk(token.SEMI)
	case '(':
		return mk(token.LPAREN)
	case ')':
		return mk(token.RPAREN)
	case '{':
		return mk(token.LBRACE)
	case '}':
		return mk(token.RBRACE)
	case '[':
		return mk(token.LBRACK)
	case ']':
		return mk(token.RBRACK)
	default:
		l.errorf(start, "invalid token '%c'", c)
		return TokenValue{Kind: token.ILLEGAL, Lit: string(c), Pos: token.Pos(start)}
	}
}

func (l *Lexer) ident() string {
	start := l.off
	for isLetter(l.cur) || isDigit(l.cur) {
		l.advance()
	}
	return string(l.src[start:l.off])
}

func (l *Lexer) number(pos token.Pos) TokenValue {
	start := l.off
	for isDigit(l.cur) {
		l.advance()
	}
	isFloat := false
	if l.cur == '.' && isDigit(rune(l.peek())) {
		isFloat = true
		l.advance()
		for isDigit(l.cur) {
			l.advance()
		}
	}
	if l.cur == 'e' || l.cur == 'E' {
		save, saveOff, saveROff := l.cur, l.off, l.roff
		l.advance()
		if l.cur == '+' || l.cur == '-' {
			l.advance()
		}
		if isDigit(l.cur) {
			isFloat = true
			for isDigit(l.cur) {
				l.advance()
			}
		} else {
			// not actually an exponent, rewind
			l.cur, l.off, l.roff = save, saveOff, saveROff
		}
	}
	lit := string(l.src[start:l.off])
	if isFloat {
		return TokenValue{Kind: token.FLOAT, Lit: lit, Pos: pos}
	}
	var v int64
	for _, r := range lit {
		v = v*10 + int64(r-'0')
	}
	return TokenValue{Kind: token.INT, Lit: lit, Pos: pos, Int: v}
}

func (l *Lexer) stringLit(pos token.Pos) TokenValue {
	start := l.off
	l.advance() // consume opening quote
	for {
		if l.cur == -1 {
			l.errorf(int(pos), "unterminated string literal")
			return TokenValue{Kind: token.STRING, Lit: string(l.src[start:l.off]), Pos: pos}
		}
		if l.cur == '"' {
			l.advance()
			break
		}
		l.advance()
	}
	raw := string(l.src[start:l.off])
	return TokenValue{Kind: token.STRING, Lit: raw[1 : len(raw)-1], Pos: pos}
}

func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.cur) {
		l.advance()
	}
}

func isWhitespace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_' ||
		r >= utf8.RuneSelf && unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
