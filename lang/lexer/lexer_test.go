package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/diag"
	"github.com/mikeyobrien/tonic/lang/token"
)

func scan(t *testing.T, src string) ([]TokenValue, *diag.List) {
	t.Helper()
	f := token.NewFile("test.tn", []byte(src))
	var errs diag.List
	l := New(f, []byte(src), &errs)
	return l.All(), &errs
}

func kinds(toks []TokenValue) []token.Token {
	out := make([]token.Token, len(toks))
	for i, tv := range toks {
		out[i] = tv.Kind
	}
	return out
}

func TestScansModuleSkeleton(t *testing.T) {
	toks, errs := scan(t, "defmodule Demo do\n  def run() do\n    1\n  end\nend\n")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{
		token.DEFMODULE, token.IDENT, token.DO,
		token.DEF, token.IDENT, token.LPAREN, token.RPAREN, token.DO,
		token.INT,
		token.END,
		token.END,
		token.EOF,
	}, kinds(toks))
}

func TestMaximalMunchOperators(t *testing.T) {
	toks, errs := scan(t, "== != <= >= <> |> -> <- .. ++ -- && || \\")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{
		token.EQEQ, token.NEQ, token.LE, token.GE, token.DIAMOND, token.PIPEGT,
		token.ARROW, token.LARROW, token.DOTDOT, token.PLUSPLUS, token.MINUSMINUS,
		token.ANDAND, token.OROR, token.BACKSLASH, token.EOF,
	}, kinds(toks))
}

func TestIntegerLiteral(t *testing.T) {
	toks, errs := scan(t, "123")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, token.INT, toks[0].Kind)
	require.EqualValues(t, 123, toks[0].Int)
}

func TestFloatLiteral(t *testing.T) {
	toks, errs := scan(t, "1.5 2.0e10")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, token.FLOAT, toks[0].Kind)
	require.Equal(t, "1.5", toks[0].Lit)
	require.Equal(t, token.FLOAT, toks[1].Kind)
	require.Equal(t, "2.0e10", toks[1].Lit)
}

func TestAtomLiteral(t *testing.T) {
	toks, errs := scan(t, ":ok :error")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, token.ATOM, toks[0].Kind)
	require.Equal(t, "ok", toks[0].Lit)
	require.Equal(t, token.ATOM, toks[1].Kind)
	require.Equal(t, "error", toks[1].Lit)
}

func TestBarePlainColon(t *testing.T) {
	toks, errs := scan(t, ": x")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, token.COLON, toks[0].Kind)
}

func TestStringLiteral(t *testing.T) {
	toks, errs := scan(t, `"hello world"`)
	require.Equal(t, 0, errs.Len())
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "hello world", toks[0].Lit)
}

func TestUnterminatedStringReportsOffset(t *testing.T) {
	_, errs := scan(t, `"hello`)
	require.Equal(t, 1, errs.Len())
	require.Equal(t, "error: unterminated string literal at offset 0", errs.Items()[0].Error())
}

func TestInvalidCharacterReportsOffset(t *testing.T) {
	_, errs := scan(t, "1 $ 2")
	require.Equal(t, 1, errs.Len())
	require.Equal(t, "error: invalid token '$' at offset 2", errs.Items()[0].Error())
}

func TestKeywordsRecognizedAfterIdent(t *testing.T) {
	toks, errs := scan(t, "case cond fn if true false nil and or not in when dynamic for try rescue catch after into")
	require.Equal(t, 0, errs.Len())
	require.Equal(t, []token.Token{
		token.CASE, token.COND, token.FN, token.IF, token.TRUE, token.FALSE,
		token.NIL, token.AND, token.OR, token.NOT, token.IN, token.WHEN,
		token.DYNAMIC, token.FOR, token.TRY, token.RESCUE, token.CATCH,
		token.AFTER, token.INTO, token.EOF,
	}, kinds(toks))
}

func TestEofHasZeroWidthSpanAtInputLength(t *testing.T) {
	toks, _ := scan(t, "1")
	eof := toks[len(toks)-1]
	require.Equal(t, token.EOF, eof.Kind)
	require.EqualValues(t, 1, eof.Pos)
}
