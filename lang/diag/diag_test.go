package diag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/token"
)

func TestUntypedDiagnosticWithoutOffset(t *testing.T) {
	d := New("invalid token '$' at offset 4")
	require.Equal(t, "error: invalid token '$' at offset 4", d.Error())
}

func TestUntypedDiagnosticWithOffset(t *testing.T) {
	d := At("expected ')', found end of file", 12)
	require.Equal(t, "error: expected ')', found end of file at offset 12", d.Error())
}

func TestTypedDiagnostic(t *testing.T) {
	d := Coded(CodeUndefinedSymbol, "undefined symbol 'foo' in Demo.run")
	require.Equal(t, "error: [E1001] undefined symbol 'foo' in Demo.run", d.Error())
}

func TestTypedDiagnosticWithSnippet(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    x\n  end\nend\n"
	f := token.NewFile("demo.tn", []byte(src))
	offset := token.Pos(37) // the 'x' on line 3
	d := CodedAt(CodeUndefinedSymbol, "undefined symbol 'x' in Demo.run", offset, f)

	out := d.Error()
	require.Contains(t, out, "error: [E1001] undefined symbol 'x' in Demo.run")
	require.Contains(t, out, "demo.tn:3:5")
	require.Contains(t, out, "^")
}

func TestListSortsByOffsetAndJoinsErrors(t *testing.T) {
	var l List
	l.Add(At("second", 10))
	l.Add(At("first", 2))
	l.Sort()

	err := l.Err()
	require.Error(t, err)
	require.Equal(t, "error: first at offset 2\nerror: second at offset 10", err.Error())
	require.Equal(t, 2, l.Len())
}

func TestEmptyListErrIsNil(t *testing.T) {
	var l List
	require.NoError(t, l.Err())
}
