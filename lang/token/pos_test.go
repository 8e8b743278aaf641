package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilePosition(t *testing.T) {
	src := "abc\ndef\nghi"
	f := NewFile("test.tn", []byte(src))

	cases := []struct {
		pos        Pos
		line, col  int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 1},
		{7, 2, 4},
		{8, 3, 1},
		{10, 3, 3},
	}
	for _, c := range cases {
		pos := f.Position(c.pos)
		require.Equal(t, c.line, pos.Line, "pos %d line", c.pos)
		require.Equal(t, c.col, pos.Column, "pos %d column", c.pos)
		require.Equal(t, "test.tn", pos.Filename)
	}
}

func TestFileLineText(t *testing.T) {
	f := NewFile("test.tn", []byte("abc\ndef\nghi"))
	require.Equal(t, "abc", f.LineText(1))
	require.Equal(t, "def", f.LineText(2))
	require.Equal(t, "ghi", f.LineText(3))
	require.Equal(t, "", f.LineText(4))
}

func TestFileLexemeRoundTripsSpan(t *testing.T) {
	src := "defmodule Demo do\n  1 + 2\nend\n"
	f := NewFile("test.tn", []byte(src))

	// span for the token "defmodule"
	require.Equal(t, "defmodule", f.Lexeme(0, 9))
	// span for "1"
	require.Equal(t, "1", f.Lexeme(20, 21))
}

func TestPositionString(t *testing.T) {
	require.Equal(t, "test.tn:1:3", Position{Filename: "test.tn", Line: 1, Column: 3}.String())
	require.Equal(t, "1:3", Position{Line: 1, Column: 3}.String())
}

func TestFileSetAddAndLookup(t *testing.T) {
	fs := NewFileSet()
	f := fs.AddFile("a.tn", []byte("1 + 2"))
	require.Same(t, f, fs.File("a.tn"))
	require.Nil(t, fs.File("missing.tn"))
}

func TestNoPosIsInvalid(t *testing.T) {
	require.False(t, NoPos.IsValid())
	require.True(t, Pos(0).IsValid())
}
