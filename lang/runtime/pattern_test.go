package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/runtime"
)

func TestMatchBindPattern(t *testing.T) {
	bindings := map[string]runtime.Value{}
	ok := runtime.Match(runtime.Int(42), &ast.BindPattern{Name: "x"}, nil, bindings)
	require.True(t, ok)
	require.Equal(t, runtime.Int(42), bindings["x"])
}

func TestMatchRepeatedBindPatternRequiresEquality(t *testing.T) {
	tuplePattern := &ast.TuplePattern{
		Items: []ast.Pattern{&ast.BindPattern{Name: "x"}, &ast.BindPattern{Name: "x"}},
	}
	bindings := map[string]runtime.Value{}
	ok := runtime.Match(runtime.NewTuple(runtime.Int(1), runtime.Int(1)), tuplePattern, nil, bindings)
	require.True(t, ok)

	bindings = map[string]runtime.Value{}
	ok = runtime.Match(runtime.NewTuple(runtime.Int(1), runtime.Int(2)), tuplePattern, nil, bindings)
	require.False(t, ok)
}

func TestMatchPinPatternRequiresAlreadyBound(t *testing.T) {
	env := map[string]runtime.Value{"x": runtime.Int(5)}
	bindings := map[string]runtime.Value{}
	ok := runtime.Match(runtime.Int(5), &ast.PinPattern{Name: "x"}, env, bindings)
	require.True(t, ok)

	ok = runtime.Match(runtime.Int(6), &ast.PinPattern{Name: "x"}, env, bindings)
	require.False(t, ok)

	ok = runtime.Match(runtime.Int(5), &ast.PinPattern{Name: "unbound"}, env, bindings)
	require.False(t, ok)
}

func TestMatchListPatternWithTail(t *testing.T) {
	p := &ast.ListPattern{
		Items: []ast.Pattern{&ast.BindPattern{Name: "head"}},
		Tail:  &ast.BindPattern{Name: "tail"},
	}
	bindings := map[string]runtime.Value{}
	value := runtime.NewList([]runtime.Value{runtime.Int(1), runtime.Int(2), runtime.Int(3)})
	ok := runtime.Match(value, p, nil, bindings)
	require.True(t, ok)
	require.Equal(t, runtime.Int(1), bindings["head"])
	require.Equal(t, "[2, 3]", bindings["tail"].String())
}

func TestMatchListPatternExactLength(t *testing.T) {
	p := &ast.ListPattern{Items: []ast.Pattern{&ast.WildcardPattern{}, &ast.WildcardPattern{}}}
	bindings := map[string]runtime.Value{}
	ok := runtime.Match(runtime.NewList([]runtime.Value{runtime.Int(1), runtime.Int(2), runtime.Int(3)}), p, nil, bindings)
	require.False(t, ok)
}

func TestMatchMapPatternPartial(t *testing.T) {
	p := &ast.MapPattern{
		Entries: []ast.MapEntryPattern{
			{Key: &ast.AtomExpr{Value: "status"}, Value: &ast.BindPattern{Name: "s"}},
		},
	}
	value := runtime.MapEmpty().Put(runtime.Atom("status"), runtime.Atom("ok")).Put(runtime.Atom("extra"), runtime.Int(1))
	bindings := map[string]runtime.Value{}
	ok := runtime.Match(value, p, nil, bindings)
	require.True(t, ok)
	require.Equal(t, runtime.Atom("ok"), bindings["s"])
}

func TestMatchMapPatternMissingKeyFails(t *testing.T) {
	p := &ast.MapPattern{
		Entries: []ast.MapEntryPattern{
			{Key: &ast.AtomExpr{Value: "missing"}, Value: &ast.WildcardPattern{}},
		},
	}
	value := runtime.MapEmpty().Put(runtime.Atom("status"), runtime.Atom("ok"))
	bindings := map[string]runtime.Value{}
	ok := runtime.Match(value, p, nil, bindings)
	require.False(t, ok)
}

func TestSelectBranchPicksFirstMatch(t *testing.T) {
	patterns := []ast.Pattern{
		&ast.IntPattern{Value: 1},
		&ast.WildcardPattern{},
	}
	idx, bindings := runtime.SelectBranch(runtime.Int(2), patterns, nil)
	require.Equal(t, 1, idx)
	require.NotNil(t, bindings)

	idx, _ = runtime.SelectBranch(runtime.Int(1), patterns, nil)
	require.Equal(t, 0, idx)
}

func TestSelectBranchNoMatch(t *testing.T) {
	patterns := []ast.Pattern{&ast.IntPattern{Value: 1}}
	idx, bindings := runtime.SelectBranch(runtime.Int(2), patterns, nil)
	require.Equal(t, -1, idx)
	require.Nil(t, bindings)
}
