package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/runtime"
)

func TestScalarRendering(t *testing.T) {
	require.Equal(t, "42", runtime.Int(42).String())
	require.Equal(t, "true", runtime.Bool(true).String())
	require.Equal(t, "false", runtime.Bool(false).String())
	require.Equal(t, "nil", runtime.Nil{}.String())
	require.Equal(t, `"hi"`, runtime.String("hi").String())
	require.Equal(t, ":ok", runtime.Atom("ok").String())
}

func TestCollectionRendering(t *testing.T) {
	tup := runtime.NewTuple(runtime.Int(1), runtime.Int(2))
	require.Equal(t, "{1, 2}", tup.String())

	list := runtime.NewList([]runtime.Value{runtime.Int(1), runtime.Int(2)})
	require.Equal(t, "[1, 2]", list.String())

	m := runtime.MapEmpty().Put(runtime.Atom("k"), runtime.Int(1))
	require.Equal(t, "%{:k => 1}", m.String())

	kw := runtime.NewKeywordPair(runtime.Atom("k"), runtime.Int(1))
	require.Equal(t, "[k: 1]", kw.String())
}

func TestEqualStructural(t *testing.T) {
	a := runtime.NewTuple(runtime.Int(1), runtime.String("x"))
	b := runtime.NewTuple(runtime.Int(1), runtime.String("x"))
	require.True(t, runtime.Equal(a, b))

	c := runtime.NewTuple(runtime.Int(1), runtime.String("y"))
	require.False(t, runtime.Equal(a, c))
}

func TestEqualClosureByIdentity(t *testing.T) {
	c1 := &runtime.Closure{Name: "f", Arity: 0, Call: func([]runtime.Value) (runtime.Value, error) { return runtime.Nil{}, nil }}
	c2 := &runtime.Closure{Name: "f", Arity: 0, Call: c1.Call}
	require.True(t, runtime.Equal(c1, c1))
	require.False(t, runtime.Equal(c1, c2))
}

func TestTruth(t *testing.T) {
	require.False(t, runtime.Nil{}.Truth())
	require.False(t, runtime.Bool(false).Truth())
	require.True(t, runtime.Bool(true).Truth())
	require.True(t, runtime.Int(0).Truth())
	require.True(t, runtime.String("").Truth())
}
