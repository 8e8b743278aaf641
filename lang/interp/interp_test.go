package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/interp"
	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/mir"
	"github.com/mikeyobrien/tonic/lang/parser"
	"github.com/mikeyobrien/tonic/lang/runtime"
)

func run(t *testing.T, src, name string, args ...runtime.Value) (runtime.Value, error) {
	t.Helper()
	tree, _, err := parser.Parse("test.tn", []byte(src))
	require.NoError(t, err)
	irProg, err := ir.Lower(tree)
	require.NoError(t, err)
	prog, err := mir.Lower(irProg)
	require.NoError(t, err)
	return interp.New(prog).Run(name, args)
}

func TestRunArithmeticFunction(t *testing.T) {
	v, err := run(t, "defmodule Main do\n  def add(a, b) do\n    a + b\n  end\nend\n", "Main.add",
		runtime.Int(2), runtime.Int(3))
	require.NoError(t, err)
	require.Equal(t, runtime.Int(5), v)
}

func TestRunUnaryOperators(t *testing.T) {
	v, err := run(t, "defmodule Main do\n  def neg(x) do\n    -x\n  end\nend\n", "Main.neg", runtime.Int(7))
	require.NoError(t, err)
	require.Equal(t, runtime.Int(-7), v)

	v, err = run(t, "defmodule Main do\n  def invert(x) do\n    !x\n  end\nend\n", "Main.invert", runtime.Bool(false))
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(true), v)
}

func TestRunCaseDispatch(t *testing.T) {
	src := "defmodule Main do\n  def classify(x) do\n    case x do\n      0 -> :zero\n      _ -> :other\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.classify", runtime.Int(0))
	require.NoError(t, err)
	require.Equal(t, runtime.Atom("zero"), v)

	v, err = run(t, src, "Main.classify", runtime.Int(9))
	require.NoError(t, err)
	require.Equal(t, runtime.Atom("other"), v)
}

func TestRunCaseWithGuardAndDestructure(t *testing.T) {
	src := "defmodule Main do\n  def describe(x) do\n    case x do\n      {:ok, value} when value > 0 -> value\n      {:ok, _} -> 0\n      _ -> -1\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.describe", runtime.Tuple{Left: runtime.Atom("ok"), Right: runtime.Int(5)})
	require.NoError(t, err)
	require.Equal(t, runtime.Int(5), v)

	v, err = run(t, src, "Main.describe", runtime.Tuple{Left: runtime.Atom("ok"), Right: runtime.Int(-1)})
	require.NoError(t, err)
	require.Equal(t, runtime.Int(0), v)
}

func TestRunCondDispatch(t *testing.T) {
	src := "defmodule Main do\n  def sign(x) do\n    cond do\n      x > 0 -> :pos\n      x < 0 -> :neg\n      true -> :zero\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.sign", runtime.Int(5))
	require.NoError(t, err)
	require.Equal(t, runtime.Atom("pos"), v)

	v, err = run(t, src, "Main.sign", runtime.Int(0))
	require.NoError(t, err)
	require.Equal(t, runtime.Atom("zero"), v)
}

func TestRunShortCircuitAndOr(t *testing.T) {
	src := "defmodule Main do\n  def both(a, b) do\n    a && b\n  end\n\n  def either(a, b) do\n    a || b\n  end\nend\n"
	v, err := run(t, src, "Main.both", runtime.Bool(true), runtime.Bool(false))
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(false), v)

	v, err = run(t, src, "Main.either", runtime.Bool(false), runtime.Bool(true))
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(true), v)
}

func TestRunShortCircuitSkipsRightOperand(t *testing.T) {
	// The right side calls an unknown function; if short-circuiting worked it
	// is never evaluated.
	src := "defmodule Main do\n  def first(a, b) do\n    a || no_such_function(b)\n  end\nend\n"
	v, err := run(t, src, "Main.first", runtime.Bool(true), runtime.Int(1))
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(true), v)
}

func TestRunClosureCaptureAndCallValue(t *testing.T) {
	src := "defmodule Main do\n  def adder(n) do\n    case fn x -> x + n end do\n      f -> f.(10)\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.adder", runtime.Int(5))
	require.NoError(t, err)
	require.Equal(t, runtime.Int(15), v)
}

func TestRunRecursiveFunction(t *testing.T) {
	src := "defmodule Main do\n  def fact(n) do\n    case n do\n      0 -> 1\n      _ -> n * fact(n - 1)\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.fact", runtime.Int(5))
	require.NoError(t, err)
	require.Equal(t, runtime.Int(120), v)
}

func TestRunBuiltinCallThroughMir(t *testing.T) {
	src := "defmodule Main do\n  def half(x) do\n    div(x, 2)\n  end\nend\n"
	v, err := run(t, src, "Main.half", runtime.Int(9))
	require.NoError(t, err)
	require.Equal(t, runtime.Int(4), v)
}

func TestRunQuestionOperatorReturnsFromEnclosingFunctionOnly(t *testing.T) {
	src := "defmodule Main do\n  def unwrap(r) do\n    r?\n  end\n\n  def run(r) do\n    unwrap(r) + 1\n  end\nend\n"
	v, err := run(t, src, "Main.run", runtime.ResultOk{Value: runtime.Int(4)})
	require.NoError(t, err)
	require.Equal(t, runtime.Int(5), v)

	// unwrap returns err(:boom) to run, which then applies + 1 to it.
	_, err = run(t, src, "Main.run", runtime.ResultErr{Value: runtime.Atom("boom")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "int operator expects int operands, found result")
}

func TestRunQuestionOperatorStopsAtClosureBoundary(t *testing.T) {
	src := "defmodule Main do\n  def run(r) do\n    case fn v -> v? end do\n      f -> f.(r)\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.run", runtime.ResultErr{Value: runtime.Atom("nope")})
	require.NoError(t, err)
	require.Equal(t, runtime.ResultErr{Value: runtime.Atom("nope")}, v)
}

func TestRunTryWithAfterReturnsBodyValue(t *testing.T) {
	src := "defmodule Main do\n  def safe(x) do\n    try do\n      x + 1\n    rescue\n      {:error, reason} -> reason\n    after\n      0\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.safe", runtime.Int(1))
	require.NoError(t, err)
	require.Equal(t, runtime.Int(2), v)
}

func TestRunForComprehensionDefaultsToList(t *testing.T) {
	src := "defmodule Main do\n  def doubled(xs) do\n    for x <- xs do\n      x * 2\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.doubled", runtime.NewList([]runtime.Value{runtime.Int(1), runtime.Int(2), runtime.Int(3)}))
	require.NoError(t, err)
	list, ok := v.(*runtime.List)
	require.True(t, ok)
	require.Equal(t, []runtime.Value{runtime.Int(2), runtime.Int(4), runtime.Int(6)}, list.Elems)
}

func TestRunForComprehensionWithFilterAndCartesianProduct(t *testing.T) {
	src := "defmodule Main do\n  def run() do\n    for x <- list(1, 2, 3), y <- list(1, 2), x != y do\n      x + y\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.run")
	require.NoError(t, err)
	list, ok := v.(*runtime.List)
	require.True(t, ok)
	require.Equal(t, []runtime.Value{runtime.Int(3), runtime.Int(3), runtime.Int(4), runtime.Int(5)}, list.Elems)
}

func TestRunForComprehensionIntoMap(t *testing.T) {
	src := "defmodule Main do\n  def run() do\n    for x <- list(1, 2, 3), into: map_empty() do\n      tuple(x, x * x)\n    end\n  end\nend\n"
	v, err := run(t, src, "Main.run")
	require.NoError(t, err)
	m, ok := v.(*runtime.Map)
	require.True(t, ok)
	require.Len(t, m.Entries, 3)
}

func TestRunUndefinedFunctionReportsError(t *testing.T) {
	_, err := run(t, "defmodule Main do\n  def id(x) do\n    x\n  end\nend\n", "Main.missing")
	require.Error(t, err)
}
