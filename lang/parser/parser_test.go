package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/parser"
)

func TestParsesModuleAndFunction(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    1\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)
	require.Len(t, tree.Modules, 1)

	mod := tree.Modules[0]
	require.Equal(t, "Demo", mod.Name)
	require.Len(t, mod.Functions, 1)
	require.Equal(t, "run", mod.Functions[0].Name)
	require.False(t, mod.Functions[0].IsPrivate)

	body, ok := mod.Functions[0].Body.(*ast.IntExpr)
	require.True(t, ok)
	require.EqualValues(t, 1, body.Value)
}

func TestParsesPrivateFunctionAndParams(t *testing.T) {
	src := "defmodule Demo do\n  defp helper(x, y: dynamic, z \\ 1) do\n    x\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	fn := tree.Modules[0].Functions[0]
	require.True(t, fn.IsPrivate)
	require.Len(t, fn.Params, 3)
	require.Equal(t, "x", fn.Params[0].Name)
	require.Equal(t, ast.AnnotationNone, fn.Params[0].TypeAnnotation)
	require.Equal(t, "y", fn.Params[1].Name)
	require.Equal(t, ast.AnnotationDynamic, fn.Params[1].TypeAnnotation)
	require.Equal(t, "z", fn.Params[2].Name)
	require.NotNil(t, fn.Params[2].Default)
}

func TestPrecedenceAdditiveBeforeComparisonBeforeAnd(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    1 + 2 == 3 and true\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	body, ok := tree.Modules[0].Functions[0].Body.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.BinAnd, body.Op)

	cmp, ok := body.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.BinEq, cmp.Op)

	add, ok := cmp.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.BinAdd, add.Op)
}

func TestConcatGroupIsRightAssociative(t *testing.T) {
	src := `defmodule Demo do
  def run() do
    "a" <> "b" <> "c"
  end
end
`
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	top, ok := tree.Modules[0].Functions[0].Body.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.BinConcat, top.Op)
	_, leftIsString := top.Left.(*ast.StringExpr)
	require.True(t, leftIsString)
	right, ok := top.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.BinConcat, right.Op)
}

func TestPipeRewritesAsLeftAssociative(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    1 |> inc() |> inc()\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	outer, ok := tree.Modules[0].Functions[0].Body.(*ast.PipeExpr)
	require.True(t, ok)
	inner, ok := outer.Left.(*ast.PipeExpr)
	require.True(t, ok)
	_, ok = inner.Left.(*ast.IntExpr)
	require.True(t, ok)
}

func TestQualifiedCallAndCaptureAndCallValue(t *testing.T) {
	src := "defmodule Demo do\n  def run(f) do\n    Other.helper(1)\n    f.(2)\n    &helper/1\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected end, found")
	_ = tree

	// A function body is a single expression, so the source above is
	// rejected after its first expression; parse each form standalone
	// instead.
	for _, src := range []string{
		"defmodule D do\n  def run() do\n    Other.helper(1)\n  end\nend\n",
		"defmodule D do\n  def run(f) do\n    f.(2)\n  end\nend\n",
		"defmodule D do\n  def run() do\n    &helper/1\n  end\nend\n",
	} {
		tr, _, err := parser.Parse("d.tn", []byte(src))
		require.NoError(t, err)
		_ = tr
	}

	tree2, _, err := parser.Parse("d.tn", []byte("defmodule D do\n  def run() do\n    Other.helper(1)\n  end\nend\n"))
	require.NoError(t, err)
	call, ok := tree2.Modules[0].Functions[0].Body.(*ast.CallExpr)
	require.True(t, ok)
	require.Equal(t, "Other.helper", call.Callee)

	tree3, _, err := parser.Parse("d.tn", []byte("defmodule D do\n  def run(f) do\n    f.(2)\n  end\nend\n"))
	require.NoError(t, err)
	cv, ok := tree3.Modules[0].Functions[0].Body.(*ast.CallValueExpr)
	require.True(t, ok)
	variable, ok := cv.Callee.(*ast.VariableExpr)
	require.True(t, ok)
	require.Equal(t, "f", variable.Name)

	tree4, _, err := parser.Parse("d.tn", []byte("defmodule D do\n  def run() do\n    &helper/1\n  end\nend\n"))
	require.NoError(t, err)
	cap, ok := tree4.Modules[0].Functions[0].Body.(*ast.CaptureExpr)
	require.True(t, ok)
	require.Equal(t, "helper", cap.Name)
	require.Equal(t, 1, cap.Arity)
}

func TestCaseWithPatternsAndGuard(t *testing.T) {
	src := `defmodule Demo do
  def run(x) do
    case x do
      {:ok, value} -> value
      [head \ tail] -> head
      %{:status -> code} when code == 200 -> code
      _ -> 0
    end
  end
end
`
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	c, ok := tree.Modules[0].Functions[0].Body.(*ast.CaseExpr)
	require.True(t, ok)
	require.Len(t, c.Branches, 4)

	tuplePat, ok := c.Branches[0].Pattern.(*ast.TuplePattern)
	require.True(t, ok)
	require.Len(t, tuplePat.Items, 2)

	listPat, ok := c.Branches[1].Pattern.(*ast.ListPattern)
	require.True(t, ok)
	require.NotNil(t, listPat.Tail)

	mapBranch := c.Branches[2]
	require.NotNil(t, mapBranch.Guard)
	_, ok = mapBranch.Pattern.(*ast.MapPattern)
	require.True(t, ok)

	_, ok = c.Branches[3].Pattern.(*ast.WildcardPattern)
	require.True(t, ok)
}

func TestCondExpression(t *testing.T) {
	src := "defmodule Demo do\n  def run(x) do\n    cond do\n      x == 1 -> 1\n      true -> 0\n    end\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	cond, ok := tree.Modules[0].Functions[0].Body.(*ast.CondExpr)
	require.True(t, ok)
	require.Len(t, cond.Branches, 2)
}

func TestCollectionLiterals(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    %{:status -> 200}\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	m, ok := tree.Modules[0].Functions[0].Body.(*ast.CollectionExpr)
	require.True(t, ok)
	require.Equal(t, ast.CollectionMap, m.Kind)
	require.Len(t, m.Entries, 1)
}

func TestKeywordListLiteral(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    [a: 1, b: 2]\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	kw, ok := tree.Modules[0].Functions[0].Body.(*ast.CollectionExpr)
	require.True(t, ok)
	require.Equal(t, ast.CollectionKeyword, kw.Kind)
	require.Len(t, kw.Entries, 2)
}

func TestFnLiteral(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    fn x, y -> x end\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	fn, ok := tree.Modules[0].Functions[0].Body.(*ast.FnExpr)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
}

func TestForComprehensionWithFilterAndInto(t *testing.T) {
	src := `defmodule Demo do
  def run() do
    for x <- list(1, 2, 3), y <- list(4, 5), x != y, into: %{} do
      x + y
    end
  end
end
`
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	f, ok := tree.Modules[0].Functions[0].Body.(*ast.ForExpr)
	require.True(t, ok)
	require.Len(t, f.Generators, 2)
	require.Equal(t, "x", f.Generators[0].Pattern.(*ast.BindPattern).Name)
	require.Len(t, f.Filters, 1)
	require.NotNil(t, f.Into)
}

func TestForComprehensionWithoutInto(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    for x <- list(1, 2, 3) do\n      x + 1\n    end\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	f, ok := tree.Modules[0].Functions[0].Body.(*ast.ForExpr)
	require.True(t, ok)
	require.Len(t, f.Generators, 1)
	require.Nil(t, f.Into)
}

func TestTryRescueCatchAfter(t *testing.T) {
	src := `defmodule Demo do
  def run() do
    try do
      1
    rescue
      {:error, reason} -> reason
    catch
      :throw -> 0
    after
      2
    end
  end
end
`
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	tr, ok := tree.Modules[0].Functions[0].Body.(*ast.TryExpr)
	require.True(t, ok)
	require.Len(t, tr.Rescue, 1)
	require.Len(t, tr.Catch, 1)
	require.NotNil(t, tr.After)
}

func TestTryWithOnlyBody(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    try do\n      1\n    end\n  end\nend\n"
	tree, _, err := parser.Parse("demo.tn", []byte(src))
	require.NoError(t, err)

	tr, ok := tree.Modules[0].Functions[0].Body.(*ast.TryExpr)
	require.True(t, ok)
	require.Empty(t, tr.Rescue)
	require.Empty(t, tr.Catch)
	require.Nil(t, tr.After)
}

func TestMissingEndProducesExpectedError(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    1\n  end\n"
	_, _, err := parser.Parse("demo.tn", []byte(src))
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected")
}
