package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/parser"
	"github.com/mikeyobrien/tonic/lang/resolver"
)

func resolve(t *testing.T, src string) error {
	t.Helper()
	tree, file, err := parser.Parse("test.tn", []byte(src))
	require.NoError(t, err)
	return resolver.Resolve(tree, file)
}

func TestResolvesSimpleFunction(t *testing.T) {
	err := resolve(t, "defmodule Demo do\n  def run() do\n    1 + 2\n  end\nend\n")
	require.NoError(t, err)
}

func TestParamIsVisibleInBody(t *testing.T) {
	err := resolve(t, "defmodule Demo do\n  def run(x) do\n    x + 1\n  end\nend\n")
	require.NoError(t, err)
}

func TestUndefinedVariableReportsE1001(t *testing.T) {
	err := resolve(t, "defmodule Demo do\n  def run() do\n    x + 1\n  end\nend\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "[E1001]")
	require.Contains(t, err.Error(), "undefined symbol 'x' in Demo.run")
}

func TestBareCallToKnownSiblingFunctionResolves(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    helper()\n  end\n  def helper() do\n    1\n  end\nend\n"
	require.NoError(t, resolve(t, src))
}

func TestBareCallToUnknownFunctionReportsE1001(t *testing.T) {
	err := resolve(t, "defmodule Demo do\n  def run() do\n    helper()\n  end\nend\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'helper' in Demo.run")
}

func TestQualifiedCallToKnownModuleFunctionResolves(t *testing.T) {
	src := "defmodule Other do\n  def helper() do\n    1\n  end\nend\ndefmodule Demo do\n  def run() do\n    Other.helper()\n  end\nend\n"
	require.NoError(t, resolve(t, src))
}

func TestQualifiedCallToUnknownModuleReportsE1001(t *testing.T) {
	err := resolve(t, "defmodule Demo do\n  def run() do\n    Missing.helper()\n  end\nend\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'Missing.helper'")
}

func TestCapturedFunctionMustExist(t *testing.T) {
	err := resolve(t, "defmodule Demo do\n  def run() do\n    &missing/1\n  end\nend\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'missing'")
}

func TestCasePatternBindingsAreVisibleInGuardAndBody(t *testing.T) {
	src := `defmodule Demo do
  def run(x) do
    case x do
      {:ok, value} when value > 0 -> value
      _ -> 0
    end
  end
end
`
	require.NoError(t, resolve(t, src))
}

func TestCasePatternBindingDoesNotLeakToSiblingBranch(t *testing.T) {
	src := `defmodule Demo do
  def run(x) do
    case x do
      {:ok, value} -> value
      _ -> value
    end
  end
end
`
	err := resolve(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'value'")
}

func TestFnParamsAreLocalToClosureAndEnclosingScopeIsVisible(t *testing.T) {
	src := "defmodule Demo do\n  def run(x) do\n    fn y -> x + y end\n  end\nend\n"
	require.NoError(t, resolve(t, src))
}

func TestFnParamNotVisibleOutsideClosure(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    tuple(fn y -> y end, y)\n  end\nend\n"
	err := resolve(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'y'")
}

func TestForGeneratorBindingVisibleInLaterGeneratorAndBody(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    for x <- list(1, 2), y <- list(x) do\n      x + y\n    end\n  end\nend\n"
	require.NoError(t, resolve(t, src))
}

func TestTryRescueBindingVisibleInRescueBody(t *testing.T) {
	src := `defmodule Demo do
  def run() do
    try do
      1
    rescue
      {:error, reason} -> reason
    end
  end
end
`
	require.NoError(t, resolve(t, src))
}

func TestParamDefaultCannotReferenceLaterParam(t *testing.T) {
	src := "defmodule Demo do\n  def run(x \\ y, y) do\n    x\n  end\nend\n"
	err := resolve(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'y'")
}

func TestBareCallToBuiltinResolvesWithoutDeclaration(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    ok(1)\n  end\nend\n"
	require.NoError(t, resolve(t, src))
}

func TestQualifiedCallNamedLikeBuiltinStillRequiresDeclaredModule(t *testing.T) {
	err := resolve(t, "defmodule Demo do\n  def run() do\n    Other.list()\n  end\nend\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'Other.list'")
}

func TestMultipleErrorsAreAllReported(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    a + b\n  end\nend\n"
	err := resolve(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined symbol 'a'")
	require.Contains(t, err.Error(), "undefined symbol 'b'")
}
