package native_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/mir"
	"github.com/mikeyobrien/tonic/lang/native"
	"github.com/mikeyobrien/tonic/lang/parser"
)

func lower(t *testing.T, src string) *native.Module {
	t.Helper()
	tree, _, err := parser.Parse("test.tn", []byte(src))
	require.NoError(t, err)
	irProg, err := ir.Lower(tree)
	require.NoError(t, err)
	mirProg, err := mir.Lower(irProg)
	require.NoError(t, err)
	module, err := native.Lower(mirProg)
	require.NoError(t, err)
	return module
}

func TestLowerSingleClauseFunctionIsItsOwnSymbol(t *testing.T) {
	src := "defmodule Main do\n  def add(a, b) do\n    a + b\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "define i64 @tn_Main_add__arity2(i64 %arg0, i64 %arg1) {")
	require.Contains(t, module.Text, "add i64")
}

func TestLowerModuleHeaderAndRuntimeDeclarations(t *testing.T) {
	module := lower(t, "defmodule Main do\n  def id(x) do\n    x\n  end\nend\n")
	require.True(t, strings.HasPrefix(module.Text, "; tonic llvm backend mvp"))
	require.Contains(t, module.Text, "declare i64 @tn_runtime_error_no_matching_clause()")
	require.Contains(t, module.Text, "declare i1 @tn_runtime_pattern_matches(i64, i64)")
}

func TestLowerMultiClauseFunctionEmitsDispatcher(t *testing.T) {
	// Tonic's surface grammar has no per-clause patterns or `when` guards in
	// a def's parameter list (only case/cond/try/for arms carry those), so
	// the only way this pipeline ever produces more than one mir.Function
	// under the same (name, arity) is two separate `def` bodies; the
	// dispatcher still has to exist for that case, unconditionally
	// preferring the first clause.
	src := "defmodule Main do\n  def classify(x) do\n    :zero\n  end\n\n  def classify(x) do\n    :other\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "define i64 @tn_Main_classify__arity1(i64 %arg0) {")
	require.Contains(t, module.Text, "tn_Main_classify__arity1__clause0")
	require.Contains(t, module.Text, "tn_Main_classify__arity1__clause1")
	require.Contains(t, module.Text, "dispatcher_no_matching_clause:")
}

func TestLowerCaseDispatchUsesPatternMatching(t *testing.T) {
	src := "defmodule Main do\n  def classify(x) do\n    case x do\n      0 -> :zero\n      _ -> :other\n    end\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "icmp eq i64")
	require.Contains(t, module.Text, "call i64 @tn_runtime_const_atom")
}

func TestLowerCaseGuardArmComparesWithIcmp(t *testing.T) {
	// `when` guards only ever attach to case/cond/try/for arms in this
	// grammar, never to a def's parameter list, so the guard-condition path
	// is exercised through a Match terminator's arm rather than a
	// function-clause dispatcher.
	src := "defmodule Main do\n  def describe(x) do\n    case x do\n      {:ok, value} when value > 0 -> value\n      _ -> 0\n    end\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "icmp sgt i64")
	require.Contains(t, module.Text, "_guard_truthy")
}

func TestLowerBuiltinCallLowersToRuntimeHelper(t *testing.T) {
	src := "defmodule Main do\n  def wrap(x) do\n    ok(x)\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "call i64 @tn_runtime_make_ok(i64 %v")
}

func TestLowerDivBuiltinLowersToSdiv(t *testing.T) {
	src := "defmodule Main do\n  def half(x) do\n    div(x, 2)\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "sdiv i64")
}

func TestLowerClosureRecordsDescriptorAndMainEntrypoint(t *testing.T) {
	src := "defmodule Demo do\n  def run() do\n    case fn x -> x + 1 end do\n      f -> f.(41)\n    end\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "call i64 @tn_runtime_make_closure(i64")
	require.Contains(t, module.Text, "call i64 (i64, i64, ...) @tn_runtime_call_closure(")
	require.Contains(t, module.Text, "define i64 @main() {")
	require.Contains(t, module.Text, "call i64 @tn_Demo_run__arity0()")
	require.Equal(t, 1, module.Closures.Len())
}

func TestLowerMainFallsBackWithoutDemoRun(t *testing.T) {
	module := lower(t, "defmodule Main do\n  def id(x) do\n    x\n  end\nend\n")
	require.Contains(t, module.Text, "call i64 @tn_runtime_error_no_matching_clause()")
}

func TestLowerForComprehensionGoesThroughLegacyHelper(t *testing.T) {
	src := "defmodule Main do\n  def doubled(xs) do\n    for x <- xs do\n      x * 2\n    end\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "call i64 @tn_runtime_for(i64")
}

func TestLowerComplexPatternRecordsFingerprint(t *testing.T) {
	src := "defmodule Main do\n  def describe(x) do\n    case x do\n      {:ok, value} -> value\n      _ -> 0\n    end\n  end\nend\n"
	module := lower(t, src)
	require.Contains(t, module.Text, "call i1 @tn_runtime_pattern_matches(i64")
	require.Equal(t, 1, module.Patterns.Len())
}
