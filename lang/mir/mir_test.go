package mir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/mir"
	"github.com/mikeyobrien/tonic/lang/parser"
)

func lowerToMir(t *testing.T, src string) *mir.Program {
	t.Helper()
	tree, _, err := parser.Parse("test.tn", []byte(src))
	require.NoError(t, err)
	irProg, err := ir.Lower(tree)
	require.NoError(t, err)
	prog, err := mir.Lower(irProg)
	require.NoError(t, err)
	return prog
}

func findMirFunction(prog *mir.Program, name string) *mir.Function {
	for _, fn := range prog.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func TestLowerConstantFunctionHasSingleReturnBlock(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def answer() do\n    42\n  end\nend\n")
	fn := prog.Functions[0]
	require.Equal(t, "Main.answer", fn.Name)
	require.Len(t, fn.Blocks, 1)
	entry := fn.Blocks[fn.EntryBlock]
	require.Len(t, entry.Instructions, 1)
	c, ok := entry.Instructions[0].(mir.ConstInt)
	require.True(t, ok)
	require.Equal(t, int64(42), c.Value)
	ret, ok := entry.Terminator.(mir.Return)
	require.True(t, ok)
	require.Equal(t, c.Dest, ret.Value)
}

func TestLowerBinaryAddProducesIntTypedInstruction(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def add(a, b) do\n    a + b\n  end\nend\n")
	fn := prog.Functions[0]
	entry := fn.Blocks[fn.EntryBlock]
	var bin mir.Binary
	found := false
	for _, instr := range entry.Instructions {
		if b, ok := instr.(mir.Binary); ok {
			bin = b
			found = true
		}
	}
	require.True(t, found)
	require.Equal(t, mir.BinaryKindAddInt, bin.Kind)
	require.Equal(t, mir.TypeInt, bin.ValueType)
}

func TestLowerCaseProducesMatchTerminatorWithMergeBlock(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def classify(x) do\n    case x do\n      0 -> :zero\n      _ -> :other\n    end\n  end\nend\n")
	fn := prog.Functions[0]
	entry := fn.Blocks[fn.EntryBlock]
	m, ok := entry.Terminator.(mir.Match)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
	for _, arm := range m.Arms {
		target := fn.Blocks[arm.Target]
		jump, ok := target.Terminator.(mir.Jump)
		require.True(t, ok)
		require.Len(t, jump.Args, 1)
	}
}

func TestLowerShortCircuitProducesShortCircuitTerminator(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def both(a, b) do\n    a && b\n  end\nend\n")
	fn := prog.Functions[0]
	entry := fn.Blocks[fn.EntryBlock]
	sc, ok := entry.Terminator.(mir.ShortCircuit)
	require.True(t, ok)
	require.Equal(t, mir.ShortCircuitAndAnd, sc.Op)

	shortBlock := fn.Blocks[sc.OnShortCircuit]
	jump, ok := shortBlock.Terminator.(mir.Jump)
	require.True(t, ok)
	require.Len(t, jump.Args, 1)

	rhsBlock := fn.Blocks[sc.OnEvaluateRHS]
	require.NotEmpty(t, rhsBlock.Instructions)
}

func TestLowerCondProducesBranchChainWithSharedMergeBlock(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def classify(x) do\n    cond do\n      x > 0 -> :pos\n      true -> :nonpos\n    end\n  end\nend\n")
	fn := prog.Functions[0]
	entry := fn.Blocks[fn.EntryBlock]
	branch, ok := entry.Terminator.(mir.Branch)
	require.True(t, ok)

	onTrue := fn.Blocks[branch.OnTrue]
	jump, ok := onTrue.Terminator.(mir.Jump)
	require.True(t, ok)
	mergeTarget := jump.Target

	secondGuard := fn.Blocks[branch.OnFalse]
	branch2, ok := secondGuard.Terminator.(mir.Branch)
	require.True(t, ok)
	require.Equal(t, branch2.OnTrue, branch2.OnFalse)

	onTrue2 := fn.Blocks[branch2.OnTrue]
	jump2, ok := onTrue2.Terminator.(mir.Jump)
	require.True(t, ok)
	require.Equal(t, mergeTarget, jump2.Target)
}

func TestLowerTryProducesLegacyInstruction(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def safe(x) do\n    try do\n      x\n    rescue\n      {:error, reason} -> reason\n    after\n      0\n    end\n  end\nend\n")
	fn := prog.Functions[0]
	entry := fn.Blocks[fn.EntryBlock]
	legacy, ok := entry.Instructions[0].(mir.Legacy)
	require.True(t, ok)
	_, ok = legacy.Source.(ir.Try)
	require.True(t, ok)
}

func TestLowerForProducesLegacyInstruction(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def all(xs) do\n    for x <- xs do\n      x\n    end\n  end\nend\n")
	fn := prog.Functions[0]
	entry := fn.Blocks[fn.EntryBlock]
	legacy, ok := entry.Instructions[0].(mir.Legacy)
	require.True(t, ok)
	_, ok = legacy.Source.(ir.For)
	require.True(t, ok)
}

func TestLowerCallToOkBuiltinInfersResultType(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def wrap(x) do\n    ok(x)\n  end\nend\n")
	fn := prog.Functions[0]
	entry := fn.Blocks[fn.EntryBlock]
	var call mir.Call
	found := false
	for _, instr := range entry.Instructions {
		if c, ok := instr.(mir.Call); ok {
			call = c
			found = true
		}
	}
	require.True(t, found)
	require.Equal(t, mir.TypeResult, call.ValueType)
}

func TestLowerPipeCallArgOrderMatchesIr(t *testing.T) {
	prog := lowerToMir(t, "defmodule Main do\n  def double(x) do\n    x * 2\n  end\n\n  def run(x) do\n    x |> double()\n  end\nend\n")
	run := findMirFunction(prog, "Main.run")
	require.NotNil(t, run)
	entry := run.Blocks[run.EntryBlock]
	var call mir.Call
	found := false
	for _, instr := range entry.Instructions {
		if c, ok := instr.(mir.Call); ok {
			call = c
			found = true
		}
	}
	require.True(t, found)
	require.Equal(t, "Main.double", call.Callee.Function)
	require.Len(t, call.Args, 1)
}

// --- optimizer tests, ported from original_source/src/mir/optimize.rs ---

func buildMulProgram() *mir.Program {
	return &mir.Program{Functions: []*mir.Function{{
		Name: "Demo.run",
		Blocks: []*mir.Block{{
			ID: 0,
			Instructions: []mir.Instruction{
				mir.ConstInt{Dest: 0, Value: 2},
				mir.ConstInt{Dest: 1, Value: 3},
				mir.Binary{Dest: 2, Kind: mir.BinaryKindMulInt, Left: 0, Right: 1, ValueType: mir.TypeInt},
			},
			Terminator: mir.Return{Value: 2},
		}},
	}}}
}

func TestOptimizeFoldsConstantIntBinaryOpsIntoConstValues(t *testing.T) {
	folded := mir.Optimize(buildMulProgram())
	block := folded.Functions[0].Blocks[0]
	require.Len(t, block.Instructions, 3)
	c, ok := block.Instructions[2].(mir.ConstInt)
	require.True(t, ok)
	require.Equal(t, int64(6), c.Value)
}

func buildShortCircuitProgram() *mir.Program {
	return &mir.Program{Functions: []*mir.Function{{
		Name:   "Demo.run",
		Params: []mir.TypedName{{Name: "value", Type: mir.TypeBool}},
		Blocks: []*mir.Block{
			{
				ID:           0,
				Instructions: []mir.Instruction{mir.ConstBool{Dest: 0, Value: true}},
				Terminator: mir.ShortCircuit{
					Op: mir.ShortCircuitAndAnd, Condition: 0, OnEvaluateRHS: 1, OnShortCircuit: 2,
				},
			},
			{ID: 1, Terminator: mir.Return{Value: 0}},
			{ID: 2, Terminator: mir.Return{Value: 0}},
		},
	}}}
}

func TestOptimizeFoldsBoolShortCircuitTerminatorToDirectJump(t *testing.T) {
	folded := mir.Optimize(buildShortCircuitProgram())
	block := folded.Functions[0].Blocks[0]
	jump, ok := block.Terminator.(mir.Jump)
	require.True(t, ok)
	require.Equal(t, uint32(1), jump.Target)
	require.Empty(t, jump.Args)
}

func buildDivByZeroProgram() *mir.Program {
	return &mir.Program{Functions: []*mir.Function{{
		Name: "Demo.run",
		Blocks: []*mir.Block{{
			ID: 0,
			Instructions: []mir.Instruction{
				mir.ConstInt{Dest: 0, Value: 12},
				mir.ConstInt{Dest: 1, Value: 0},
				mir.Binary{Dest: 2, Kind: mir.BinaryKindDivInt, Left: 0, Right: 1, ValueType: mir.TypeInt},
			},
			Terminator: mir.Return{Value: 2},
		}},
	}}}
}

func TestOptimizeDoesNotFoldDivisionByZero(t *testing.T) {
	folded := mir.Optimize(buildDivByZeroProgram())
	block := folded.Functions[0].Blocks[0]
	bin, ok := block.Instructions[2].(mir.Binary)
	require.True(t, ok)
	require.Equal(t, mir.BinaryKindDivInt, bin.Kind)
}
