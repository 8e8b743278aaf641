package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/cache"
	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/parser"
)

func TestCacheKeyIsStableForIdenticalInputs(t *testing.T) {
	left := cache.FromParts("entry-a", "deps-a", "runtime-1", "linux-amd64", "none")
	right := cache.FromParts("entry-a", "deps-a", "runtime-1", "linux-amd64", "none")
	require.Equal(t, left.String(), right.String())
}

func TestCacheKeyChangesWhenAnyDimensionChanges(t *testing.T) {
	base := cache.FromParts("entry-a", "deps-a", "runtime-1", "linux-amd64", "none")
	changedTarget := cache.FromParts("entry-a", "deps-a", "runtime-1", "linux-arm64", "none")
	require.NotEqual(t, base.String(), changedTarget.String())
}

func TestCacheKeyPartsAreLengthPrefixed(t *testing.T) {
	key := cache.FromParts("ab", "c", "1", "x", "none")
	require.Equal(t, "2:ab|1:c|1:1|1:x|4:none", key.String())
}

func TestBuildRunCacheKeyWithoutLockfileUsesEmptyDependencyHash(t *testing.T) {
	root := t.TempDir()
	key, err := cache.BuildRunCacheKey("defmodule Main do\nend\n", root)
	require.NoError(t, err)
	require.NotEmpty(t, key.String())

	other, err := cache.BuildRunCacheKey("defmodule Main do\nend\n", root)
	require.NoError(t, err)
	require.Equal(t, key.String(), other.String())
}

func TestBuildRunCacheKeyChangesWithLockfileContent(t *testing.T) {
	root := t.TempDir()
	source := "defmodule Main do\nend\n"

	withoutLockfile, err := cache.BuildRunCacheKey(source, root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "tonic.yaml"), []byte("dependencies:\n  math: \"1.0\"\n"), 0o644))

	withLockfile, err := cache.BuildRunCacheKey(source, root)
	require.NoError(t, err)

	require.NotEqual(t, withoutLockfile.String(), withLockfile.String())
}

func TestLoadLockfileReturnsNilWhenAbsent(t *testing.T) {
	lockfile, err := cache.LoadLockfile(t.TempDir())
	require.NoError(t, err)
	require.Nil(t, lockfile)
}

func TestLoadLockfileParsesDependencies(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tonic.yaml"), []byte("dependencies:\n  math: \"1.0\"\n  strings: \"2.3\"\n"), 0o644))

	lockfile, err := cache.LoadLockfile(root)
	require.NoError(t, err)
	require.NotNil(t, lockfile)
	require.Equal(t, "1.0", lockfile.Dependencies["math"])
	require.Equal(t, "2.3", lockfile.Dependencies["strings"])
}

func TestWriteAtomicThenReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "artifact.txt")
	require.NoError(t, cache.WriteAtomic(path, []byte("payload")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "payload", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover temp file should remain")
}

func lowerProgram(t *testing.T, src string) *ir.Program {
	t.Helper()
	tree, _, err := parser.Parse("test.tn", []byte(src))
	require.NoError(t, err)
	prog, err := ir.Lower(tree)
	require.NoError(t, err)
	return prog
}

func TestStoreThenLoadRoundTripsProgram(t *testing.T) {
	root := t.TempDir()
	key := cache.FromParts("entry", "deps", "runtime", "target", "none")
	program := lowerProgram(t, "defmodule Main do\n  def answer() do\n    42\n  end\nend\n")

	require.NoError(t, cache.Store(root, key, program))

	loaded, err := cache.Load(root, key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Functions, 1)
	require.Equal(t, "Main.answer", loaded.Functions[0].Name)
}

func TestLoadReportsMissWhenArtifactAbsent(t *testing.T) {
	root := t.TempDir()
	key := cache.FromParts("entry", "deps", "runtime", "target", "none")

	loaded, err := cache.Load(root, key)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestLoadSelfHealsOnCorruptArtifact(t *testing.T) {
	root := t.TempDir()
	key := cache.FromParts("entry", "deps", "runtime", "target", "none")

	path, err := cache.ArtifactPath(root, key)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	loaded, err := cache.Load(root, key)
	require.NoError(t, err)
	require.Nil(t, loaded)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "corrupt artifact should be removed")
}

func TestShouldTraceStatusReflectsEnvVar(t *testing.T) {
	require.False(t, cache.ShouldTraceStatus())
	t.Setenv("TONIC_DEBUG_CACHE", "1")
	require.True(t, cache.ShouldTraceStatus())
}
