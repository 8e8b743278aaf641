package artifact_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/artifact"
	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/parser"
)

func TestNativeCacheKeyChangesWhenBackendChanges(t *testing.T) {
	sourceHash := artifact.SourceHash("defmodule Demo do\nend\n")
	target := "linux-amd64"

	llvmKey := artifact.CacheKey(sourceHash, artifact.BackendLLVM, target, artifact.EmitExecutable)
	interpKey := artifact.CacheKey(sourceHash, "interp", target, "ir")

	require.NotEqual(t, llvmKey, interpKey)
}

func TestNativeCacheKeyChangesWhenTargetChanges(t *testing.T) {
	sourceHash := artifact.SourceHash("defmodule Demo do\nend\n")

	linuxKey := artifact.CacheKey(sourceHash, artifact.BackendLLVM, "linux-amd64", artifact.EmitExecutable)
	darwinKey := artifact.CacheKey(sourceHash, artifact.BackendLLVM, "darwin-arm64", artifact.EmitExecutable)

	require.NotEqual(t, linuxKey, darwinKey)
}

func TestIsNativeArtifactPath(t *testing.T) {
	require.True(t, artifact.IsNativeArtifactPath("demo.tnx.json"))
	require.False(t, artifact.IsNativeArtifactPath("demo.ir.json"))
}

func TestBuildExecutableManifestRecordsRelativeArtifactPaths(t *testing.T) {
	buildDir := t.TempDir()
	manifestPath := filepath.Join(buildDir, "demo.tnx.json")
	llvmIRPath := filepath.Join(buildDir, "demo.ll")
	objectPath := filepath.Join(buildDir, "demo")
	irPath := filepath.Join(buildDir, "demo.tir.json")

	manifest := artifact.BuildExecutableManifest("defmodule Demo do\nend\n", manifestPath, llvmIRPath, objectPath, irPath)

	require.Equal(t, artifact.SchemaVersion, manifest.SchemaVersion)
	require.Equal(t, artifact.BackendLLVM, manifest.Backend)
	require.Equal(t, artifact.EmitExecutable, manifest.Emit)
	require.Equal(t, "demo.ll", manifest.Artifacts.LLVMIR)
	require.Equal(t, "demo", manifest.Artifacts.Object)
	require.Equal(t, "demo.tir.json", manifest.Artifacts.IR)
}

func TestWriteManifestThenLoadRoundTrips(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "demo.tnx.json")
	manifest := artifact.BuildExecutableManifest("defmodule Demo do\nend\n", manifestPath, "demo.ll", "demo", "demo.tir.json")

	require.NoError(t, artifact.WriteManifest(manifestPath, manifest))

	loaded, err := artifact.LoadManifest(manifestPath)
	require.NoError(t, err)
	require.Equal(t, manifest, loaded)
}

func TestValidateForHostAcceptsFreshManifest(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "demo.tnx.json")
	manifest := artifact.BuildExecutableManifest("defmodule Demo do\nend\n", manifestPath, "demo.ll", "demo", "demo.tir.json")

	require.NoError(t, artifact.ValidateForHost(manifest))
}

func TestValidateForHostRejectsSchemaMismatch(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "demo.tnx.json")
	manifest := artifact.BuildExecutableManifest("defmodule Demo do\nend\n", manifestPath, "demo.ll", "demo", "demo.tir.json")
	manifest.SchemaVersion = 99

	err := artifact.ValidateForHost(manifest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema mismatch")
}

func TestValidateForHostRejectsTargetMismatch(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "demo.tnx.json")
	manifest := artifact.BuildExecutableManifest("defmodule Demo do\nend\n", manifestPath, "demo.ll", "demo", "demo.tir.json")
	manifest.TargetTriple = "plan9-386"

	err := artifact.ValidateForHost(manifest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "target mismatch")
}

func TestValidateForHostRejectsStaleCacheKey(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "demo.tnx.json")
	manifest := artifact.BuildExecutableManifest("defmodule Demo do\nend\n", manifestPath, "demo.ll", "demo", "demo.tir.json")
	manifest.CacheKey = "stale"

	err := artifact.ValidateForHost(manifest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache key mismatch")
}

func TestLoadIRFromManifestReadsSidecar(t *testing.T) {
	buildDir := t.TempDir()
	manifestPath := filepath.Join(buildDir, "demo.tnx.json")
	irPath := filepath.Join(buildDir, "demo.tir.json")

	tree, _, err := parser.Parse("test.tn", []byte("defmodule Demo do\n  def run() do\n    1\n  end\nend\n"))
	require.NoError(t, err)
	program, err := ir.Lower(tree)
	require.NoError(t, err)

	encoded, err := json.Marshal(program)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(irPath, encoded, 0o644))

	manifest := artifact.BuildExecutableManifest("source", manifestPath, "demo.ll", "demo", irPath)
	manifest.Artifacts.IR = "demo.tir.json"

	loaded, err := artifact.LoadIRFromManifest(manifestPath, manifest)
	require.NoError(t, err)
	require.Len(t, loaded.Functions, 1)
	require.Equal(t, "Demo.run", loaded.Functions[0].Name)
}
