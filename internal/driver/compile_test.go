package driver

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/internal/envconfig"
)

func TestCompileCommandProducesArtifactTrio(t *testing.T) {
	if _, err := exec.LookPath("clang"); err != nil {
		t.Skip("clang not available on PATH")
	}

	path := writeSourceFile(t, "defmodule Demo do\n  def run() do\n    1 + 2\n  end\nend\n")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	settings := envconfig.Settings{CacheRoot: t.TempDir(), BuildRoot: t.TempDir()}
	cmd := newCompileCommand(stdio, settings, testLogger())

	require.NoError(t, cmd.RunE(cmd, []string{path}))
	require.Contains(t, out.String(), "compile: ok")

	name := "demo"
	buildDir := filepath.Join(settings.BuildRoot, name)
	require.FileExists(t, filepath.Join(buildDir, name+".ll"))
	require.FileExists(t, filepath.Join(buildDir, name+".tir.json"))
	require.FileExists(t, filepath.Join(buildDir, name+".tnx.json"))
	require.FileExists(t, filepath.Join(buildDir, name))
}

func TestCompileCommandReportsAssemblerFailure(t *testing.T) {
	path := writeSourceFile(t, "defmodule Demo do\n  def run() do\n    1 + 2\n  end\nend\n")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	settings := envconfig.Settings{CacheRoot: t.TempDir(), BuildRoot: t.TempDir()}
	cmd := newCompileCommand(stdio, settings, testLogger())
	require.NoError(t, cmd.Flags().Set("clang", "tonic-nonexistent-clang-binary"))

	err := cmd.RunE(cmd, []string{path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "clang failed to assemble")
}
