package driver

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/internal/envconfig"
)

func TestRunCommandInterpretsSource(t *testing.T) {
	path := writeSourceFile(t, "defmodule Demo do\n  def run() do\n    1 + 2\n  end\nend\n")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	settings := envconfig.Settings{CacheRoot: t.TempDir()}
	cmd := newRunCommand(stdio, settings, testLogger())

	require.NoError(t, cmd.RunE(cmd, []string{path}))
	require.Equal(t, "3", strings.TrimSpace(out.String()))
}

func TestRunCommandReportsMissingEntryPoint(t *testing.T) {
	path := writeSourceFile(t, "defmodule Demo do\n  def helper() do\n    1\n  end\nend\n")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	settings := envconfig.Settings{CacheRoot: t.TempDir()}
	cmd := newRunCommand(stdio, settings, testLogger())

	err := cmd.RunE(cmd, []string{path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no run/0 function found")
}

func TestRunCommandDispatchesNativeArtifactBySuffix(t *testing.T) {
	// A manifest path is routed to the native-artifact loader rather than
	// the source interpreter purely by its .tnx.json suffix; a missing
	// file surfaces the manifest-read error, not a parse error.
	missing := filepath.Join(t.TempDir(), "demo.tnx.json")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	settings := envconfig.Settings{CacheRoot: t.TempDir()}
	cmd := newRunCommand(stdio, settings, testLogger())

	err := cmd.RunE(cmd, []string{missing})
	require.Error(t, err)
	require.Contains(t, err.Error(), "native artifact manifest")
}
