package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

func writeSourceFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.tn")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestCheckCommandAcceptsValidSource(t *testing.T) {
	path := writeSourceFile(t, "defmodule Demo do\n  def run() do\n    1 + 2\n  end\nend\n")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	cmd := newCheckCommand(stdio)

	require.NoError(t, cmd.RunE(cmd, []string{path}))
	require.Contains(t, out.String(), "check: ok")
}

func TestCheckCommandReportsTypeError(t *testing.T) {
	path := writeSourceFile(t, "defmodule Demo do\n  def run() do\n    1 + :atom\n  end\nend\n")

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	cmd := newCheckCommand(stdio)

	err := cmd.RunE(cmd, []string{path})
	require.Error(t, err)
}

func TestCheckCommandReportsMissingFile(t *testing.T) {
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	cmd := newCheckCommand(stdio)

	err := cmd.RunE(cmd, []string{filepath.Join(t.TempDir(), "missing.tn")})
	require.Error(t, err)

	var usage usageError
	require.ErrorAs(t, err, &usage)
}
