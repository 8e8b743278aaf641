package driver

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/internal/envconfig"
	"github.com/mikeyobrien/tonic/lang/parser"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFindEntryFunctionFindsRunZero(t *testing.T) {
	tree, _, err := parser.Parse("test.tn", []byte("defmodule Demo do\n  def run() do\n    1\n  end\nend\n"))
	require.NoError(t, err)

	entry, err := findEntryFunction(tree)
	require.NoError(t, err)
	require.Equal(t, "Demo.run", entry)
}

func TestFindEntryFunctionErrorsWhenMissing(t *testing.T) {
	tree, _, err := parser.Parse("test.tn", []byte("defmodule Demo do\n  def helper() do\n    1\n  end\nend\n"))
	require.NoError(t, err)

	_, err = findEntryFunction(tree)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no run/0 function found")
}

func TestFindEntryFunctionErrorsWhenAmbiguous(t *testing.T) {
	src := "defmodule A do\n  def run() do\n    1\n  end\nend\n" +
		"defmodule B do\n  def run() do\n    2\n  end\nend\n"
	tree, _, err := parser.Parse("test.tn", []byte(src))
	require.NoError(t, err)

	_, err = findEntryFunction(tree)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ambiguous entry point")
}

func TestFrontendLowersToIR(t *testing.T) {
	src := []byte("defmodule Demo do\n  def run() do\n    1 + 2\n  end\nend\n")
	settings := envconfig.Settings{CacheRoot: t.TempDir()}
	logger := testLogger()

	tree, prog, err := frontend("test.tn", src, settings, logger)
	require.NoError(t, err)
	require.NotNil(t, tree)
	require.Len(t, prog.Functions, 1)
	require.Equal(t, "Demo.run", prog.Functions[0].Name)
}

func TestFrontendReusesCacheOnSecondCall(t *testing.T) {
	src := []byte("defmodule Demo do\n  def run() do\n    42\n  end\nend\n")
	settings := envconfig.Settings{CacheRoot: t.TempDir()}
	logger := testLogger()

	_, first, err := frontend("test.tn", src, settings, logger)
	require.NoError(t, err)

	key, err := cacheKeyFor(string(src))
	require.NoError(t, err)
	cachedPath, err := filepath.Abs(filepath.Join(settings.CacheRoot, key.String()+".ir.json"))
	require.NoError(t, err)
	require.FileExists(t, cachedPath)

	_, second, err := frontend("test.tn", src, settings, logger)
	require.NoError(t, err)
	require.Equal(t, first.Functions[0].Name, second.Functions[0].Name)
}

func TestResolveSiblingPath(t *testing.T) {
	require.Equal(t, "/abs/path", resolveSiblingPath("/build/demo.tnx.json", "/abs/path"))
	require.Equal(t, filepath.Join("/build", "demo"), resolveSiblingPath("/build/demo.tnx.json", "demo"))
}

func TestUsageErrorWraps(t *testing.T) {
	err := newUsageErrorf("missing %s", "file")
	require.EqualError(t, err, "missing file")

	var u usageError
	require.ErrorAs(t, err, &u)
}
