// Package driver is the ambient glue wiring lexer -> parser -> resolver ->
// typing -> ir -> mir -> (optimizer) -> interp/native behind the `run`,
// `check`, and `compile` CLI verbs (SPEC_FULL.md §4.12). Grounded on the
// teacher's cmd/nenuphar + internal/maincmd, which plays the identical
// role for its own tokenize/parse/resolve commands: a single entry point
// the `cmd/tonic` main.go trivially wraps, returning the process exit
// code, built on github.com/mna/mainer for context/signal wiring exactly
// as internal/maincmd does. Unlike the teacher's hand-rolled flag struct,
// subcommand dispatch here uses github.com/spf13/cobra (SPEC_FULL.md
// §4.12), following funvibe-funxy/cmd/funxy and tinyrange-rtg/tools for a
// CLI with more than one subcommand and distinct per-command flag sets.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mna/mainer"

	"github.com/mikeyobrien/tonic/internal/envconfig"
)

// BuildInfo carries the version/date cmd/tonic's main.go stamps at build
// time (mirroring the teacher's Cmd.BuildVersion/BuildDate fields).
type BuildInfo struct {
	Version   string
	BuildDate string
}

// usageError marks a cobra/argument-validation failure so Main can map it
// to exit code 64 rather than the generic failure code 1 (spec.md §6's
// exit code contract; SPEC_FULL.md §4.12 normalizes cobra's own non-64
// usage-error default to match the convention internal/maincmd already
// established for its own parser).
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func newUsageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// Main runs the tonic CLI over args (excluding argv[0]) and returns the
// process exit code: 0 success, 1 generic failure, 64 usage error.
func Main(args []string, info BuildInfo) int {
	stdio := mainer.CurrentStdio()
	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	settings, err := envconfig.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "error: invalid environment configuration: %s\n", err)
		return 1
	}

	logger := newLogger(stdio.Stderr, settings)

	root := newRootCommand(stdio, info, settings, logger)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(stdio.Stderr, "error: %s\n", err)

	var usage usageError
	if errors.As(err, &usage) {
		return 64
	}
	return 1
}

// newLogger configures the operator-tracing logger (SPEC_FULL.md §4.13):
// Debug level when either debug env var is set, Warn otherwise. This is
// deliberately separate from the lang/diag compiler-diagnostic renderer,
// which stays plain fmt.Fprintf text for a different audience.
func newLogger(w io.Writer, settings envconfig.Settings) *slog.Logger {
	level := slog.LevelWarn
	if settings.DebugCache || settings.DebugModuleLoads {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
