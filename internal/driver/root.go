package driver

import (
	"fmt"
	"log/slog"

	"github.com/mna/mainer"
	"github.com/spf13/cobra"

	"github.com/mikeyobrien/tonic/internal/envconfig"
)

// newRootCommand builds the `tonic` cobra tree: run/check/compile, matching
// SPEC_FULL.md §4.12's three verbs. Output streams are redirected to
// stdio so tests (and a non-OS Stdio, e.g. during an in-process test run)
// see every line cobra itself emits.
func newRootCommand(stdio mainer.Stdio, info BuildInfo, settings envconfig.Settings, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "tonic",
		Short:         "Compiler and runtime for the Tonic programming language",
		Version:       fmt.Sprintf("%s (%s)", info.Version, info.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdio.Stdout)
	root.SetErr(stdio.Stderr)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageErrorf("%s: %w", c.Name(), err)
	})

	root.AddCommand(newCheckCommand(stdio))
	root.AddCommand(newRunCommand(stdio, settings, logger))
	root.AddCommand(newCompileCommand(stdio, settings, logger))

	return root
}
