package driver

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/mna/mainer"
	"github.com/spf13/cobra"

	"github.com/mikeyobrien/tonic/internal/envconfig"
	"github.com/mikeyobrien/tonic/lang/artifact"
	"github.com/mikeyobrien/tonic/lang/interp"
	"github.com/mikeyobrien/tonic/lang/mir"
)

// newRunCommand wires `tonic run <file>`. Given a `.tn` source file it runs
// the full front end and interprets the result (spec.md §4.8.1); given a
// `.tnx.json` manifest it validates the manifest for the current host
// (lang/artifact.ValidateForHost) and executes the compiled host
// executable directly, matching spec.md §6.4's "running it directly must
// reproduce interpreter semantics".
func newRunCommand(stdio mainer.Stdio, settings envconfig.Settings, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Interpret a source file, or execute a compiled native artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if artifact.IsNativeArtifactPath(path) {
				return runNativeArtifact(stdio, path)
			}
			return runSource(stdio, settings, logger, path)
		},
	}
	return cmd
}

func runSource(stdio mainer.Stdio, settings envconfig.Settings, logger *slog.Logger, path string) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}

	tree, prog, err := frontend(path, src, settings, logger)
	if err != nil {
		return err
	}

	entry, err := findEntryFunction(tree)
	if err != nil {
		return err
	}

	mirProg, err := mir.Lower(prog)
	if err != nil {
		return err
	}

	result, err := interp.New(mirProg).Run(entry, nil)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdio.Stdout, result.String())
	return nil
}

func runNativeArtifact(stdio mainer.Stdio, manifestPath string) error {
	manifest, err := artifact.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := artifact.ValidateForHost(manifest); err != nil {
		return err
	}

	executablePath := resolveSiblingPath(manifestPath, manifest.Artifacts.Object)

	execCmd := exec.Command(executablePath)
	execCmd.Stdout = stdio.Stdout
	execCmd.Stderr = stdio.Stderr
	execCmd.Stdin = stdio.Stdin
	return execCmd.Run()
}
