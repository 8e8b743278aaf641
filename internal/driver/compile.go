package driver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mna/mainer"
	"github.com/spf13/cobra"

	"github.com/mikeyobrien/tonic/internal/envconfig"
	"github.com/mikeyobrien/tonic/lang/artifact"
	"github.com/mikeyobrien/tonic/lang/mir"
	"github.com/mikeyobrien/tonic/lang/native"
)

// newCompileCommand wires `tonic compile <file>`: the full front end plus
// the native backend (spec.md §4.8), writing the `.ll`/`.tir.json`/
// `.tnx.json` artifact trio under the build root (spec.md §6.4) and
// invoking the host's clang to assemble and link a real executable.
func newCompileCommand(stdio mainer.Stdio, settings envconfig.Settings, logger *slog.Logger) *cobra.Command {
	var clangPath string

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file to a native executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := readSource(path)
			if err != nil {
				return err
			}

			tree, prog, err := frontend(path, src, settings, logger)
			if err != nil {
				return err
			}
			if _, err := findEntryFunction(tree); err != nil {
				return err
			}

			mirProg, err := mir.Lower(prog)
			if err != nil {
				return err
			}
			mirProg = mir.Optimize(mirProg)

			module, err := native.Lower(mirProg)
			if err != nil {
				return err
			}

			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			buildDir := filepath.Join(settings.BuildRoot, name)
			if err := os.MkdirAll(buildDir, 0o755); err != nil {
				return fmt.Errorf("failed to create build directory %s: %w", buildDir, err)
			}

			llPath := filepath.Join(buildDir, name+".ll")
			irPath := filepath.Join(buildDir, name+".tir.json")
			objectPath := filepath.Join(buildDir, name)
			manifestPath := filepath.Join(buildDir, name+".tnx.json")

			if err := os.WriteFile(llPath, []byte(module.Text), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", llPath, err)
			}

			irEncoded, err := json.Marshal(prog)
			if err != nil {
				return fmt.Errorf("failed to serialize ir sidecar: %w", err)
			}
			if err := os.WriteFile(irPath, irEncoded, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", irPath, err)
			}

			if err := assemble(clangPath, llPath, objectPath); err != nil {
				return err
			}

			manifest := artifact.BuildExecutableManifest(string(src), manifestPath, llPath, objectPath, irPath)
			if err := artifact.WriteManifest(manifestPath, manifest); err != nil {
				return err
			}

			fmt.Fprintf(stdio.Stdout, "compile: ok %s\n", objectPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&clangPath, "clang", "clang", "path to the clang executable used to assemble and link the emitted LLVM IR")
	return cmd
}

// assemble invokes clang to turn the textual LLVM IR at llPath into a real
// host executable at objectPath with the execute bit set (spec.md §6.4).
func assemble(clangPath, llPath, objectPath string) error {
	cmd := exec.Command(clangPath, llPath, "-o", objectPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("clang failed to assemble %s: %w\n%s", llPath, err, output)
	}
	return nil
}
