package driver

import (
	"fmt"

	"github.com/mna/mainer"
	"github.com/spf13/cobra"

	"github.com/mikeyobrien/tonic/lang/parser"
	"github.com/mikeyobrien/tonic/lang/resolver"
	"github.com/mikeyobrien/tonic/lang/typing"
)

// newCheckCommand wires `tonic check <file>`: parse, resolve, and infer
// only, reporting diagnostics without lowering or executing anything.
func newCheckCommand(stdio mainer.Stdio) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Parse, resolve, and type-check a source file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := readSource(path)
			if err != nil {
				return err
			}

			tree, file, err := parser.Parse(path, src)
			if err != nil {
				return err
			}
			if err := resolver.Resolve(tree, file); err != nil {
				return err
			}
			if _, err := typing.Infer(tree); err != nil {
				return err
			}

			fmt.Fprintf(stdio.Stdout, "check: ok %s\n", path)
			return nil
		},
	}
	return cmd
}
