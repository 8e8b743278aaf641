package driver

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mikeyobrien/tonic/internal/envconfig"
	"github.com/mikeyobrien/tonic/lang/ast"
	"github.com/mikeyobrien/tonic/lang/ir"
	"github.com/mikeyobrien/tonic/lang/parser"
	"github.com/mikeyobrien/tonic/lang/resolver"
	"github.com/mikeyobrien/tonic/lang/typing"
)

// readSource loads path, wrapping a missing/unreadable file as a usage
// error the way a missing argument does (spec.md's CLI has no silent
// "file not found" path).
func readSource(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, newUsageErrorf("%s", err)
	}
	return src, nil
}

// frontend runs parse -> resolve -> infer -> ir.Lower over source, the
// pipeline stages shared by `check`, `run`, and `compile` (spec.md §2's
// diagram, up to the IR stage). It consults and populates the IR compile
// cache (lang/cache, spec.md §4.10) keyed on source plus the project's
// optional tonic.yaml lockfile, so a repeated run of unchanged source
// reuses the cached IR instead of lowering again; parsing, resolution and
// inference still run on every call.
func frontend(path string, src []byte, settings envconfig.Settings, logger *slog.Logger) (*ast.Ast, *ir.Program, error) {
	tree, file, err := parser.Parse(path, src)
	if err != nil {
		return nil, nil, err
	}

	if err := resolver.Resolve(tree, file); err != nil {
		return nil, nil, err
	}

	if _, err := typing.Infer(tree); err != nil {
		return nil, nil, err
	}

	key, cacheErr := cacheKeyFor(string(src))
	if cacheErr == nil {
		if cached, err := loadCachedIR(settings, key, logger); err == nil && cached != nil {
			return tree, cached, nil
		}
	}

	prog, err := ir.Lower(tree)
	if err != nil {
		return nil, nil, err
	}

	if cacheErr == nil {
		storeCachedIR(settings, key, prog, logger)
	}

	return tree, prog, nil
}

// findEntryFunction locates the single `run/0` function the CLI invokes
// (spec.md §4.8's "an LLVM main calls Demo.run/0"; the interpreter and
// native paths share this same convention), returning its qualified name
// (e.g. "Demo.run"). It is an error for zero or more than one module to
// define one, since the entry point must be unambiguous.
func findEntryFunction(tree *ast.Ast) (string, error) {
	var found []string
	for _, mod := range tree.Modules {
		for _, fn := range mod.Functions {
			if fn.Name == "run" && len(fn.Params) == 0 {
				found = append(found, ast.QualifiedName(mod.Name, fn.Name))
			}
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no run/0 function found: every Tonic program needs exactly one module defining run()")
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("ambiguous entry point: multiple run/0 functions found (%v)", found)
	}
}
