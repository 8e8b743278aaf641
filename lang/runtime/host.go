// host.go implements the process-wide host-function registry invoked by the
// `host_call` builtin (spec.md §4.5, §4.16). Adapted from
// original_source/src/interop.rs's HostRegistry/HOST_REGISTRY, backed here
// by github.com/dolthub/swiss per SPEC_FULL.md §4.16's DOMAIN STACK wiring
// (swiss backs lookup tables that are not the ordered Map runtime value,
// unlike lang/runtime.Map which must preserve insertion order and so stays a
// plain slice).
package runtime

import (
	"os"
	"os/exec"
	"sync"

	"github.com/dolthub/swiss"
	"github.com/mikeyobrien/tonic/lang/token"
)

// HostFn is a function registered under a name in a HostRegistry and
// reachable from Tonic code via `host_call(:name, args...)`.
type HostFn func(args []Value, offset token.Pos) (Value, error)

// HostRegistry is a name to HostFn table guarded by a mutex, matching
// original_source's Mutex<HashMap<String, HostFn>>.
type HostRegistry struct {
	mu        sync.Mutex
	functions *swiss.Map[string, HostFn]
}

// NewHostRegistry returns an empty registry.
func NewHostRegistry() *HostRegistry {
	return &HostRegistry{functions: swiss.NewMap[string, HostFn](16)}
}

// Register installs fn under name, replacing any existing registration.
func (r *HostRegistry) Register(name string, fn HostFn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions.Put(name, fn)
}

// Lookup returns the function registered under name, if any.
func (r *HostRegistry) Lookup(name string) (HostFn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.functions.Get(name)
}

// EvaluateHostCall backs the `host_call` builtin: the first argument must be
// an Atom naming a registered host function, and the remaining arguments are
// passed through to it (original_source's evaluate_host_call).
func (r *HostRegistry) EvaluateHostCall(args []Value, offset token.Pos) (Value, error) {
	if len(args) < 1 {
		return nil, arityError("host_call", 1, len(args), offset)
	}
	key, ok := args[0].(Atom)
	if !ok {
		return nil, newError(BadArg, offset, "host_call: first argument must be an atom naming the host function")
	}
	fn, ok := r.Lookup(key.Raw())
	if !ok {
		return nil, newError(BadArg, offset, "host_call: no host function registered under %q", key.Raw())
	}
	return fn(args[1:], offset)
}

// DefaultHostRegistry is the registry host_call dispatches through, seeded
// with the sample functions and the sys_* functions original_source
// registers by default (interop.rs's register_sample_functions and
// system::register_system_host_functions).
var DefaultHostRegistry = newDefaultHostRegistry()

func newDefaultHostRegistry() *HostRegistry {
	r := NewHostRegistry()
	registerSampleHostFunctions(r)
	registerSystemHostFunctions(r)
	return r
}

// registerSampleHostFunctions mirrors interop.rs's register_sample_functions:
// identity, sum_ints, make_error.
func registerSampleHostFunctions(r *HostRegistry) {
	r.Register("identity", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) != 1 {
			return nil, arityError("identity", 1, len(args), offset)
		}
		return args[0], nil
	})
	r.Register("sum_ints", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) < 1 {
			return nil, newError(ArityMismatch, offset, "sum_ints expects at least 1 argument, found %d", len(args))
		}
		var total int64
		for _, a := range args {
			i, ok := a.(Int)
			if !ok {
				return nil, newError(BadArg, offset, "sum_ints: all arguments must be ints, found %s", a.Kind())
			}
			total += int64(i)
		}
		return Int(total), nil
	})
	r.Register("make_error", func(args []Value, offset token.Pos) (Value, error) {
		return nil, newError(BadArg, offset, "make_error: %s", renderAll(args))
	})
}

// registerSystemHostFunctions mirrors interop.rs's
// system::register_system_host_functions: a small set of OS-interaction
// functions for scripting build/test tooling from Tonic code.
func registerSystemHostFunctions(r *HostRegistry) {
	r.Register("sys_ensure_dir", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) != 1 {
			return nil, arityError("sys_ensure_dir", 1, len(args), offset)
		}
		path, err := expectString(args[0], offset)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, newError(BadArg, offset, "sys_ensure_dir: %s", err)
		}
		return ResultOk{Value: Nil{}}, nil
	})
	r.Register("sys_write_text", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) != 2 {
			return nil, arityError("sys_write_text", 2, len(args), offset)
		}
		path, err := expectString(args[0], offset)
		if err != nil {
			return nil, err
		}
		text, err := expectString(args[1], offset)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return nil, newError(BadArg, offset, "sys_write_text: %s", err)
		}
		return ResultOk{Value: Nil{}}, nil
	})
	r.Register("sys_path_exists", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) != 1 {
			return nil, arityError("sys_path_exists", 1, len(args), offset)
		}
		path, err := expectString(args[0], offset)
		if err != nil {
			return nil, err
		}
		_, statErr := os.Stat(path)
		return Bool(statErr == nil), nil
	})
	r.Register("sys_env", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) != 1 {
			return nil, arityError("sys_env", 1, len(args), offset)
		}
		name, err := expectString(args[0], offset)
		if err != nil {
			return nil, err
		}
		if v, ok := os.LookupEnv(name); ok {
			return String(v), nil
		}
		return Nil{}, nil
	})
	r.Register("sys_which", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) != 1 {
			return nil, arityError("sys_which", 1, len(args), offset)
		}
		name, err := expectString(args[0], offset)
		if err != nil {
			return nil, err
		}
		path, lookErr := exec.LookPath(name)
		if lookErr != nil {
			return Nil{}, nil
		}
		return String(path), nil
	})
	r.Register("sys_cwd", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) != 0 {
			return nil, arityError("sys_cwd", 0, len(args), offset)
		}
		dir, err := os.Getwd()
		if err != nil {
			return nil, newError(BadArg, offset, "sys_cwd: %s", err)
		}
		return String(dir), nil
	})
	r.Register("sys_run", func(args []Value, offset token.Pos) (Value, error) {
		if len(args) < 1 {
			return nil, newError(ArityMismatch, offset, "sys_run expects at least 1 argument, found %d", len(args))
		}
		name, err := expectString(args[0], offset)
		if err != nil {
			return nil, err
		}
		argv := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			s, err := expectString(a, offset)
			if err != nil {
				return nil, err
			}
			argv = append(argv, s)
		}
		cmd := exec.Command(name, argv...)
		output, runErr := cmd.CombinedOutput()
		exitCode := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				return nil, newError(BadArg, offset, "sys_run: %s", runErr)
			}
		}
		result := MapEmpty().Put(Atom("exit_code"), Int(exitCode)).Put(Atom("output"), String(string(output)))
		return result, nil
	})
}
