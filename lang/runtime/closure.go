package runtime

import "github.com/mikeyobrien/tonic/lang/token"

// Callable is the Go-native shape of a Tonic function body once compiled:
// given argument values, it returns a result or a runtime error. A Closure
// wraps one along with the metadata call sites need.
//
// This is a deliberate departure from the teacher's lang/machine.Function,
// which instead carries a *compiler.Funcode plus a free-variable Tuple and
// leaves interpretation to the machine's frame/opcode loop. Tonic's
// interpreter (lang/interp, task 10) executes MIR, not IR bytecode, and its
// closures close over Go variables the same way lang/interp builds them —
// there is no separate bytecode object to reference from lang/runtime, and
// wrapping interp's own compiled representation here would make lang/runtime
// import lang/interp, inverting the dependency spec.md's package layout
// requires (interp executes "against" lang/runtime, not the reverse). A
// plain Go closure value keeps the dependency direction correct and is the
// idiomatic way to represent "a callable built from captured state" in Go.
type Callable func(args []Value) (Value, error)

// Closure is a first-class function value (spec.md §3.5's Closure(ClosureId)).
type Closure struct {
	// Name is the qualified "Module.function" name for a named-function
	// capture (CaptureExpr), or "" for an anonymous fn literal.
	Name  string
	Arity int
	Call  Callable
}

func (c *Closure) String() string {
	if c.Name != "" {
		return "&" + c.Name
	}
	return "#Closure"
}
func (c *Closure) Kind() string { return "function" }
func (c *Closure) Truth() bool  { return true }

// Invoke calls the closure, checking arity first so every call site gets a
// uniform ArityMismatch diagnostic rather than a panic on Call.
func (c *Closure) Invoke(args []Value, offset token.Pos) (Value, error) {
	if len(args) != c.Arity {
		return nil, newError(ArityMismatch, offset,
			"arity mismatch for %s: expected %d args, found %d", c.displayName(), c.Arity, len(args))
	}
	return c.Call(args)
}

func (c *Closure) displayName() string {
	if c.Name != "" {
		return c.Name
	}
	return "closure"
}
