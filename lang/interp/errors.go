package interp

import (
	"fmt"

	"github.com/mikeyobrien/tonic/lang/runtime"
)

// Error reports a failure the interpreter itself detects (as opposed to a
// *runtime.Error produced by an operator/builtin): an unmatched function
// clause, an unreachable case, a call depth limit, or a malformed MIR value
// this pipeline should never actually produce. Shaped like lang/ir.Error and
// lang/mir.Error (message plus no further structure) for consistency with
// the rest of the pipeline's error types.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// questionShortCircuit is not a program error: it carries a ResultErr value
// up through ordinary Go error returns from wherever a `?` operator fires to
// the nearest enclosing function or closure call, which converts it back
// into that call's return value (spec.md §3.3's `?` semantics). It must
// never escape callFunction/makeClosureCallable.
type questionShortCircuit struct {
	Value runtime.Value
}

func (q *questionShortCircuit) Error() string { return "unhandled ? short-circuit" }
