package native

import "fmt"

// Error reports a failure the native backend detects while lowering MIR to
// textual target IR: a malformed jump, an unknown call target, a guard op
// the backend's stack evaluator does not support. Shaped like lang/ir.Error
// and lang/mir.Error for consistency with the rest of the pipeline's error
// types.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
