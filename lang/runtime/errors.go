package runtime

import (
	"fmt"

	"github.com/mikeyobrien/tonic/lang/token"
)

// ErrorCode enumerates the runtime error kinds of spec.md §4.9/§7.
type ErrorCode int

const (
	ArityMismatch ErrorCode = iota
	BadArg
	DivisionByZero
	UnsupportedBuiltin
)

func (c ErrorCode) String() string {
	switch c {
	case ArityMismatch:
		return "ArityMismatch"
	case BadArg:
		return "BadArg"
	case DivisionByZero:
		return "DivisionByZero"
	case UnsupportedBuiltin:
		return "UnsupportedBuiltin"
	default:
		return "UnknownError"
	}
}

// Error is a runtime diagnostic carrying the offending source offset,
// rendered "<msg> at offset <n>" (spec.md §4.9), adapted from
// original_source/src/native_runtime/mod.rs's NativeRuntimeError.
type Error struct {
	Code    ErrorCode
	Message string
	Offset  token.Pos
}

func newError(code ErrorCode, offset token.Pos, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Offset: offset}
}

func (e *Error) Error() string {
	if !e.Offset.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s at offset %d", e.Message, int(e.Offset))
}

func badArg(offset token.Pos) *Error {
	return newError(BadArg, offset, "badarg")
}

// Raised is the error carried by the `raise` unary operator (spec.md
// §3.3/§4.6's UnaryKindRaise): unlike Error, which signals a malformed
// program the earlier pipeline stages should have already rejected, Raised
// carries a Tonic value through Go's error-return channel so a `try`'s
// rescue/catch arms can pattern-match it. lang/interp is the only consumer.
type Raised struct {
	Value Value
}

func (r *Raised) Error() string { return "raised " + r.Value.String() }
