// ops.go implements the int/string/collection operator helpers invoked by IR
// lowering's fixed binary-op names (spec.md §4.5) and, eventually, the MIR
// interpreter and native backend. Adapted from
// original_source/src/native_runtime/ops.rs, one function per Rust function
// of the same name.
package runtime

import (
	"github.com/mikeyobrien/tonic/lang/token"
)

func expectInt(v Value, offset token.Pos) (int64, error) {
	i, ok := v.(Int)
	if !ok {
		return 0, newError(BadArg, offset, "int operator expects int operands, found %s", v.Kind())
	}
	return int64(i), nil
}

func expectString(v Value, offset token.Pos) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", newError(BadArg, offset, "operator expects a string operand, found %s", v.Kind())
	}
	return s.Raw(), nil
}

// AddInt, SubInt, MulInt, DivInt implement the four arithmetic IR ops.
func AddInt(left, right Value, offset token.Pos) (Value, error) {
	l, err := expectInt(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectInt(right, offset)
	if err != nil {
		return nil, err
	}
	return Int(l + r), nil
}

func SubInt(left, right Value, offset token.Pos) (Value, error) {
	l, err := expectInt(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectInt(right, offset)
	if err != nil {
		return nil, err
	}
	return Int(l - r), nil
}

func MulInt(left, right Value, offset token.Pos) (Value, error) {
	l, err := expectInt(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectInt(right, offset)
	if err != nil {
		return nil, err
	}
	return Int(l * r), nil
}

func DivInt(left, right Value, offset token.Pos) (Value, error) {
	l, err := expectInt(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectInt(right, offset)
	if err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, newError(DivisionByZero, offset, "division by zero")
	}
	return Int(l / r), nil
}

// DivBuiltin and RemBuiltin back the `div`/`rem` builtins (spec.md §4.5),
// which are the same operation as the `/` IR op and its modulo counterpart
// but exposed as ordinary calls rather than infix operators.
func DivBuiltin(left, right Value, offset token.Pos) (Value, error) {
	return DivInt(left, right, offset)
}

func RemBuiltin(left, right Value, offset token.Pos) (Value, error) {
	l, err := expectInt(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectInt(right, offset)
	if err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, newError(DivisionByZero, offset, "division by zero")
	}
	return Int(l % r), nil
}

// CmpKind enumerates the six comparison IR ops.
type CmpKind int

const (
	CmpEq CmpKind = iota
	CmpNotEq
	CmpLt
	CmpLte
	CmpGt
	CmpGte
)

func CmpInt(kind CmpKind, left, right Value, offset token.Pos) (Value, error) {
	l, err := expectInt(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectInt(right, offset)
	if err != nil {
		return nil, err
	}
	var result bool
	switch kind {
	case CmpEq:
		result = l == r
	case CmpNotEq:
		result = l != r
	case CmpLt:
		result = l < r
	case CmpLte:
		result = l <= r
	case CmpGt:
		result = l > r
	case CmpGte:
		result = l >= r
	}
	return Bool(result), nil
}

// StrictNot implements the `not` unary operator: boolean operands only.
func StrictNot(value Value, offset token.Pos) (Value, error) {
	b, ok := value.(Bool)
	if !ok {
		return nil, badArg(offset)
	}
	return Bool(!b), nil
}

// TruthyBang implements the `!` unary operator: negates the value's Truth,
// accepting any operand (matching original_source's truthy_bang).
func TruthyBang(value Value) Value {
	return Bool(!value.Truth())
}

// Concat implements the `<>` string-concatenation operator.
func Concat(left, right Value, offset token.Pos) (Value, error) {
	l, err := expectString(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectString(right, offset)
	if err != nil {
		return nil, err
	}
	return String(l + r), nil
}

// InOperator implements `in`/`not in` against a List or Range.
func InOperator(left, right Value, offset token.Pos) (Value, error) {
	switch rv := right.(type) {
	case *List:
		return Bool(rv.Contains(left)), nil
	case Range:
		i, ok := left.(Int)
		return Bool(ok && rv.Contains(int64(i))), nil
	default:
		return nil, badArg(offset)
	}
}

// ListConcat implements the `++` operator.
func ListConcat(left, right Value, offset token.Pos) (Value, error) {
	l, ok := left.(*List)
	if !ok {
		return nil, badArg(offset)
	}
	r, ok := right.(*List)
	if !ok {
		return nil, badArg(offset)
	}
	return l.Concat(r), nil
}

// ListSubtract implements the `--` operator.
func ListSubtract(left, right Value, offset token.Pos) (Value, error) {
	l, ok := left.(*List)
	if !ok {
		return nil, badArg(offset)
	}
	r, ok := right.(*List)
	if !ok {
		return nil, badArg(offset)
	}
	return l.Subtract(r), nil
}

// MakeRange implements the `..` operator.
func MakeRange(left, right Value, offset token.Pos) (Value, error) {
	l, err := expectInt(left, offset)
	if err != nil {
		return nil, err
	}
	r, err := expectInt(right, offset)
	if err != nil {
		return nil, err
	}
	return Range{Start: l, End: r}, nil
}

// ToStringOp implements the `to_string` unary operator: every value renders
// through its own String method, so this never fails.
func ToStringOp(value Value) Value {
	return String(value.String())
}

// Raise implements the `raise` unary operator, handing value to the caller
// as a *Raised error rather than a return value so it can unwind through
// ordinary Go error propagation until a `try`'s rescue/catch arm catches it.
func Raise(value Value) error {
	return &Raised{Value: value}
}

// PosInt implements unary `+`: validates the operand is an Int and returns
// it unchanged (matching original_source's pos_int, which exists only to
// reject non-int operands since unary plus performs no transformation).
func PosInt(value Value, offset token.Pos) (Value, error) {
	i, err := expectInt(value, offset)
	if err != nil {
		return nil, err
	}
	return Int(i), nil
}

// NegInt implements unary `-`.
func NegInt(value Value, offset token.Pos) (Value, error) {
	i, err := expectInt(value, offset)
	if err != nil {
		return nil, err
	}
	return Int(-i), nil
}

// BitwiseNotInt implements unary `~`.
func BitwiseNotInt(value Value, offset token.Pos) (Value, error) {
	i, err := expectInt(value, offset)
	if err != nil {
		return nil, err
	}
	return Int(^i), nil
}

// ByteSize and BitSize back the `byte_size`/`bit_size` builtins.
func ByteSize(value Value, offset token.Pos) (Value, error) {
	s, err := expectString(value, offset)
	if err != nil {
		return nil, err
	}
	return Int(len(s)), nil
}

func BitSize(value Value, offset token.Pos) (Value, error) {
	s, err := expectString(value, offset)
	if err != nil {
		return nil, err
	}
	return Int(len(s) * 8), nil
}
