package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/runtime"
)

func TestIntArithmetic(t *testing.T) {
	sum, err := runtime.AddInt(runtime.Int(2), runtime.Int(3), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Int(5), sum)

	diff, err := runtime.SubInt(runtime.Int(5), runtime.Int(2), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Int(3), diff)

	prod, err := runtime.MulInt(runtime.Int(4), runtime.Int(3), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Int(12), prod)
}

func TestDivIntByZero(t *testing.T) {
	_, err := runtime.DivInt(runtime.Int(1), runtime.Int(0), -1)
	require.Error(t, err)
	rtErr, ok := err.(*runtime.Error)
	require.True(t, ok)
	require.Equal(t, runtime.DivisionByZero, rtErr.Code)
}

func TestRemByZero(t *testing.T) {
	_, err := runtime.RemBuiltin(runtime.Int(1), runtime.Int(0), -1)
	require.Error(t, err)
}

func TestCmpInt(t *testing.T) {
	v, err := runtime.CmpInt(runtime.CmpLt, runtime.Int(1), runtime.Int(2), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(true), v)

	v, err = runtime.CmpInt(runtime.CmpEq, runtime.Int(2), runtime.Int(2), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(true), v)
}

func TestConcat(t *testing.T) {
	v, err := runtime.Concat(runtime.String("foo"), runtime.String("bar"), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.String("foobar"), v)
}

func TestInOperatorList(t *testing.T) {
	list := runtime.NewList([]runtime.Value{runtime.Int(1), runtime.Int(2)})
	v, err := runtime.InOperator(runtime.Int(1), list, -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(true), v)

	v, err = runtime.InOperator(runtime.Int(3), list, -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(false), v)
}

func TestInOperatorRange(t *testing.T) {
	v, err := runtime.InOperator(runtime.Int(3), runtime.Range{Start: 1, End: 5}, -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Bool(true), v)
}

func TestByteSizeAndBitSize(t *testing.T) {
	v, err := runtime.ByteSize(runtime.String("abc"), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Int(3), v)

	v, err = runtime.BitSize(runtime.String("abc"), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Int(24), v)
}

func TestTruthyBang(t *testing.T) {
	require.Equal(t, runtime.Bool(true), runtime.TruthyBang(runtime.Nil{}))
	require.Equal(t, runtime.Bool(false), runtime.TruthyBang(runtime.Int(0)))
}
