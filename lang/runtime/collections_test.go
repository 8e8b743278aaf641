package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/runtime"
)

func TestMapPutUpdatesInPlaceOrAppends(t *testing.T) {
	m := runtime.MapEmpty().Put(runtime.Atom("a"), runtime.Int(1))
	m2 := m.Put(runtime.Atom("b"), runtime.Int(2))
	require.Len(t, m2.Entries, 2)

	m3 := m2.Put(runtime.Atom("a"), runtime.Int(99))
	require.Len(t, m3.Entries, 2)
	v, err := m3.Access(runtime.Atom("a"), -1)
	require.NoError(t, err)
	require.Equal(t, runtime.Int(99), v)
}

func TestMapUpdateFailsOnAbsentKey(t *testing.T) {
	m := runtime.MapEmpty().Put(runtime.Atom("a"), runtime.Int(1))
	_, err := m.Update(runtime.Atom("missing"), runtime.Int(2), -1)
	require.Error(t, err)
}

func TestMapPutPreservesInsertionOrder(t *testing.T) {
	m := runtime.MapEmpty().
		Put(runtime.Atom("z"), runtime.Int(1)).
		Put(runtime.Atom("a"), runtime.Int(2))
	require.Equal(t, runtime.Atom("z"), m.Entries[0].Key)
	require.Equal(t, runtime.Atom("a"), m.Entries[1].Key)
}

func TestKeywordAppendAllowsDuplicateKeys(t *testing.T) {
	k := runtime.NewKeywordPair(runtime.Atom("a"), runtime.Int(1))
	k2 := k.Append(runtime.Atom("a"), runtime.Int(2))
	require.Len(t, k2.Entries, 2)
	require.Equal(t, runtime.Int(1), k2.Entries[0].Value)
	require.Equal(t, runtime.Int(2), k2.Entries[1].Value)
}

func TestListConcatAndSubtract(t *testing.T) {
	a := runtime.NewList([]runtime.Value{runtime.Int(1), runtime.Int(2)})
	b := runtime.NewList([]runtime.Value{runtime.Int(3)})
	require.Equal(t, "[1, 2, 3]", a.Concat(b).String())

	c := runtime.NewList([]runtime.Value{runtime.Int(1), runtime.Int(2), runtime.Int(1)})
	d := runtime.NewList([]runtime.Value{runtime.Int(1)})
	require.Equal(t, "[2, 1]", c.Subtract(d).String())
}

func TestRangeContains(t *testing.T) {
	r := runtime.Range{Start: 1, End: 5}
	require.True(t, r.Contains(1))
	require.True(t, r.Contains(5))
	require.False(t, r.Contains(6))
}
