package ast_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeyobrien/tonic/lang/ast"
)

func roundTrip(t *testing.T, pat ast.Pattern) ast.Pattern {
	t.Helper()
	encoded, err := json.Marshal(pat)
	require.NoError(t, err)

	decoded, err := ast.UnmarshalPattern(encoded)
	require.NoError(t, err)
	return decoded
}

func TestPatternJSONRoundTripsScalarKinds(t *testing.T) {
	cases := []ast.Pattern{
		&ast.WildcardPattern{},
		&ast.BindPattern{Name: "x"},
		&ast.PinPattern{Name: "y"},
		&ast.IntPattern{Value: 42},
		&ast.BoolPattern{Value: true},
		&ast.NilPattern{},
		&ast.StringPattern{Value: "hi"},
		&ast.AtomPattern{Value: "ok"},
	}

	for _, want := range cases {
		encoded, err := json.Marshal(want)
		require.NoError(t, err)

		got := roundTrip(t, want)
		reencoded, err := json.Marshal(got)
		require.NoError(t, err)
		require.JSONEq(t, string(encoded), string(reencoded))
	}
}

func TestPatternJSONRoundTripsTupleListAndMap(t *testing.T) {
	tuplePat := &ast.TuplePattern{
		Items: []ast.Pattern{&ast.AtomPattern{Value: "ok"}, &ast.BindPattern{Name: "value"}},
	}
	tupleDecoded := roundTrip(t, tuplePat)
	tuplePatGot, ok := tupleDecoded.(*ast.TuplePattern)
	require.True(t, ok)
	require.Len(t, tuplePatGot.Items, 2)

	pat := &ast.ListPattern{
		Items: []ast.Pattern{&ast.IntPattern{Value: 1}, &ast.BindPattern{Name: "rest0"}},
		Tail:  &ast.BindPattern{Name: "tail"},
	}

	encoded, err := json.Marshal(pat)
	require.NoError(t, err)

	decoded, err := ast.UnmarshalPattern(encoded)
	require.NoError(t, err)

	listPat, ok := decoded.(*ast.ListPattern)
	require.True(t, ok)
	require.Len(t, listPat.Items, 2)
	require.NotNil(t, listPat.Tail)

	mapPat := &ast.MapPattern{
		Entries: []ast.MapEntryPattern{
			{Key: &ast.AtomExpr{Value: "status"}, Value: &ast.AtomPattern{Value: "ok"}},
		},
	}
	mapEncoded, err := json.Marshal(mapPat)
	require.NoError(t, err)

	mapDecoded, err := ast.UnmarshalPattern(mapEncoded)
	require.NoError(t, err)
	decodedMap, ok := mapDecoded.(*ast.MapPattern)
	require.True(t, ok)
	require.Len(t, decodedMap.Entries, 1)
	atomKey, ok := decodedMap.Entries[0].Key.(*ast.AtomExpr)
	require.True(t, ok)
	require.Equal(t, "status", atomKey.Value)
}

func TestMarshalLiteralKeyRejectsNonLiteralExpr(t *testing.T) {
	pat := &ast.MapPattern{
		Entries: []ast.MapEntryPattern{
			{Key: &ast.VariableExpr{Name: "not_a_literal"}, Value: &ast.WildcardPattern{}},
		},
	}
	_, err := json.Marshal(pat)
	require.Error(t, err)
}

func TestUnmarshalPatternRejectsUnknownTag(t *testing.T) {
	_, err := ast.UnmarshalPattern([]byte(`{"pattern":"nonsense"}`))
	require.Error(t, err)
}
