package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String(), "missing string representation of token %d", tok)
	}
}

func TestLookupRoundTripsKeywords(t *testing.T) {
	for lit, tok := range keywords {
		require.Equal(t, tok, Lookup(lit))
		require.True(t, IsKeyword(lit))
	}
}

func TestLookupDefaultsToIdent(t *testing.T) {
	require.Equal(t, IDENT, Lookup("not_a_keyword"))
	require.False(t, IsKeyword("not_a_keyword"))
}

func TestGoStringQuotesPunctuation(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
	require.Equal(t, "def", DEF.GoString())
}
