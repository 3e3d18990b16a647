package token

import (
	"encoding/base64"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestCompanyIDPresent(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "acme", "companyId": 42})

	id, ok := CompanyID(tok)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestCompanyIDMissingClaim(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "admin"})

	id, ok := CompanyID(tok)
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestCompanyIDNeverFailsOnMalformedInput(t *testing.T) {
	badPayload := base64.RawURLEncoding.EncodeToString([]byte("not-json"))

	for _, tok := range []string{
		"",
		"garbage",
		"only.two",
		"a.b.c",
		"a." + badPayload + ".c",
	} {
		id, ok := CompanyID(tok)
		assert.False(t, ok, "token %q", tok)
		assert.Zero(t, id, "token %q", tok)
	}
}

func TestCompanyIDNonNumericClaim(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"companyId": "forty-two"})

	_, ok := CompanyID(tok)
	assert.False(t, ok)
}
