package token

import (
	"encoding/json"

	jwt "github.com/golang-jwt/jwt/v5"
)

// CompanyID extracts the companyId claim from a bearer token without
// verifying its signature. The decode is advisory: the server remains the
// authority on the token's contents, and any parse failure degrades to
// (0, false) rather than an error.
func CompanyID(tokenStr string) (int64, bool) {
	if tokenStr == "" {
		return 0, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return 0, false
	}

	raw, ok := claims["companyId"]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
