package models

import (
	"encoding/json"
	"time"
)

// TokenClaims represents the claims decoded from a bearer token without verification
type TokenClaims struct {
	Sub   string `json:"sub"`   // Subject (user ID on the backend)
	Email string `json:"email"` // User email
	Name  string `json:"name"`  // User name
	Exp   int64  `json:"exp"`   // Expiration time
	Iat   int64  `json:"iat"`   // Issued at
	Iss   string `json:"iss"`   // Issuer
	Aud   string `json:"aud"`   // Audience
}

// Expired reports whether the exp claim is set and lies before now.
// The backend stays the source of truth; this is for display only.
func (c *TokenClaims) Expired(now time.Time) bool {
	return c.Exp != 0 && now.Unix() >= c.Exp
}

// ClaimString renders an identity-like claim as a string. Non-empty strings and
// non-zero numbers decoded as json.Number are present; anything else is absent.
func ClaimString(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, c != ""
	case json.Number:
		if f, err := c.Float64(); err != nil || f == 0 {
			return "", false
		}
		return c.String(), true
	}
	return "", false
}
