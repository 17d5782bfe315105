package session

import (
	"context"
	"fmt"

	"github.com/benvon/smart-blog/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Inspect decodes the full claim set of the stored token without verifying it
func (s *Store) Inspect(ctx context.Context) (*models.TokenClaims, error) {
	token, ok := s.Get(ctx)
	if !ok {
		return nil, ErrNoToken
	}
	return ParseClaims(token)
}

// ParseClaims decodes the registered claims plus email and name. No signature or
// expiry checks are made.
func ParseClaims(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseInsecure([]byte(tokenString))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims := &models.TokenClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}

	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	if exp := token.Expiration(); !exp.IsZero() {
		claims.Exp = exp.Unix()
	}

	if iat := token.IssuedAt(); !iat.IsZero() {
		claims.Iat = iat.Unix()
	}

	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}

	return claims, nil
}
