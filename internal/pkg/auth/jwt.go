// internal/pkg/auth/jwt.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims issued by the remote auth service
type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// ParseClaims parses an access token without verifying its signature.
// The client holds no signing secret; verification happens server-side on
// every call. This only checks that the token is well-formed, carries an
// identity, and has not expired.
func ParseClaims(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.UserID == 0 {
		return nil, fmt.Errorf("token carries no user identity")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now().UTC()) {
		return nil, fmt.Errorf("token is expired")
	}
	if claims.TokenType != "" && claims.TokenType != "access" {
		return nil, fmt.Errorf("invalid token type: expected access, got %s", claims.TokenType)
	}

	return claims, nil
}

// ExpiresAtOrDefault returns the token expiry, falling back to now+fallback
// when the claim is absent.
func (c *Claims) ExpiresAtOrDefault(fallback time.Duration) time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Now().UTC().Add(fallback)
}

// BearerHeader formats a token for the Authorization header
func BearerHeader(token string) string {
	return "Bearer " + token
}

// ExtractTokenFromHeader extracts a JWT token from an Authorization header
func ExtractTokenFromHeader(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}
