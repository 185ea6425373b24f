package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// AccessTokenClaims are the claims inside a provider-issued access token.
// The provider signs these with the project JWT secret using HS256; this
// application only ever verifies, never issues.
type AccessTokenClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// UserID returns the provider user UUID the token was issued for.
func (c *AccessTokenClaims) UserID() string {
	return c.Subject
}

// Initialize sets the provider JWT secret used for verification
func Initialize(secret string) {
	jwtSecret = []byte(secret)
}

// VerifyAccessToken checks an access token's signature, expiry and audience
// and returns its claims
func VerifyAccessToken(tokenString string) (*AccessTokenClaims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithAudience("authenticated"))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*AccessTokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
