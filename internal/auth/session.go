package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SessionCookieName is the cookie the browser session lives in.
const SessionCookieName = "absenced_session"

// SessionCookie is the payload stored in the browser cookie: the provider's
// opaque token pair plus its expiry. The cookie itself is not signed; the
// access token inside carries the provider's signature, and nothing here is
// trusted until that signature verifies.
type SessionCookie struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// EncodeSessionCookie serializes the session for the Set-Cookie header.
func EncodeSessionCookie(sc SessionCookie) (string, error) {
	data, err := json.Marshal(sc)
	if err != nil {
		return "", fmt.Errorf("failed to encode session cookie: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeSessionCookie parses a cookie value back into a session.
func DecodeSessionCookie(value string) (*SessionCookie, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("malformed session cookie: %w", err)
	}

	var sc SessionCookie
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("malformed session cookie: %w", err)
	}
	if sc.AccessToken == "" {
		return nil, fmt.Errorf("session cookie has no access token")
	}
	return &sc, nil
}

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	AuthMethod string `json:"auth_method"` // "cookie", "bearer"
}
