package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-characters-long!"

// signTestToken forges a provider-style access token for tests.
func signTestToken(t *testing.T, secret, audience string, expiresIn time.Duration) string {
	t.Helper()

	claims := AccessTokenClaims{
		Email: "ari@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func TestVerifyAccessToken(t *testing.T) {
	Initialize(testSecret)

	t.Run("valid token", func(t *testing.T) {
		token := signTestToken(t, testSecret, "authenticated", time.Hour)

		claims, err := VerifyAccessToken(token)
		if err != nil {
			t.Fatalf("VerifyAccessToken() returned error: %v", err)
		}
		if claims.UserID() != "user-123" {
			t.Errorf("UserID() = %s, want user-123", claims.UserID())
		}
		if claims.Email != "ari@example.com" {
			t.Errorf("Email = %s, want ari@example.com", claims.Email)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, testSecret, "authenticated", -time.Hour)
		if _, err := VerifyAccessToken(token); err == nil {
			t.Error("VerifyAccessToken() accepted an expired token")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signTestToken(t, "a-completely-different-secret-value!!", "authenticated", time.Hour)
		if _, err := VerifyAccessToken(token); err == nil {
			t.Error("VerifyAccessToken() accepted a token signed with the wrong secret")
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		token := signTestToken(t, testSecret, "anon", time.Hour)
		if _, err := VerifyAccessToken(token); err == nil {
			t.Error("VerifyAccessToken() accepted a token with the wrong audience")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := VerifyAccessToken("not-a-jwt"); err == nil {
			t.Error("VerifyAccessToken() accepted garbage")
		}
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		claims := AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-123",
				Audience:  jwt.ClaimStrings{"authenticated"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build unsigned token: %v", err)
		}
		if _, err := VerifyAccessToken(token); err == nil {
			t.Error("VerifyAccessToken() accepted an unsigned token")
		}
	})
}

func TestSessionCookieRoundTrip(t *testing.T) {
	in := SessionCookie{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-xyz",
		ExpiresAt:    1750000000,
	}

	encoded, err := EncodeSessionCookie(in)
	if err != nil {
		t.Fatalf("EncodeSessionCookie() returned error: %v", err)
	}
	if strings.ContainsAny(encoded, "+/=") {
		t.Errorf("encoded cookie %q is not URL-safe", encoded)
	}

	out, err := DecodeSessionCookie(encoded)
	if err != nil {
		t.Fatalf("DecodeSessionCookie() returned error: %v", err)
	}
	if *out != in {
		t.Errorf("round trip = %+v, want %+v", *out, in)
	}
}

func TestDecodeSessionCookieRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not base64", "%%%%"},
		{"not json", "bm90LWpzb24"},
		{"empty access token", "eyJhY2Nlc3NfdG9rZW4iOiIifQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSessionCookie(tt.value); err == nil {
				t.Errorf("DecodeSessionCookie(%q) returned nil error", tt.value)
			}
		})
	}
}
