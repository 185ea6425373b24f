package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(serverURL string) *Client {
	return New(serverURL, "anon-key-123", zerolog.Nop())
}

func TestAuthorizeURL(t *testing.T) {
	c := newTestClient("https://auth.example.com/auth/v1")

	got := c.AuthorizeURL(OAuthParams{
		Provider:   "google",
		RedirectTo: "https://app.example.com/auth/callback",
	})

	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("AuthorizeURL() produced unparsable URL: %v", err)
	}
	if parsed.Path != "/auth/v1/authorize" {
		t.Errorf("AuthorizeURL() path = %s, want /auth/v1/authorize", parsed.Path)
	}
	q := parsed.Query()
	if q.Get("provider") != "google" {
		t.Errorf("AuthorizeURL() provider = %s, want google", q.Get("provider"))
	}
	if q.Get("redirect_to") != "https://app.example.com/auth/callback" {
		t.Errorf("AuthorizeURL() redirect_to = %s", q.Get("redirect_to"))
	}
}

func TestSignInWithOtp(t *testing.T) {
	var gotPath, gotAPIKey, gotRedirect string
	var gotBody otpRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		gotRedirect = r.URL.Query().Get("redirect_to")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.SignInWithOtp(context.Background(), OtpParams{
		Email:           "ari@example.com",
		EmailRedirectTo: "http://localhost:8080/auth/callback",
		CreateUser:      true,
	})
	if err != nil {
		t.Fatalf("SignInWithOtp() returned error: %v", err)
	}

	if gotPath != "/otp" {
		t.Errorf("request path = %s, want /otp", gotPath)
	}
	if gotAPIKey != "anon-key-123" {
		t.Errorf("apikey header = %s, want anon-key-123", gotAPIKey)
	}
	if gotRedirect != "http://localhost:8080/auth/callback" {
		t.Errorf("redirect_to = %s", gotRedirect)
	}
	if gotBody.Email != "ari@example.com" || !gotBody.CreateUser {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestSignInWithOtpErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":429,"msg":"For security purposes, you can only request this after 42 seconds."}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.SignInWithOtp(context.Background(), OtpParams{Email: "ari@example.com"})
	if err == nil {
		t.Fatal("SignInWithOtp() returned nil error, want provider error")
	}

	// The provider's wording must survive untouched
	want := "For security purposes, you can only request this after 42 seconds."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("error is not an *APIError")
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Errorf("APIError.Status = %d, want 429", apiErr.Status)
	}
}

func TestSignInWithPassword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("grant_type = %s, want password", r.URL.Query().Get("grant_type"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"access_token": "token-abc",
			"token_type": "bearer",
			"expires_in": 3600,
			"expires_at": 1750000000,
			"refresh_token": "refresh-xyz",
			"user": {"id": "user-123", "email": "ari@example.com", "aud": "authenticated"}
		}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	session, err := c.SignInWithPassword(context.Background(), "ari@example.com", "password123")
	if err != nil {
		t.Fatalf("SignInWithPassword() returned error: %v", err)
	}

	if session.AccessToken != "token-abc" {
		t.Errorf("access token = %s, want token-abc", session.AccessToken)
	}
	if session.RefreshToken != "refresh-xyz" {
		t.Errorf("refresh token = %s, want refresh-xyz", session.RefreshToken)
	}
	if session.User.ID != "user-123" {
		t.Errorf("user id = %s, want user-123", session.User.ID)
	}
}

func TestSignUpNeedsConfirmation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signup" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		// Confirmation enabled: bare user object, no session
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "user-456", "email": "new@example.com", "aud": "authenticated"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	session, user, err := c.SignUp(context.Background(), "new@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp() returned error: %v", err)
	}
	if session != nil {
		t.Error("SignUp() session != nil, want nil when confirmation is required")
	}
	if user == nil || user.ID != "user-456" {
		t.Errorf("SignUp() user = %+v, want id user-456", user)
	}
}

func TestGetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-abc" {
			t.Errorf("Authorization = %s, want Bearer token-abc", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "user-123", "email": "ari@example.com"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	user, err := c.GetUser(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("GetUser() returned error: %v", err)
	}
	if user.Email != "ari@example.com" {
		t.Errorf("user email = %s, want ari@example.com", user.Email)
	}
}

func TestGetUserExpiredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_token","error_description":"JWT expired"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetUser(context.Background(), "stale")
	if err == nil {
		t.Fatal("GetUser() returned nil error, want 401 error")
	}
	if err.Error() != "JWT expired" {
		t.Errorf("error = %q, want %q", err.Error(), "JWT expired")
	}
}

func TestSignOut(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.URL.Path != "/logout" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if err := c.SignOut(context.Background(), "token-abc"); err != nil {
		t.Fatalf("SignOut() returned error: %v", err)
	}
	if !called {
		t.Error("SignOut() never reached the provider")
	}
}

func TestParseAPIErrorFallback(t *testing.T) {
	err := parseAPIError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("parseAPIError() did not return *APIError")
	}
	if !strings.Contains(apiErr.Message, "502") {
		t.Errorf("fallback message = %q, want the status code mentioned", apiErr.Message)
	}
}
