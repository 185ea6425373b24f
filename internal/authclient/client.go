// Package authclient is a typed client for the hosted authentication
// provider's HTTP API. It covers exactly the surface this product consumes:
// building the OAuth authorize redirect, requesting a magic-link email,
// validating a session's user, password sign-in for the CLI, and sign-out.
// Token issuance, magic-link validation and session refresh all live inside
// the provider and are deliberately not implemented here.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient interface abstracts HTTP operations for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one auth provider project.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient HTTPClient
	logger     zerolog.Logger
}

// New creates a client for the provider at baseURL. The anon key is the
// project's public API key and is sent with every request.
func New(baseURL, anonKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With().Str("component", "authclient").Logger(),
	}
}

// SetHTTPClient replaces the underlying HTTP client, used by tests.
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// User is the provider's view of an account.
type User struct {
	ID               string         `json:"id"`
	Aud              string         `json:"aud"`
	Role             string         `json:"role"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at"`
	AppMetadata      map[string]any `json:"app_metadata"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        *time.Time     `json:"created_at"`
}

// Session is the provider's token pair plus expiry bookkeeping. The tokens
// are opaque to this application except for local signature verification.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// OAuthParams configures an OAuth redirect.
type OAuthParams struct {
	Provider   string
	RedirectTo string
}

// AuthorizeURL builds the provider's authorize URL for an OAuth sign-in.
// No request is made here; the browser is sent to the provider, which owns
// the whole dance and eventually redirects back with tokens in the URL
// fragment.
func (c *Client) AuthorizeURL(params OAuthParams) string {
	v := url.Values{}
	v.Set("provider", params.Provider)
	if params.RedirectTo != "" {
		v.Set("redirect_to", params.RedirectTo)
	}
	return c.baseURL + "/authorize?" + v.Encode()
}

// OtpParams configures a magic-link email request.
type OtpParams struct {
	Email           string
	EmailRedirectTo string
	CreateUser      bool
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

// SignInWithOtp asks the provider to email a one-time sign-in link.
func (c *Client) SignInWithOtp(ctx context.Context, params OtpParams) error {
	endpoint := "/otp"
	if params.EmailRedirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(params.EmailRedirectTo)
	}

	body := otpRequest{Email: params.Email, CreateUser: params.CreateUser}
	return c.do(ctx, http.MethodPost, endpoint, "", body, nil)
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := passwordGrantRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("no session returned from sign-in")
	}
	return &session, nil
}

// SignUp registers a new account. When the provider requires email
// confirmation no session is returned and the caller should tell the user
// to check their inbox.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, *User, error) {
	body := passwordGrantRequest{Email: email, Password: password}

	raw, err := c.doRaw(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err == nil && session.AccessToken != "" {
		return &session, &session.User, nil
	}

	// Confirmation flow: the response is the bare user object
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, nil, fmt.Errorf("failed to decode signup response: %w", err)
	}
	return nil, &user, nil
}

// GetUser validates an access token with the provider and returns the
// account it belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session behind the access token. Callers treat
// failures as best-effort: local state is cleared regardless.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// do executes one provider request and decodes the JSON response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, endpoint, accessToken string, body, out any) error {
	raw, err := c.doRaw(ctx, method, endpoint, accessToken, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, endpoint, accessToken string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	c.logger.Debug().Str("method", method).Str("endpoint", endpoint).Msg("Auth provider request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, raw)
	}

	return raw, nil
}
