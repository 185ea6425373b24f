package testhelpers

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Instance represents a deployed Absenced server under test
type Instance struct {
	BaseURL     string
	AccessToken string // Set after SignIn
	UserID      string
	Email       string
}

// newHTTPClient creates an HTTP client that skips SSL verification
// (test deployments run on self-signed certs)
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

// GetInstance connects to the deployed server named by TEST_SERVER_URL and
// waits for it to report healthy
func GetInstance(t *testing.T) *Instance {
	t.Helper()

	baseURL := os.Getenv("TEST_SERVER_URL")
	require.NotEmpty(t, baseURL, "TEST_SERVER_URL must be set")

	inst := &Instance{BaseURL: strings.TrimRight(baseURL, "/")}

	inst.waitForAPI(t)

	return inst
}

// SignIn authenticates against the hosted auth provider the server
// advertises and stores the access token for subsequent API calls
func (inst *Instance) SignIn(t *testing.T, email, password string) {
	t.Helper()

	t.Log("Fetching auth provider config...")

	client := newHTTPClient(30 * time.Second)

	resp, err := client.Get(inst.BaseURL + "/auth/config")
	require.NoError(t, err, "Failed to fetch auth provider config")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, "GET /auth/config should succeed")

	var providerCfg struct {
		AuthURL string `json:"auth_url"`
		AnonKey string `json:"anon_key"`
	}
	err = json.NewDecoder(resp.Body).Decode(&providerCfg)
	require.NoError(t, err, "Failed to decode auth provider config")
	require.NotEmpty(t, providerCfg.AuthURL, "Server should advertise an auth provider URL")

	t.Logf("Signing in as %s via %s...", email, providerCfg.AuthURL)

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err, "Failed to marshal sign-in request")

	req, err := http.NewRequest("POST", providerCfg.AuthURL+"/token?grant_type=password", bytes.NewReader(body))
	require.NoError(t, err, "Failed to create sign-in request")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", providerCfg.AnonKey)

	tokenResp, err := client.Do(req)
	require.NoError(t, err, "Password sign-in request failed")
	defer tokenResp.Body.Close()

	respBody, err := io.ReadAll(tokenResp.Body)
	require.NoError(t, err, "Failed to read sign-in response")
	require.Equal(t, http.StatusOK, tokenResp.StatusCode,
		"Password sign-in failed: %s", string(respBody))

	var session struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	err = json.Unmarshal(respBody, &session)
	require.NoError(t, err, "Failed to unmarshal session: %s", string(respBody))
	require.NotEmpty(t, session.AccessToken, "Session should contain an access token")

	inst.AccessToken = session.AccessToken
	inst.UserID = session.User.ID
	inst.Email = session.User.Email

	t.Log("Signed in, access token stored")
}

// APICall makes an HTTP request to the Absenced API
func (inst *Instance) APICall(t *testing.T, method, path string, body interface{}) map[string]interface{} {
	t.Helper()

	status, respBody := inst.doRequest(t, method, path, body)

	require.True(t, status >= 200 && status < 300,
		"API call failed: %s %s\nStatus: %d\nBody: %s",
		method, path, status, string(respBody))

	var result map[string]interface{}
	err := json.Unmarshal(respBody, &result)
	require.NoError(t, err, "Failed to unmarshal response: %s", string(respBody))

	return result
}

// APICallList makes an HTTP request expecting a list response
func (inst *Instance) APICallList(t *testing.T, method, path string, body interface{}) []map[string]interface{} {
	t.Helper()

	status, respBody := inst.doRequest(t, method, path, body)

	require.True(t, status >= 200 && status < 300,
		"API call failed: %s %s\nStatus: %d\nBody: %s",
		method, path, status, string(respBody))

	var result []map[string]interface{}
	err := json.Unmarshal(respBody, &result)
	require.NoError(t, err, "Failed to unmarshal response: %s", string(respBody))

	return result
}

// APICallRaw makes an HTTP request and returns the raw status and body
// without asserting success, for tests that expect an error response
func (inst *Instance) APICallRaw(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	return inst.doRequest(t, method, path, body)
}

func (inst *Instance) doRequest(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	url := inst.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err, "Failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Add access token if available
	if inst.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+inst.AccessToken)
	}

	client := newHTTPClient(30 * time.Second)
	resp, err := client.Do(req)
	require.NoError(t, err, "Request failed: %s %s", method, path)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")

	return resp.StatusCode, respBody
}

// WaitForCondition polls until a condition is met or timeout
func (inst *Instance) WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()

	start := time.Now()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}

		if time.Since(start) > timeout {
			require.FailNow(t, "Timeout waiting for condition")
		}

		<-ticker.C
	}
}

// waitForAPI waits for the server to be ready
func (inst *Instance) waitForAPI(t *testing.T) {
	t.Helper()

	t.Log("Waiting for server to be ready...")

	client := newHTTPClient(5 * time.Second)

	inst.WaitForCondition(t, 20*time.Second, func() bool {
		resp, err := client.Get(inst.BaseURL + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == 200
	})

	t.Log("Server ready")
}
