package client

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/absenced-dev/absenced/internal/cli/auth"
)

// Client represents an HTTP client for the Absenced API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. serverURL may omit the scheme, in which
// case https is assumed.
func New(serverURL string) *Client {
	if !strings.Contains(serverURL, "://") {
		serverURL = "https://" + serverURL
	}

	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Skip TLS verification for self-hosted servers on internal certificates
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// newRequest builds a request against the API. When serverURL is non-empty
// the stored access token for that server is attached.
func (c *Client) newRequest(method, path, serverURL string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if serverURL != "" {
		token, err := auth.LoadToken(serverURL)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	return req, nil
}

// doJSON executes a request, checks the expected status and decodes the
// response into out when out is non-nil.
func (c *Client) doJSON(req *http.Request, wantStatus int, action string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to %s (status %d): %s", action, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// AuthProviderConfig is the provider coordinates the server publishes for
// CLI sign-in
type AuthProviderConfig struct {
	AuthURL string `json:"auth_url"`
	AnonKey string `json:"anon_key"`
}

// AuthConfig fetches the auth provider coordinates. No token required.
func (c *Client) AuthConfig() (*AuthProviderConfig, error) {
	req, err := c.newRequest("GET", "/auth/config", "", nil)
	if err != nil {
		return nil, err
	}

	var cfg AuthProviderConfig
	if err := c.doJSON(req, http.StatusOK, "fetch auth configuration", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Me represents the signed-in account as the server sees it
type Me struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	AuthMethod string `json:"auth_method"`
}

// Me returns the account behind the stored token
func (c *Client) Me(serverURL string) (*Me, error) {
	req, err := c.newRequest("GET", "/api/auth/me", serverURL, nil)
	if err != nil {
		return nil, err
	}

	var me Me
	if err := c.doJSON(req, http.StatusOK, "fetch account", &me); err != nil {
		return nil, err
	}

	return &me, nil
}

// Trip represents a saved trip outside the UK
type Trip struct {
	ID              string    `json:"id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Note            string    `json:"note"`
	FullAbsenceDays int       `json:"full_absence_days"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListTrips returns all saved trips, most recent departure first
func (c *Client) ListTrips(serverURL string) ([]Trip, error) {
	req, err := c.newRequest("GET", "/api/trips", serverURL, nil)
	if err != nil {
		return nil, err
	}

	var trips []Trip
	if err := c.doJSON(req, http.StatusOK, "list trips", &trips); err != nil {
		return nil, err
	}

	return trips, nil
}

// CreateTripRequest represents the trip creation request
type CreateTripRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Note      string `json:"note,omitempty"`
}

// CreateTrip saves a new trip
func (c *Client) CreateTrip(serverURL string, trip CreateTripRequest) (*Trip, error) {
	req, err := c.newRequest("POST", "/api/trips", serverURL, trip)
	if err != nil {
		return nil, err
	}

	var created Trip
	if err := c.doJSON(req, http.StatusCreated, "create trip", &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// DeleteTrip deletes a trip by ID
func (c *Client) DeleteTrip(serverURL, tripID string) error {
	req, err := c.newRequest("DELETE", fmt.Sprintf("/api/trips/%s", tripID), serverURL, nil)
	if err != nil {
		return err
	}

	return c.doJSON(req, http.StatusOK, "delete trip", nil)
}

// Check is the outcome of testing one application date
type Check struct {
	CandidateDate         time.Time `json:"candidate_date"`
	Days12Months          int       `json:"days_12_months"`
	Days5Years            int       `json:"days_5_years"`
	PresenceDate          time.Time `json:"presence_date_5y"`
	PresentOnPresenceDate bool      `json:"present_on_presence_date"`
	Meets12MonthRule      bool      `json:"meets_12m_rule"`
	Meets5YearRule        bool      `json:"meets_5y_rule"`
	FullyEligible         bool      `json:"fully_eligible"`
}

// Summary represents the absence summary response
type Summary struct {
	Policy             string `json:"policy"`
	PolicyLabel        string `json:"policy_label"`
	MaxTwelveMonthDays int    `json:"max_twelve_month_days"`
	MaxFiveYearDays    int    `json:"max_five_year_days"`
	TripCount          int    `json:"trip_count"`
	Check              Check  `json:"check"`
}

// Summary checks the rolling absence counts as of a candidate date.
// on is YYYY-MM-DD; empty means today. policy empty means the server default.
func (c *Client) Summary(serverURL, on, policy string) (*Summary, error) {
	v := url.Values{}
	if on != "" {
		v.Set("on", on)
	}
	if policy != "" {
		v.Set("policy", policy)
	}
	path := "/api/summary"
	if encoded := v.Encode(); encoded != "" {
		path += "?" + encoded
	}

	req, err := c.newRequest("GET", path, serverURL, nil)
	if err != nil {
		return nil, err
	}

	var summary Summary
	if err := c.doJSON(req, http.StatusOK, "fetch summary", &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}

// Earliest represents the earliest application date response
type Earliest struct {
	Policy             string `json:"policy"`
	PolicyLabel        string `json:"policy_label"`
	MaxTwelveMonthDays int    `json:"max_twelve_month_days"`
	MaxFiveYearDays    int    `json:"max_five_year_days"`
	SearchYears        int    `json:"search_years"`
	Found              bool   `json:"found"`
	Check              *Check `json:"check,omitempty"`
}

// Earliest scans for the first date on which an application would pass
func (c *Client) Earliest(serverURL, on, policy string) (*Earliest, error) {
	v := url.Values{}
	if on != "" {
		v.Set("on", on)
	}
	if policy != "" {
		v.Set("policy", policy)
	}
	path := "/api/earliest"
	if encoded := v.Encode(); encoded != "" {
		path += "?" + encoded
	}

	req, err := c.newRequest("GET", path, serverURL, nil)
	if err != nil {
		return nil, err
	}

	var earliest Earliest
	if err := c.doJSON(req, http.StatusOK, "fetch earliest date", &earliest); err != nil {
		return nil, err
	}

	return &earliest, nil
}

// Snapshot represents a stored eligibility snapshot
type Snapshot struct {
	ID                    string     `json:"id"`
	PolicyName            string     `json:"policy_name"`
	AsOf                  time.Time  `json:"as_of"`
	EarliestDate          *time.Time `json:"earliest_date"`
	Days12Months          int        `json:"days_12_months"`
	Days5Years            int        `json:"days_5_years"`
	PresenceDate          *time.Time `json:"presence_date_5y"`
	PresentOnPresenceDate bool       `json:"present_on_presence_date"`
	ComputedAt            time.Time  `json:"computed_at"`
}

// Recompute runs the full calculation server-side and returns the stored snapshot
func (c *Client) Recompute(serverURL, policy string) (*Snapshot, error) {
	path := "/api/recompute"
	if policy != "" {
		path += "?policy=" + url.QueryEscape(policy)
	}

	req, err := c.newRequest("POST", path, serverURL, nil)
	if err != nil {
		return nil, err
	}

	var snapshot Snapshot
	if err := c.doJSON(req, http.StatusOK, "recompute eligibility", &snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// Policy represents a policy preset
type Policy struct {
	Name               string `json:"name"`
	Label              string `json:"label"`
	MaxTwelveMonthDays int    `json:"max_twelve_month_days"`
	MaxFiveYearDays    int    `json:"max_five_year_days"`
	SearchYears        int    `json:"search_years"`
	Default            bool   `json:"default"`
}

// ListPolicies returns the policy presets the server knows
func (c *Client) ListPolicies(serverURL string) ([]Policy, error) {
	req, err := c.newRequest("GET", "/api/policies", serverURL, nil)
	if err != nil {
		return nil, err
	}

	var policies []Policy
	if err := c.doJSON(req, http.StatusOK, "list policies", &policies); err != nil {
		return nil, err
	}

	return policies, nil
}

// UpdateServer triggers a server update to the latest version
func (c *Client) UpdateServer(serverURL string) error {
	req, err := c.newRequest("POST", "/api/system/update", serverURL, nil)
	if err != nil {
		return err
	}

	return c.doJSON(req, http.StatusOK, "trigger update", nil)
}
