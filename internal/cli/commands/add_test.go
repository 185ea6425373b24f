package commands

import (
	"bytes"
	"testing"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
)

// mockAddClient simulates the API client for trip creation
type mockAddClient struct {
	created    *client.CreateTripRequest // Track what was sent
	response   *client.Trip
	shouldFail bool
	errorMsg   string
}

func (m *mockAddClient) CreateTrip(serverURL string, trip client.CreateTripRequest) (*client.Trip, error) {
	if m.shouldFail {
		return nil, &mockAddError{msg: m.errorMsg}
	}
	m.created = &trip
	return m.response, nil
}

type mockAddError struct {
	msg string
}

func (e *mockAddError) Error() string {
	return e.msg
}

// TestAddCommand_CommandStructure tests the command structure
func TestAddCommand_CommandStructure(t *testing.T) {
	cmd := NewAddCmd()

	if cmd.Use != "add" {
		t.Errorf("expected Use to be 'add', got %s", cmd.Use)
	}

	if cmd.Short != "Save a trip outside the UK" {
		t.Errorf("expected Short to be 'Save a trip outside the UK', got %s", cmd.Short)
	}

	for _, flag := range []string{"from", "to", "note", "server"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to exist", flag)
		}
	}
}

// TestAddCommand_MissingDates tests validation of required date flags
func TestAddCommand_MissingDates(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockAddClient{}
	expectedError := "both --from and --to are required (YYYY-MM-DD)"

	cases := []struct {
		name string
		from string
		to   string
	}{
		{"both missing", "", ""},
		{"from missing", "", "2025-07-24"},
		{"to missing", "2025-07-10", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := runAdd(tc.from, tc.to, "", "",
				WithAddClient(mockAPI),
				WithAddServer(server),
			)

			if err == nil {
				t.Fatal("expected error when dates are missing, got nil")
			}
			if err.Error() != expectedError {
				t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
			}
		})
	}

	// No request should have reached the API
	if mockAPI.created != nil {
		t.Error("expected no trip to be created when validation fails")
	}
}

// TestAddCommand_InvalidDateFormat tests rejection of malformed dates
func TestAddCommand_InvalidDateFormat(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	cases := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"UK format", "10/07/2025", "2025-07-24", `invalid date "10/07/2025", expected YYYY-MM-DD`},
		{"no dashes", "2025-07-10", "20250724", `invalid date "20250724", expected YYYY-MM-DD`},
		{"month 13", "2025-13-01", "2025-07-24", `invalid date "2025-13-01", expected YYYY-MM-DD`},
		{"not a date", "next tuesday", "2025-07-24", `invalid date "next tuesday", expected YYYY-MM-DD`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockAPI := &mockAddClient{}

			err := runAdd(tc.from, tc.to, "", "",
				WithAddClient(mockAPI),
				WithAddServer(server),
			)

			if err == nil {
				t.Fatal("expected error for malformed date, got nil")
			}
			if err.Error() != tc.want {
				t.Errorf("expected error '%s', got '%s'", tc.want, err.Error())
			}
			if mockAPI.created != nil {
				t.Error("expected no trip to be created for malformed dates")
			}
		})
	}
}

// TestAddCommand_NoConfigFile tests error when config is missing
func TestAddCommand_NoConfigFile(t *testing.T) {
	tempDir := t.TempDir()

	originalDir := mustGetwd(t)
	mustChdir(t, tempDir)
	defer mustChdir(t, originalDir)

	err := runAdd("2025-07-10", "2025-07-24", "", "")

	if err == nil {
		t.Fatal("expected error when config file is missing, got nil")
	}

	if err.Error()[:22] != "failed to load config:" {
		t.Errorf("expected error to start with 'failed to load config:', got '%s'", err.Error())
	}
}

// TestAddCommand_APIFailure tests handling of API failures
func TestAddCommand_APIFailure(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockAddClient{
		shouldFail: true,
		errorMsg:   "failed to create trip (status 422): return date must be on or after departure date",
	}

	var output bytes.Buffer

	err := runAdd("2025-07-24", "2025-07-10", "", "",
		WithAddClient(mockAPI),
		WithAddServer(server),
		WithAddOutput(&output),
	)

	if err == nil {
		t.Fatal("expected error when API rejects the trip, got nil")
	}

	// The server's wording is passed through untouched
	if err.Error() != mockAPI.errorMsg {
		t.Errorf("expected error '%s', got '%s'", mockAPI.errorMsg, err.Error())
	}

	if output.Len() > 0 {
		t.Errorf("expected no output on error, got: %s", output.String())
	}
}
