package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
)

// mockSummaryClient simulates the API client for the summary check
type mockSummaryClient struct {
	summary    *client.Summary
	gotOn      string
	gotPolicy  string
	shouldFail bool
	errorMsg   string
}

func (m *mockSummaryClient) Summary(serverURL, on, policy string) (*client.Summary, error) {
	m.gotOn = on
	m.gotPolicy = policy
	if m.shouldFail {
		return nil, errors.New(m.errorMsg)
	}
	return m.summary, nil
}

// TestSummaryCommand_CommandStructure tests the command structure
func TestSummaryCommand_CommandStructure(t *testing.T) {
	cmd := NewSummaryCmd()

	if cmd.Use != "summary" {
		t.Errorf("expected Use to be 'summary', got %s", cmd.Use)
	}

	for _, flag := range []string{"on", "policy", "server"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to exist", flag)
		}
	}
}

// TestSummaryCommand_TodayOutput tests the full report when no date is given
func TestSummaryCommand_TodayOutput(t *testing.T) {
	server := &config.Server{
		Alias: "production",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockSummaryClient{
		summary: &client.Summary{
			Policy:             "citizenship",
			PolicyLabel:        "Citizenship (standard route)",
			MaxTwelveMonthDays: 90,
			MaxFiveYearDays:    450,
			TripCount:          7,
			Check: client.Check{
				CandidateDate:         time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
				Days12Months:          45,
				Days5Years:            210,
				PresenceDate:          time.Date(2020, 11, 4, 0, 0, 0, 0, time.UTC),
				PresentOnPresenceDate: true,
				Meets12MonthRule:      true,
				Meets5YearRule:        true,
				FullyEligible:         true,
			},
		},
	}

	var output bytes.Buffer

	err := runSummary("", "", "",
		WithSummaryClient(mockAPI),
		WithSummaryServer(server),
		WithSummaryOutput(&output),
	)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	outputStr := output.String()

	if !strings.Contains(outputStr, "Policy: Citizenship (standard route)") {
		t.Errorf("expected policy label, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Saved trips: 7") {
		t.Errorf("expected trip count, got: %s", outputStr)
	}
	// Without --on the report says it assumed today
	if !strings.Contains(outputStr, "Using today as: Monday 03/11/2025") {
		t.Errorf("expected 'Using today as' line, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Last 12 months: 45 / 90") {
		t.Errorf("expected 12-month count against limit, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Last 5 years: 210 / 450") {
		t.Errorf("expected 5-year count against limit, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Home Office presence test date: Wednesday 04/11/2020") {
		t.Errorf("expected presence test date, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Present in UK on that date: yes") {
		t.Errorf("expected presence answer, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Eligible to apply on that date: yes") {
		t.Errorf("expected eligibility verdict, got: %s", outputStr)
	}
}

// TestSummaryCommand_ExplicitDate tests the wording when --on is supplied
func TestSummaryCommand_ExplicitDate(t *testing.T) {
	server := &config.Server{
		Alias: "production",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockSummaryClient{
		summary: &client.Summary{
			Policy:             "citizenship",
			PolicyLabel:        "Citizenship (standard route)",
			MaxTwelveMonthDays: 90,
			MaxFiveYearDays:    450,
			TripCount:          2,
			Check: client.Check{
				CandidateDate:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
				Days12Months:          95,
				Days5Years:            180,
				PresenceDate:          time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC),
				PresentOnPresenceDate: false,
				Meets12MonthRule:      false,
				Meets5YearRule:        true,
				FullyEligible:         false,
			},
		},
	}

	var output bytes.Buffer

	err := runSummary("2026-06-01", "", "",
		WithSummaryClient(mockAPI),
		WithSummaryServer(server),
		WithSummaryOutput(&output),
	)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	// The date must be forwarded to the API untouched
	if mockAPI.gotOn != "2026-06-01" {
		t.Errorf("expected on '2026-06-01' forwarded to API, got '%s'", mockAPI.gotOn)
	}

	outputStr := output.String()

	if !strings.Contains(outputStr, "Checking as of: Monday 01/06/2026") {
		t.Errorf("expected 'Checking as of' line for explicit date, got: %s", outputStr)
	}
	if strings.Contains(outputStr, "Using today as") {
		t.Errorf("did not expect 'Using today as' with an explicit date, got: %s", outputStr)
	}
	// Over the 12-month limit: not eligible
	if !strings.Contains(outputStr, "Last 12 months: 95 / 90") {
		t.Errorf("expected over-limit count, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Present in UK on that date: no") {
		t.Errorf("expected presence answer no, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Eligible to apply on that date: no") {
		t.Errorf("expected not eligible verdict, got: %s", outputStr)
	}
}

// TestSummaryCommand_InvalidDate tests rejection of a malformed --on value
func TestSummaryCommand_InvalidDate(t *testing.T) {
	server := &config.Server{
		Alias: "production",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockSummaryClient{}

	err := runSummary("01/06/2026", "", "",
		WithSummaryClient(mockAPI),
		WithSummaryServer(server),
	)

	if err == nil {
		t.Fatal("expected error for malformed date, got nil")
	}

	expectedError := `invalid date "01/06/2026", expected YYYY-MM-DD`
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}

	// Validation failures never reach the API
	if mockAPI.gotOn != "" || mockAPI.gotPolicy != "" {
		t.Error("expected no API call after validation failure")
	}
}

// TestSummaryCommand_PolicyForwarded tests that --policy reaches the API
func TestSummaryCommand_PolicyForwarded(t *testing.T) {
	server := &config.Server{
		Alias: "production",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockSummaryClient{
		summary: &client.Summary{
			PolicyLabel:        "Settlement (ILR)",
			MaxTwelveMonthDays: 180,
			MaxFiveYearDays:    450,
			Check: client.Check{
				CandidateDate: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
				PresenceDate:  time.Date(2020, 11, 4, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	var output bytes.Buffer

	err := runSummary("", "settlement", "",
		WithSummaryClient(mockAPI),
		WithSummaryServer(server),
		WithSummaryOutput(&output),
	)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if mockAPI.gotPolicy != "settlement" {
		t.Errorf("expected policy 'settlement' forwarded to API, got '%s'", mockAPI.gotPolicy)
	}

	if !strings.Contains(output.String(), "Policy: Settlement (ILR)") {
		t.Errorf("expected settlement policy label, got: %s", output.String())
	}
}

// TestSummaryCommand_APIFailure tests handling of API failures
func TestSummaryCommand_APIFailure(t *testing.T) {
	server := &config.Server{
		Alias: "production",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockSummaryClient{
		shouldFail: true,
		errorMsg:   "not authenticated. Please run 'absenced login' first",
	}

	var output bytes.Buffer

	err := runSummary("", "", "",
		WithSummaryClient(mockAPI),
		WithSummaryServer(server),
		WithSummaryOutput(&output),
	)

	if err == nil {
		t.Fatal("expected error when API fails, got success")
	}

	if !strings.Contains(err.Error(), "not authenticated") {
		t.Errorf("expected authentication error, got: %s", err.Error())
	}

	if output.Len() > 0 {
		t.Errorf("expected no output on error, got: %s", output.String())
	}
}

// TestSummaryCommand_NoConfigFile tests error when config is missing
func TestSummaryCommand_NoConfigFile(t *testing.T) {
	tempDir := t.TempDir()

	originalDir := mustGetwd(t)
	mustChdir(t, tempDir)
	defer mustChdir(t, originalDir)

	err := runSummary("", "", "")

	if err == nil {
		t.Fatal("expected error when config file is missing, got nil")
	}

	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("expected error about missing config, got: %s", err.Error())
	}
}
