package commands

import (
	"fmt"
	"testing"
	"time"

	"github.com/absenced-dev/absenced/internal/cli/client"
	"github.com/absenced-dev/absenced/internal/cli/config"
)

// TestDeleteIntegration_SuccessfulDeletion tests successful trip deletion
func TestDeleteIntegration_SuccessfulDeletion(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockDeleteClient{
		trips: []client.Trip{
			{ID: "trip-1", StartDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)},
			{ID: "trip-2", StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)},
			{ID: "trip-3", StartDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		},
	}

	// Delete existing trip
	err := runDelete(
		"trip-2",
		"",
		WithDeleteClient(mockAPI),
		WithDeleteServer(server),
		WithDeleteAssumeYes(),
	)

	if err != nil {
		t.Fatalf("expected successful deletion, got error: %v", err)
	}

	// Verify the correct trip was deleted
	if mockAPI.deletedTrip != "trip-2" {
		t.Errorf("expected to delete 'trip-2', but deleted '%s'", mockAPI.deletedTrip)
	}
}

// TestDeleteIntegration_TripNotFound tests deletion of a non-existent trip
func TestDeleteIntegration_TripNotFound(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockDeleteClient{
		trips: []client.Trip{
			{ID: "trip-1"},
			{ID: "trip-2"},
		},
	}

	// Try to delete non-existent trip
	err := runDelete(
		"non-existent",
		"",
		WithDeleteClient(mockAPI),
		WithDeleteServer(server),
	)

	if err == nil {
		t.Fatal("expected error when trip doesn't exist, got nil")
	}

	expectedError := "trip 'non-existent' not found"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}

	// Verify nothing was deleted
	if mockAPI.deletedTrip != "" {
		t.Errorf("expected no trip to be deleted, but '%s' was deleted", mockAPI.deletedTrip)
	}
}

// TestDeleteIntegration_NoTrips tests deletion when no trips exist
func TestDeleteIntegration_NoTrips(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockDeleteClient{
		trips: []client.Trip{}, // Empty list
	}

	err := runDelete(
		"any-trip",
		"",
		WithDeleteClient(mockAPI),
		WithDeleteServer(server),
	)

	if err == nil {
		t.Fatal("expected error when no trips exist, got nil")
	}

	expectedError := "trip 'any-trip' not found"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}
}

// TestDeleteIntegration_ListTripsFailure tests handling of list API failure
func TestDeleteIntegration_ListTripsFailure(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockDeleteClient{
		listError: fmt.Errorf("failed to list trips (status 500): internal server error"),
	}

	err := runDelete(
		"any-trip",
		"",
		WithDeleteClient(mockAPI),
		WithDeleteServer(server),
	)

	if err == nil {
		t.Fatal("expected error when list API fails, got nil")
	}

	expectedError := "failed to list trips: failed to list trips (status 500): internal server error"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}

	// Verify nothing was deleted
	if mockAPI.deletedTrip != "" {
		t.Errorf("expected no trip to be deleted after list failure, but '%s' was deleted", mockAPI.deletedTrip)
	}
}

// TestDeleteIntegration_DeleteAPIFailure tests handling of delete API failure
func TestDeleteIntegration_DeleteAPIFailure(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockDeleteClient{
		trips: []client.Trip{
			{ID: "trip-1"},
		},
		deleteError: fmt.Errorf("failed to delete trip (status 403): permission denied"),
	}

	err := runDelete(
		"trip-1",
		"",
		WithDeleteClient(mockAPI),
		WithDeleteServer(server),
		WithDeleteAssumeYes(),
	)

	if err == nil {
		t.Fatal("expected error when delete API fails, got nil")
	}

	expectedError := "failed to delete trip (status 403): permission denied"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}
}

// TestDeleteIntegration_CaseSensitive tests that trip ID matching is case-sensitive
func TestDeleteIntegration_CaseSensitive(t *testing.T) {
	server := &config.Server{
		Alias: "test-server",
		URL:   "https://absence.example.com",
	}

	mockAPI := &mockDeleteClient{
		trips: []client.Trip{
			{ID: "01JCLJ0T5N4M8R2W"},
		},
	}

	// ULIDs are upper case; a lower-cased ID must not match
	err := runDelete(
		"01jclj0t5n4m8r2w",
		"",
		WithDeleteClient(mockAPI),
		WithDeleteServer(server),
	)

	if err == nil {
		t.Fatal("expected error due to case-sensitive matching, got nil")
	}

	expectedError := "trip '01jclj0t5n4m8r2w' not found"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}

	// Verify nothing was deleted
	if mockAPI.deletedTrip != "" {
		t.Errorf("expected no trip to be deleted, but '%s' was deleted", mockAPI.deletedTrip)
	}
}

// TestDeleteIntegration_MultipleServers tests deletion from different servers
func TestDeleteIntegration_MultipleServers(t *testing.T) {
	server1 := &config.Server{
		Alias: "production",
		URL:   "https://absence.example.com",
	}

	server2 := &config.Server{
		Alias: "staging",
		URL:   "https://staging.absence.example.com",
	}

	mockAPI1 := &mockDeleteClient{
		trips: []client.Trip{
			{ID: "prod-trip"},
		},
	}

	mockAPI2 := &mockDeleteClient{
		trips: []client.Trip{
			{ID: "staging-trip"},
		},
	}

	// Delete from server1
	err := runDelete(
		"prod-trip",
		"",
		WithDeleteClient(mockAPI1),
		WithDeleteServer(server1),
		WithDeleteAssumeYes(),
	)
	if err != nil {
		t.Fatalf("failed to delete from server1: %v", err)
	}

	if mockAPI1.deletedTrip != "prod-trip" {
		t.Errorf("expected to delete 'prod-trip' from server1, got '%s'", mockAPI1.deletedTrip)
	}

	// Delete from server2
	err = runDelete(
		"staging-trip",
		"",
		WithDeleteClient(mockAPI2),
		WithDeleteServer(server2),
		WithDeleteAssumeYes(),
	)
	if err != nil {
		t.Fatalf("failed to delete from server2: %v", err)
	}

	if mockAPI2.deletedTrip != "staging-trip" {
		t.Errorf("expected to delete 'staging-trip' from server2, got '%s'", mockAPI2.deletedTrip)
	}
}
