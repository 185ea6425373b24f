package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/absenced-dev/absenced/internal/absence"
	"github.com/absenced-dev/absenced/internal/models"
)

// ErrTripNotFound is returned when a trip does not exist or belongs to a
// different user.
var ErrTripNotFound = errors.New("trip not found")

// Service owns trip storage. Every operation is scoped to one user; there
// is no cross-user access path.
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "trips_service").Logger(),
	}
}

// CreateParams describes a new trip.
type CreateParams struct {
	UserID    string
	StartDate time.Time // date the user left the UK
	EndDate   time.Time // date the user returned
	Note      string
}

// Create validates and stores a trip.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Trip, error) {
	// The calculator owns date validation and normalization
	validated, err := absence.NewTrip(params.StartDate, params.EndDate, params.Note)
	if err != nil {
		return nil, err
	}

	trip := models.Trip{
		UserID:    params.UserID,
		StartDate: validated.Start,
		EndDate:   validated.End,
		Note:      strings.TrimSpace(params.Note),
	}

	if err := s.db.WithContext(ctx).Create(&trip).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", params.UserID).Msg("Failed to create trip")
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	s.logger.Info().
		Str("trip_id", trip.ID).
		Str("user_id", trip.UserID).
		Time("start_date", trip.StartDate).
		Time("end_date", trip.EndDate).
		Msg("Trip created")

	return &trip, nil
}

// List returns the user's trips, most recent departure first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Trip, error) {
	var trips []models.Trip
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&trips).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list trips")
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// Delete removes one of the user's trips. Deleting someone else's trip is
// indistinguishable from deleting a missing one.
func (s *Service) Delete(ctx context.Context, userID, tripID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", tripID, userID).
		Delete(&models.Trip{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Str("trip_id", tripID).Msg("Failed to delete trip")
		return fmt.Errorf("failed to delete trip: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTripNotFound
	}

	s.logger.Info().Str("trip_id", tripID).Str("user_id", userID).Msg("Trip deleted")
	return nil
}

// ForCalculator loads the user's trips in calculator form.
func (s *Service) ForCalculator(ctx context.Context, userID string) ([]absence.Trip, error) {
	rows, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	trips := make([]absence.Trip, 0, len(rows))
	for _, row := range rows {
		trips = append(trips, ToAbsenceTrip(row))
	}
	return trips, nil
}

// ToAbsenceTrip converts a stored trip to calculator form.
func ToAbsenceTrip(t models.Trip) absence.Trip {
	return absence.Trip{
		Start: absence.Date(t.StartDate),
		End:   absence.Date(t.EndDate),
		Note:  t.Note,
	}
}
