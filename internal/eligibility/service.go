package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/absenced-dev/absenced/internal/absence"
	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/policy"
	"github.com/absenced-dev/absenced/internal/trips"
)

// ErrNoSnapshot is returned when a user has no stored eligibility snapshot.
var ErrNoSnapshot = errors.New("no eligibility snapshot")

// Service computes absence summaries and earliest application dates, and
// maintains the per-user snapshot history written by background recomputes.
type Service struct {
	db            *gorm.DB
	trips         *trips.Service
	policies      *policy.Set
	defaultPolicy string
	logger        zerolog.Logger
}

func NewService(db *gorm.DB, tripSvc *trips.Service, policies *policy.Set, defaultPolicy string, logger zerolog.Logger) *Service {
	return &Service{
		db:            db,
		trips:         tripSvc,
		policies:      policies,
		defaultPolicy: defaultPolicy,
		logger:        logger.With().Str("component", "eligibility_service").Logger(),
	}
}

// Policies exposes the configured policy set, for listing endpoints.
func (s *Service) Policies() *policy.Set {
	return s.policies
}

// DefaultPolicy returns the policy name used when a request names none.
func (s *Service) DefaultPolicy() string {
	return s.defaultPolicy
}

func (s *Service) resolvePolicy(name string) (string, absence.Policy, error) {
	if name == "" {
		name = s.defaultPolicy
	}
	p, err := s.policies.Get(name)
	if err != nil {
		return "", absence.Policy{}, err
	}
	return name, p, nil
}

// Summary is the result of checking one candidate date against a policy.
type Summary struct {
	PolicyName  string
	PolicyLabel string
	Policy      absence.Policy
	TripCount   int
	Check       absence.CandidateCheck
}

// Summarize checks the user's absences as of a single candidate date.
func (s *Service) Summarize(ctx context.Context, userID string, on time.Time, policyName string) (*Summary, error) {
	name, p, err := s.resolvePolicy(policyName)
	if err != nil {
		return nil, err
	}

	userTrips, err := s.trips.ForCalculator(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		PolicyName:  name,
		PolicyLabel: s.policies.Label(name),
		Policy:      p,
		TripCount:   len(userTrips),
		Check:       absence.CheckCandidate(userTrips, absence.Date(on), p),
	}, nil
}

// EarliestResult is the outcome of an earliest-date search. Found is false
// when no date within the policy's search horizon satisfies both rules.
type EarliestResult struct {
	PolicyName  string
	PolicyLabel string
	Policy      absence.Policy
	SearchYears int
	Found       bool
	Check       absence.CandidateCheck
}

// Earliest scans forward from today for the first date on which the user
// could apply under the named policy.
func (s *Service) Earliest(ctx context.Context, userID string, today time.Time, policyName string) (*EarliestResult, error) {
	name, p, err := s.resolvePolicy(policyName)
	if err != nil {
		return nil, err
	}

	userTrips, err := s.trips.ForCalculator(ctx, userID)
	if err != nil {
		return nil, err
	}

	check, found := absence.FindEarliestApplicationDate(userTrips, absence.Date(today), p)
	return &EarliestResult{
		PolicyName:  name,
		PolicyLabel: s.policies.Label(name),
		Policy:      p,
		SearchYears: p.SearchYears,
		Found:       found,
		Check:       check,
	}, nil
}

// Recompute runs the full calculation for one user and stores the result as
// a new snapshot. The as-of check captures today's rolling counts; the
// earliest date comes from the forward search.
func (s *Service) Recompute(ctx context.Context, userID, policyName string, asOf time.Time) (*models.EligibilitySnapshot, error) {
	name, p, err := s.resolvePolicy(policyName)
	if err != nil {
		return nil, err
	}
	asOf = absence.Date(asOf)

	s.logger.Info().
		Str("user_id", userID).
		Str("policy", name).
		Time("as_of", asOf).
		Msg("Recomputing eligibility")

	userTrips, err := s.trips.ForCalculator(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := absence.CheckCandidate(userTrips, asOf, p)
	earliest, found := absence.FindEarliestApplicationDate(userTrips, asOf, p)

	snapshot := models.EligibilitySnapshot{
		UserID:                userID,
		PolicyName:            name,
		AsOf:                  asOf,
		Days12Months:          current.Days12Months,
		Days5Years:            current.Days5Years,
		PresentOnPresenceDate: current.PresentOnPresenceDate,
		ComputedAt:            time.Now().UTC(),
	}
	presence := current.PresenceDate
	snapshot.PresenceDate = &presence
	if found {
		earliestDate := earliest.CandidateDate
		snapshot.EarliestDate = &earliestDate
	}

	if err := s.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store eligibility snapshot")
		return nil, fmt.Errorf("failed to store eligibility snapshot: %w", err)
	}

	// Best effort; the profile row may not exist yet for CLI-only users
	if err := s.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", userID).
		Update("last_recompute_at", snapshot.ComputedAt).Error; err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to update last recompute time")
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("snapshot_id", snapshot.ID).
		Bool("earliest_found", found).
		Msg("Eligibility recomputed")

	return &snapshot, nil
}

// LatestSnapshot returns the user's most recent snapshot.
func (s *Service) LatestSnapshot(ctx context.Context, userID string) (*models.EligibilitySnapshot, error) {
	var snapshot models.EligibilitySnapshot
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("computed_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load eligibility snapshot")
		return nil, fmt.Errorf("failed to load eligibility snapshot: %w", err)
	}
	return &snapshot, nil
}

// PruneSnapshots deletes all but the newest keep snapshots per user and
// returns the number of rows removed.
func (s *Service) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("invalid snapshot retention %d, must be at least 1", keep)
	}

	result := s.db.WithContext(ctx).Exec(`
		DELETE FROM eligibility_snapshots WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY user_id ORDER BY computed_at DESC, id DESC
				) AS rank
				FROM eligibility_snapshots
			) ranked
			WHERE ranked.rank > ?
		)`, keep)
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("Failed to prune eligibility snapshots")
		return 0, fmt.Errorf("failed to prune eligibility snapshots: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info().Int64("deleted", result.RowsAffected).Int("keep", keep).Msg("Pruned eligibility snapshots")
	}
	return result.RowsAffected, nil
}
