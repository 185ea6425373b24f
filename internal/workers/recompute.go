package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/absenced-dev/absenced/internal/eligibility"
	"github.com/absenced-dev/absenced/internal/tasks"
)

// HandleEligibilityRecompute recalculates one user's absence summary and
// earliest application date, storing the result as a snapshot.
// This is a thin adapter that delegates to the eligibility service.
func HandleEligibilityRecompute(ctx context.Context, t *asynq.Task, svc *eligibility.Service, logger zerolog.Logger) error {
	payload, err := tasks.ParseRecomputePayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	snapshot, err := svc.Recompute(ctx, payload.UserID, payload.Policy, time.Now())
	if err != nil {
		return fmt.Errorf("failed to recompute eligibility: %w", err)
	}

	logger.Info().
		Str("user_id", payload.UserID).
		Str("snapshot_id", snapshot.ID).
		Str("policy", snapshot.PolicyName).
		Msg("Eligibility recompute completed")

	return nil
}
