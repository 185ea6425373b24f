package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/absenced-dev/absenced/internal/eligibility"
	"github.com/absenced-dev/absenced/internal/tasks"
)

// HandleSnapshotsPrune trims every user's snapshot history to the retention
// carried in the task payload.
func HandleSnapshotsPrune(ctx context.Context, t *asynq.Task, svc *eligibility.Service, logger zerolog.Logger) error {
	payload, err := tasks.ParsePrunePayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	deleted, err := svc.PruneSnapshots(ctx, payload.Keep)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	logger.Info().
		Int64("deleted", deleted).
		Int("keep", payload.Keep).
		Msg("Snapshot prune completed")

	return nil
}
