package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Eligibility recompute for a single user
	TypeEligibilityRecompute = "eligibility:recompute"
	// Periodic trim of per-user snapshot history
	TypeSnapshotsPrune = "snapshots:prune"
)

// RecomputePayload identifies the user and policy to recompute.
type RecomputePayload struct {
	UserID string `json:"user_id"`
	Policy string `json:"policy,omitempty"` // empty means the configured default
}

// PrunePayload carries the snapshot retention for a prune run.
type PrunePayload struct {
	Keep int `json:"keep"`
}

// NewEligibilityRecomputeTask creates a task to recompute one user's eligibility
func NewEligibilityRecomputeTask(userID, policy string) (*asynq.Task, error) {
	payload, err := json.Marshal(RecomputePayload{
		UserID: userID,
		Policy: policy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeEligibilityRecompute, payload), nil
}

// NewSnapshotsPruneTask creates a task to trim snapshot history down to keep rows per user
func NewSnapshotsPruneTask(keep int) (*asynq.Task, error) {
	payload, err := json.Marshal(PrunePayload{Keep: keep})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSnapshotsPrune, payload), nil
}

// ParseRecomputePayload parses a recompute payload from an Asynq task
func ParseRecomputePayload(task *asynq.Task) (RecomputePayload, error) {
	var payload RecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParsePrunePayload parses a prune payload from an Asynq task
func ParsePrunePayload(task *asynq.Task) (PrunePayload, error) {
	var payload PrunePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
