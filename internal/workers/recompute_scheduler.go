package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/absenced-dev/absenced/internal/config"
	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/tasks"
)

// StartRecomputeScheduler runs a periodic check (every minute) for user
// profiles whose scheduled eligibility recompute is due.
func StartRecomputeScheduler(client *asynq.Client, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndEnqueueRecomputeTasks(client, db, cfg, logger)

	for range ticker.C {
		checkAndEnqueueRecomputeTasks(client, db, cfg, logger)
	}
}

func checkAndEnqueueRecomputeTasks(client *asynq.Client, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) {
	schedule := cfg.Eligibility.RecomputeSchedule
	if schedule == "" {
		logger.Debug().Msg("No recompute schedule configured")
		return
	}

	now := time.Now()

	// Profiles with no next time yet are due: they pick up the schedule on
	// the first pass after sign-up.
	var profiles []models.UserProfile
	err := db.Where("next_recompute_at IS NULL OR next_recompute_at <= ?", now).Find(&profiles).Error
	if err != nil {
		logger.Error().Err(err).Msg("Failed to query profiles for recompute")
		return
	}
	if len(profiles) == 0 {
		return
	}

	next := calculateNextRecomputeTime(schedule, now)
	if next == nil {
		logger.Error().Str("recompute_schedule", schedule).Msg("Invalid recompute schedule")
		return
	}

	enqueued := 0
	for _, profile := range profiles {
		task, err := tasks.NewEligibilityRecomputeTask(profile.ID, cfg.Eligibility.DefaultPolicy)
		if err != nil {
			logger.Error().Err(err).Str("user_id", profile.ID).Msg("Failed to create recompute task")
			continue
		}
		if _, err := client.Enqueue(task, asynq.Timeout(5*time.Minute)); err != nil {
			logger.Error().Err(err).Str("user_id", profile.ID).Msg("Failed to enqueue recompute task")
			continue
		}

		// Update next_recompute_at immediately so the next pass skips this
		// profile even if the task is still queued.
		if err := db.Model(&models.UserProfile{}).
			Where("id = ?", profile.ID).
			Update("next_recompute_at", next).Error; err != nil {
			logger.Error().Err(err).Str("user_id", profile.ID).Msg("Failed to update next_recompute_at")
			continue
		}
		enqueued++
	}

	if enqueued == 0 {
		return
	}

	logger.Info().
		Int("users", enqueued).
		Time("next_recompute_at", *next).
		Msg("Recompute tasks enqueued")

	// One prune per batch keeps snapshot history bounded without its own
	// schedule.
	pruneTask, err := tasks.NewSnapshotsPruneTask(cfg.Eligibility.SnapshotsKept)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create prune task")
		return
	}
	if _, err := client.Enqueue(pruneTask, asynq.Timeout(5*time.Minute)); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue prune task")
	}
}

// calculateNextRecomputeTime calculates the next recompute time from a cron schedule
func calculateNextRecomputeTime(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}

	// Parse cron expression (standard 5-field format: minute hour day-of-month month day-of-week)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
