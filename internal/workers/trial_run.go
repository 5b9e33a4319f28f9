package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/assert"
	"github.com/trialdesk-dev/trialdesk/internal/models"
	"github.com/trialdesk-dev/trialdesk/internal/tasks"
)

// simulatedStages are the placeholder phases a trial steps through. No
// evaluation backend is wired in yet; each stage only waits and records
// progress.
var simulatedStages = []string{
	"Preparing inputs",
	"Running evaluation",
	"Collecting results",
}

// simulatedStageDelay is how long each placeholder stage waits
var simulatedStageDelay = 2 * time.Second

// HandleRunTrial simulates a trial run: it drives the trial from pending to
// completed through simulatedStages, recording progress after each one, and
// produces no results. Finished trials are skipped so redelivered tasks are
// harmless.
func HandleRunTrial(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	var trial models.Trial
	if err := models.FindByID(db, payload.TrialID, &trial); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted with its project before the worker picked it up
			logger.Warn().Str("trial_id", payload.TrialID).Msg("Trial not found, skipping")
			return nil
		}
		return fmt.Errorf("failed to load trial: %w", err)
	}

	log := logger.With().
		Str("trial_id", trial.ID).
		Str("project_id", trial.ProjectID).
		Logger()

	if trial.Finished() {
		log.Info().Str("status", trial.Status).Msg("Trial already finished, skipping")
		return nil
	}

	startedAt := time.Now()
	if err := db.Model(&trial).Updates(map[string]interface{}{
		"status":     models.TrialRunning,
		"progress":   0,
		"message":    "",
		"started_at": startedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to mark trial running: %w", err)
	}
	log.Info().Bool("simulated", true).Msg("Trial started")

	for i, stage := range simulatedStages {
		if err := sleepContext(ctx, simulatedStageDelay); err != nil {
			return failTrialIfFinalAttempt(ctx, db, &trial, err, log)
		}

		progress := float64(i+1) * 100 / float64(len(simulatedStages))
		assert.InRange(progress, 0, 100, "trial progress")
		if err := db.Model(&trial).Updates(map[string]interface{}{
			"progress": progress,
			"message":  stage,
		}).Error; err != nil {
			return failTrialIfFinalAttempt(ctx, db, &trial, err, log)
		}

		log.Debug().Str("stage", stage).Float64("progress", progress).Msg("Simulated trial stage completed")
	}

	completedAt := time.Now()
	if err := db.Model(&trial).Updates(map[string]interface{}{
		"status":       models.TrialCompleted,
		"progress":     100,
		"message":      "",
		"completed_at": completedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to mark trial completed: %w", err)
	}

	log.Info().Dur("duration", completedAt.Sub(startedAt)).Msg("Trial completed")
	return nil
}

// failTrialIfFinalAttempt marks the trial failed once asynq will not retry it
// again, and returns cause so the task is retried otherwise
func failTrialIfFinalAttempt(ctx context.Context, db *gorm.DB, trial *models.Trial, cause error, log zerolog.Logger) error {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if ok && retried < maxRetry {
		log.Warn().Err(cause).Int("retry", retried).Msg("Trial interrupted, will retry")
		return cause
	}

	now := time.Now()
	if err := db.Model(trial).Updates(map[string]interface{}{
		"status":       models.TrialFailed,
		"message":      cause.Error(),
		"completed_at": now,
	}).Error; err != nil {
		log.Error().Err(err).Msg("Failed to mark trial failed")
	}

	log.Error().Err(cause).Msg("Trial failed")
	return cause
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
