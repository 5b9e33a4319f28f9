package workers

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/trialdesk-dev/trialdesk/internal/models"
)

// StartInvitationSweeper deletes expired, unused invitations on schedule. The
// schedule is a standard 5-field cron expression or a descriptor such as
// "@hourly". The returned cron is already running; Stop it on shutdown.
func StartInvitationSweeper(db *gorm.DB, schedule string, logger zerolog.Logger) (*cron.Cron, error) {
	log := logger.With().Str("component", "invitation_sweeper").Logger()

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := sweepExpiredInvitations(db, time.Now(), log); err != nil {
			log.Error().Err(err).Msg("Failed to sweep invitations")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid invitation sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	log.Info().Str("schedule", schedule).Msg("Invitation sweeper started")
	return c, nil
}

func sweepExpiredInvitations(db *gorm.DB, now time.Time, logger zerolog.Logger) (int64, error) {
	result := db.Where("used_at IS NULL AND expires_at < ?", now).Delete(&models.Invitation{})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info().Int64("deleted", result.RowsAffected).Msg("Expired invitations deleted")
	} else {
		logger.Debug().Msg("No expired invitations")
	}
	return result.RowsAffected, nil
}
