package worker

// noshow_sweeper.go
// Background goroutine that periodically flips overdue scheduled/confirmed
// appointments to no_show once their end time plus a grace period has passed.

import (
	"context"
	"time"

	"clinicflow/internal/repository"

	"github.com/rs/zerolog/log"
)

const sweeperTickInterval = 60 * time.Second

// SweeperConfig holds the dependencies for the no-show sweeper.
type SweeperConfig struct {
	AppointmentRepo repository.AppointmentRepository
	GracePeriod     time.Duration
}

// StartNoShowSweeper launches a goroutine that ticks every minute and marks
// overdue appointments. It respects the context for graceful shutdown.
func StartNoShowSweeper(ctx context.Context, cfg SweeperConfig) {
	go func() {
		ticker := time.NewTicker(sweeperTickInterval)
		defer ticker.Stop()

		log.Info().Dur("grace_period", cfg.GracePeriod).Msg("noshow_sweeper: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("noshow_sweeper: shutting down")
				return
			case <-ticker.C:
				sweep(ctx, cfg)
			}
		}
	}()
}

func sweep(ctx context.Context, cfg SweeperConfig) {
	cutoff := time.Now().Add(-cfg.GracePeriod)
	updated, err := cfg.AppointmentRepo.MarkOverdueNoShow(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("noshow_sweeper: sweep failed")
		return
	}
	if updated > 0 {
		log.Info().Int64("count", updated).Msg("noshow_sweeper: appointments marked no_show")
	}
}
