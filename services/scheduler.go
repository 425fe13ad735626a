// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/fatihyuksel3109/mathlearn/logging"

	"github.com/go-co-op/gocron/v2"
)

// StartChampionScheduler runs ReconcileExpiredPeriods every interval so
// champions get frozen even when nobody opens a leaderboard. Reads and
// submits reconcile too; this job only closes the gap. Stop the returned
// scheduler on shutdown.
func (s *ChampionService) StartChampionScheduler(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(s.Clock))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.ReconcileExpiredPeriods(ctx, s.Clock.Now()); err != nil {
				logging.Warn().Err(err).Msg("[Scheduler] champion sweep finished with errors")
				return
			}
			logging.Debug().Msg("[Scheduler] champion sweep done")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	logging.Info().Dur("interval", interval).Msg("⏰ [Scheduler] champion sweep started")
	return sched, nil
}
