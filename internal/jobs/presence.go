package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pol60/bastshin-sessions/internal/metrics"
	"github.com/pol60/bastshin-sessions/internal/repository"
)

// Sweeper flips sessions offline once their activity goes stale. Satisfied
// by *service.PresenceService.
type Sweeper interface {
	SweepOffline(ctx context.Context) (int64, error)
}

// PresenceJob is the server-side decay loop: browsers only ever report
// activity, never inactivity, so without this ticker a killed tab would
// stay online forever.
type PresenceJob struct {
	sweeper     Sweeper
	sessionRepo repository.SessionRepository
	interval    time.Duration
	staleAge    time.Duration
	done        chan struct{}
}

// NewPresenceJob runs a sweep every interval. When staleAge is positive,
// each sweep also drops offline rows older than that age; zero keeps every
// row until an admin prunes it.
func NewPresenceJob(
	sweeper Sweeper,
	sessionRepo repository.SessionRepository,
	interval, staleAge time.Duration,
) *PresenceJob {
	return &PresenceJob{
		sweeper:     sweeper,
		sessionRepo: sessionRepo,
		interval:    interval,
		staleAge:    staleAge,
		done:        make(chan struct{}),
	}
}

func (j *PresenceJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("presence sweep job started")
}

func (j *PresenceJob) Stop() {
	close(j.done)
	log.Info().Msg("presence sweep job stopped")
}

func (j *PresenceJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *PresenceJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sweeper.SweepOffline(ctx)
	if err != nil {
		log.Error().Err(err).Msg("presence sweep failed")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("sessions swept offline")
	}

	if j.staleAge <= 0 {
		return
	}

	pruned, err := j.sessionRepo.DeleteStale(ctx, time.Now().Add(-j.staleAge))
	if err != nil {
		log.Error().Err(err).Msg("stale session prune failed")
	} else if pruned > 0 {
		metrics.SessionsPruned.Add(float64(pruned))
		log.Info().Int64("count", pruned).Msg("stale sessions pruned")
	}
}
