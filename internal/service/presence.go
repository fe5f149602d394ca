package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/metrics"
	"github.com/pol60/bastshin-sessions/internal/model"
	redisclient "github.com/pol60/bastshin-sessions/internal/redis"
	"github.com/pol60/bastshin-sessions/internal/repository"
	"github.com/pol60/bastshin-sessions/internal/sse"
)

// DebounceGate limits presence writes per owner. Satisfied by the Redis
// client.
type DebounceGate interface {
	Allow(ctx context.Context, key string, interval time.Duration) bool
}

// PresenceService keeps is_online/last_activity current without flooding
// the session table. All writes are last-write-wins; presence is eventually
// consistent with staleness bounded by the sweep interval plus the debounce
// window.
type PresenceService struct {
	sessionRepo repository.SessionRepository
	gate        DebounceGate
	notifier    ChangeNotifier
	minInterval time.Duration
	threshold   time.Duration
}

func NewPresenceService(
	sessionRepo repository.SessionRepository,
	gate DebounceGate,
	notifier ChangeNotifier,
	minInterval, threshold time.Duration,
) *PresenceService {
	return &PresenceService{
		sessionRepo: sessionRepo,
		gate:        gate,
		notifier:    notifier,
		minInterval: minInterval,
		threshold:   threshold,
	}
}

// Heartbeat records activity for the owner's row. Writes within the
// debounce window are dropped; the client keeps sending, the table stays
// quiet.
func (p *PresenceService) Heartbeat(ctx context.Context, owner model.SessionOwner) error {
	if owner.IsZero() {
		return apperrors.InvalidInput("owner", "no user or guest identity on heartbeat")
	}

	if !p.gate.Allow(ctx, redisclient.HeartbeatKey(owner.String()), p.minInterval) {
		metrics.HeartbeatDebounced.Inc()
		return nil
	}

	if err := p.sessionRepo.Touch(ctx, owner, time.Now()); err != nil {
		return apperrors.Database(err)
	}
	metrics.HeartbeatWrites.Inc()
	return nil
}

// MarkOffline is the page-unload path. Best effort by contract: the browser
// may kill the request mid-flight, so failures are logged and swallowed.
func (p *PresenceService) MarkOffline(ctx context.Context, owner model.SessionOwner) {
	if owner.IsZero() {
		return
	}
	if err := p.sessionRepo.MarkOffline(ctx, owner); err != nil {
		log.Debug().Err(err).Str("owner", owner.String()).Msg("offline write failed on unload")
	}
}

// SweepOffline flips rows whose last activity predates the inactivity
// threshold. The repository predicate only matches rows still online, so
// each decayed session is written exactly once per decay.
func (p *PresenceService) SweepOffline(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-p.threshold)
	count, err := p.sessionRepo.SweepOffline(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		metrics.SessionsSweptOffline.Add(float64(count))
		if p.notifier != nil {
			if pubErr := p.notifier.Publish(ctx, sse.EventSessionSweep, map[string]int64{"swept": count}); pubErr != nil {
				log.Debug().Err(pubErr).Msg("sweep publish failed")
			}
		}
	}
	return count, nil
}
