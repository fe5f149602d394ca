package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HeartbeatWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_heartbeat_writes_total",
		Help: "Presence writes that reached the session table.",
	})

	HeartbeatDebounced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_heartbeat_debounced_total",
		Help: "Heartbeats skipped by the Redis debounce gate.",
	})

	Migrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guest_migrations_total",
		Help: "Guest-to-user migrations by outcome.",
	}, []string{"outcome"})

	SessionsSweptOffline = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_swept_offline_total",
		Help: "Rows flipped offline by the presence sweep.",
	})

	SessionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_pruned_total",
		Help: "Session rows deleted by admin pruning or the stale-row job.",
	})
)

// Migration outcomes.
const (
	OutcomeMigrated  = "migrated"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)
