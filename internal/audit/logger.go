package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLoginSuccess  EventType = "login_success"
	EventLoginFailure  EventType = "login_failure"
	EventLogout        EventType = "logout"
	EventSessionUpsert EventType = "session_upsert"
	EventSessionDelete EventType = "session_delete"
	EventSessionPrune  EventType = "session_prune"
	EventMigration     EventType = "guest_migration"
	EventAdminDenied   EventType = "admin_denied"
	EventAuthFailure   EventType = "auth_failure"
	EventDowngrade     EventType = "session_downgrade"
)

type Event struct {
	Type      EventType
	UserID    string
	GuestID   string
	SessionID string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.UserID != "" {
		logger = logger.With().Str("user_id", event.UserID).Logger()
	}
	if event.GuestID != "" {
		logger = logger.With().Str("guest_id", event.GuestID).Logger()
	}
	if event.SessionID != "" {
		logger = logger.With().Str("session_id", event.SessionID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	if event.Details != nil {
		logEvent = logEvent.Fields(event.Details)
	}
	logEvent.Msg("audit event")
}

// FromRequest fills the network fields from an incoming request.
func FromRequest(r *http.Request, event Event) Event {
	event.IP = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	return event
}
