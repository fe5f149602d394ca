package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/guestid"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/repository"
	"github.com/pol60/bastshin-sessions/internal/sse"
)

// ChangeNotifier publishes session-table change notifications for the admin
// dashboards. Satisfied by *sse.Broker.
type ChangeNotifier interface {
	Publish(ctx context.Context, eventType string, data any) error
}

type EnsureSessionResult struct {
	Session *model.Session `json:"session"`
	// GuestID is the identifier the client must persist. Empty when the
	// context is authenticated (the client clears its stored guest id when
	// ClearGuestID is set).
	GuestID      string `json:"guestId,omitempty"`
	ClearGuestID bool   `json:"clearGuestId"`
	Migrated     bool   `json:"migrated"`
}

type SessionService struct {
	sessionRepo repository.SessionRepository
	migration   *MigrationService
	notifier    ChangeNotifier
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	migration *MigrationService,
	notifier ChangeNotifier,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		migration:   migration,
		notifier:    notifier,
	}
}

// EnsureSession keeps exactly one session row consistent with the current
// identity. Idempotent: repeated calls with unchanged state only refresh
// timestamps.
func (s *SessionService) EnsureSession(ctx context.Context, user *model.User, storedGuestID string, device, ip *string) (*EnsureSessionResult, error) {
	if user != nil {
		return s.ensureAuthenticated(ctx, user, storedGuestID, device, ip)
	}
	return s.ensureGuest(ctx, storedGuestID, device, ip)
}

func (s *SessionService) ensureAuthenticated(ctx context.Context, user *model.User, storedGuestID string, device, ip *string) (*EnsureSessionResult, error) {
	result := &EnsureSessionResult{ClearGuestID: true}

	if guestid.Valid(storedGuestID) {
		session, outcome, err := s.migration.Migrate(ctx, storedGuestID, user.ID)
		switch outcome {
		case MigrationMigrated:
			result.Migrated = true
			result.Session = session
			s.publishUpsert(ctx, session)
			return result, nil
		case MigrationDuplicate:
			// Someone already claimed this guest id for the same user.
			// Treat as migrated: clear the guest id and fall through to
			// the plain upsert.
		case MigrationConflict:
			// Claimed by a different user. Nothing of the guest's to
			// take over; the guest id is spent either way.
			log.Warn().
				Str("guestId", storedGuestID).
				Str("userId", user.ID).
				Msg("guest id already migrated to another user")
		default:
			// Recoverable failure: keep the guest id client-side so the
			// next EnsureSession retries, but do not block the session.
			log.Warn().Err(err).
				Str("guestId", storedGuestID).
				Msg("guest migration failed, will retry on next ensure")
			result.ClearGuestID = false
		}
	}

	session, err := s.sessionRepo.Upsert(ctx, model.UpsertSessionParams{
		Owner:     model.UserOwner(user.ID),
		Device:    device,
		IPAddress: ip,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	result.Session = session
	s.publishUpsert(ctx, session)
	return result, nil
}

func (s *SessionService) ensureGuest(ctx context.Context, storedGuestID string, device, ip *string) (*EnsureSessionResult, error) {
	id := storedGuestID
	if !guestid.Valid(id) {
		id = guestid.New()
	}

	session, err := s.sessionRepo.Upsert(ctx, model.UpsertSessionParams{
		Owner:     model.GuestOwner(id),
		Device:    device,
		IPAddress: ip,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	s.publishUpsert(ctx, session)
	return &EnsureSessionResult{Session: session, GuestID: id}, nil
}

type DowngradeResult struct {
	Session *model.Session `json:"session"`
	GuestID string         `json:"guestId"`
}

// DowngradeToGuest hands the browsing context a fresh guest identity on
// logout. A previous guest id is never reused. When the caller still knows
// its session row the row is rewritten in place; otherwise a new guest row
// is created.
func (s *SessionService) DowngradeToGuest(ctx context.Context, sessionID string, device, ip *string) (*DowngradeResult, error) {
	newID := guestid.New()
	owner := model.GuestOwner(newID)

	if sessionID != "" {
		session, err := s.sessionRepo.ReplaceOwner(ctx, sessionID, owner)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if session != nil {
			s.publishUpsert(ctx, session)
			return &DowngradeResult{Session: session, GuestID: newID}, nil
		}
		// Row already pruned; fall through to a fresh insert.
	}

	session, err := s.sessionRepo.Upsert(ctx, model.UpsertSessionParams{
		Owner:     owner,
		Device:    device,
		IPAddress: ip,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	s.publishUpsert(ctx, session)
	return &DowngradeResult{Session: session, GuestID: newID}, nil
}

func (s *SessionService) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return s.sessionRepo.FindByID(ctx, id)
}

// publishUpsert is fire and forget: presence is approximate and a dropped
// notification only delays the dashboards until the polling fallback.
func (s *SessionService) publishUpsert(ctx context.Context, session *model.Session) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, sse.EventSessionUpsert, session); err != nil {
		log.Debug().Err(err).Str("sessionId", session.ID).Msg("session change publish failed")
	}
}
