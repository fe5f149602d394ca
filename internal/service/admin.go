package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pol60/bastshin-sessions/internal/audit"
	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/metrics"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/repository"
	"github.com/pol60/bastshin-sessions/internal/sse"
)

// AdminService serves the admin session views. Every operation verifies the
// caller against the admins table before any session-table call is issued:
// a non-admin triggers zero reads and zero deletions.
type AdminService struct {
	adminRepo   repository.AdminRepository
	sessionRepo repository.SessionRepository
	notifier    ChangeNotifier
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	sessionRepo repository.SessionRepository,
	notifier ChangeNotifier,
) *AdminService {
	return &AdminService{
		adminRepo:   adminRepo,
		sessionRepo: sessionRepo,
		notifier:    notifier,
	}
}

func (s *AdminService) requireAdmin(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.Unauthorized("Authentication required")
	}
	isAdmin, err := s.adminRepo.IsAdmin(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !isAdmin {
		audit.Log(ctx, audit.Event{Type: audit.EventAdminDenied, UserID: userID})
		return apperrors.NotAdmin()
	}
	return nil
}

func (s *AdminService) ListSessions(ctx context.Context, callerID string, sort model.SessionSortKey, desc bool, limit, offset int) ([]model.Session, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.List(ctx, sort, desc, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return sessions, nil
}

func (s *AdminService) Stats(ctx context.Context, callerID string) (*model.SessionStats, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	stats, err := s.sessionRepo.Stats(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return stats, nil
}

func (s *AdminService) DeleteSession(ctx context.Context, callerID, sessionID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	deleted, err := s.sessionRepo.Delete(ctx, sessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !deleted {
		return apperrors.NotFound("Session")
	}

	metrics.SessionsPruned.Inc()
	audit.Log(ctx, audit.Event{Type: audit.EventSessionDelete, UserID: callerID, SessionID: sessionID})
	s.publishDelete(ctx, sessionID)
	return nil
}

// DeleteInactiveSessions removes every row offline at call time. Rows that
// are online stay untouched; favorites and order data are never affected.
func (s *AdminService) DeleteInactiveSessions(ctx context.Context, callerID string) (int64, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return 0, err
	}

	count, err := s.sessionRepo.DeleteInactive(ctx)
	if err != nil {
		return 0, apperrors.Database(err)
	}

	if count > 0 {
		metrics.SessionsPruned.Add(float64(count))
		audit.Log(ctx, audit.Event{
			Type:    audit.EventSessionPrune,
			UserID:  callerID,
			Details: map[string]interface{}{"count": count},
		})
		s.publishDelete(ctx, "")
	}
	return count, nil
}

// VerifyAdmin exposes the gate for the SSE endpoint, which streams rather
// than mutates but is still admin-only.
func (s *AdminService) VerifyAdmin(ctx context.Context, userID string) error {
	return s.requireAdmin(ctx, userID)
}

func (s *AdminService) publishDelete(ctx context.Context, sessionID string) {
	if s.notifier == nil {
		return
	}
	payload := map[string]string{"sessionId": sessionID}
	if err := s.notifier.Publish(ctx, sse.EventSessionDelete, payload); err != nil {
		log.Debug().Err(err).Msg("delete publish failed")
	}
}
