package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pol60/bastshin-sessions/internal/audit"
	"github.com/pol60/bastshin-sessions/internal/identity"
)

// AuthService fronts the Identity Store for credential flows and keeps the
// session table in step: a login migrates and upgrades the guest session, a
// logout downgrades it to a fresh guest identity.
type AuthService struct {
	store    identity.Store
	sessions *SessionService
}

func NewAuthService(store identity.Store, sessions *SessionService) *AuthService {
	return &AuthService{store: store, sessions: sessions}
}

type LoginResult struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	ExpiresIn    int                  `json:"expiresIn"`
	Session      *EnsureSessionResult `json:"session,omitempty"`
}

// Login exchanges credentials for tokens and folds the caller's guest
// context into the authenticated session. A session-table failure after a
// successful credential exchange does not fail the login; the next ensure
// call repairs the row.
func (s *AuthService) Login(ctx context.Context, email, password, guestID string, device, ip *string) (*LoginResult, error) {
	pair, err := s.store.SignInWithPassword(ctx, email, password)
	if err != nil {
		audit.Log(ctx, audit.Event{Type: audit.EventLoginFailure, GuestID: guestID})
		return nil, err
	}

	result := &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}

	ensure, err := s.sessions.EnsureSession(ctx, pair.User, guestID, device, ip)
	if err != nil {
		log.Warn().Err(err).Str("userId", pair.User.ID).Msg("post-login session ensure failed")
	} else {
		result.Session = ensure
	}

	audit.Log(ctx, audit.Event{Type: audit.EventLoginSuccess, UserID: pair.User.ID, GuestID: guestID})
	return result, nil
}

// Logout revokes the token with the provider (best effort) and hands the
// caller a fresh guest identity for continued browsing.
func (s *AuthService) Logout(ctx context.Context, accessToken, userID, sessionID string, device, ip *string) (*DowngradeResult, error) {
	if accessToken != "" {
		if err := s.store.SignOut(ctx, accessToken); err != nil {
			log.Warn().Err(err).Msg("identity sign-out failed, downgrading session anyway")
		}
	}

	downgrade, err := s.sessions.DowngradeToGuest(ctx, sessionID, device, ip)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventLogout,
		UserID:    userID,
		GuestID:   downgrade.GuestID,
		SessionID: downgrade.Session.ID,
	})
	return downgrade, nil
}

// OAuthURL builds the provider redirect for social login.
func (s *AuthService) OAuthURL(provider, redirectTo string) string {
	return s.store.OAuthURL(provider, redirectTo)
}
