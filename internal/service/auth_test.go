package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/identity"
	"github.com/pol60/bastshin-sessions/internal/model"
)

type mockIdentityStore struct {
	mock.Mock
}

func (m *mockIdentityStore) SignInWithPassword(ctx context.Context, email, password string) (*identity.TokenPair, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.TokenPair), args.Error(1)
}

func (m *mockIdentityStore) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *mockIdentityStore) OAuthURL(provider, redirectTo string) string {
	args := m.Called(provider, redirectTo)
	return args.String(0)
}

func newAuthService(store *mockIdentityStore, sessions *mockSessionRepo) *AuthService {
	return NewAuthService(store, newSessionService(sessions, new(mockFavoriteRepo), new(mockMigrationLogRepo)))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("returns tokens and the upgraded session", func(t *testing.T) {
		store := new(mockIdentityStore)
		sessions := new(mockSessionRepo)
		svc := newAuthService(store, sessions)

		store.On("SignInWithPassword", mock.Anything, "a@b.test", "hunter2").Return(&identity.TokenPair{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresIn:    3600,
			User:         &model.User{ID: testUserID, Email: "a@b.test"},
		}, nil)
		sessions.On("Upsert", mock.Anything, mock.MatchedBy(func(p model.UpsertSessionParams) bool {
			return p.Owner == model.UserOwner(testUserID)
		})).Return(userSession("sess-1", testUserID), nil)

		result, err := svc.Login(ctx, "a@b.test", "hunter2", "", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "access", result.AccessToken)
		require.NotNil(t, result.Session)
		assert.True(t, result.Session.ClearGuestID)
	})

	t.Run("rejects bad credentials without touching the session table", func(t *testing.T) {
		store := new(mockIdentityStore)
		sessions := new(mockSessionRepo)
		svc := newAuthService(store, sessions)

		store.On("SignInWithPassword", mock.Anything, "a@b.test", "wrong").
			Return(nil, apperrors.Unauthorized("Invalid email or password"))

		result, err := svc.Login(ctx, "a@b.test", "wrong", testGuestID, nil, nil)
		assert.Error(t, err)
		assert.Nil(t, result)
		sessions.AssertNotCalled(t, "Upsert")
	})

	t.Run("login still succeeds when the session write fails", func(t *testing.T) {
		store := new(mockIdentityStore)
		sessions := new(mockSessionRepo)
		svc := newAuthService(store, sessions)

		store.On("SignInWithPassword", mock.Anything, "a@b.test", "hunter2").Return(&identity.TokenPair{
			AccessToken: "access",
			User:        &model.User{ID: testUserID},
		}, nil)
		sessions.On("Upsert", mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused"))

		result, err := svc.Login(ctx, "a@b.test", "hunter2", "", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "access", result.AccessToken)
		assert.Nil(t, result.Session)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("downgrades even when the provider rejects the token", func(t *testing.T) {
		store := new(mockIdentityStore)
		sessions := new(mockSessionRepo)
		svc := newAuthService(store, sessions)

		store.On("SignOut", mock.Anything, "stale-token").
			Return(errors.New("identity store unreachable"))
		sessions.On("ReplaceOwner", mock.Anything, "sess-1", mock.Anything).
			Return(guestSession("sess-1", testGuestID), nil)

		result, err := svc.Logout(ctx, "stale-token", testUserID, "sess-1", nil, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, result.GuestID)
	})

	t.Run("skips the provider when no token is held", func(t *testing.T) {
		store := new(mockIdentityStore)
		sessions := new(mockSessionRepo)
		svc := newAuthService(store, sessions)

		sessions.On("Upsert", mock.Anything, mock.Anything).
			Return(guestSession("sess-2", testGuestID), nil)

		_, err := svc.Logout(ctx, "", "", "", nil, nil)
		require.NoError(t, err)
		store.AssertNotCalled(t, "SignOut")
	})
}
