package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pol60/bastshin-sessions/internal/middleware"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/service"
)

const testGuestID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

func sessionRow(owner model.SessionOwner) *model.Session {
	userID, guestID := owner.Columns()
	return &model.Session{
		ID:           "11111111-2222-4333-8444-555555555555",
		UserID:       userID,
		GuestID:      guestID,
		SessionStart: time.Now(),
		LastActivity: time.Now(),
		IsOnline:     true,
	}
}

func newSessionHandler(sessions *stubSessionRepo) *SessionHandler {
	migration := service.NewMigrationService(stubTxRunner{}, sessions, &stubFavoriteRepo{}, &stubMigrationLogRepo{})
	sessionService := service.NewSessionService(sessions, migration, nil)
	presenceService := service.NewPresenceService(sessions, openGate{}, nil, 5*time.Second, 25*time.Second)
	return NewSessionHandler(sessionService, presenceService)
}

func withUser(r *http.Request, user *model.User) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
	return r.WithContext(ctx)
}

func TestEnsureEndpoint(t *testing.T) {
	t.Run("guest without a stored id gets a fresh one", func(t *testing.T) {
		sessions := &stubSessionRepo{
			upsertFunc: func(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
				return sessionRow(params.Owner), nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/ensure", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		h.Ensure(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			GuestID  string         `json:"guestId"`
			Migrated bool           `json:"migrated"`
			Session  *model.Session `json:"session"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.GuestID)
		assert.False(t, body.Migrated)
		require.NotNil(t, body.Session)
	})

	t.Run("guest id header is honored", func(t *testing.T) {
		var captured model.SessionOwner
		sessions := &stubSessionRepo{
			upsertFunc: func(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
				captured = params.Owner
				return sessionRow(params.Owner), nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/ensure", nil)
		req.Header.Set("X-Guest-ID", testGuestID)
		rec := httptest.NewRecorder()
		h.Ensure(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, model.GuestOwner(testGuestID), captured)
	})

	t.Run("authenticated caller gets a user session", func(t *testing.T) {
		sessions := &stubSessionRepo{
			upsertFunc: func(ctx context.Context, params model.UpsertSessionParams) (*model.Session, error) {
				return sessionRow(params.Owner), nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/ensure", strings.NewReader("{}"))
		req = withUser(req, &model.User{ID: "user-1"})
		rec := httptest.NewRecorder()
		h.Ensure(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			ClearGuestID bool           `json:"clearGuestId"`
			Session      *model.Session `json:"session"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.ClearGuestID)
		require.NotNil(t, body.Session.UserID)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		h := newSessionHandler(&stubSessionRepo{})

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/ensure", strings.NewReader("{nope"))
		rec := httptest.NewRecorder()
		h.Ensure(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHeartbeatEndpoint(t *testing.T) {
	t.Run("writes activity for a guest", func(t *testing.T) {
		touched := false
		sessions := &stubSessionRepo{
			touchFunc: func(ctx context.Context, owner model.SessionOwner, at time.Time) error {
				touched = true
				assert.Equal(t, model.GuestOwner(testGuestID), owner)
				return nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/heartbeat", nil)
		req.Header.Set("X-Guest-ID", testGuestID)
		rec := httptest.NewRecorder()
		h.Heartbeat(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, touched)
	})

	t.Run("no identity is still a 204", func(t *testing.T) {
		touched := false
		sessions := &stubSessionRepo{
			touchFunc: func(ctx context.Context, owner model.SessionOwner, at time.Time) error {
				touched = true
				return nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/heartbeat", nil)
		rec := httptest.NewRecorder()
		h.Heartbeat(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, touched)
	})

	t.Run("malformed guest id is dropped before the write", func(t *testing.T) {
		touched := false
		sessions := &stubSessionRepo{
			touchFunc: func(ctx context.Context, owner model.SessionOwner, at time.Time) error {
				touched = true
				return nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/heartbeat", nil)
		req.Header.Set("X-Guest-ID", "definitely-not-a-uuid")
		rec := httptest.NewRecorder()
		h.Heartbeat(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, touched)
	})

	t.Run("a failed write is still a 204", func(t *testing.T) {
		sessions := &stubSessionRepo{
			touchFunc: func(ctx context.Context, owner model.SessionOwner, at time.Time) error {
				return errors.New("connection refused")
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/heartbeat", nil)
		req.Header.Set("X-Guest-ID", testGuestID)
		rec := httptest.NewRecorder()
		h.Heartbeat(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestOfflineEndpoint(t *testing.T) {
	t.Run("marks the owner offline", func(t *testing.T) {
		marked := false
		sessions := &stubSessionRepo{
			markOfflineFunc: func(ctx context.Context, owner model.SessionOwner) error {
				marked = true
				return nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/offline", nil)
		req.Header.Set("X-Guest-ID", testGuestID)
		rec := httptest.NewRecorder()
		h.Offline(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, marked)
	})

	t.Run("accepts the guest id in the body, as sendBeacon sends it", func(t *testing.T) {
		var captured model.SessionOwner
		sessions := &stubSessionRepo{
			markOfflineFunc: func(ctx context.Context, owner model.SessionOwner) error {
				captured = owner
				return nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/offline",
			strings.NewReader(`{"guestId":"`+testGuestID+`"}`))
		rec := httptest.NewRecorder()
		h.Offline(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, model.GuestOwner(testGuestID), captured)
	})

	t.Run("malformed body guest id is ignored", func(t *testing.T) {
		marked := false
		sessions := &stubSessionRepo{
			markOfflineFunc: func(ctx context.Context, owner model.SessionOwner) error {
				marked = true
				return nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/offline",
			strings.NewReader(`{"guestId":"definitely-not-a-uuid"}`))
		rec := httptest.NewRecorder()
		h.Offline(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, marked)
	})

	t.Run("always 204, even on failure", func(t *testing.T) {
		sessions := &stubSessionRepo{
			markOfflineFunc: func(ctx context.Context, owner model.SessionOwner) error {
				return errors.New("aborted")
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/offline", nil)
		req.Header.Set("X-Guest-ID", testGuestID)
		rec := httptest.NewRecorder()
		h.Offline(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestDowngradeEndpoint(t *testing.T) {
	t.Run("hands out a fresh guest identity", func(t *testing.T) {
		sessions := &stubSessionRepo{
			replaceOwnerFunc: func(ctx context.Context, id string, owner model.SessionOwner) (*model.Session, error) {
				return sessionRow(owner), nil
			},
		}
		h := newSessionHandler(sessions)

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/downgrade",
			strings.NewReader(`{"sessionId":"11111111-2222-4333-8444-555555555555"}`))
		rec := httptest.NewRecorder()
		h.Downgrade(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			GuestID string `json:"guestId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.GuestID)
	})

	t.Run("rejects a malformed session id", func(t *testing.T) {
		h := newSessionHandler(&stubSessionRepo{})

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/downgrade",
			strings.NewReader(`{"sessionId":"not-a-uuid"}`))
		rec := httptest.NewRecorder()
		h.Downgrade(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
