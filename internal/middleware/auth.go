package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pol60/bastshin-sessions/internal/audit"
	"github.com/pol60/bastshin-sessions/internal/config"
	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/model"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// GuestID returns the client-persisted guest identifier, if the request
// carries one. The raw value is returned so the ensure path can mint a
// replacement; everywhere an owner is resolved, a malformed id is treated
// the same as no id.
func GuestID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(config.GuestIDHeader))
}

// TokenVerifier validates an access token. Satisfied by *identity.Verifier.
type TokenVerifier interface {
	Verify(token string) (*model.User, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Handler resolves the caller's identity when a bearer token is present.
// Requests without a token pass through anonymous; the session endpoints
// fall back to the guest id header. A token that is present but invalid is
// rejected so a stale client re-authenticates instead of silently browsing
// as a guest.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.verifier.Verify(token)
		if err != nil {
			audit.Log(r.Context(), audit.FromRequest(r, audit.Event{Type: audit.EventAuthFailure}))
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser guards endpoints that make no sense for guests. Must run
// after Handler.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			writeError(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
