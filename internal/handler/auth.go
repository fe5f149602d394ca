package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/middleware"
	"github.com/pol60/bastshin-sessions/internal/service"
)

var oauthProviders = map[string]bool{
	"google": true,
	"kakao":  true,
	"apple":  true,
}

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/oauth/{provider}", h.OAuthRedirect)

	return r
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
	GuestID  string `json:"guestId" validate:"omitempty,max=64"`
}

// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	guestID := req.GuestID
	if guestID == "" {
		guestID = middleware.GuestID(r)
	}

	result, err := h.authService.Login(
		r.Context(), req.Email, req.Password, guestID,
		deviceFromRequest(r), ipFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type logoutRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,uuid4"`
}

// POST /v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var userID string
	if user := middleware.GetUser(r.Context()); user != nil {
		userID = user.ID
	}

	result, err := h.authService.Logout(
		r.Context(), bearerToken(r), userID, req.SessionID,
		deviceFromRequest(r), ipFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /v1/auth/oauth/{provider}
func (h *AuthHandler) OAuthRedirect(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !oauthProviders[provider] {
		writeError(w, apperrors.InvalidInput("provider", "unsupported oauth provider"))
		return
	}

	url := h.authService.OAuthURL(provider, r.URL.Query().Get("redirect_to"))
	http.Redirect(w, r, url, http.StatusFound)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
