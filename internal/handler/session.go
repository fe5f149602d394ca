package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pol60/bastshin-sessions/internal/guestid"
	"github.com/pol60/bastshin-sessions/internal/middleware"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/service"
)

type SessionHandler struct {
	sessionService  *service.SessionService
	presenceService *service.PresenceService
}

func NewSessionHandler(sessionService *service.SessionService, presenceService *service.PresenceService) *SessionHandler {
	return &SessionHandler{
		sessionService:  sessionService,
		presenceService: presenceService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/ensure", h.Ensure)
	r.Post("/heartbeat", h.Heartbeat)
	r.Post("/offline", h.Offline)
	r.Post("/downgrade", h.Downgrade)

	return r
}

type ensureRequest struct {
	GuestID string `json:"guestId" validate:"omitempty,max=64"`
}

// POST /v1/sessions/ensure
func (h *SessionHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	var req ensureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	guestID := req.GuestID
	if guestID == "" {
		guestID = middleware.GuestID(r)
	}

	result, err := h.sessionService.EnsureSession(
		r.Context(),
		middleware.GetUser(r.Context()),
		guestID,
		deviceFromRequest(r),
		ipFromRequest(r),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type presenceRequest struct {
	GuestID string `json:"guestId"`
}

// presenceOwner resolves the owner for heartbeat/offline. sendBeacon cannot
// set headers, so the guest id may only be present in the body.
func presenceOwner(r *http.Request) model.SessionOwner {
	if owner := ownerFromRequest(r); !owner.IsZero() {
		return owner
	}
	var req presenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && guestid.Valid(req.GuestID) {
		return model.GuestOwner(req.GuestID)
	}
	return model.SessionOwner{}
}

// POST /v1/sessions/heartbeat
//
// Heartbeats are fired on a timer from every open tab; they never surface a
// server-side failure to the client. A rejected or failed heartbeat is
// recovered by the next one.
func (h *SessionHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	owner := presenceOwner(r)
	if owner.IsZero() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.presenceService.Heartbeat(r.Context(), owner); err != nil {
		log.Debug().Err(err).Str("owner", owner.String()).Msg("heartbeat write failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/sessions/offline
//
// Fired from pagehide/beforeunload, usually via sendBeacon. Always 204: the
// tab is already going away.
func (h *SessionHandler) Offline(w http.ResponseWriter, r *http.Request) {
	if owner := presenceOwner(r); !owner.IsZero() {
		h.presenceService.MarkOffline(r.Context(), owner)
	}
	w.WriteHeader(http.StatusNoContent)
}

type downgradeRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,uuid4"`
}

// POST /v1/sessions/downgrade
func (h *SessionHandler) Downgrade(w http.ResponseWriter, r *http.Request) {
	var req downgradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.sessionService.DowngradeToGuest(
		r.Context(), req.SessionID, deviceFromRequest(r), ipFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
