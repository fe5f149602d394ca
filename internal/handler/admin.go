package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pol60/bastshin-sessions/internal/middleware"
	"github.com/pol60/bastshin-sessions/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
	events       *EventsHandler
}

func NewAdminHandler(adminService *service.AdminService, events *EventsHandler) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		events:       events,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Get("/stats", h.Stats)
		r.Get("/events", h.events.ServeHTTP)
		r.Delete("/inactive", h.DeleteInactive)
		r.Delete("/{sessionID}", h.DeleteSession)
	})

	return r
}

func callerID(r *http.Request) string {
	if user := middleware.GetUser(r.Context()); user != nil {
		return user.ID
	}
	return ""
}

// GET /v1/admin/sessions?sort=last_activity&dir=desc&limit=50&offset=0
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sort, desc := ParseSessionSort(r)
	page := ParsePagination(r)

	sessions, err := h.adminService.ListSessions(r.Context(), callerID(r), sort, desc, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GET /v1/admin/sessions/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DELETE /v1/admin/sessions/{sessionID}
func (h *AdminHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.adminService.DeleteSession(r.Context(), callerID(r), sessionID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/admin/sessions/inactive
func (h *AdminHandler) DeleteInactive(w http.ResponseWriter, r *http.Request) {
	count, err := h.adminService.DeleteInactiveSessions(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}
