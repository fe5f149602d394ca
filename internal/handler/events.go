package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/service"
	"github.com/pol60/bastshin-sessions/internal/sse"
)

// EventsHandler streams session-table changes to admin dashboards. Clients
// that cannot hold the stream open fall back to polling the list and stats
// endpoints.
type EventsHandler struct {
	broker       *sse.Broker
	adminService *service.AdminService
}

func NewEventsHandler(broker *sse.Broker, adminService *service.AdminService) *EventsHandler {
	return &EventsHandler{
		broker:       broker,
		adminService: adminService,
	}
}

// GET /v1/admin/sessions/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.VerifyAdmin(r.Context(), callerID(r)); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe()
	defer h.broker.Unsubscribe(client)

	log.Info().Int("clientCount", h.broker.ClientCount()).Msg("admin event stream opened")

	if err := h.sendEvent(w, flusher, "connected", map[string]any{
		"timestamp": time.Now().UnixMilli(),
	}); err != nil {
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("admin event stream closed by client")
			return

		case <-client.Done:
			log.Debug().Msg("admin event stream closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Debug().Err(err).Msg("event write failed, closing stream")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
