package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// EventsHandler lets backend services publish events onto the bus
type EventsHandler struct {
	bus    Broadcaster
	logger zerolog.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(bus Broadcaster, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		bus:    bus,
		logger: logger.With().Str("component", "events_handler").Logger(),
	}
}

// PublishEvent broadcasts one event to connected dashboards
// POST /internal/events
func (h *EventsHandler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	var evt types.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if evt.Name == "" {
		http.Error(w, "event name is required", http.StatusBadRequest)
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	h.bus.Broadcast(evt)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}
