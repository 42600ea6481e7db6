package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/routing"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/storage"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// Broadcaster pushes events to connected dashboards
type Broadcaster interface {
	Broadcast(evt types.Event)
}

// ContactHandler receives inbound contacts from the telephony webhooks,
// routes them, and announces the result on the event bus.
type ContactHandler struct {
	router *routing.Router
	bus    Broadcaster
	store  storage.Store
	logger zerolog.Logger

	mu           sync.Mutex
	contactCount int64
	byChannel    map[string]int64
	lastRoutedAt time.Time
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(router *routing.Router, bus Broadcaster, store storage.Store, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		router:    router,
		bus:       bus,
		store:     store,
		logger:    logger.With().Str("component", "contact_handler").Logger(),
		byChannel: make(map[string]int64),
	}
}

// contactRequest is the intake payload for an inbound call or message
type contactRequest struct {
	Attributes types.TaskAttributes `json:"attributes"`
	Contact    types.ContactContext `json:"contact"`
}

// RouteContact routes one inbound contact
// POST /internal/contact
func (h *ContactHandler) RouteContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Contact.PhoneNumber == "" && req.Contact.Text == "" &&
		req.Contact.CallSid == "" && req.Contact.MessageSid == "" {
		http.Error(w, "contact context is required", http.StatusBadRequest)
		return
	}

	decision := h.router.RouteTask(r.Context(), req.Attributes, req.Contact)
	h.announce(req.Contact, decision)
	h.count(req.Contact)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decision)
}

func (h *ContactHandler) count(contact types.ContactContext) {
	channel := "unknown"
	switch {
	case contact.CallSid != "" || contact.CallID != "":
		channel = "voice"
	case contact.MessageSid != "" || contact.MessageID != "":
		channel = "sms"
	}

	h.mu.Lock()
	h.contactCount++
	h.byChannel[channel]++
	h.lastRoutedAt = time.Now()
	h.mu.Unlock()
}

// GetStats returns intake counters
// GET /internal/contact/stats
func (h *ContactHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	byChannel := make(map[string]int64, len(h.byChannel))
	for k, v := range h.byChannel {
		byChannel[k] = v
	}
	stats := map[string]any{
		"contactsRouted": h.contactCount,
		"byChannel":      byChannel,
	}
	if !h.lastRoutedAt.IsZero() {
		stats["lastRoutedAt"] = h.lastRoutedAt.UTC().Format(time.RFC3339)
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// announce pushes the channel event and the queue update to the bus
func (h *ContactHandler) announce(contact types.ContactContext, decision types.RoutingDecision) {
	if h.bus == nil {
		return
	}

	switch {
	case contact.CallSid != "" || contact.CallID != "":
		id := contact.CallID
		if id == "" {
			id = contact.CallSid
		}
		evt := types.NewEntityEvent(types.EventCallIncoming, types.EntityCall, id)
		evt.Department = decision.Attributes.Department
		evt.Data = map[string]any{
			"phoneNumber": contact.PhoneNumber,
			"priority":    decision.Priority,
		}
		h.bus.Broadcast(evt)
	case contact.MessageSid != "" || contact.MessageID != "":
		id := contact.MessageID
		if id == "" {
			id = contact.MessageSid
		}
		evt := types.NewEntityEvent(types.EventMessageReceived, types.EntityMessage, id)
		evt.Department = decision.Attributes.Department
		evt.Data = map[string]any{
			"phoneNumber": contact.PhoneNumber,
			"priority":    decision.Priority,
		}
		h.bus.Broadcast(evt)
	}

	if decision.TaskSid != "" {
		evt := types.NewEntityEvent(types.EventTaskAssigned, types.EntityTask, decision.TaskSid)
		evt.Department = decision.Attributes.Department
		evt.Data = map[string]any{
			"taskQueueSid": decision.TaskQueueSid,
			"priority":     decision.Priority,
		}
		h.bus.Broadcast(evt)
	}

	queueEvt := types.NewEntityEvent(types.EventQueueUpdated, types.EntityTaskQueue, decision.TaskQueueSid)
	queueEvt.Department = decision.Attributes.Department
	h.bus.Broadcast(queueEvt)
}

// GetRecords returns the routing decisions for a given date
// GET /internal/contact/records?date=YYYY-MM-DD
func (h *ContactHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	records, err := h.store.GetRoutingRecords(r.Context(), date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to get routing records")
		http.Error(w, "failed to retrieve records", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []types.RoutingRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
