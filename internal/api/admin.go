package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/storage"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// AdminHandler provisions routing rules and worker profiles. Reached only
// through the internal route group; the admin UI in front of it is a
// separate service.
type AdminHandler struct {
	store  storage.Store
	bus    Broadcaster
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(store storage.Store, bus Broadcaster, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		bus:    bus,
		logger: logger.With().Str("component", "admin_handler").Logger(),
	}
}

// PutRule upserts a routing rule; takes effect on the next routed contact
// PUT /internal/rules
func (h *AdminHandler) PutRule(w http.ResponseWriter, r *http.Request) {
	var rule types.RoutingRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if rule.ID == "" {
		http.Error(w, "ruleId is required", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveRule(r.Context(), rule); err != nil {
		h.logger.Error().Err(err).Str("rule_id", rule.ID).Msg("failed to save rule")
		http.Error(w, "failed to save rule", http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("rule_id", rule.ID).Bool("enabled", rule.Enabled).Msg("rule saved")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

// PutWorker upserts a worker profile and announces the status change
// PUT /internal/workers
func (h *AdminHandler) PutWorker(w http.ResponseWriter, r *http.Request) {
	var worker types.Worker
	if err := json.NewDecoder(r.Body).Decode(&worker); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if worker.ID == "" {
		http.Error(w, "workerId is required", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveWorker(r.Context(), worker); err != nil {
		h.logger.Error().Err(err).Str("worker_id", worker.ID).Msg("failed to save worker")
		http.Error(w, "failed to save worker", http.StatusInternalServerError)
		return
	}

	if h.bus != nil {
		evt := types.NewEntityEvent(types.EventWorkerStatusChanged, types.EntityWorker, worker.ID)
		evt.Department = worker.Department
		evt.Data = map[string]any{
			"available": worker.Available,
			"activity":  worker.Activity,
		}
		h.bus.Broadcast(evt)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(worker)
}
