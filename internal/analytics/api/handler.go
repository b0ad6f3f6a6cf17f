package analytics_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"controle-acesso/internal/analytics"
	"controle-acesso/internal/logger"

	"github.com/go-chi/chi/v5"
)

const maxBatchEvents = 100

// Handler handles analytics HTTP endpoints. It carries no auth of its own
// and is mounted inside the admin group.
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/events/{eventID}", h.GetEventAnalytics)
		r.Post("/events/batch", h.GetBatchEventAnalytics)
	})
}

// sendJSONResponse is a helper function to send JSON responses
func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) GetEventAnalytics(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	result, err := h.Service.GetEventAnalytics(r.Context(), eventID)
	if errors.Is(err, analytics.ErrEventNotFound) {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to get analytics for event %s: %v", eventID, err))
		http.Error(w, "Failed to retrieve analytics", http.StatusInternalServerError)
		return
	}
	sendJSONResponse(w, http.StatusOK, result)
}

type batchRequest struct {
	EventIDs []string `json:"event_ids"`
}

func (h *Handler) GetBatchEventAnalytics(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	seen := map[string]bool{}
	ids := make([]string, 0, len(req.EventIDs))
	for _, id := range req.EventIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		http.Error(w, "event_ids is required", http.StatusBadRequest)
		return
	}
	if len(ids) > maxBatchEvents {
		http.Error(w, fmt.Sprintf("at most %d events per batch", maxBatchEvents), http.StatusBadRequest)
		return
	}

	result, err := h.Service.GetBatchEventAnalytics(r.Context(), ids)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to get batch analytics: %v", err))
		http.Error(w, "Failed to retrieve analytics", http.StatusInternalServerError)
		return
	}
	sendJSONResponse(w, http.StatusOK, result)
}
