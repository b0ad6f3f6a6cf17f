package admin_api

import (
	"fmt"
	"net/http"
	"strings"

	"controle-acesso/internal/auth"
	"controle-acesso/internal/models"
	"controle-acesso/internal/utils"

	"github.com/go-chi/chi/v5"
)

type eventRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	StartsAt    string `json:"starts_at" validate:"required"`
	EndsAt      string `json:"ends_at" validate:"required"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description"`
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.ListEvents(r.Context())
	if err != nil {
		h.storeError(w, r, err, "Events")
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.validationFailed(w, err)
		return
	}

	startsAt, err := utils.ParseEventTime(req.StartsAt, h.Location)
	if err != nil {
		http.Error(w, "starts_at: "+err.Error(), http.StatusBadRequest)
		return
	}
	endsAt, err := utils.ParseEventTime(req.EndsAt, h.Location)
	if err != nil {
		http.Error(w, "ends_at: "+err.Error(), http.StatusBadRequest)
		return
	}
	if endsAt.Before(startsAt) {
		http.Error(w, "ends_at must not be before starts_at", http.StatusBadRequest)
		return
	}

	event := models.Event{
		ID:          h.NewID(),
		Name:        req.Name,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Location:    strings.TrimSpace(req.Location),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   h.Now(),
	}
	if err := h.Store.CreateEvent(r.Context(), event); err != nil {
		h.storeError(w, r, err, "Event")
		return
	}

	h.Logger.LogAdmin("CREATE_EVENT", auth.Username(r.Context()), fmt.Sprintf("%s (%s)", event.Name, event.ID))
	utils.WriteJSON(w, http.StatusCreated, event)
}

// DeleteEvent removes the event with its VIP list, tickets and access log.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if err := h.Store.DeleteEvent(r.Context(), eventID); err != nil {
		h.storeError(w, r, err, "Event")
		return
	}
	h.Logger.LogAdmin("DELETE_EVENT", auth.Username(r.Context()), eventID)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event deleted", nil))
}
