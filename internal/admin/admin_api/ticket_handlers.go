package admin_api

import (
	"fmt"
	"net/http"
	"strings"

	"controle-acesso/internal/access"
	"controle-acesso/internal/auth"
	"controle-acesso/internal/models"
	"controle-acesso/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	defaultTicketPrefix = "ING"
	generatedCodeLength = 8
)

// ticketRequest either lists explicit codes or asks for Count generated ones.
type ticketRequest struct {
	Codes  []string          `json:"codes" validate:"omitempty,max=1000,dive,required,max=64"`
	Count  int               `json:"count" validate:"omitempty,min=1,max=1000"`
	Prefix string            `json:"prefix" validate:"omitempty,alphanum,max=16"`
	Type   models.TicketType `json:"type"`
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}
	tickets, err := h.Store.ListTickets(r.Context(), event.ID)
	if err != nil {
		h.storeError(w, r, err, "Tickets")
		return
	}
	utils.WriteJSON(w, http.StatusOK, tickets)
}

func (h *Handler) CreateTickets(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	var req ticketRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationFailed(w, err)
		return
	}
	if req.Type == "" {
		req.Type = models.TicketTypeStandard
	}
	if !req.Type.Valid() {
		http.Error(w, fmt.Sprintf("unknown ticket type %q", req.Type), http.StatusBadRequest)
		return
	}

	codes, err := h.ticketCodes(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	taken, err := h.Store.ExistingTicketCodes(r.Context(), codes)
	if err != nil {
		h.storeError(w, r, err, "Tickets")
		return
	}
	if len(taken) > 0 {
		utils.WriteJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "Ticket codes already exist",
			"codes":   taken,
		})
		return
	}

	now := h.Now()
	tickets := make([]models.TicketCode, 0, len(codes))
	for _, code := range codes {
		tickets = append(tickets, models.TicketCode{
			ID:        h.NewID(),
			EventID:   event.ID,
			Code:      code,
			Type:      req.Type,
			CreatedAt: now,
		})
	}
	if err := h.Store.CreateTickets(r.Context(), tickets); err != nil {
		h.storeError(w, r, err, "Tickets")
		return
	}

	h.Logger.LogAdmin("CREATE_TICKETS", auth.Username(r.Context()), fmt.Sprintf("%d %s tickets on event %s", len(tickets), req.Type, event.ID))
	utils.WriteJSON(w, http.StatusCreated, tickets)
}

// ticketCodes normalises the explicit codes, or generates Count new ones.
func (h *Handler) ticketCodes(req ticketRequest) ([]string, error) {
	if len(req.Codes) > 0 {
		seen := map[string]bool{}
		codes := make([]string, 0, len(req.Codes))
		for _, raw := range req.Codes {
			code := access.NormalizeTicketCode(raw)
			if code == "" {
				return nil, fmt.Errorf("empty ticket code")
			}
			if seen[code] {
				return nil, fmt.Errorf("duplicate ticket code %s", code)
			}
			seen[code] = true
			codes = append(codes, code)
		}
		return codes, nil
	}

	if req.Count == 0 {
		return nil, fmt.Errorf("either codes or count is required")
	}
	prefix := req.Prefix
	if prefix == "" {
		prefix = defaultTicketPrefix
	}
	return utils.GenerateTicketCodes(strings.ToUpper(prefix), generatedCodeLength, req.Count)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	eventID, ticketID := chi.URLParam(r, "eventID"), chi.URLParam(r, "ticketID")
	if err := h.Store.DeleteTicket(r.Context(), eventID, ticketID); err != nil {
		h.storeError(w, r, err, "Ticket")
		return
	}
	h.Logger.LogAdmin("DELETE_TICKET", auth.Username(r.Context()), ticketID)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket removed", nil))
}

// TicketQR renders the ticket code as a PNG.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.Store.GetTicket(r.Context(), chi.URLParam(r, "eventID"), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.storeError(w, r, err, "Ticket")
		return
	}

	png, err := h.QR.TicketPNG(*ticket)
	if err != nil {
		h.Logger.Error("QR", fmt.Sprintf("Failed to render QR for ticket %s: %v", ticket.ID, err))
		http.Error(w, "failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, ticket.Code))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
