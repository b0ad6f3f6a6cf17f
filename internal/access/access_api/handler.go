package access_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"controle-acesso/internal/access"
	"controle-acesso/internal/access/service"
	"controle-acesso/internal/cpf"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	MessageGranted = "Access granted"
	MessageDenied  = "Access denied"
)

type AccessService interface {
	Submit(ctx context.Context, eventID string, sub access.Submission) (access.Verdict, error)
	Preview(ctx context.Context, eventID string, sub access.Submission) (access.Verdict, error)
}

type Handler struct {
	Service AccessService
	Logger  *logger.Logger
}

func NewHandler(svc AccessService, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/access", h.SubmitAccess)
		r.Post("/access/preview", h.PreviewAccess)
		r.Get("/cpf/check", h.CheckCPF)
	})
}

type submitRequest struct {
	access.Submission
	EventID string `json:"event_id,omitempty"`
}

type accessResponse struct {
	Admitted bool   `json:"admitted"`
	Message  string `json:"message"`
}

type validationResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type previewResponse struct {
	WouldAdmit     bool `json:"would_admit"`
	ValidID        bool `json:"valid_id"`
	TicketRequired bool `json:"ticket_required"`
}

type cpfCheckResponse struct {
	Valid     bool   `json:"valid"`
	Formatted string `json:"formatted"`
}

// SubmitAccess is the gate endpoint. Attendees only ever see a generic
// granted or denied message; the reason is kept for the admin report.
func (h *Handler) SubmitAccess(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmission(r)
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	verdict, err := h.Service.Submit(r.Context(), req.EventID, req.Submission)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg := MessageDenied
	if verdict.Admitted {
		msg = MessageGranted
	}
	utils.WriteJSON(w, http.StatusOK, accessResponse{Admitted: verdict.Admitted, Message: msg})
}

// PreviewAccess runs the rules without claiming anything so the form can
// hint whether a ticket code will be needed.
func (h *Handler) PreviewAccess(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmission(r)
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	verdict, err := h.Service.Preview(r.Context(), req.EventID, req.Submission)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, previewResponse{
		WouldAdmit:     verdict.Admitted,
		ValidID:        verdict.Reason != access.ReasonInvalidID,
		TicketRequired: verdict.Reason == access.ReasonTicketRequired,
	})
}

func (h *Handler) CheckCPF(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("cpf")
	if raw == "" {
		http.Error(w, "cpf query parameter is required", http.StatusBadRequest)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cpfCheckResponse{
		Valid:     cpf.Validate(raw),
		Formatted: cpf.Format(raw),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *access.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.WriteJSON(w, http.StatusBadRequest, validationResponse{Message: "Invalid submission", Fields: verr.Fields})
	case errors.Is(err, service.ErrEventNotFound), errors.Is(err, service.ErrNoActiveEvent):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Event unavailable", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("%s %s failed: %v", r.Method, r.URL.Path, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal error", "could not process the request"))
	}
}

// decodeSubmission accepts a JSON body or a form post. Form posts also
// accept the Portuguese field names nome and ingresso.
func decodeSubmission(r *http.Request) (submitRequest, error) {
	var req submitRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Name = firstNonEmpty(r.PostForm.Get("name"), r.PostForm.Get("nome"))
	req.IDNumber = r.PostForm.Get("cpf")
	req.TicketCode = firstNonEmpty(r.PostForm.Get("ticket"), r.PostForm.Get("ingresso"))
	req.EventID = firstNonEmpty(r.PostForm.Get("event_id"), r.URL.Query().Get("event_id"))
	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
