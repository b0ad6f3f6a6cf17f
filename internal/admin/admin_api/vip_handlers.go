package admin_api

import (
	"fmt"
	"net/http"
	"strings"

	"controle-acesso/internal/auth"
	"controle-acesso/internal/cpf"
	"controle-acesso/internal/models"
	"controle-acesso/internal/utils"

	"github.com/go-chi/chi/v5"
)

type vipRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=200"`
	// optional; stored as digits when given
	IDNumber string `json:"cpf" validate:"omitempty,cpf"`
}

func (req vipRequest) idNumber() *string {
	if strings.TrimSpace(req.IDNumber) == "" {
		return nil
	}
	digits := cpf.Digits(req.IDNumber)
	return &digits
}

func (h *Handler) ListVips(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}
	vips, err := h.Store.LoadVipList(r.Context(), event.ID)
	if err != nil {
		h.storeError(w, r, err, "VIP list")
		return
	}
	utils.WriteJSON(w, http.StatusOK, vips)
}

func (h *Handler) decodeVip(w http.ResponseWriter, r *http.Request) (vipRequest, bool) {
	var req vipRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if err := h.validate.Struct(req); err != nil {
		h.validationFailed(w, err)
		return req, false
	}
	return req, true
}

func (h *Handler) AddVip(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeVip(w, r)
	if !ok {
		return
	}

	vip := models.VipEntry{
		ID:        h.NewID(),
		EventID:   event.ID,
		FullName:  req.FullName,
		IDNumber:  req.idNumber(),
		CreatedAt: h.Now(),
	}
	if err := h.Store.AddVip(r.Context(), vip); err != nil {
		h.storeError(w, r, err, "VIP")
		return
	}

	h.Logger.LogAdmin("ADD_VIP", auth.Username(r.Context()), fmt.Sprintf("%s on event %s", vip.FullName, event.ID))
	utils.WriteJSON(w, http.StatusCreated, vip)
}

func (h *Handler) UpdateVip(w http.ResponseWriter, r *http.Request) {
	eventID, vipID := chi.URLParam(r, "eventID"), chi.URLParam(r, "vipID")
	vip, err := h.Store.GetVip(r.Context(), eventID, vipID)
	if err != nil {
		h.storeError(w, r, err, "VIP")
		return
	}
	req, ok := h.decodeVip(w, r)
	if !ok {
		return
	}

	vip.FullName = req.FullName
	vip.IDNumber = req.idNumber()
	if err := h.Store.UpdateVip(r.Context(), *vip); err != nil {
		h.storeError(w, r, err, "VIP")
		return
	}

	h.Logger.LogAdmin("UPDATE_VIP", auth.Username(r.Context()), vipID)
	utils.WriteJSON(w, http.StatusOK, vip)
}

func (h *Handler) DeleteVip(w http.ResponseWriter, r *http.Request) {
	eventID, vipID := chi.URLParam(r, "eventID"), chi.URLParam(r, "vipID")
	if err := h.Store.DeleteVip(r.Context(), eventID, vipID); err != nil {
		h.storeError(w, r, err, "VIP")
		return
	}
	h.Logger.LogAdmin("DELETE_VIP", auth.Username(r.Context()), vipID)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("VIP removed", nil))
}
