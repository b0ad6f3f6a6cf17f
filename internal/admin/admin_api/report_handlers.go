package admin_api

import (
	"fmt"
	"net/http"
	"strings"

	"controle-acesso/internal/access/db"
	"controle-acesso/internal/auth"
	"controle-acesso/internal/models"
	"controle-acesso/internal/report"
	"controle-acesso/internal/utils"
)

type reportResponse struct {
	Event    *models.Event          `json:"event,omitempty"`
	Stats    report.Stats           `json:"stats"`
	Attempts []models.AccessAttempt `json:"attempts"`
}

// parseStatus maps the status query to a verdict. The Portuguese labels
// LIBERADO and NEGADO are accepted too.
func parseStatus(raw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case models.VerdictAdmit, "LIBERADO":
		return models.VerdictAdmit, true
	case models.VerdictDeny, "NEGADO":
		return models.VerdictDeny, true
	}
	return "", false
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request, eventID string) ([]models.AccessAttempt, bool) {
	verdict, ok := parseStatus(r.URL.Query().Get("status"))
	if !ok {
		http.Error(w, "status must be ADMIT or DENY", http.StatusBadRequest)
		return nil, false
	}

	attempts, err := h.Store.ListAttempts(r.Context(), db.AttemptFilter{EventID: eventID, Verdict: verdict})
	if err != nil {
		h.storeError(w, r, err, "Attempts")
		return nil, false
	}
	return attempts, true
}

// Report lists attempts across every event, newest first. The stats cover
// the filtered rows.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	attempts, ok := h.listAttempts(w, r, r.URL.Query().Get("event_id"))
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, reportResponse{
		Stats:    report.Summarize(attempts),
		Attempts: attempts,
	})
}

func (h *Handler) EventReport(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}
	attempts, ok := h.listAttempts(w, r, event.ID)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, reportResponse{
		Event:    event,
		Stats:    report.Summarize(attempts),
		Attempts: attempts,
	})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	attempts, ok := h.listAttempts(w, r, r.URL.Query().Get("event_id"))
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="access_report.csv"`)
	if err := report.WriteCSV(w, attempts); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("CSV export failed: %v", err))
	}
	h.Logger.LogAdmin("EXPORT_CSV", auth.Username(r.Context()), fmt.Sprintf("%d rows", len(attempts)))
}

// ClearReport wipes the access log for every event.
func (h *Handler) ClearReport(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.ClearAttempts(r.Context())
	if err != nil {
		h.storeError(w, r, err, "Attempts")
		return
	}
	h.Logger.LogAdmin("CLEAR_REPORT", auth.Username(r.Context()), fmt.Sprintf("%d attempts removed", n))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Access log cleared", map[string]int64{"removed": n}))
}
