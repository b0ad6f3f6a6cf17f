package admin_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LiveAttempts streams the event's access attempts as server-sent events
// until the client disconnects.
func (h *Handler) LiveAttempts(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireEvent(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// the server write timeout would otherwise cut long-lived streams
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)

	ctx := r.Context()
	attempts := h.Emitter.SubscribeToEvent(ctx, event.ID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"eventID\":%q}\n\n", event.ID)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to live attempts for event: %s", event.ID))

	for {
		select {
		case attempt, ok := <-attempts:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for event: %s", event.ID))
				return
			}

			jsonData, err := json.Marshal(attempt)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize access attempt: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: attempt\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from live attempts for: %s", event.ID))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
