package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"opsconsole/internal/platform/middleware"
)

// handleEvents serves the live SSE stream. The connection stays open until
// the client goes away or the bus removes the subscriber; either way the
// deferred Close makes removal idempotent.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.bus.Subscribe()
	defer sub.Close()

	h.logger.InfoContext(r.Context(), "sse client connected",
		"request_id", middleware.GetRequestID(r.Context()),
		"subscriber_id", sub.ID,
	)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub.Events:
			if !open {
				// Removed by the bus (stalled delivery or shutdown).
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				// Write failure means the connection is half-open or gone;
				// the deferred Close takes us out of the registry.
				return
			}
			flusher.Flush()
		}
	}
}
