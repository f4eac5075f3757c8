package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// StreamQueueStatus pushes the token's status as server-sent events until the
// token is admitted or expires, the client leaves, or the stream times out.
func (h *HTTPHandler) StreamQueueStatus(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, r, errStreamUnsupp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.streamTimeout)
	defer cancel()

	events, err := h.queueSvc.Watch(ctx, token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	// the server write timeout would cut the stream short
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug(ctx, "Queue stream opened", "token", token)

	for ev := range events {
		data, err := json.Marshal(ev.Status)
		if err != nil {
			h.logger.Errorf(ctx, "delivery.http.StreamQueueStatus: %v", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
			h.logger.Debug(ctx, "Queue stream client gone", "token", token, "error", err)
			return
		}
		flusher.Flush()
	}

	h.logger.Debug(ctx, "Queue stream closed", "token", token)
}
