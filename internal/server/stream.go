package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/seatserve/seatserve/internal/model"
)

// pushUnsupported answers a stream request on a server that does not offer
// push delivery. The body names the fallback so clients can switch to
// polling without guessing.
func (s *Server) pushUnsupported(w http.ResponseWriter) {
	if s.metrics != nil {
		s.metrics.PushRefusals.Inc()
	}
	writeJSON(w, http.StatusNotImplemented, map[string]string{
		"error":    "Live updates are not supported",
		"fallback": "polling",
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.PushOffered() {
		s.pushUnsupported(w)
		return
	}
	outletID := r.URL.Query().Get("outletId")
	if outletID == "" {
		writeError(w, http.StatusBadRequest, "outletId is required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := s.hub.Subscribe(outletID)
	defer sub.Cancel()
	if s.metrics != nil {
		s.metrics.StreamSubscribers.Inc()
		defer s.metrics.StreamSubscribers.Dec()
	}
	s.logger.Info("stream client connected", "outlet_id", outletID, "transport", "sse")

	writeSSEEvent(w, model.UpdateEvent{
		Type:      model.EventConnection,
		Message:   "Connected to order updates",
		Timestamp: s.now(),
		OutletID:  outletID,
	})
	flusher.Flush()

	heartbeat := time.NewTicker(s.streamCfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("stream client disconnected", "outlet_id", outletID)
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			writeSSEEvent(w, ev)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev model.UpdateEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
