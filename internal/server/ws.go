package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seatserve/seatserve/internal/model"
)

const wsWriteTimeout = 10 * time.Second

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.PushOffered() {
		s.pushUnsupported(w)
		return
	}
	outletID := r.URL.Query().Get("outletId")
	if outletID == "" {
		writeError(w, http.StatusBadRequest, "outletId is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe(outletID)
	defer sub.Cancel()
	if s.metrics != nil {
		s.metrics.StreamSubscribers.Inc()
		defer s.metrics.StreamSubscribers.Dec()
	}
	s.logger.Info("stream client connected", "outlet_id", outletID, "transport", "websocket")

	// Reader goroutine: the client never sends data frames, but reading is
	// what surfaces close frames and pong responses.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(model.UpdateEvent{
		Type:      model.EventConnection,
		Message:   "Connected to order updates",
		Timestamp: s.now(),
		OutletID:  outletID,
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.streamCfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			s.logger.Debug("stream client disconnected", "outlet_id", outletID)
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("websocket write failed", "outlet_id", outletID, "error", err)
				return
			}
		case <-heartbeat.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
