package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seatserve/seatserve/internal/model"
	"github.com/seatserve/seatserve/internal/session"
	"github.com/seatserve/seatserve/internal/store"
)

// addItemsRequest is the body of POST /api/orders/{orderID}/add-items.
type addItemsRequest struct {
	SessionID string            `json:"sessionId"`
	Items     []model.OrderItem `json:"items"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in store.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !session.Valid(in.SessionID) {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	order, err := s.store.Create(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.publish(model.OrderEvent(model.EventNewOrder, order, s.now()))
	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	s.logger.Info("order created",
		"order_id", order.OrderID,
		"outlet_id", order.OutletID,
		"items", len(order.Items),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully",
		"order":   order,
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	outletID := r.URL.Query().Get("outletId")
	sessionID := r.URL.Query().Get("sessionId")
	if outletID == "" || sessionID == "" {
		writeError(w, http.StatusBadRequest, "outletId and sessionId are required")
		return
	}

	orders, err := s.store.List(r.Context(), outletID, sessionID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		// Without a session the lookup is admin scope.
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	order, err := s.store.Get(r.Context(), orderID, sessionID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (s *Server) handleAddItems(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	order, err := s.store.AddItems(r.Context(), orderID, req.SessionID, req.Items)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	ev := model.OrderEvent(model.EventOrderUpdated, order, s.now())
	s.publish(ev)
	if s.metrics != nil {
		s.metrics.OrderUpdates.WithLabelValues(string(ev.Type)).Inc()
	}
	s.logger.Info("items added",
		"order_id", order.OrderID,
		"items", len(order.Items),
		"total", order.TotalAmount,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Items added successfully",
		"order":   order,
	})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID := chi.URLParam(r, "orderID")

	var patch model.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.store.Update(r.Context(), orderID, patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	ev := model.OrderEvent(model.EventOrderUpdated, order, s.now())
	s.publish(ev)
	if s.metrics != nil {
		s.metrics.OrderUpdates.WithLabelValues(string(ev.Type)).Inc()
	}
	s.logger.Info("order updated",
		"order_id", order.OrderID,
		"order_status", order.OrderStatus,
		"payment_status", order.PaymentStatus,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order updated successfully",
		"order":   order,
	})
}

func (s *Server) publish(ev model.UpdateEvent) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}
