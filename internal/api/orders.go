package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/seatserve/seatserve/internal/model"
)

// CreateOrderRequest is the wire payload for order creation.
type CreateOrderRequest struct {
	OutletID     string            `json:"outletId"`
	SessionID    string            `json:"sessionId"`
	Items        []model.OrderItem `json:"items"`
	TotalAmount  float64           `json:"totalAmount"`
	Comments     string            `json:"comments,omitempty"`
	CustomerName string            `json:"customerName,omitempty"`
	TableNumber  string            `json:"tableNumber,omitempty"`
}

// AddItemsRequest is the wire payload for the add-items operation.
type AddItemsRequest struct {
	SessionID string            `json:"sessionId"`
	Items     []model.OrderItem `json:"items"`
}

type orderEnvelope struct {
	Message string       `json:"message,omitempty"`
	Order   *model.Order `json:"order"`
}

type listEnvelope struct {
	Orders []model.Order `json:"orders"`
}

// GetOrder fetches one order scoped to a session. A session mismatch, like a
// missing order, yields ErrNotFound.
func (c *Client) GetOrder(ctx context.Context, orderID, sessionID string) (*model.Order, error) {
	query := url.Values{}
	if sessionID != "" {
		query.Set("sessionId", sessionID)
	}

	var env orderEnvelope
	if err := c.get(ctx, "/api/orders/"+orderID, query, &env); err != nil {
		return nil, mapNotFound(err)
	}
	return env.Order, nil
}

// ListOrders returns the session's orders for an outlet, newest first.
func (c *Client) ListOrders(ctx context.Context, outletID, sessionID string) ([]model.Order, error) {
	query := url.Values{}
	query.Set("outletId", outletID)
	query.Set("sessionId", sessionID)

	var env listEnvelope
	if err := c.get(ctx, "/api/orders", query, &env); err != nil {
		return nil, err
	}
	return env.Orders, nil
}

// CreateOrder places a new order. Fire-once: not retried on failure.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error) {
	var env orderEnvelope
	if err := c.post(ctx, http.MethodPost, "/api/orders", req, &env); err != nil {
		return nil, err
	}
	return env.Order, nil
}

// AddItems appends an item batch to an existing unpaid order. Fire-once.
func (c *Client) AddItems(ctx context.Context, orderID string, req AddItemsRequest) (*model.Order, error) {
	var env orderEnvelope
	if err := c.post(ctx, http.MethodPost, "/api/orders/"+orderID+"/add-items", req, &env); err != nil {
		return nil, mapNotFound(err)
	}
	return env.Order, nil
}

func mapNotFound(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
