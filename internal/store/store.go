// Package store implements order persistence with session-scoped access.
//
// Customer-facing reads and writes always filter by session id; a session
// mismatch is reported as ErrNotFound so that a foreign order is
// indistinguishable from a missing one.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/seatserve/seatserve/internal/model"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound covers both a missing order and a session mismatch.
	ErrNotFound = errors.New("order not found")

	// ErrNotModifiable is returned when items are added to an order that is
	// no longer unpaid.
	ErrNotModifiable = errors.New("order is not modifiable")

	// ErrInvalid wraps request validation failures.
	ErrInvalid = errors.New("invalid order data")
)

// CreateOrderInput carries a new order request.
type CreateOrderInput struct {
	OutletID     string            `json:"outletId"`
	SessionID    string            `json:"sessionId"`
	Items        []model.OrderItem `json:"items"`
	TotalAmount  float64           `json:"totalAmount"`
	Comments     string            `json:"comments"`
	CustomerName string            `json:"customerName"`
	TableNumber  string            `json:"tableNumber"`
}

// Store is the order persistence contract consumed by the HTTP layer.
type Store interface {
	// Create validates and persists a new order with status taken/unpaid.
	Create(ctx context.Context, in CreateOrderInput) (*model.Order, error)

	// Get fetches one order. An empty sessionID is admin scope and skips the
	// session check.
	Get(ctx context.Context, orderID, sessionID string) (*model.Order, error)

	// List returns the session's orders for an outlet, newest first,
	// capped at ListLimit.
	List(ctx context.Context, outletID, sessionID string) ([]model.Order, error)

	// AddItems merges an item batch into an unpaid order owned by the
	// session and recomputes the total.
	AddItems(ctx context.Context, orderID, sessionID string, items []model.OrderItem) (*model.Order, error)

	// Update applies an admin partial update. No session check.
	Update(ctx context.Context, orderID string, patch model.OrderPatch) (*model.Order, error)
}

// ListLimit caps the number of orders returned by List.
const ListLimit = 100

// totalEpsilon tolerates float drift between a client-computed total and the
// server-side recomputation.
const totalEpsilon = 1e-6

func validateCreate(in CreateOrderInput) error {
	if in.OutletID == "" {
		return fmt.Errorf("%w: outletId is required", ErrInvalid)
	}
	if in.SessionID == "" {
		return fmt.Errorf("%w: sessionId is required", ErrInvalid)
	}
	if err := model.ValidateItems(in.Items); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	total := model.ItemTotal(in.Items)
	if total <= 0 {
		return fmt.Errorf("%w: total amount must be positive", ErrInvalid)
	}
	if diff := in.TotalAmount - total; diff > totalEpsilon || diff < -totalEpsilon {
		return fmt.Errorf("%w: total amount does not match order items", ErrInvalid)
	}
	return nil
}
