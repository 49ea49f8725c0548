package model

import "time"

// OrderStatus tracks the kitchen-side progress of an order.
type OrderStatus string

const (
	StatusTaken     OrderStatus = "taken"
	StatusPreparing OrderStatus = "preparing"
	StatusPrepared  OrderStatus = "prepared"
	StatusServed    OrderStatus = "served"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusTaken, StatusPreparing, StatusPrepared, StatusServed:
		return true
	}
	return false
}

// PaymentStatus tracks the payment state of an order.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

// OrderItem is a single line on an order.
type OrderItem struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Quantity            int        `json:"quantity"`
	Price               float64    `json:"price"`
	QuantityID          string     `json:"quantityId"`
	QuantityDescription string     `json:"quantityDescription"`
	AddedAt             *time.Time `json:"addedAt,omitempty"`
	IsNewlyAdded        bool       `json:"isNewlyAdded,omitempty"`
}

// Order is a customer order scoped to one outlet and one session.
type Order struct {
	OrderID         string        `json:"orderId"`
	OutletID        string        `json:"outletId"`
	SessionID       string        `json:"sessionId"`
	Items           []OrderItem   `json:"items"`
	TotalAmount     float64       `json:"totalAmount"`
	OrderStatus     OrderStatus   `json:"orderStatus"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Comments        string        `json:"comments"`
	CustomerName    string        `json:"customerName,omitempty"`
	TableNumber     string        `json:"tableNumber,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	LastItemAddedAt *time.Time    `json:"lastItemAddedAt,omitempty"`
}

// Completed reports whether the order has reached its terminal happy state:
// served and paid.
func (o *Order) Completed() bool {
	return o.OrderStatus == StatusServed && o.PaymentStatus == PaymentPaid
}

// OrderPatch is a partial admin-side update. Nil fields are left untouched.
type OrderPatch struct {
	OrderStatus   *OrderStatus   `json:"orderStatus,omitempty"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
	Comments      *string        `json:"comments,omitempty"`
	Items         []OrderItem    `json:"items,omitempty"`
	TotalAmount   *float64       `json:"totalAmount,omitempty"`
}
