package model

import "time"

// EventType identifies a live update event.
type EventType string

const (
	EventConnection     EventType = "connection"
	EventNewOrder       EventType = "new-order"
	EventOrderUpdated   EventType = "order-updated"
	EventOrderCompleted EventType = "order-completed"
	EventError          EventType = "error"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventConnection, EventNewOrder, EventOrderUpdated, EventOrderCompleted, EventError:
		return true
	}
	return false
}

// UpdateEvent is one message on the live update stream. Order is present for
// the three order-carrying types; Message and Error accompany connection and
// error events.
type UpdateEvent struct {
	Type      EventType `json:"type"`
	Order     *Order    `json:"order,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	OutletID  string    `json:"outletId,omitempty"`
}

// OrderEvent builds an order-carrying event. The type is chosen from the
// order's state: completed orders produce order-completed, everything else
// the given fallback type.
func OrderEvent(fallback EventType, order *Order, now time.Time) UpdateEvent {
	typ := fallback
	if fallback == EventOrderUpdated && order.Completed() {
		typ = EventOrderCompleted
	}
	return UpdateEvent{
		Type:      typ,
		Order:     order,
		Timestamp: now,
		OutletID:  order.OutletID,
	}
}
