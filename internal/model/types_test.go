package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{StatusTaken, StatusPreparing, StatusPrepared, StatusServed} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if OrderStatus("delivered").Valid() {
		t.Error(`OrderStatus("delivered").Valid() = true`)
	}

	for _, p := range []PaymentStatus{PaymentUnpaid, PaymentPaid, PaymentCancelled} {
		if !p.Valid() {
			t.Errorf("%s.Valid() = false", p)
		}
	}
	if PaymentStatus("refunded").Valid() {
		t.Error(`PaymentStatus("refunded").Valid() = true`)
	}
}

func TestOrderCompleted(t *testing.T) {
	tests := []struct {
		status  OrderStatus
		payment PaymentStatus
		want    bool
	}{
		{StatusServed, PaymentPaid, true},
		{StatusServed, PaymentUnpaid, false},
		{StatusPrepared, PaymentPaid, false},
		{StatusTaken, PaymentUnpaid, false},
	}

	for _, tt := range tests {
		o := Order{OrderStatus: tt.status, PaymentStatus: tt.payment}
		if got := o.Completed(); got != tt.want {
			t.Errorf("Completed() with %s/%s = %v, want %v", tt.status, tt.payment, got, tt.want)
		}
	}
}

func TestOrderEvent(t *testing.T) {
	now := time.Now().UTC()
	served := &Order{OrderID: "ORD-1", OutletID: "O1", OrderStatus: StatusServed, PaymentStatus: PaymentPaid}
	open := &Order{OrderID: "ORD-2", OutletID: "O1", OrderStatus: StatusPreparing, PaymentStatus: PaymentUnpaid}

	if ev := OrderEvent(EventOrderUpdated, served, now); ev.Type != EventOrderCompleted {
		t.Errorf("completed order event type = %s, want %s", ev.Type, EventOrderCompleted)
	}
	if ev := OrderEvent(EventOrderUpdated, open, now); ev.Type != EventOrderUpdated {
		t.Errorf("open order event type = %s, want %s", ev.Type, EventOrderUpdated)
	}
	// new-order never reclassifies, even for a completed order.
	if ev := OrderEvent(EventNewOrder, served, now); ev.Type != EventNewOrder {
		t.Errorf("new-order event type = %s, want %s", ev.Type, EventNewOrder)
	}
	if ev := OrderEvent(EventNewOrder, open, now); ev.OutletID != "O1" {
		t.Errorf("event outlet = %s, want O1", ev.OutletID)
	}
}

func TestUpdateEventJSON(t *testing.T) {
	raw := `{"type":"order-updated","order":{"orderId":"ORD-9","outletId":"O1","sessionId":"s1",` +
		`"items":[{"id":"dish-1","name":"Ramen","quantity":2,"price":12.5,"quantityId":"q1",` +
		`"quantityDescription":"large","isNewlyAdded":true}],"totalAmount":25,"orderStatus":"preparing",` +
		`"paymentStatus":"unpaid","comments":"","createdAt":"2025-06-01T12:00:00Z",` +
		`"updatedAt":"2025-06-01T12:05:00Z"},"timestamp":"2025-06-01T12:05:00Z","outletId":"O1"}`

	var ev UpdateEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.Type != EventOrderUpdated {
		t.Errorf("type = %s, want %s", ev.Type, EventOrderUpdated)
	}
	if ev.Order == nil || ev.Order.OrderID != "ORD-9" {
		t.Fatalf("order not decoded: %+v", ev.Order)
	}
	if ev.Order.TotalAmount != 25 {
		t.Errorf("totalAmount = %v, want 25", ev.Order.TotalAmount)
	}
	if len(ev.Order.Items) != 1 || ev.Order.Items[0].QuantityDescription != "large" {
		t.Errorf("items not decoded: %+v", ev.Order.Items)
	}
}
