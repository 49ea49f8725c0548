package stream

import (
	"testing"
	"time"

	"github.com/seatserve/seatserve/internal/model"
)

func event(outletID string, typ model.EventType) model.UpdateEvent {
	return model.UpdateEvent{Type: typ, OutletID: outletID, Timestamp: time.Now().UTC()}
}

func TestHubPublishReachesOutletSubscribers(t *testing.T) {
	h := NewHub(4, nil)
	a := h.Subscribe("O1")
	b := h.Subscribe("O1")
	other := h.Subscribe("O2")
	defer a.Cancel()
	defer b.Cancel()
	defer other.Cancel()

	h.Publish(event("O1", model.EventNewOrder))

	for name, sub := range map[string]*Subscription{"a": a, "b": b} {
		select {
		case ev := <-sub.C:
			if ev.Type != model.EventNewOrder {
				t.Errorf("%s: type = %s, want %s", name, ev.Type, model.EventNewOrder)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no event delivered", name)
		}
	}

	select {
	case ev := <-other.C:
		t.Errorf("O2 subscriber received O1 event: %+v", ev)
	default:
	}
}

func TestHubDeliversInOrder(t *testing.T) {
	h := NewHub(8, nil)
	sub := h.Subscribe("O1")
	defer sub.Cancel()

	types := []model.EventType{model.EventNewOrder, model.EventOrderUpdated, model.EventOrderCompleted}
	for _, typ := range types {
		h.Publish(event("O1", typ))
	}

	for i, want := range types {
		ev := <-sub.C
		if ev.Type != want {
			t.Errorf("event %d type = %s, want %s", i, ev.Type, want)
		}
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub(1, nil)
	sub := h.Subscribe("O1")
	defer sub.Cancel()

	h.Publish(event("O1", model.EventNewOrder))
	h.Publish(event("O1", model.EventOrderUpdated)) // buffer full, dropped

	stats := h.Stats()
	if stats.Published != 2 {
		t.Errorf("Published = %d, want 2", stats.Published)
	}
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}

	if ev := <-sub.C; ev.Type != model.EventNewOrder {
		t.Errorf("surviving event = %s, want %s", ev.Type, model.EventNewOrder)
	}
}

func TestHubCancel(t *testing.T) {
	h := NewHub(4, nil)
	sub := h.Subscribe("O1")

	sub.Cancel()
	sub.Cancel() // idempotent

	if stats := h.Stats(); stats.Subscribers != 0 {
		t.Errorf("Subscribers = %d, want 0", stats.Subscribers)
	}

	// Publishing after cancel must not panic or deliver.
	h.Publish(event("O1", model.EventNewOrder))

	if _, ok := <-sub.C; ok {
		t.Error("cancelled subscription channel still open")
	}
}

func TestHubIgnoresEventsWithoutOutlet(t *testing.T) {
	h := NewHub(4, nil)
	sub := h.Subscribe("O1")
	defer sub.Cancel()

	h.Publish(model.UpdateEvent{Type: model.EventError})

	select {
	case ev := <-sub.C:
		t.Errorf("received outlet-less event: %+v", ev)
	default:
	}
}
