package notify

import (
	"testing"

	"github.com/seatserve/seatserve/internal/model"
)

type recorder struct {
	events []model.UpdateEvent
}

func (r *recorder) Publish(ev model.UpdateEvent) { r.events = append(r.events, ev) }

func TestFanout(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	f := Fanout{a, b}

	f.Publish(model.UpdateEvent{Type: model.EventNewOrder, OutletID: "O1"})

	for name, r := range map[string]*recorder{"a": a, "b": b} {
		if len(r.events) != 1 {
			t.Fatalf("%s: got %d events, want 1", name, len(r.events))
		}
		if r.events[0].Type != model.EventNewOrder {
			t.Errorf("%s: type = %s, want %s", name, r.events[0].Type, model.EventNewOrder)
		}
	}
}
