package notify

import (
	"github.com/seatserve/seatserve/internal/model"
)

// Publisher is anything order mutations can announce themselves to.
type Publisher interface {
	Publish(ev model.UpdateEvent)
}

// Fanout publishes to several sinks in order, typically the local hub plus
// an AMQP bridge.
type Fanout []Publisher

func (f Fanout) Publish(ev model.UpdateEvent) {
	for _, p := range f {
		p.Publish(ev)
	}
}
