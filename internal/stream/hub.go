// Package stream implements the server-side update stream source: a
// per-outlet hub that fans order events out to connected push clients.
//
// Delivery is best-effort: a subscriber that cannot keep up has events
// dropped rather than stalling the publisher. Clients that need gap-free
// history read it back through the order API.
package stream

import (
	"log/slog"
	"sync"

	"github.com/seatserve/seatserve/internal/model"
)

// Subscription is one push client's view of an outlet's event stream.
type Subscription struct {
	// C delivers events in publish order until Cancel is called.
	C <-chan model.UpdateEvent

	hub      *Hub
	outletID string
	ch       chan model.UpdateEvent
	once     sync.Once
}

// Cancel detaches the subscription and closes C. Safe to call twice.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s.outletID, s.ch)
		close(s.ch)
	})
}

// HubStats contains runtime statistics.
type HubStats struct {
	Subscribers int
	Published   int64
	Dropped     int64
}

// Hub fans update events out to per-outlet subscribers.
type Hub struct {
	logger *slog.Logger
	buffer int

	mu        sync.RWMutex
	outlets   map[string]map[chan model.UpdateEvent]struct{}
	published int64
	dropped   int64
}

// NewHub creates a Hub whose subscriber channels buffer up to buffer events.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		logger:  logger,
		buffer:  buffer,
		outlets: make(map[string]map[chan model.UpdateEvent]struct{}),
	}
}

// Subscribe registers a new push client for an outlet.
func (h *Hub) Subscribe(outletID string) *Subscription {
	ch := make(chan model.UpdateEvent, h.buffer)

	h.mu.Lock()
	subs, ok := h.outlets[outletID]
	if !ok {
		subs = make(map[chan model.UpdateEvent]struct{})
		h.outlets[outletID] = subs
	}
	subs[ch] = struct{}{}
	count := len(subs)
	h.mu.Unlock()

	h.logger.Debug("stream subscribed", "outlet_id", outletID, "subscribers", count)

	return &Subscription{C: ch, hub: h, outletID: outletID, ch: ch}
}

// Publish delivers an event to every subscriber of its outlet. Events
// without an outlet id are ignored.
func (h *Hub) Publish(ev model.UpdateEvent) {
	if ev.OutletID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.published++
	for ch := range h.outlets[ev.OutletID] {
		select {
		case ch <- ev:
		default:
			h.dropped++
			h.logger.Warn("subscriber buffer full, dropping event",
				"outlet_id", ev.OutletID,
				"type", ev.Type,
			)
		}
	}
}

// Stats returns current hub statistics.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.outlets {
		total += len(subs)
	}
	return HubStats{
		Subscribers: total,
		Published:   h.published,
		Dropped:     h.dropped,
	}
}

func (h *Hub) remove(outletID string, ch chan model.UpdateEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.outlets[outletID]
	delete(subs, ch)
	if len(subs) == 0 {
		delete(h.outlets, outletID)
	}
}
