// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Order creation and mutation rates
//   - Push stream subscriber counts and drop totals
//   - Watcher fallbacks from push to polling
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors for one orderd instance.
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated     prometheus.Counter
	OrderUpdates      *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge
	PushRefusals      prometheus.Counter
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seatserve_orders_created_total",
			Help: "Orders successfully created.",
		}),
		OrderUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seatserve_order_updates_published_total",
			Help: "Update events published to the stream hub, by type.",
		}, []string{"type"}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seatserve_stream_subscribers",
			Help: "Currently connected push stream subscribers.",
		}),
		PushRefusals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seatserve_push_refusals_total",
			Help: "Stream requests answered 501 because push delivery is disabled.",
		}),
	}

	reg.MustRegister(
		m.OrdersCreated,
		m.OrderUpdates,
		m.StreamSubscribers,
		m.PushRefusals,
	)
	return m
}

// ObserveDropped exposes the stream hub's dropped-event total, read at
// scrape time.
func (m *Metrics) ObserveDropped(fn func() float64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "seatserve_stream_dropped_total",
		Help: "Events dropped because a subscriber buffer was full.",
	}, fn))
}

// Handler returns the scrape handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a dedicated metrics listener until the server fails.
func (m *Metrics) Serve(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
