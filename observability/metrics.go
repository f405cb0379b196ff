package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_relay"

// Delivery outcomes.
const (
	DeliveryLive    = "live"
	DeliveryOffline = "offline"
	DeliveryDropped = "dropped"
)

// Metrics gathers the counters of the presence and delivery runtime.
type Metrics struct {
	registry *prometheus.Registry

	ActiveConnections   prometheus.Gauge
	PresenceEntries     prometheus.Gauge
	MessagesPersisted   prometheus.Counter
	Deliveries          *prometheus.CounterVec
	PersistenceFailures *prometheus.CounterVec
	DroppedEvents       *prometheus.CounterVec
}

// NewMetrics registers every collector on a dedicated registry,
// so tests can build as many instances as they need.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	m := &Metrics{
		registry: registry,
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Live transport connections attached to the relay.",
		}),
		PresenceEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "presence_entries",
			Help:      "Users currently bound to a live connection.",
		}),
		MessagesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_persisted_total",
			Help:      "Messages durably stored from session events.",
		}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Dispatch outcomes of persisted messages.",
		}, []string{"result"}),
		PersistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Store calls that failed or timed out during session events.",
		}, []string{"operation"}),
		DroppedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Inbound session events ignored by the relay.",
		}, []string{"reason"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
