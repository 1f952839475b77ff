package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Dispatch related metrics
	NotificationsProcessed *prometheus.CounterVec
	DispatchLatency        prometheus.Histogram
	FallbackConversions    prometheus.Counter
	GatewayConnected       prometheus.Gauge

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// New creates the dispatch worker metrics. Registration is left to the
// caller so tests can build throwaway instances.
func New(namespace string) *Metrics {
	return &Metrics{
		NotificationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_processed_total",
			Help:      "Total number of notifications processed, by delivery method and outcome",
		}, []string{"method", "status"}),
		DispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent processing one dispatch pass",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		FallbackConversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_conversions_total",
			Help:      "Total number of notifications rerouted to the fallback delivery method",
		}),
		GatewayConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gateway_connected",
			Help:      "Whether the WhatsApp gateway reported a live session on the last check (1/0)",
		}),
		DatabaseOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

// MustRegister registers all metrics with the default registerer.
func (m *Metrics) MustRegister() {
	prometheus.MustRegister(
		m.NotificationsProcessed,
		m.DispatchLatency,
		m.FallbackConversions,
		m.GatewayConnected,
		m.DatabaseOperations,
	)
}
