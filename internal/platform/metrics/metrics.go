package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the console backend.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	EventsPublished   prometheus.Counter
	SubscribersLive   prometheus.Gauge
	SubscribersKicked prometheus.Counter
	ThreatsDetected   prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer. Tests pass a fresh
// registry so suites can build more than one Metrics per binary.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_operations_total",
			Help: "Dispatched operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_operation_duration_seconds",
			Help:    "Operation latency by name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_events_published_total",
			Help: "Events published to the bus.",
		}),
		SubscribersLive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "console_subscribers_live",
			Help: "Currently registered stream subscribers.",
		}),
		SubscribersKicked: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_subscribers_kicked_total",
			Help: "Subscribers removed after a failed or stalled delivery.",
		}),
		ThreatsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_threats_detected_total",
			Help: "Monitored events that matched a threat pattern.",
		}),
	}
}

// ObserveOperation records one dispatched operation.
func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
