package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the services export on /metrics.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// gRPC
	RPCRequestsTotal *prometheus.CounterVec

	// Toggles
	ToggleOutcomes      *prometheus.CounterVec
	ToggleDuration      *prometheus.HistogramVec
	CompensationDrift   *prometheus.CounterVec
	CompensationRetries *prometheus.CounterVec

	// Loader
	CollectionLoads *prometheus.CounterVec

	// Notifications
	NotificationsDispatched *prometheus.CounterVec
	NotificationsDropped    prometheus.Counter

	// Uploads
	UploadBytes *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all collectors. Safe to call more than once.
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			RPCRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rpc_requests_total",
					Help: "Total number of platform RPCs by method and status code",
				},
				[]string{"method", "code"},
			),
			ToggleOutcomes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toggle_outcomes_total",
					Help: "Toggle reconciliations by relation and outcome",
				},
				[]string{"relation", "outcome"},
			),
			ToggleDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "toggle_duration_seconds",
					Help:    "Time from toggle start to settled state",
					Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
				[]string{"relation"},
			),
			CompensationDrift: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toggle_compensation_drift_total",
					Help: "Membership writes whose compensation failed after all retries",
				},
				[]string{"relation"},
			),
			CompensationRetries: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "toggle_compensation_attempts_total",
					Help: "Compensation attempts after a failed counter adjustment",
				},
				[]string{"relation", "status"},
			),
			CollectionLoads: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "collection_loads_total",
					Help: "Item collection loads by scope and status",
				},
				[]string{"scope", "status"},
			),
			NotificationsDispatched: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_dispatched_total",
					Help: "Notification deliveries by observer and status",
				},
				[]string{"observer", "status"},
			),
			NotificationsDropped: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "notifications_dropped_total",
					Help: "Notifications dropped because the event channel was full",
				},
			),
			UploadBytes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upload_bytes_total",
					Help: "Bytes streamed into media storage",
				},
				[]string{"kind"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance, initializing it on first use.
func Get() *Metrics {
	return Initialize()
}
