package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
type Metrics struct {
	ValidationFailures   *prometheus.CounterVec
	SessionsScheduled    prometheus.Counter
	SessionsStarted      prometheus.Counter
	SessionsCompleted    prometheus.Counter
	SessionsActive       prometheus.Gauge
	TransitionViolations prometheus.Counter
	MeasurementsRecorded prometheus.Counter
	AuditEventsDropped   prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atsnet_validation_failures_total",
			Help: "Total number of document validation failures by collection",
		}, []string{"collection"}),
		SessionsScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atsnet_sessions_scheduled_total",
			Help: "Total number of test sessions scheduled",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atsnet_sessions_started_total",
			Help: "Total number of test sessions started",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atsnet_sessions_completed_total",
			Help: "Total number of test sessions completed",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "atsnet_sessions_active",
			Help: "Current number of in-progress test sessions",
		}),
		TransitionViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atsnet_transition_violations_total",
			Help: "Total number of rejected session status transitions",
		}),
		MeasurementsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atsnet_measurements_recorded_total",
			Help: "Total number of measurements recorded across sessions",
		}),
		AuditEventsDropped: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "atsnet_audit_events_dropped",
			Help: "Audit events dropped because the publisher buffer was full",
		}),
	}
}

// IncrementValidationFailures counts one rejected document for a collection.
func (m *Metrics) IncrementValidationFailures(collection string) {
	m.ValidationFailures.WithLabelValues(collection).Inc()
}
