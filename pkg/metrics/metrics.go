// Package metrics exposes Prometheus instruments for component executions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "omnitool"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics groups the runtime instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	executions     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	coercions      *prometheus.CounterVec
	scriptFailures *prometheus.CounterVec
	events         *prometheus.CounterVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "component_executions_total",
				Help:      "Component executions by component key and status.",
			},
			[]string{"component", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "component_execution_duration_seconds",
				Help:      "Wall time of a component execution pipeline.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component"},
		),
		coercions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "socket_coercions_total",
				Help:      "Values routed through a socket by socket name and direction.",
			},
			[]string{"socket", "direction"},
		),
		scriptFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "script_failures_total",
				Help:      "Failed script evaluations by pipeline stage.",
			},
			[]string{"stage"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Component events handed to the event bus.",
			},
			[]string{"type"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.executions, m.duration, m.coercions, m.scriptFailures, m.events)
	}

	return m
}

func (m *Metrics) ObserveExecution(component, status string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.executions.WithLabelValues(component, status).Inc()
	m.duration.WithLabelValues(component).Observe(elapsed.Seconds())
}

func (m *Metrics) CountCoercion(socket, direction string) {
	if m == nil {
		return
	}

	m.coercions.WithLabelValues(socket, direction).Inc()
}

func (m *Metrics) CountScriptFailure(stage string) {
	if m == nil {
		return
	}

	m.scriptFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) CountEvent(eventType string) {
	if m == nil {
		return
	}

	m.events.WithLabelValues(eventType).Inc()
}

// Handler serves the metrics gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
