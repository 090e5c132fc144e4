// Package metrics holds the Prometheus collectors for bootstrap and
// connection lifecycle events.
//
// Collectors live on a dedicated registry rather than the global default so
// tests and multiple bootstraps in one process never collide. All recording
// methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formdb"

// Connect attempt results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Connection lifecycle event labels.
const (
	EventOpen  = "open"
	EventError = "error"
	EventClose = "close"
)

// Seed sources.
const (
	SourceInit = "init"
	SourceDev  = "dev"
)

// Metrics is the set of formdb collectors.
type Metrics struct {
	registry *prometheus.Registry

	// connectAttempts counts connection attempts.
	// Labels: result (success, failure)
	connectAttempts *prometheus.CounterVec

	// connectionEvents counts lifecycle events after connect.
	// Labels: event (open, error, close)
	connectionEvents *prometheus.CounterVec

	readPrefDowngrades prometheus.Counter

	// agenciesSeeded counts inserted agency records.
	// Labels: source (init, dev)
	agenciesSeeded *prometheus.CounterVec

	ephemeralStarts   prometheus.Counter
	bootstrapDuration prometheus.Histogram
}

// New registers every collector on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		connectAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Database connection attempts by result",
		}, []string{"result"}),
		connectionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_events_total",
			Help:      "Connection lifecycle events observed after connect",
		}, []string{"event"}),
		readPrefDowngrades: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readpref_downgrades_total",
			Help:      "Models downgraded from secondary to secondaryPreferred",
		}),
		agenciesSeeded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agencies_seeded_total",
			Help:      "Agency records inserted during bootstrap by source",
		}, []string{"source"}),
		ephemeralStarts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ephemeral_starts_total",
			Help:      "In-memory mongod instances started",
		}),
		bootstrapDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bootstrap_duration_seconds",
			Help:      "Time from bootstrap start to a ready connection",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ConnectAttempt records one connection attempt.
func (m *Metrics) ConnectAttempt(err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.connectAttempts.WithLabelValues(result).Inc()
}

// ConnectionEvent records a lifecycle event.
func (m *Metrics) ConnectionEvent(event string) {
	if m == nil {
		return
	}
	m.connectionEvents.WithLabelValues(event).Inc()
}

// ReadPrefDowngrades records n repaired models.
func (m *Metrics) ReadPrefDowngrades(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.readPrefDowngrades.Add(float64(n))
}

// AgenciesSeeded records n inserted agencies from source.
func (m *Metrics) AgenciesSeeded(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.agenciesSeeded.WithLabelValues(source).Add(float64(n))
}

// EphemeralStart records a launched in-memory instance.
func (m *Metrics) EphemeralStart() {
	if m == nil {
		return
	}
	m.ephemeralStarts.Inc()
}

// ObserveBootstrap records how long a bootstrap took.
func (m *Metrics) ObserveBootstrap(d time.Duration) {
	if m == nil {
		return
	}
	m.bootstrapDuration.Observe(d.Seconds())
}
