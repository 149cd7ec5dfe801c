// Package metrics provides Prometheus metrics instrumentation for scriptd.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for scriptd. It implements the
// recorder interfaces of pkg/multicast and pkg/script.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	// Multicast pool metrics
	poolPublished     *prometheus.CounterVec
	poolDelivered     *prometheus.CounterVec
	poolDropped       *prometheus.CounterVec
	poolSubscriptions prometheus.Gauge

	// Script thread metrics
	scriptRuns        *prometheus.CounterVec
	scriptRunDuration *prometheus.HistogramVec
	monitorMessages   *prometheus.CounterVec

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Path    string

	RunDurationBuckets  []float64
	HTTPDurationBuckets []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		Path:                "/metrics",
		RunDurationBuckets:  []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		HTTPDurationBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}

	m.initMulticastMetrics(cfg)
	m.initScriptMetrics(cfg)
	m.initHTTPMetrics(cfg)

	return m
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
