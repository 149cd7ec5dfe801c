package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initScriptMetrics initializes script thread metrics.
func (m *Manager) initScriptMetrics(cfg Config) {
	m.scriptRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_runs_total",
			Help: "Total number of script runs by outcome",
		},
		[]string{"reason"},
	)

	m.scriptRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "script_run_duration_seconds",
			Help:    "Script run duration in seconds",
			Buckets: cfg.RunDurationBuckets,
		},
		[]string{"reason"},
	)

	m.monitorMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_monitor_messages_total",
			Help: "Total number of monitor deliveries by status",
		},
		[]string{"status"},
	)

	m.registry.MustRegister(m.scriptRuns)
	m.registry.MustRegister(m.scriptRunDuration)
	m.registry.MustRegister(m.monitorMessages)
}

// RecordRun records a completed script run.
func (m *Manager) RecordRun(reason string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.scriptRuns.WithLabelValues(reason).Inc()
	m.scriptRunDuration.WithLabelValues(reason).Observe(duration.Seconds())
}

// RecordMonitorMessage records a monitor delivery outcome.
func (m *Manager) RecordMonitorMessage(status string) {
	if !m.enabled {
		return
	}
	m.monitorMessages.WithLabelValues(status).Inc()
}
