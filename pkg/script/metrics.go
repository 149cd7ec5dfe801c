package script

import (
	"sync"
	"time"
)

// MetricsRecorder defines metrics hooks for script-thread operations.
type MetricsRecorder interface {
	RecordRun(reason string, duration time.Duration)
	RecordMonitorMessage(status string)
}

type nopMetrics struct{}

func (n *nopMetrics) RecordRun(reason string, duration time.Duration) {}
func (n *nopMetrics) RecordMonitorMessage(status string)              {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = &nopMetrics{}
)

// SetMetricsRecorder sets the package-level script metrics recorder.
func SetMetricsRecorder(recorder MetricsRecorder) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if recorder == nil {
		metrics = &nopMetrics{}
		return
	}
	metrics = recorder
}

func metricsRecorder() MetricsRecorder {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return metrics
}
