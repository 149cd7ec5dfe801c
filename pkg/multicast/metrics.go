package multicast

import "sync"

// MetricsRecorder defines metrics hooks for pool operations.
type MetricsRecorder interface {
	RecordPublished(payloadKind string)
	RecordDelivered(payloadKind string)
	RecordDropped(payloadKind string, reason string)
	SetSubscriptions(n int)
}

type nopMetrics struct{}

func (n *nopMetrics) RecordPublished(payloadKind string)              {}
func (n *nopMetrics) RecordDelivered(payloadKind string)              {}
func (n *nopMetrics) RecordDropped(payloadKind string, reason string) {}
func (n *nopMetrics) SetSubscriptions(count int)                      {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = &nopMetrics{}
)

// SetMetricsRecorder sets the package-level pool metrics recorder.
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
