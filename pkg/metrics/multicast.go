package metrics

import "github.com/prometheus/client_golang/prometheus"

// initMulticastMetrics initializes multicast pool metrics.
func (m *Manager) initMulticastMetrics(cfg Config) {
	m.poolPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multicast_published_total",
			Help: "Total number of messages published to the pool",
		},
		[]string{"kind"},
	)

	m.poolDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multicast_delivered_total",
			Help: "Total number of message deliveries to subscriptions",
		},
		[]string{"kind"},
	)

	m.poolDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multicast_dropped_total",
			Help: "Total number of messages dropped by the pool or a bridge",
		},
		[]string{"kind", "reason"},
	)

	m.poolSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "multicast_subscriptions",
			Help: "Current number of active pool subscriptions",
		},
	)

	m.registry.MustRegister(m.poolPublished)
	m.registry.MustRegister(m.poolDelivered)
	m.registry.MustRegister(m.poolDropped)
	m.registry.MustRegister(m.poolSubscriptions)
}

// RecordPublished records a message published to the pool.
func (m *Manager) RecordPublished(payloadKind string) {
	if !m.enabled {
		return
	}
	m.poolPublished.WithLabelValues(payloadKind).Inc()
}

// RecordDelivered records a delivery to a single subscription.
func (m *Manager) RecordDelivered(payloadKind string) {
	if !m.enabled {
		return
	}
	m.poolDelivered.WithLabelValues(payloadKind).Inc()
}

// RecordDropped records a dropped message.
func (m *Manager) RecordDropped(payloadKind string, reason string) {
	if !m.enabled {
		return
	}
	m.poolDropped.WithLabelValues(payloadKind, reason).Inc()
}

// SetSubscriptions sets the active subscription count.
func (m *Manager) SetSubscriptions(n int) {
	if !m.enabled {
		return
	}
	m.poolSubscriptions.Set(float64(n))
}
