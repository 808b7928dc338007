package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveConnections tracks live WebSocket connections per channel kind
	// ("user" or "project").
	ActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "collabtask",
			Name:      "realtime_active_connections",
			Help:      "Live WebSocket connections by channel kind",
		},
		[]string{"channel"},
	)

	// MessagesSent counts realtime messages pushed to clients.
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collabtask",
			Name:      "realtime_messages_sent_total",
			Help:      "Realtime messages delivered, by message type",
		},
		[]string{"type"},
	)

	// SendFailures counts sends dropped because a handle was closed, its
	// queue was full, or the write deadline expired.
	SendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "collabtask",
			Name:      "realtime_send_failures_total",
			Help:      "Realtime sends dropped or failed",
		},
	)
)

// RegisterRealtimeMetrics registers the realtime collectors. Called once
// from the composition root; no init() registration.
func RegisterRealtimeMetrics() {
	prometheus.MustRegister(ActiveConnections, MessagesSent, SendFailures)
}
