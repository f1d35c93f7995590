package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wisfind_messages_received_total",
			Help: "Total number of raw payloads received from the broker (count)",
		},
	)

	MessagesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisfind_messages_rejected_total",
			Help: "Total number of payloads rejected before filtering, by reason",
		},
		[]string{"reason"},
	)

	MessagesFilteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wisfind_messages_filtered_total",
			Help: "Total number of valid messages that did not meet the user constraints (count)",
		},
	)

	MessagesMatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wisfind_messages_matched_total",
			Help: "Total number of messages that met the user constraints (count)",
		},
	)

	ActionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wisfind_action_duration_ms",
			Help:    "Action execution duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	ReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wisfind_broker_reconnects_total",
			Help: "Total number of reconnect attempts against the broker (count)",
		},
	)

	BrokerConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wisfind_broker_connected",
			Help: "Whether a broker session is currently established (1 or 0)",
		},
	)
)

func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		MessagesReceivedTotal,
		MessagesRejectedTotal,
		MessagesFilteredTotal,
		MessagesMatchedTotal,
		ActionDuration,
	)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(
		ReconnectsTotal,
		BrokerConnected,
	)
}

func ObserveActionDuration(d time.Duration) {
	ActionDuration.Observe(float64(d.Milliseconds()))
}
