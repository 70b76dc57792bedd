package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assuan",
			Subsystem: "session",
			Name:      "sessions_total",
			Help:      "Sessions opened, by terminal outcome.",
		},
		[]string{"agent", "outcome"},
	)
	sessionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "assuan",
			Subsystem: "session",
			Name:      "sessions_active",
			Help:      "Sessions currently being served.",
		},
		[]string{"agent"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assuan",
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "Commands dispatched, by name and outcome.",
		},
		[]string{"agent", "command", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assuan",
			Subsystem: "session",
			Name:      "command_duration_seconds",
			Help:      "Command dispatch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"agent", "command"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(sessionsTotal, sessionsActive, commandsTotal, commandDuration)
	})
}

func SessionStarted(agent string) {
	RegisterMetrics()
	sessionsActive.WithLabelValues(agent).Inc()
}

func SessionClosed(agent, outcome string) {
	RegisterMetrics()
	sessionsActive.WithLabelValues(agent).Dec()
	sessionsTotal.WithLabelValues(agent, outcome).Inc()
}

func RecordCommand(agent, command, outcome string, duration time.Duration) {
	RegisterMetrics()
	commandsTotal.WithLabelValues(agent, command, outcome).Inc()
	commandDuration.WithLabelValues(agent, command).Observe(duration.Seconds())
}
