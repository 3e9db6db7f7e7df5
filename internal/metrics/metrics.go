package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mudsync"

// Cache lookup outcomes.
const (
	Hit   = "hit"
	Miss  = "miss"
	Error = "error"
)

// Metrics holds the server's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups    *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	broadcastsTotal *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	outboundDropped prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Fast cache lookups by entity kind and result",
		}, []string{"kind", "result"}),

		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands processed by command name and outcome",
		}, []string{"command", "outcome"}),

		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command processing duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),

		broadcastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Events published to room channels by event type",
		}, []string{"event"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Connections currently bound to a player",
		}),

		outboundDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_dropped_total",
			Help:      "Events dropped because a connection's outbound queue was full",
		}),
	}
}

func (m *Metrics) CacheLookup(kind, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Command(name, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(name, outcome).Inc()
	m.commandDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) Broadcast(event string) {
	if m == nil {
		return
	}
	m.broadcastsTotal.WithLabelValues(event).Inc()
}

// SessionBound adjusts the active session gauge by delta.
func (m *Metrics) SessionBound(delta int) {
	if m == nil {
		return
	}
	m.activeSessions.Add(float64(delta))
}

func (m *Metrics) OutboundDropped() {
	if m == nil {
		return
	}
	m.outboundDropped.Inc()
}
