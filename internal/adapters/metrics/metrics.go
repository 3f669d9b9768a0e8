// Package metrics exposes call and signaling counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkeye/Messenger/internal/app"
)

const namespace = "messenger"

// Metrics implements app.Observer on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	calls          *prometheus.CounterVec
	signalWrites   *prometheus.CounterVec
	sessionsReaped prometheus.Counter
	activeSessions prometheus.Gauge
}

var _ app.Observer = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_events_total",
			Help:      "Call lifecycle transitions by event.",
		}, []string{"event"}),
		signalWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_writes_total",
			Help:      "Signaling payloads stored by kind.",
		}, []string{"kind"}),
		sessionsReaped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_sessions_reaped_total",
			Help:      "Idle signaling sessions evicted by the reaper.",
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signal_sessions_active",
			Help:      "Signaling sessions currently held in memory.",
		}),
	}
}

func (m *Metrics) CallInitiated()          { m.calls.WithLabelValues("initiated").Inc() }
func (m *Metrics) CallAccepted()           { m.calls.WithLabelValues("accepted").Inc() }
func (m *Metrics) CallEnded()              { m.calls.WithLabelValues("ended").Inc() }
func (m *Metrics) CallsExpired(n int)      { m.calls.WithLabelValues("expired").Add(float64(n)) }
func (m *Metrics) SignalWrite(kind string) { m.signalWrites.WithLabelValues(kind).Inc() }
func (m *Metrics) SessionsReaped(n int)    { m.sessionsReaped.Add(float64(n)) }
func (m *Metrics) ActiveSessions(n int)    { m.activeSessions.Set(float64(n)) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
