package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects assistant counters on a private registry
type Metrics struct {
	registry        *prometheus.Registry
	turns           *prometheus.CounterVec
	turnDuration    prometheus.Histogram
	backendFailures *prometheus.CounterVec
	emails          *prometheus.CounterVec
	sessions        prometheus.Gauge
}

// New creates and registers the assistant metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_turns_total",
				Help: "Chat turns handled, by classified intent",
			},
			[]string{"intent"},
		),
		turnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assistant_turn_duration_seconds",
				Help:    "Time taken to handle a chat turn",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
			},
		),
		backendFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_backend_failures_total",
				Help: "Generative or retrieval backend calls that failed or returned too little",
			},
			[]string{"backend"},
		),
		emails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_emails_total",
				Help: "Emails attempted, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "assistant_sessions_active",
				Help: "Sessions currently held by the in-memory store",
			},
		),
	}

	registry.MustRegister(m.turns, m.turnDuration, m.backendFailures, m.emails, m.sessions)
	return m
}

func (m *Metrics) TurnClassified(intent string) {
	m.turns.WithLabelValues(intent).Inc()
}

func (m *Metrics) ObserveTurn(d time.Duration) {
	m.turnDuration.Observe(d.Seconds())
}

func (m *Metrics) BackendFailed(backend string) {
	m.backendFailures.WithLabelValues(backend).Inc()
}

func (m *Metrics) EmailSent(kind string, ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	m.emails.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SetSessions(n int) {
	m.sessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
