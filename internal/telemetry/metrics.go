package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes reported by the skill endpoint
const (
	OutcomeInvalid  = "invalid"
	OutcomeWelcome  = "welcome"
	OutcomeFarewell = "farewell"
	OutcomeReply    = "reply"
	OutcomeCached   = "cached"
	OutcomeApology  = "apology"
)

// Metrics holds the Prometheus collectors served on /metrics
type Metrics struct {
	registry *prometheus.Registry

	Requests     *prometheus.CounterVec
	SweepRemoved prometheus.Counter
}

// NewMetrics creates collectors on a private registry labelled with the variant
func NewMetrics(variant string) *Metrics {
	labels := prometheus.Labels{"variant": variant}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "alicebridge_requests_total",
				Help:        "Skill requests by outcome",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		SweepRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "alicebridge_sweep_removed_total",
			Help:        "Entries removed by the idle sweep",
			ConstLabels: labels,
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.SweepRemoved,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterSessionGauge exposes the live session count through fn
func (m *Metrics) RegisterSessionGauge(variant string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "alicebridge_sessions",
		Help:        "Sessions currently held",
		ConstLabels: prometheus.Labels{"variant": variant},
	}, fn))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
