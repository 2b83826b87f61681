package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	GuardrailDecisions *prometheus.CounterVec
	EventsIngested     *prometheus.CounterVec
	CostIngested       *prometheus.CounterVec
	SpikesDetected     prometheus.Counter
	SimulationsTotal   prometheus.Counter
	DailySpend         prometheus.Gauge
	SpendVelocity      prometheus.Gauge
}

// NewMetrics registers every collector on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		GuardrailDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardrail_decisions_total",
				Help: "Guardrail evaluations by verdict and cost pressure",
			},
			[]string{"status", "cost_pressure"},
		),
		EventsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execution_events_ingested_total",
				Help: "Execution events stored, by model",
			},
			[]string{"model"},
		),
		CostIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execution_cost_ingested_total",
				Help: "Sum of execution_cost_total of stored events in USD, by model",
			},
			[]string{"model"},
		),
		SpikesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "cost_summary_spike_detected_total",
			Help: "Cost summaries that flagged a daily spike",
		}),
		SimulationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "simulations_total",
			Help: "Workflow cost simulations served",
		}),
		DailySpend: factory.NewGauge(prometheus.GaugeOpts{
			Name: "daily_spend_usd",
			Help: "Spend since UTC midnight at the last snapshot",
		}),
		SpendVelocity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spend_velocity_usd_per_hour",
			Help: "Daily spend divided by hours elapsed at the last snapshot",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordGuardrailDecision counts one guardrail verdict.
func (m *Metrics) RecordGuardrailDecision(status, pressure string) {
	if m == nil {
		return
	}
	m.GuardrailDecisions.WithLabelValues(status, pressure).Inc()
}

// RecordEvent counts an ingested execution event and its cost.
func (m *Metrics) RecordEvent(model string, cost float64) {
	if m == nil {
		return
	}
	m.EventsIngested.WithLabelValues(model).Inc()
	m.CostIngested.WithLabelValues(model).Add(cost)
}

func (m *Metrics) RecordSpike() {
	if m == nil {
		return
	}
	m.SpikesDetected.Inc()
}

func (m *Metrics) RecordSimulation() {
	if m == nil {
		return
	}
	m.SimulationsTotal.Inc()
}

// SetSpendSnapshot publishes the latest daily spend and velocity.
func (m *Metrics) SetSpendSnapshot(dailySpend, velocity float64) {
	if m == nil {
		return
	}
	m.DailySpend.Set(dailySpend)
	m.SpendVelocity.Set(velocity)
}
