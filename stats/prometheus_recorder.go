package stats

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryangodara/client_rate_limiter"
)

var (
	_ client_rate_limiter.Recorder = &PrometheusRecorder{}
)

const (
	metricsLabelAlgorithm = "algorithm"
	metricsLabelOutcome   = "outcome"
)

// PrometheusRecorder counts admission decisions.
type PrometheusRecorder struct {
	Decisions      *prometheus.CounterVec
	TrackedClients prometheus.GaugeFunc
}

// NewPrometheusRecorder creates a recorder. clients reports how many clients the
// active limiter tracks; it may be nil.
func NewPrometheusRecorder(namespace string, clients func() int) *PrometheusRecorder {
	if clients == nil {
		clients = func() int { return 0 }
	}

	return &PrometheusRecorder{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Number of admission decisions by algorithm and outcome.",
		}, []string{metricsLabelAlgorithm, metricsLabelOutcome}),
		TrackedClients: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_clients",
			Help:      "Number of clients with limiter state. State is never evicted.",
		}, func() float64 { return float64(clients()) }),
	}
}

// Record increments the counter matching ev.
func (p *PrometheusRecorder) Record(_ context.Context, ev client_rate_limiter.Event) error {
	p.Decisions.With(prometheus.Labels{
		metricsLabelAlgorithm: string(ev.Algorithm),
		metricsLabelOutcome:   outcome(ev),
	}).Inc()
	return nil
}

// MustRegister does registration of the recorder's metrics in reg and panics if any error occurs.
func (p *PrometheusRecorder) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(p.Decisions, p.TrackedClients)
}

// Unregister cancels registration of the recorder's metrics in reg.
func (p *PrometheusRecorder) Unregister(reg prometheus.Registerer) {
	reg.Unregister(p.Decisions)
	reg.Unregister(p.TrackedClients)
}
