package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for transfer authorization.
type Metrics struct {
	// Evaluation outcomes: "authorized" or "denied"
	Evaluations *prometheus.CounterVec

	// Denials broken down by reason code
	Denials *prometheus.CounterVec

	// Full evaluation latency including collaborator calls
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crest_engine_evaluations_total",
			Help: "Total transfer evaluations by outcome",
		}, []string{"outcome"}),

		Denials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crest_engine_denials_total",
			Help: "Total transfer denials by reason",
		}, []string{"reason"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crest_engine_evaluate_duration_seconds",
			Help:    "Duration of full transfer evaluation including identity verification",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordOutcome records one evaluation result.
func (m *Metrics) RecordOutcome(authorized bool, reason string) {
	if m == nil {
		return
	}
	if authorized {
		m.Evaluations.WithLabelValues("authorized").Inc()
		return
	}
	m.Evaluations.WithLabelValues("denied").Inc()
	m.Denials.WithLabelValues(reason).Inc()
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
