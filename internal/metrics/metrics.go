package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the business counters exposed on /metrics.
type Metrics struct {
	suggestions        *prometheus.CounterVec
	payments           *prometheus.CounterVec
	thresholdFallbacks prometheus.Counter
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopfloor_machine_suggestions_total",
			Help: "Machine recommendations produced, by machine role.",
		}, []string{"role"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopfloor_payments_recorded_total",
			Help: "Payments and refunds recorded, by resulting payment status.",
		}, []string{"status"}),
		thresholdFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopfloor_machine_threshold_fallbacks_total",
			Help: "Threshold fetches that failed and used the last known or default value.",
		}),
	}
	reg.MustRegister(m.suggestions, m.payments, m.thresholdFallbacks)
	return m
}

func (m *Metrics) MachineSuggested(role string) {
	m.suggestions.WithLabelValues(role).Inc()
}

func (m *Metrics) PaymentRecorded(status string) {
	m.payments.WithLabelValues(status).Inc()
}

func (m *Metrics) ThresholdFallback() {
	m.thresholdFallbacks.Inc()
}
