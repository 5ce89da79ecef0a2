package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.MachineSuggested("small_order")
	m.MachineSuggested("small_order")
	m.PaymentRecorded("paid")
	m.ThresholdFallback()

	if got := testutil.ToFloat64(m.suggestions.WithLabelValues("small_order")); got != 2 {
		t.Fatalf("suggestions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.payments.WithLabelValues("paid")); got != 1 {
		t.Fatalf("payments = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.thresholdFallbacks); got != 1 {
		t.Fatalf("fallbacks = %v, want 1", got)
	}
}
