package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestBookingMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("book", OutcomeSuccess)
	m.ObserveBooking("book", OutcomeConflict)
	m.ObserveBooking("book", OutcomeConflict)
	m.ObserveFee("cancellation", 10000)
	m.ObserveFee("reschedule", 0)
	m.ObserveSlotQuery(OutcomeSuccess, 0.01, 12)

	if got := counterValue(t, m.bookingAttempts.WithLabelValues("book", OutcomeConflict)); got != 2 {
		t.Fatalf("expected 2 conflicts, got %v", got)
	}
	if got := counterValue(t, m.feesCharged.WithLabelValues("cancellation")); got != 10000 {
		t.Fatalf("expected fee total 10000, got %v", got)
	}
	if got := counterValue(t, m.slotQueries.WithLabelValues(OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 slot query, got %v", got)
	}
}

func TestBookingMetricsDefaultRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = reg
	defer func() { prometheus.DefaultRegisterer = prev }()

	m := NewBookingMetrics(nil)
	m.ObserveBooking("reschedule", OutcomeSuccess)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveSlotQuery(OutcomeError, 0.1, 0)
	m.ObserveBooking("book", OutcomeError)
	m.ObserveFee("reschedule", 3000)
}
