package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcomes recorded by ObserveBooking.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// BookingMetrics exposes counters/histograms for availability and booking flows.
type BookingMetrics struct {
	slotQueries     *prometheus.CounterVec
	slotQueryTime   prometheus.Histogram
	slotsGenerated  prometheus.Histogram
	bookingAttempts *prometheus.CounterVec
	feesCharged     *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "braidbook",
			Subsystem: "availability",
			Name:      "slot_queries_total",
			Help:      "Total slot generation requests",
		}, []string{"status"}),
		slotQueryTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "braidbook",
			Subsystem: "availability",
			Name:      "slot_query_seconds",
			Help:      "Latency of slot generation including store reads",
			Buckets:   prometheus.DefBuckets,
		}),
		slotsGenerated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "braidbook",
			Subsystem: "availability",
			Name:      "slots_per_query",
			Help:      "Number of candidate slots returned per query",
			Buckets:   []float64{0, 4, 8, 16, 24, 32, 48},
		}),
		bookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "braidbook",
			Subsystem: "appointments",
			Name:      "write_attempts_total",
			Help:      "Booking and reschedule attempts by outcome",
		}, []string{"operation", "outcome"}),
		feesCharged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "braidbook",
			Subsystem: "appointments",
			Name:      "fees_cents_total",
			Help:      "Cancellation and reschedule fees assessed, in cents",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotQueries, m.slotQueryTime, m.slotsGenerated, m.bookingAttempts, m.feesCharged)
	return m
}

func (m *BookingMetrics) ObserveSlotQuery(status string, seconds float64, slots int) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(status).Inc()
	m.slotQueryTime.Observe(seconds)
	if status == OutcomeSuccess {
		m.slotsGenerated.Observe(float64(slots))
	}
}

func (m *BookingMetrics) ObserveBooking(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *BookingMetrics) ObserveFee(kind string, cents int64) {
	if m == nil || cents <= 0 {
		return
	}
	m.feesCharged.WithLabelValues(kind).Add(float64(cents))
}
