package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/braidbook/internal/interval"
	"github.com/wolfman30/braidbook/internal/observability/metrics"
	"github.com/wolfman30/braidbook/pkg/logging"
)

var availabilityTracer = otel.Tracer("braidbook.internal.availability")

// Service answers slot queries and read-only conflict checks against the
// live stores.
type Service struct {
	rules    RuleSource
	ledger   Ledger
	settings SettingsSource
	loc      *time.Location
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
	now      func() time.Time
}

// NewService constructs an availability service evaluating calendar days in loc.
func NewService(rules RuleSource, ledger Ledger, settings SettingsSource, loc *time.Location, logger *logging.Logger) *Service {
	if rules == nil || ledger == nil || settings == nil {
		panic("availability: rule source, ledger and settings source required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		rules:    rules,
		ledger:   ledger,
		settings: settings,
		loc:      loc,
		logger:   logger.Component("availability"),
		now:      time.Now,
	}
}

// WithMetrics attaches booking metrics.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// Location returns the business timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Day returns midnight in the business timezone for date's calendar date.
// Only the year, month and day of date are used.
func (s *Service) Day(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// GetAvailableSlots returns every candidate slot for the date, available or not,
// in chronological order. A weekday without active rules yields an empty slice.
func (s *Service) GetAvailableSlots(ctx context.Context, date time.Time, durationMinutes int) ([]Slot, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	ctx, span := availabilityTracer.Start(ctx, "availability.get_slots")
	defer span.End()
	day := s.Day(date)
	span.SetAttributes(
		attribute.String("braidbook.date", day.Format(time.DateOnly)),
		attribute.Int("braidbook.duration_minutes", durationMinutes),
	)

	started := time.Now()
	slots, err := s.generate(ctx, day, time.Duration(durationMinutes)*time.Minute)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSlotQuery(metrics.OutcomeError, elapsed, 0)
		return nil, err
	}
	s.metrics.ObserveSlotQuery(metrics.OutcomeSuccess, elapsed, len(slots))
	s.logger.Debug("slots generated", "date", day.Format(time.DateOnly), "duration_minutes", durationMinutes, "count", len(slots))
	return slots, nil
}

// GetOfferableSlots is GetAvailableSlots with the client booking window
// applied: slots inside the minimum lead time or past the maximum advance
// are reported unavailable.
func (s *Service) GetOfferableSlots(ctx context.Context, date time.Time, durationMinutes int) ([]Slot, error) {
	slots, err := s.GetAvailableSlots(ctx, date, durationMinutes)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.BookingSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: load settings: %w", err)
	}
	now := s.now()
	for i := range slots {
		if slots[i].Available && !cfg.WithinBookingWindow(now, slots[i].Start) {
			slots[i].Available = false
		}
	}
	return slots, nil
}

func (s *Service) generate(ctx context.Context, day time.Time, duration time.Duration) ([]Slot, error) {
	rules, err := s.rules.ListActiveRules(ctx, day.Weekday())
	if err != nil {
		return nil, fmt.Errorf("availability: load rules: %w", err)
	}
	rules = s.usableRules(day, rules)
	if len(rules) == 0 {
		return []Slot{}, nil
	}

	cfg, err := s.settings.BookingSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: load settings: %w", err)
	}

	dayRange := interval.Interval{Start: day, End: day.AddDate(0, 0, 1)}
	// Widen by the buffer so a booking ending right before midnight still
	// pushes its buffer into this day.
	busy, err := s.ledger.ListAppointmentsOverlapping(ctx, interval.Interval{
		Start: dayRange.Start.Add(-cfg.buffer()),
		End:   dayRange.End,
	})
	if err != nil {
		return nil, fmt.Errorf("availability: load appointments: %w", err)
	}
	blocks, err := s.ledger.ListBlocksOverlapping(ctx, dayRange)
	if err != nil {
		return nil, fmt.Errorf("availability: load blocks: %w", err)
	}

	return GenerateSlots(day, duration, rules, busy, blocks, cfg), nil
}

// usableRules drops rules whose stored clock strings no longer parse.
func (s *Service) usableRules(day time.Time, rules []Rule) []Rule {
	out := rules[:0:0]
	for _, r := range rules {
		if _, err := r.Window(day); err != nil {
			s.logger.Warn("skipping malformed availability rule",
				"rule_id", r.ID,
				"start_time", r.StartTime,
				"end_time", r.EndTime,
				"error", err,
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

// IsSlotAvailable re-queries the ledger for [start, end). exclude, when not
// uuid.Nil, is the appointment being moved. This read-only form cannot
// guarantee the slot stays free; writes go through the appointments
// reservation, which runs the same check under mutual exclusion.
func (s *Service) IsSlotAvailable(ctx context.Context, start, end time.Time, exclude uuid.UUID) (bool, error) {
	if !end.After(start) {
		return false, interval.ErrInvalidInterval
	}
	ctx, span := availabilityTracer.Start(ctx, "availability.is_slot_available")
	defer span.End()

	err := CheckSlot(ctx, s.ledger, start, end, exclude)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSlotUnavailable):
		return false, nil
	default:
		span.RecordError(err)
		return false, err
	}
}
