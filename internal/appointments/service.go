package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/catalog"
	"github.com/wolfman30/braidbook/internal/clients"
	"github.com/wolfman30/braidbook/internal/events"
	"github.com/wolfman30/braidbook/internal/interval"
	"github.com/wolfman30/braidbook/internal/observability/metrics"
	"github.com/wolfman30/braidbook/internal/policy"
	"github.com/wolfman30/braidbook/internal/settings"
	"github.com/wolfman30/braidbook/pkg/logging"
)

var appointmentsTracer = otel.Tracer("braidbook.internal.appointments")

const maxTokenAttempts = 3

// Source identifies who is creating a booking.
type Source string

const (
	SourceClient Source = "client"
	SourceAdmin  Source = "admin"
)

// VariantLookup resolves a service variant's duration and price.
type VariantLookup interface {
	GetVariant(ctx context.Context, serviceID, variantID uuid.UUID) (catalog.Variant, error)
}

// ClientDirectory finds or creates clients by phone.
type ClientDirectory interface {
	UpsertByPhone(ctx context.Context, contact clients.Contact, now time.Time) (clients.Client, error)
}

// SettingsSource returns the booking settings and fee policy current at call time.
type SettingsSource interface {
	Booking(ctx context.Context) (settings.Booking, error)
	FeePolicy(ctx context.Context) (policy.FeePolicy, error)
}

// BookRequest describes a new appointment.
type BookRequest struct {
	ServiceID uuid.UUID
	VariantID uuid.UUID
	Start     time.Time
	Client    clients.Contact
	Notes     string
	Source    Source

	// Admin-only overrides; ignored for client bookings.
	DurationMinutes int
	PriceCents      *int64
	Status          Status
	InternalNotes   string
}

func (r BookRequest) validate() error {
	if r.Source != SourceClient && r.Source != SourceAdmin {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidRequest, r.Source)
	}
	var missing []string
	if r.ServiceID == uuid.Nil {
		missing = append(missing, "serviceId")
	}
	if r.VariantID == uuid.Nil {
		missing = append(missing, "variantId")
	}
	if r.Start.IsZero() {
		missing = append(missing, "scheduledStart")
	}
	if strings.TrimSpace(r.Client.Name) == "" {
		missing = append(missing, "clientName")
	}
	if clients.NormalizePhone(r.Client.Phone) == "" {
		missing = append(missing, "clientPhone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if r.Source == SourceClient && !r.Client.LGPDConsent {
		return fmt.Errorf("%w: LGPD consent is required", ErrInvalidRequest)
	}
	if r.Source == SourceAdmin {
		if r.DurationMinutes < 0 {
			return fmt.Errorf("%w: duration must be positive", ErrInvalidRequest)
		}
		if r.PriceCents != nil && *r.PriceCents < 0 {
			return fmt.Errorf("%w: price must not be negative", ErrInvalidRequest)
		}
		if r.Status != "" && r.Status != StatusPending && r.Status != StatusConfirmed {
			return fmt.Errorf("%w: new appointments start as pending or confirmed", ErrInvalidRequest)
		}
	}
	return nil
}

// ChangeResult is returned by client reschedule and cancel.
type ChangeResult struct {
	Appointment Appointment
	FeeCents    int64
}

// AdminPatch is a partial update; nil fields are left unchanged.
type AdminPatch struct {
	Status             *Status
	PaymentStatus      *PaymentStatus
	Notes              *string
	InternalNotes      *string
	CancellationReason *string
	ScheduledStart     *time.Time
	ScheduledEnd       *time.Time
}

// Service implements the appointment lifecycle.
type Service struct {
	repo     Repository
	catalog  VariantLookup
	clients  ClientDirectory
	settings SettingsSource
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
	now      func() time.Time
}

// NewService wires the lifecycle service.
func NewService(repo Repository, variants VariantLookup, directory ClientDirectory, src SettingsSource, logger *logging.Logger) *Service {
	if repo == nil || variants == nil || directory == nil || src == nil {
		panic("appointments: repository, catalog, clients and settings required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		catalog:  variants,
		clients:  directory,
		settings: src,
		logger:   logger.Component("appointments"),
		now:      time.Now,
	}
}

// WithMetrics attaches booking metrics.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// Book creates an appointment after re-checking the slot inside a reservation.
func (s *Service) Book(ctx context.Context, req BookRequest) (Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()
	if req.Source == "" {
		req.Source = SourceClient
	}
	span.SetAttributes(attribute.String("braidbook.source", string(req.Source)))

	appt, err := s.book(ctx, req)
	s.observe(span, "book", err)
	if err != nil {
		return Appointment{}, err
	}
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"client_id", appt.ClientID,
		"start", appt.ScheduledStart,
		"end", appt.ScheduledEnd,
		"source", req.Source,
	)
	return appt, nil
}

func (s *Service) book(ctx context.Context, req BookRequest) (Appointment, error) {
	if err := req.validate(); err != nil {
		return Appointment{}, err
	}

	variant, err := s.catalog.GetVariant(ctx, req.ServiceID, req.VariantID)
	if errors.Is(err, catalog.ErrNotFound) {
		return Appointment{}, ErrVariantNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: load variant: %w", err)
	}

	duration := time.Duration(variant.DurationMinutes) * time.Minute
	price := variant.PriceCents
	status := StatusPending
	if req.Source == SourceAdmin {
		if req.DurationMinutes > 0 {
			duration = time.Duration(req.DurationMinutes) * time.Minute
		}
		if req.PriceCents != nil {
			price = *req.PriceCents
		}
		if req.Status != "" {
			status = req.Status
		}
	}
	slot, err := interval.New(req.Start, req.Start.Add(duration))
	if err != nil {
		return Appointment{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	doc, err := s.settings.Booking(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: load settings: %w", err)
	}
	now := s.now()
	if req.Source == SourceClient {
		if !doc.Settings().WithinBookingWindow(now, slot.Start) {
			return Appointment{}, ErrOutsideBookingWindow
		}
		if doc.AutoConfirm {
			status = StatusConfirmed
		}
	}

	client, err := s.clients.UpsertByPhone(ctx, req.Client, now)
	if err != nil {
		if errors.Is(err, clients.ErrInvalidClient) {
			return Appointment{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return Appointment{}, fmt.Errorf("appointments: upsert client: %w", err)
	}

	appt := Appointment{
		ClientID:       client.ID,
		ServiceID:      req.ServiceID,
		VariantID:      req.VariantID,
		ScheduledStart: slot.Start,
		ScheduledEnd:   slot.End,
		Status:         StatusPending,
		PriceCents:     price,
		PaymentStatus:  PaymentPending,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Source == SourceAdmin {
		appt.InternalNotes = strings.TrimSpace(req.InternalNotes)
	}
	if status != StatusPending {
		if err := appt.SetStatus(status, now); err != nil {
			return Appointment{}, err
		}
	}

	err = s.repo.Reserve(ctx, func(ctx context.Context, tx Tx) error {
		if err := availability.CheckSlot(ctx, tx, slot.Start, slot.End, uuid.Nil); err != nil {
			return err
		}
		if err := insertWithFreshToken(ctx, tx, &appt); err != nil {
			return err
		}
		return emit(ctx, tx, events.TypeAppointmentBooked, appt, func(ev *events.AppointmentEventV1) {
			ev.ManageToken = appt.ManagementToken
		})
	})
	if err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

func insertWithFreshToken(ctx context.Context, tx Tx, appt *Appointment) error {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := NewManagementToken()
		if err != nil {
			return err
		}
		appt.ManagementToken = token
		err = tx.Insert(ctx, appt)
		if !errors.Is(err, ErrDuplicateToken) {
			return err
		}
	}
	return fmt.Errorf("appointments: insert: %w", ErrDuplicateToken)
}

// Get returns an appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return s.repo.Get(ctx, id)
}

// GetByToken returns the appointment a management link points to.
func (s *Service) GetByToken(ctx context.Context, token string) (Appointment, error) {
	if strings.TrimSpace(token) == "" {
		return Appointment{}, ErrNotFound
	}
	return s.repo.GetByToken(ctx, token)
}

// ListBetween returns the agenda for [from, to).
func (s *Service) ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidRequest)
	}
	return s.repo.ListBetween(ctx, from, to)
}

// Delete removes an appointment outright (admin only).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

// RescheduleByToken moves the appointment behind token to start, keeping the
// stored duration. A non-zero end must equal start plus that duration; only
// AdminUpdate changes how long an appointment lasts. The reschedule fee is
// assessed against the original start.
func (s *Service) RescheduleByToken(ctx context.Context, token string, start, end time.Time) (ChangeResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.reschedule")
	defer span.End()

	result, err := s.rescheduleByToken(ctx, token, start, end)
	s.observe(span, "reschedule", err)
	if err != nil {
		return ChangeResult{}, err
	}
	s.metrics.ObserveFee("reschedule", result.FeeCents)
	s.logger.Info("appointment rescheduled",
		"appointment_id", result.Appointment.ID,
		"start", result.Appointment.ScheduledStart,
		"fee_cents", result.FeeCents,
	)
	return result, nil
}

func (s *Service) rescheduleByToken(ctx context.Context, token string, start, end time.Time) (ChangeResult, error) {
	if strings.TrimSpace(token) == "" {
		return ChangeResult{}, ErrNotFound
	}
	if start.IsZero() {
		return ChangeResult{}, fmt.Errorf("%w: missing scheduledStart", ErrInvalidRequest)
	}
	if !end.IsZero() && !end.After(start) {
		return ChangeResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, interval.ErrInvalidInterval)
	}

	doc, err := s.settings.Booking(ctx)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("appointments: load settings: %w", err)
	}
	fees, err := s.settings.FeePolicy(ctx)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("appointments: load fee policy: %w", err)
	}
	now := s.now()
	if !doc.Settings().WithinBookingWindow(now, start) {
		return ChangeResult{}, ErrOutsideBookingWindow
	}

	var result ChangeResult
	err = s.repo.Reserve(ctx, func(ctx context.Context, tx Tx) error {
		appt, err := tx.GetByToken(ctx, token)
		if err != nil {
			return err
		}
		switch appt.Status {
		case StatusCancelled:
			return ErrAlreadyCancelled
		case StatusCompleted, StatusNoShow, StatusInProgress:
			return fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, appt.Status)
		}

		newEnd := start.Add(appt.ScheduledEnd.Sub(appt.ScheduledStart))
		if !end.IsZero() && !end.Equal(newEnd) {
			return fmt.Errorf("%w: scheduledEnd must keep the booked duration", ErrInvalidRequest)
		}
		if err := availability.CheckSlot(ctx, tx, start, newEnd, appt.ID); err != nil {
			return err
		}

		fee := policy.EvaluateRescheduleFee(now, appt.ScheduledStart, fees)
		prevStart, prevEnd := appt.ScheduledStart, appt.ScheduledEnd
		appt.ScheduledStart, appt.ScheduledEnd, appt.UpdatedAt = start, newEnd, now
		if err := tx.Update(ctx, &appt); err != nil {
			return err
		}
		result = ChangeResult{Appointment: appt, FeeCents: fee}
		return emit(ctx, tx, events.TypeAppointmentRescheduled, appt, func(ev *events.AppointmentEventV1) {
			ev.PreviousStart, ev.PreviousEnd = &prevStart, &prevEnd
			ev.FeeCents = fee
		})
	})
	if err != nil {
		return ChangeResult{}, err
	}
	return result, nil
}

// CancelByToken cancels the appointment behind token and returns the
// cancellation fee owed.
func (s *Service) CancelByToken(ctx context.Context, token, reason string) (ChangeResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	result, err := s.cancelByToken(ctx, token, reason)
	s.observe(span, "cancel", err)
	if err != nil {
		return ChangeResult{}, err
	}
	s.metrics.ObserveFee("cancellation", result.FeeCents)
	s.logger.Info("appointment cancelled", "appointment_id", result.Appointment.ID, "fee_cents", result.FeeCents)
	return result, nil
}

func (s *Service) cancelByToken(ctx context.Context, token, reason string) (ChangeResult, error) {
	if strings.TrimSpace(token) == "" {
		return ChangeResult{}, ErrNotFound
	}
	fees, err := s.settings.FeePolicy(ctx)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("appointments: load fee policy: %w", err)
	}
	now := s.now()

	var result ChangeResult
	err = s.repo.Reserve(ctx, func(ctx context.Context, tx Tx) error {
		appt, err := tx.GetByToken(ctx, token)
		if err != nil {
			return err
		}
		if appt.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if err := appt.SetStatus(StatusCancelled, now); err != nil {
			return err
		}
		fee := policy.EvaluateCancellationFee(now, appt.ScheduledStart, appt.PriceCents, fees)
		appt.CancellationReason = strings.TrimSpace(reason)
		if err := tx.Update(ctx, &appt); err != nil {
			return err
		}
		result = ChangeResult{Appointment: appt, FeeCents: fee}
		return emit(ctx, tx, events.TypeAppointmentCancelled, appt, func(ev *events.AppointmentEventV1) {
			ev.FeeCents = fee
			ev.Reason = appt.CancellationReason
		})
	})
	if err != nil {
		return ChangeResult{}, err
	}
	return result, nil
}

// AdminUpdate applies an administrator's partial update. Moving the
// appointment runs the conflict guard with the appointment itself excluded;
// no fee is assessed.
func (s *Service) AdminUpdate(ctx context.Context, id uuid.UUID, patch AdminPatch) (Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.admin_update")
	defer span.End()
	span.SetAttributes(attribute.String("braidbook.appointment_id", id.String()))

	appt, err := s.adminUpdate(ctx, id, patch)
	s.observe(span, "admin_update", err)
	if err != nil {
		return Appointment{}, err
	}
	s.logger.Info("appointment updated by admin", "appointment_id", id, "status", appt.Status)
	return appt, nil
}

func (s *Service) adminUpdate(ctx context.Context, id uuid.UUID, patch AdminPatch) (Appointment, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return Appointment{}, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, *patch.Status)
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		return Appointment{}, fmt.Errorf("%w: unknown payment status %q", ErrInvalidRequest, *patch.PaymentStatus)
	}
	if (patch.ScheduledStart == nil) != (patch.ScheduledEnd == nil) {
		return Appointment{}, fmt.Errorf("%w: scheduledStart and scheduledEnd must be sent together", ErrInvalidRequest)
	}
	if patch.ScheduledStart != nil && !patch.ScheduledEnd.After(*patch.ScheduledStart) {
		return Appointment{}, fmt.Errorf("%w: %v", ErrInvalidRequest, interval.ErrInvalidInterval)
	}
	now := s.now()

	var updated Appointment
	err := s.repo.Reserve(ctx, func(ctx context.Context, tx Tx) error {
		appt, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		prevStatus, prevStart, prevEnd := appt.Status, appt.ScheduledStart, appt.ScheduledEnd

		if patch.Status != nil {
			if err := appt.SetStatus(*patch.Status, now); err != nil {
				return err
			}
		}
		moved := patch.ScheduledStart != nil &&
			(!patch.ScheduledStart.Equal(appt.ScheduledStart) || !patch.ScheduledEnd.Equal(appt.ScheduledEnd))
		if moved {
			if !appt.Status.HoldsTime() {
				return fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, appt.Status)
			}
			if err := availability.CheckSlot(ctx, tx, *patch.ScheduledStart, *patch.ScheduledEnd, appt.ID); err != nil {
				return err
			}
			appt.ScheduledStart, appt.ScheduledEnd = *patch.ScheduledStart, *patch.ScheduledEnd
		}
		if patch.PaymentStatus != nil {
			appt.PaymentStatus = *patch.PaymentStatus
		}
		if patch.Notes != nil {
			appt.Notes = strings.TrimSpace(*patch.Notes)
		}
		if patch.InternalNotes != nil {
			appt.InternalNotes = strings.TrimSpace(*patch.InternalNotes)
		}
		if patch.CancellationReason != nil {
			appt.CancellationReason = strings.TrimSpace(*patch.CancellationReason)
		}
		appt.UpdatedAt = now
		if err := tx.Update(ctx, &appt); err != nil {
			return err
		}
		updated = appt

		if moved {
			if err := emit(ctx, tx, events.TypeAppointmentRescheduled, appt, func(ev *events.AppointmentEventV1) {
				ev.PreviousStart, ev.PreviousEnd = &prevStart, &prevEnd
			}); err != nil {
				return err
			}
		}
		if patch.Status != nil {
			return emit(ctx, tx, events.TypeAppointmentStatusChanged, appt, func(ev *events.AppointmentEventV1) {
				ev.PreviousStatus = string(prevStatus)
			})
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return updated, nil
}

func emit(ctx context.Context, tx Tx, eventType string, appt Appointment, decorate func(*events.AppointmentEventV1)) error {
	payload := events.AppointmentEventV1{
		EventID:        uuid.NewString(),
		AppointmentID:  appt.ID,
		ClientID:       appt.ClientID,
		Status:         string(appt.Status),
		ScheduledStart: appt.ScheduledStart,
		ScheduledEnd:   appt.ScheduledEnd,
		PriceCents:     appt.PriceCents,
		OccurredAt:     appt.UpdatedAt,
	}
	if decorate != nil {
		decorate(&payload)
	}
	entry, err := events.NewEntry(appt.ID, eventType, payload)
	if err != nil {
		return err
	}
	return tx.Emit(ctx, entry)
}

func (s *Service) observe(span trace.Span, operation string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, availability.ErrSlotUnavailable):
		outcome = metrics.OutcomeConflict
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrOutsideBookingWindow),
		errors.Is(err, ErrVariantNotFound), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyCancelled), errors.Is(err, ErrInvalidTransition):
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeError
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("braidbook.outcome", outcome))
	s.metrics.ObserveBooking(operation, outcome)
}
