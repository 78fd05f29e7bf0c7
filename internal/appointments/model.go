// Package appointments owns the appointment lifecycle: booking, client
// self-service through management tokens, and administrator changes. Every
// write that claims calendar time runs the conflict guard inside an atomic
// reservation.
package appointments

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/interval"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// PaymentStatus tracks settlement of the appointment price.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// HoldsTime reports whether an appointment in this status occupies the calendar.
func (s Status) HoldsTime() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// CanTransition reports whether from may move to to. Re-applying the current
// status is allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return from.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Appointment is a booking. ScheduledEnd is fixed when booked and is never
// recomputed from the variant.
type Appointment struct {
	ID                 uuid.UUID     `json:"id"`
	ClientID           uuid.UUID     `json:"clientId"`
	ServiceID          uuid.UUID     `json:"serviceId"`
	VariantID          uuid.UUID     `json:"variantId"`
	ScheduledStart     time.Time     `json:"scheduledStart"`
	ScheduledEnd       time.Time     `json:"scheduledEnd"`
	Status             Status        `json:"status"`
	PriceCents         int64         `json:"priceCents"`
	PaymentStatus      PaymentStatus `json:"paymentStatus"`
	ManagementToken    string        `json:"-"`
	Notes              string        `json:"notes,omitempty"`
	InternalNotes      string        `json:"internalNotes,omitempty"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	ConfirmedAt        *time.Time    `json:"confirmedAt,omitempty"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	NoShowAt           *time.Time    `json:"noShowAt,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// Interval returns [ScheduledStart, ScheduledEnd).
func (a Appointment) Interval() interval.Interval {
	return interval.Interval{Start: a.ScheduledStart, End: a.ScheduledEnd}
}

// Occupancy is the ledger view of the appointment.
func (a Appointment) Occupancy() availability.Occupancy {
	return availability.Occupancy{AppointmentID: a.ID, Interval: a.Interval()}
}

// SetStatus moves the appointment to next and stamps the matching timestamp.
// Repeating the current status re-stamps it.
func (a *Appointment) SetStatus(next Status, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, next)
	}
	if !CanTransition(a.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	stamp := now
	switch next {
	case StatusConfirmed:
		a.ConfirmedAt = &stamp
	case StatusCompleted:
		a.CompletedAt = &stamp
	case StatusCancelled:
		a.CancelledAt = &stamp
	case StatusNoShow:
		a.NoShowAt = &stamp
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}
