// Package events records appointment lifecycle events in a transactional
// outbox and delivers them to downstream consumers.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types written to the outbox.
const (
	TypeAppointmentBooked        = "appointment.booked.v1"
	TypeAppointmentRescheduled   = "appointment.rescheduled.v1"
	TypeAppointmentCancelled     = "appointment.cancelled.v1"
	TypeAppointmentStatusChanged = "appointment.status_changed.v1"
)

// AppointmentEventV1 is the payload shared by every appointment event type.
// Fields that do not apply to a type are omitted.
type AppointmentEventV1 struct {
	EventID        string     `json:"event_id"`
	AppointmentID  uuid.UUID  `json:"appointment_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	Status         string     `json:"status"`
	PreviousStatus string     `json:"previous_status,omitempty"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	ScheduledEnd   time.Time  `json:"scheduled_end"`
	PreviousStart  *time.Time `json:"previous_start,omitempty"`
	PreviousEnd    *time.Time `json:"previous_end,omitempty"`
	PriceCents     int64      `json:"price_cents"`
	FeeCents       int64      `json:"fee_cents,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	ManageToken    string     `json:"manage_token,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}
