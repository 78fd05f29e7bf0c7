package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/events"
)

// Tx is the view of the ledger inside a reservation. Reads see the same
// state the writes commit against, and no other reservation runs between
// them.
type Tx interface {
	availability.Ledger

	Get(ctx context.Context, id uuid.UUID) (Appointment, error)
	GetByToken(ctx context.Context, token string) (Appointment, error)
	// Insert returns ErrDuplicateToken when the management token is taken.
	Insert(ctx context.Context, appt *Appointment) error
	Update(ctx context.Context, appt *Appointment) error
	// Emit queues an outbox entry that commits with the reservation.
	Emit(ctx context.Context, entry events.OutboxEntry) error
}

// Repository persists appointments.
type Repository interface {
	availability.AppointmentSource

	// Reserve runs fn under mutual exclusion with every other reservation.
	// If fn returns an error nothing it wrote is kept.
	Reserve(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Get(ctx context.Context, id uuid.UUID) (Appointment, error)
	GetByToken(ctx context.Context, token string) (Appointment, error)
	// ListBetween returns appointments of any status starting in [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
