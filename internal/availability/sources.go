package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/interval"
)

// Block is an ad-hoc closure (vacation, personal time) in absolute time.
type Block struct {
	ID        uuid.UUID `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Reason    string    `json:"reason,omitempty"`
}

// Interval returns the block as [StartTime, EndTime).
func (b Block) Interval() interval.Interval {
	return interval.Interval{Start: b.StartTime, End: b.EndTime}
}

// Occupancy is the calendar footprint of one booking that still holds its time,
// i.e. any status other than cancelled or no_show.
type Occupancy struct {
	AppointmentID uuid.UUID
	Interval      interval.Interval
}

// RuleSource reads recurring availability.
type RuleSource interface {
	// ListActiveRules returns active rules for the weekday. No rules is not an error.
	ListActiveRules(ctx context.Context, weekday time.Weekday) ([]Rule, error)
}

// AppointmentSource reads the appointment ledger.
type AppointmentSource interface {
	// ListAppointmentsOverlapping returns occupancies overlapping iv,
	// excluding cancelled and no_show appointments.
	ListAppointmentsOverlapping(ctx context.Context, iv interval.Interval) ([]Occupancy, error)
}

// BlockSource reads ad-hoc closures.
type BlockSource interface {
	ListBlocksOverlapping(ctx context.Context, iv interval.Interval) ([]Block, error)
}

// Ledger is the view the conflict guard consults. At commit time it must read
// the same transaction the write goes to.
type Ledger interface {
	AppointmentSource
	BlockSource
}

// SettingsSource returns the booking settings current at call time.
type SettingsSource interface {
	BookingSettings(ctx context.Context) (Settings, error)
}

// JoinLedger combines separate appointment and block sources.
func JoinLedger(appointments AppointmentSource, blocks BlockSource) Ledger {
	return joinedLedger{AppointmentSource: appointments, BlockSource: blocks}
}

type joinedLedger struct {
	AppointmentSource
	BlockSource
}
