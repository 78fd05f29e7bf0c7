package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/interval"
)

// Conflicts reports whether candidate overlaps any booking or block.
// No buffer is applied here: the buffer shapes what is offered, not what may
// be committed. The booking with ID exclude is ignored so an appointment can
// move over its own current time.
func Conflicts(candidate interval.Interval, busy []Occupancy, blocks []Block, exclude uuid.UUID) bool {
	for _, occ := range busy {
		if exclude != uuid.Nil && occ.AppointmentID == exclude {
			continue
		}
		if interval.Overlaps(candidate, occ.Interval) {
			return true
		}
	}
	for _, b := range blocks {
		if interval.Overlaps(candidate, b.Interval()) {
			return true
		}
	}
	return false
}

// CheckSlot re-reads the ledger and returns ErrSlotUnavailable when
// [start, end) conflicts. It never relies on previously generated slots;
// run it inside the same critical section as the write it protects.
func CheckSlot(ctx context.Context, ledger Ledger, start, end time.Time, exclude uuid.UUID) error {
	candidate, err := interval.New(start, end)
	if err != nil {
		return err
	}
	busy, err := ledger.ListAppointmentsOverlapping(ctx, candidate)
	if err != nil {
		return fmt.Errorf("availability: load appointments: %w", err)
	}
	blocks, err := ledger.ListBlocksOverlapping(ctx, candidate)
	if err != nil {
		return fmt.Errorf("availability: load blocks: %w", err)
	}
	if Conflicts(candidate, busy, blocks, exclude) {
		return ErrSlotUnavailable
	}
	return nil
}
