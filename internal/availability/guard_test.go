package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/braidbook/internal/interval"
)

type stubLedger struct {
	busy      []Occupancy
	blocks    []Block
	apptErr   error
	blockErr  error
	apptCalls int
}

func (l *stubLedger) ListAppointmentsOverlapping(ctx context.Context, iv interval.Interval) ([]Occupancy, error) {
	l.apptCalls++
	if l.apptErr != nil {
		return nil, l.apptErr
	}
	var out []Occupancy
	for _, o := range l.busy {
		if interval.Overlaps(o.Interval, iv) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (l *stubLedger) ListBlocksOverlapping(ctx context.Context, iv interval.Interval) ([]Block, error) {
	if l.blockErr != nil {
		return nil, l.blockErr
	}
	var out []Block
	for _, b := range l.blocks {
		if interval.Overlaps(b.Interval(), iv) {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestConflictsIgnoresBuffer(t *testing.T) {
	busy := []Occupancy{booking(10, 0, 11, 0)}
	candidate := interval.Interval{Start: clock(11, 0), End: clock(11, 30)}
	assert.False(t, Conflicts(candidate, busy, nil, uuid.Nil), "the guard applies no buffer")
}

func TestConflictsSelfExclusion(t *testing.T) {
	own := booking(10, 0, 11, 0)
	moved := interval.Interval{Start: clock(10, 30), End: clock(11, 30)}

	assert.True(t, Conflicts(moved, []Occupancy{own}, nil, uuid.Nil))
	assert.False(t, Conflicts(moved, []Occupancy{own}, nil, own.AppointmentID))

	other := booking(11, 0, 12, 0)
	assert.True(t, Conflicts(moved, []Occupancy{own, other}, nil, own.AppointmentID))
}

func TestConflictsBlocks(t *testing.T) {
	blocks := []Block{{StartTime: clock(12, 0), EndTime: clock(13, 0)}}
	assert.True(t, Conflicts(interval.Interval{Start: clock(11, 30), End: clock(12, 30)}, nil, blocks, uuid.Nil))
	assert.False(t, Conflicts(interval.Interval{Start: clock(11, 0), End: clock(12, 0)}, nil, blocks, uuid.Nil))
}

func TestCheckSlot(t *testing.T) {
	ctx := context.Background()
	ledger := &stubLedger{busy: []Occupancy{booking(10, 0, 11, 0)}}

	require.NoError(t, CheckSlot(ctx, ledger, clock(11, 0), clock(12, 0), uuid.Nil))
	assert.ErrorIs(t, CheckSlot(ctx, ledger, clock(10, 30), clock(11, 30), uuid.Nil), ErrSlotUnavailable)
	assert.ErrorIs(t, CheckSlot(ctx, ledger, clock(11, 0), clock(11, 0), uuid.Nil), interval.ErrInvalidInterval)
}

func TestCheckSlotPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	ledger := &stubLedger{blockErr: boom}

	err := CheckSlot(context.Background(), ledger, clock(9, 0), clock(10, 0), uuid.Nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSlotUnavailable)
}

func TestCheckSlotRejectsBeforeQuerying(t *testing.T) {
	ledger := &stubLedger{}
	_ = CheckSlot(context.Background(), ledger, clock(10, 0), clock(9, 0), uuid.Nil)
	assert.Zero(t, ledger.apptCalls)
}
