package availability

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/braidbook/internal/interval"
)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func clock(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func mondayRule(start, end string) Rule {
	return Rule{ID: uuid.New(), DayOfWeek: int(time.Monday), StartTime: start, EndTime: end, Active: true}
}

func booking(h1, m1, h2, m2 int) Occupancy {
	return Occupancy{AppointmentID: uuid.New(), Interval: interval.Interval{Start: clock(h1, m1), End: clock(h2, m2)}}
}

func zeroBuffer() Settings {
	cfg := DefaultSettings()
	cfg.Buffer = 0
	return cfg
}

func findSlot(t *testing.T, slots []Slot, hour, minute int) Slot {
	t.Helper()
	for _, s := range slots {
		if s.Start.Equal(clock(hour, minute)) {
			return s
		}
	}
	t.Fatalf("no slot starting at %02d:%02d", hour, minute)
	return Slot{}
}

func TestGenerateSlotsGridInsideWindow(t *testing.T) {
	slots := GenerateSlots(monday, time.Hour, []Rule{mondayRule("09:00", "11:00")}, nil, nil, zeroBuffer())

	require.Len(t, slots, 3)
	assert.Equal(t, clock(9, 0), slots[0].Start)
	assert.Equal(t, clock(9, 30), slots[1].Start)
	assert.Equal(t, clock(10, 0), slots[2].Start)
	assert.Equal(t, clock(11, 0), slots[2].End, "last slot must end exactly at the window end")
	for _, s := range slots {
		assert.True(t, s.Available)
	}
}

func TestGenerateSlotsHalfOpenBoundary(t *testing.T) {
	rules := []Rule{mondayRule("10:00", "11:00")}

	slots := GenerateSlots(monday, time.Hour, rules, []Occupancy{booking(11, 0, 12, 0)}, nil, zeroBuffer())
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Available, "[10:00,11:00) must not conflict with [11:00,12:00)")

	slots = GenerateSlots(monday, time.Hour, rules, []Occupancy{booking(10, 59, 12, 0)}, nil, zeroBuffer())
	require.Len(t, slots, 1)
	assert.False(t, slots[0].Available, "[10:00,11:00) must conflict with [10:59,12:00)")
}

func TestGenerateSlotsBufferAfterAppointment(t *testing.T) {
	cfg := DefaultSettings()
	cfg.Buffer = 15 * time.Minute
	busy := []Occupancy{booking(10, 0, 11, 0)}

	// Grid from 09:15 lands candidates on 11:15, exactly one buffer after the booking ends.
	slots := GenerateSlots(monday, 30*time.Minute, []Rule{mondayRule("09:15", "12:00")}, busy, nil, cfg)
	assert.False(t, findSlot(t, slots, 10, 45).Available)
	assert.True(t, findSlot(t, slots, 11, 15).Available, "a slot starting exactly at end+buffer is available")

	slots = GenerateSlots(monday, 30*time.Minute, []Rule{mondayRule("09:00", "12:00")}, busy, nil, cfg)
	assert.False(t, findSlot(t, slots, 11, 0).Available, "[11:00,11:30) falls inside the buffer")
	assert.True(t, findSlot(t, slots, 11, 30).Available)
}

func TestGenerateSlotsBufferIsNotAppliedBeforeAppointment(t *testing.T) {
	cfg := DefaultSettings()
	cfg.Buffer = 15 * time.Minute

	slots := GenerateSlots(monday, time.Hour, []Rule{mondayRule("09:00", "12:00")}, []Occupancy{booking(11, 0, 12, 0)}, nil, cfg)
	assert.True(t, findSlot(t, slots, 10, 0).Available, "a slot ending when a booking starts is fine")
	assert.False(t, findSlot(t, slots, 10, 30).Available)
}

func TestGenerateSlotsBlocksHaveNoBuffer(t *testing.T) {
	cfg := DefaultSettings()
	cfg.Buffer = 15 * time.Minute
	blocks := []Block{{ID: uuid.New(), StartTime: clock(9, 0), EndTime: clock(10, 0)}}

	slots := GenerateSlots(monday, 30*time.Minute, []Rule{mondayRule("09:00", "11:00")}, nil, blocks, cfg)
	assert.False(t, findSlot(t, slots, 9, 0).Available)
	assert.False(t, findSlot(t, slots, 9, 30).Available)
	assert.True(t, findSlot(t, slots, 10, 0).Available, "blocks are not padded by the buffer")
}

func TestGenerateSlotsNoRulesIsEmpty(t *testing.T) {
	for _, minutes := range []int{30, 60, 240} {
		slots := GenerateSlots(monday, time.Duration(minutes)*time.Minute, nil, nil, nil, DefaultSettings())
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	}

	tuesdayOnly := Rule{DayOfWeek: int(time.Tuesday), StartTime: "09:00", EndTime: "18:00", Active: true}
	assert.Empty(t, GenerateSlots(monday, time.Hour, []Rule{tuesdayOnly}, nil, nil, DefaultSettings()))

	inactive := mondayRule("09:00", "18:00")
	inactive.Active = false
	assert.Empty(t, GenerateSlots(monday, time.Hour, []Rule{inactive}, nil, nil, DefaultSettings()))
}

func TestGenerateSlotsWindowShorterThanDuration(t *testing.T) {
	slots := GenerateSlots(monday, time.Hour, []Rule{mondayRule("09:00", "09:45")}, nil, nil, DefaultSettings())
	assert.Empty(t, slots)
}

func TestGenerateSlotsOverlappingRulesDoNotDuplicate(t *testing.T) {
	rules := []Rule{
		mondayRule("09:00", "12:00"),
		mondayRule("09:00", "12:00"),
		mondayRule("10:00", "13:00"),
	}
	slots := GenerateSlots(monday, time.Hour, rules, nil, nil, zeroBuffer())

	seen := map[[2]int64]bool{}
	for _, s := range slots {
		key := [2]int64{s.Start.Unix(), s.End.Unix()}
		assert.False(t, seen[key], "duplicate slot %s-%s", s.Start.Format("15:04"), s.End.Format("15:04"))
		seen[key] = true
	}
	// merged window 09:00-13:00 with 60 min slots every 30 min
	assert.Len(t, slots, 7)
}

func TestGenerateSlotsOverlappingRulesActAsOneWindow(t *testing.T) {
	t.Run("slot may span both rules", func(t *testing.T) {
		rules := []Rule{mondayRule("09:00", "10:00"), mondayRule("09:30", "10:30")}
		slots := GenerateSlots(monday, 90*time.Minute, rules, nil, nil, zeroBuffer())

		require.Len(t, slots, 1)
		assert.Equal(t, clock(9, 0), slots[0].Start)
		assert.Equal(t, clock(10, 30), slots[0].End)
	})

	t.Run("grid follows the merged window start", func(t *testing.T) {
		rules := []Rule{mondayRule("09:00", "12:00"), mondayRule("09:15", "10:45")}
		slots := GenerateSlots(monday, 30*time.Minute, rules, nil, nil, zeroBuffer())

		require.Len(t, slots, 6)
		for _, s := range slots {
			assert.Zero(t, s.Start.Minute()%30, "slot %s is off the 09:00 grid", s.Start.Format("15:04"))
		}
	})
}

func TestGenerateSlotsSplitShiftKeepsLunchGap(t *testing.T) {
	rules := []Rule{mondayRule("13:00", "15:00"), mondayRule("09:00", "12:00")}
	slots := GenerateSlots(monday, time.Hour, rules, nil, nil, zeroBuffer())

	for _, s := range slots {
		lunch := interval.Interval{Start: clock(12, 0), End: clock(13, 0)}
		assert.False(t, interval.Overlaps(s.Interval(), lunch), "slot %s crosses the lunch gap", s.Start.Format("15:04"))
	}
	assert.Equal(t, clock(9, 0), slots[0].Start)
	assert.Equal(t, clock(14, 0), slots[len(slots)-1].Start)
}

func TestGenerateSlotsOddDurationKeepsStride(t *testing.T) {
	slots := GenerateSlots(monday, 45*time.Minute, []Rule{mondayRule("09:00", "11:00")}, nil, nil, zeroBuffer())
	require.Len(t, slots, 3)
	assert.Equal(t, clock(9, 45), slots[0].End)
	assert.Equal(t, clock(10, 0), slots[2].Start)
	assert.Equal(t, clock(10, 45), slots[2].End)
}

func TestGenerateSlotsReturnsUnavailableSlots(t *testing.T) {
	busy := []Occupancy{booking(9, 0, 11, 0)}
	slots := GenerateSlots(monday, time.Hour, []Rule{mondayRule("09:00", "11:00")}, busy, nil, zeroBuffer())
	require.Len(t, slots, 3)
	for _, s := range slots {
		assert.False(t, s.Available)
	}
}

func TestGenerateSlotsNonPositiveDuration(t *testing.T) {
	assert.Nil(t, GenerateSlots(monday, 0, []Rule{mondayRule("09:00", "11:00")}, nil, nil, DefaultSettings()))
}

func TestDedupeKeepsConflict(t *testing.T) {
	in := []Slot{
		{Start: clock(9, 0), End: clock(10, 0), Available: true},
		{Start: clock(9, 0), End: clock(10, 0), Available: false},
		{Start: clock(9, 30), End: clock(10, 30), Available: true},
	}
	out := dedupe(in)
	require.Len(t, out, 2)
	assert.False(t, out[0].Available)
}
