package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"09:00", 9 * time.Hour, false},
		{"18:30", 18*time.Hour + 30*time.Minute, false},
		{"00:00", 0, false},
		{"24:00", 24 * time.Hour, false},
		{"24:30", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleValidate(t *testing.T) {
	assert.NoError(t, Rule{DayOfWeek: 6, StartTime: "09:00", EndTime: "17:00"}.Validate())
	assert.ErrorIs(t, Rule{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00"}.Validate(), ErrInvalidRule)
	assert.ErrorIs(t, Rule{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00"}.Validate(), ErrInvalidRule)
	assert.ErrorIs(t, Rule{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00"}.Validate(), ErrInvalidRule)
}

func TestRuleWindowUsesDayLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	day := time.Date(2026, 3, 2, 15, 45, 0, 0, loc)

	w, err := Rule{DayOfWeek: 1, StartTime: "09:00", EndTime: "19:00"}.Window(day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2026, 3, 2, 19, 0, 0, 0, loc), w.End)
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), w.Start.UTC())
}

func TestRuleWindowToMidnight(t *testing.T) {
	w, err := Rule{DayOfWeek: 1, StartTime: "20:00", EndTime: "24:00"}.Window(monday)
	require.NoError(t, err)
	assert.Equal(t, monday.AddDate(0, 0, 1), w.End)
}

func TestWithinBookingWindow(t *testing.T) {
	cfg := DefaultSettings()
	now := clock(8, 0)

	assert.False(t, cfg.WithinBookingWindow(now, clock(9, 0)), "inside minimum lead time")
	assert.True(t, cfg.WithinBookingWindow(now, clock(10, 0)))
	assert.False(t, cfg.WithinBookingWindow(now, now.AddDate(0, 0, 61)))
	assert.True(t, cfg.WithinBookingWindow(now, now.AddDate(0, 0, 59)))

	open := Settings{}
	assert.True(t, open.WithinBookingWindow(now, now))
	assert.False(t, open.WithinBookingWindow(now, now.Add(-time.Minute)), "past starts are never bookable")
}
