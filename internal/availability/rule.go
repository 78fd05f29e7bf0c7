package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/interval"
)

// Rule is a recurring weekly open-hours window, independent of any date.
type Rule struct {
	ID        uuid.UUID `json:"id"`
	DayOfWeek int       `json:"dayOfWeek"` // 0 = Sunday
	StartTime string    `json:"startTime"` // "09:00"
	EndTime   string    `json:"endTime"`   // "19:00"
	Active    bool      `json:"active"`
}

// Validate checks the weekday range and that the window is a positive span of the day.
func (r Rule) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("%w: day of week %d out of range", ErrInvalidRule, r.DayOfWeek)
	}
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("%w: end %s must be after start %s", ErrInvalidRule, r.EndTime, r.StartTime)
	}
	return nil
}

// Window resolves the rule against the calendar day of day, in day's location.
func (r Rule) Window(day time.Time) (interval.Interval, error) {
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return interval.Interval{}, err
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.New(atClock(day, start), atClock(day, end))
}

// atClock places a wall-clock offset on day's calendar date so DST shifts
// follow the local clock rather than elapsed time.
func atClock(day time.Time, offset time.Duration) time.Time {
	y, m, d := day.Date()
	hour := int(offset / time.Hour)
	minute := int((offset % time.Hour) / time.Minute)
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location())
}

// ParseClock parses "HH:MM" into an offset from midnight. "24:00" is accepted
// so a window can run to the end of the day.
func ParseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: clock %q must be HH:MM", ErrInvalidRule, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: clock %q: %v", ErrInvalidRule, s, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: clock %q: %v", ErrInvalidRule, s, err)
	}
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: clock %q out of range", ErrInvalidRule, s)
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
