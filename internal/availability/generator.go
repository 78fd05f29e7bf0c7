package availability

import (
	"slices"
	"time"

	"github.com/wolfman30/braidbook/internal/interval"
)

// Slot is a candidate booking window of the requested duration.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Interval returns the slot as [Start, End).
func (s Slot) Interval() interval.Interval {
	return interval.Interval{Start: s.Start, End: s.End}
}

// GenerateSlots lays a fixed-stride grid over the day's rule windows and marks
// each candidate available when it clears every booking (plus buffer after
// the booking) and every block.
//
// day supplies the calendar date and the business location. Unavailable
// candidates are returned too so the admin agenda can show why a day is full.
func GenerateSlots(day time.Time, duration time.Duration, rules []Rule, busy []Occupancy, blocks []Block, cfg Settings) []Slot {
	if duration <= 0 {
		return nil
	}

	windows := ruleWindows(day, rules)
	if len(windows) == 0 {
		return []Slot{}
	}

	stride := cfg.stride()
	buffer := cfg.buffer()

	slots := make([]Slot, 0, len(windows)*8)
	for _, w := range windows {
		for cursor := w.Start; cursor.Before(w.End); cursor = cursor.Add(stride) {
			candidate := interval.Interval{Start: cursor, End: cursor.Add(duration)}
			if candidate.End.After(w.End) {
				break
			}
			slots = append(slots, Slot{
				Start:     candidate.Start,
				End:       candidate.End,
				Available: offerable(candidate, busy, blocks, buffer),
			})
		}
	}

	slices.SortFunc(slots, func(a, b Slot) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})
	return dedupe(slots)
}

// ruleWindows resolves the active rules for day's weekday and merges
// overlapping windows so a duplicated rule cannot yield duplicated slots.
func ruleWindows(day time.Time, rules []Rule) []interval.Interval {
	weekday := int(day.Weekday())
	windows := make([]interval.Interval, 0, len(rules))
	for _, r := range rules {
		if !r.Active || r.DayOfWeek != weekday {
			continue
		}
		w, err := r.Window(day)
		if err != nil {
			continue
		}
		windows = append(windows, w)
	}
	return interval.Union(windows)
}

// offerable applies the buffer after bookings only; blocks are hard edges.
func offerable(candidate interval.Interval, busy []Occupancy, blocks []Block, buffer time.Duration) bool {
	for _, occ := range busy {
		if interval.Overlaps(candidate, occ.Interval.ExtendEnd(buffer)) {
			return false
		}
	}
	for _, b := range blocks {
		if interval.Overlaps(candidate, b.Interval()) {
			return false
		}
	}
	return true
}

// dedupe drops repeated (start, end) pairs from a sorted slice. An
// unavailable copy wins so a duplicate can never hide a conflict.
func dedupe(sorted []Slot) []Slot {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		if s.Start.Equal(last.Start) && s.End.Equal(last.End) {
			last.Available = last.Available && s.Available
			continue
		}
		out = append(out, s)
	}
	return out
}
