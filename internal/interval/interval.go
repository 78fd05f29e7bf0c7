// Package interval implements half-open time intervals, the primitive every
// availability and conflict decision reduces to.
package interval

import (
	"errors"
	"slices"
	"time"
)

// ErrInvalidInterval is returned when an interval does not end after it starts.
var ErrInvalidInterval = errors.New("interval: end must be after start")

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds an interval, rejecting end <= start.
func New(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Valid reports whether Start < End.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// ExtendEnd returns a copy with End moved later by d.
func (i Interval) ExtendEnd(d time.Duration) Interval {
	return Interval{Start: i.Start, End: i.End.Add(d)}
}

// Overlaps reports whether a and b share any instant.
// An interval ending exactly when the other begins does not overlap it.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether t falls in [i.Start, i.End).
func Contains(i Interval, t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Union merges overlapping intervals and returns them sorted by start.
// Intervals that only touch (a.End == b.Start) are kept apart.
func Union(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := slices.Clone(in)
	slices.SortFunc(sorted, func(a, b Interval) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	out := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		last := &out[len(out)-1]
		if Overlaps(*last, next) {
			if next.End.After(last.End) {
				last.End = next.End
			}
			continue
		}
		out = append(out, next)
	}
	return out
}
