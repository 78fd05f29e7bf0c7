package availability

import "errors"

var (
	// ErrInvalidDate is returned when a slot query has no calendar date.
	ErrInvalidDate = errors.New("availability: date is required")

	// ErrInvalidDuration is returned for non-positive service durations.
	ErrInvalidDuration = errors.New("availability: duration must be positive")

	// ErrInvalidRule is returned when a rule has a bad weekday or clock window.
	ErrInvalidRule = errors.New("availability: invalid rule")

	// ErrSlotUnavailable means the interval conflicts with a booking or block
	// at the moment of writing. Callers should re-query slots and let the
	// client pick again.
	ErrSlotUnavailable = errors.New("selected time slot is no longer available")
)
