package appointments

import "errors"

var (
	// ErrNotFound is returned for unknown appointment IDs or tokens.
	ErrNotFound = errors.New("appointments: not found")

	// ErrInvalidRequest wraps input validation failures; nothing was read or
	// written when it is returned.
	ErrInvalidRequest = errors.New("appointments: invalid request")

	// ErrVariantNotFound is returned when the service/variant pair is unknown or inactive.
	ErrVariantNotFound = errors.New("appointments: service variant not found")

	// ErrOutsideBookingWindow is returned when a client picks a start inside
	// the minimum lead time or beyond the maximum advance.
	ErrOutsideBookingWindow = errors.New("appointments: start is outside the booking window")

	// ErrAlreadyCancelled is returned when cancelling or rescheduling a
	// cancelled appointment.
	ErrAlreadyCancelled = errors.New("appointments: appointment already cancelled")

	// ErrInvalidTransition is returned for status changes the lifecycle forbids.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")

	// ErrDuplicateToken signals a management token collision; the service
	// draws a new token and retries.
	ErrDuplicateToken = errors.New("appointments: duplicate management token")
)
