package availability

import "time"

// DefaultBuffer applies when no buffer has been configured.
const DefaultBuffer = 15 * time.Minute

// DefaultStride is the spacing between candidate slot starts.
const DefaultStride = 30 * time.Minute

// Settings is the booking configuration passed explicitly into slot
// generation and the booking window check.
type Settings struct {
	// Buffer is kept free after each appointment before the next slot may start.
	Buffer time.Duration
	// Stride separates consecutive candidate starts within a rule window.
	Stride time.Duration
	// MinAdvance is the minimum lead time for client bookings.
	MinAdvance time.Duration
	// MaxAdvance is how far ahead clients may book.
	MaxAdvance time.Duration
}

// DefaultSettings mirrors the stock booking_settings document.
func DefaultSettings() Settings {
	return Settings{
		Buffer:     DefaultBuffer,
		Stride:     DefaultStride,
		MinAdvance: 2 * time.Hour,
		MaxAdvance: 60 * 24 * time.Hour,
	}
}

func (s Settings) stride() time.Duration {
	if s.Stride <= 0 {
		return DefaultStride
	}
	return s.Stride
}

func (s Settings) buffer() time.Duration {
	if s.Buffer < 0 {
		return 0
	}
	return s.Buffer
}

// WithinBookingWindow reports whether a client may book a slot starting at start.
// Zero MinAdvance or MaxAdvance disables that bound.
func (s Settings) WithinBookingWindow(now, start time.Time) bool {
	if s.MinAdvance > 0 && start.Before(now.Add(s.MinAdvance)) {
		return false
	}
	if s.MaxAdvance > 0 && start.After(now.Add(s.MaxAdvance)) {
		return false
	}
	return !start.Before(now)
}
