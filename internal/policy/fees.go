// Package policy evaluates late cancellation and reschedule fees.
package policy

import (
	"fmt"
	"time"
)

// FeePolicy holds the thresholds and amounts applied to late changes.
type FeePolicy struct {
	// CancellationWindowHours: cancelling with fewer hours left incurs the late percentage.
	CancellationWindowHours int `json:"cancellationWindowHours"`
	LateCancellationPercent int `json:"lateCancellationPercent"`
	// PastCancellationPercent applies once the appointment start has passed.
	PastCancellationPercent int `json:"pastCancellationPercent"`
	// RescheduleWindowHours: rescheduling with fewer hours left incurs RescheduleFeeCents.
	RescheduleWindowHours int   `json:"rescheduleWindowHours"`
	RescheduleFeeCents    int64 `json:"rescheduleFeeCents"`
}

// DefaultFeePolicy is 50% inside 24h, 100% after the start, and a flat
// R$30 to reschedule inside 12h.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		CancellationWindowHours: 24,
		LateCancellationPercent: 50,
		PastCancellationPercent: 100,
		RescheduleWindowHours:   12,
		RescheduleFeeCents:      3000,
	}
}

// Validate rejects negative thresholds and percentages above 100.
func (p FeePolicy) Validate() error {
	switch {
	case p.CancellationWindowHours < 0, p.RescheduleWindowHours < 0:
		return fmt.Errorf("policy: window hours must not be negative")
	case p.LateCancellationPercent < 0, p.LateCancellationPercent > 100:
		return fmt.Errorf("policy: late cancellation percent must be within 0..100")
	case p.PastCancellationPercent < 0, p.PastCancellationPercent > 100:
		return fmt.Errorf("policy: past cancellation percent must be within 0..100")
	case p.RescheduleFeeCents < 0:
		return fmt.Errorf("policy: reschedule fee must not be negative")
	}
	return nil
}

// HoursUntil returns the fractional hours from now to start; negative once started.
func HoursUntil(now, start time.Time) float64 {
	return start.Sub(now).Hours()
}

// EvaluateCancellationFee returns the fee in cents for cancelling an
// appointment priced at priceCents.
func EvaluateCancellationFee(now, scheduledStart time.Time, priceCents int64, p FeePolicy) int64 {
	hours := HoursUntil(now, scheduledStart)
	switch {
	case hours < 0:
		return percentOf(priceCents, p.PastCancellationPercent)
	case hours < float64(p.CancellationWindowHours):
		return percentOf(priceCents, p.LateCancellationPercent)
	default:
		return 0
	}
}

// EvaluateRescheduleFee returns the flat fee in cents for moving an
// appointment that starts at scheduledStart.
func EvaluateRescheduleFee(now, scheduledStart time.Time, p FeePolicy) int64 {
	if HoursUntil(now, scheduledStart) < float64(p.RescheduleWindowHours) {
		return p.RescheduleFeeCents
	}
	return 0
}

func percentOf(cents int64, percent int) int64 {
	if cents <= 0 || percent <= 0 {
		return 0
	}
	return cents * int64(percent) / 100
}

// FormatBRL renders cents as "R$ 1.234,56".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	reais := cents / 100
	digits := fmt.Sprintf("%d", reais)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, d)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped, cents%100)
}
