// Package catalog holds the bookable services and their priced variants.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown or inactive services and variants.
	ErrNotFound = errors.New("catalog: not found")
	// ErrInvalidVariant is returned when a variant fails validation.
	ErrInvalidVariant = errors.New("catalog: invalid variant")
)

// Service is a braid style offered to clients.
type Service struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"order"`
	Active      bool      `json:"active"`
	Variants    []Variant `json:"variants"`
}

// Variant is a length or size option of a service. DurationMinutes sizes the
// appointment; PriceCents is copied onto it at booking time.
type Variant struct {
	ID              uuid.UUID `json:"id"`
	ServiceID       uuid.UUID `json:"serviceId"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMin"`
	PriceCents      int64     `json:"priceCents"`
	SortOrder       int       `json:"order"`
	Active          bool      `json:"active"`
}

// Validate checks the fields required to schedule and price the variant.
func (v Variant) Validate() error {
	switch {
	case strings.TrimSpace(v.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidVariant)
	case v.DurationMinutes <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidVariant)
	case v.PriceCents < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidVariant)
	}
	return nil
}

// Store reads and writes the catalog.
type Store interface {
	// ListServices returns services ordered by SortOrder. With activeOnly,
	// inactive services and variants are omitted.
	ListServices(ctx context.Context, activeOnly bool) ([]Service, error)
	// GetVariant returns an active variant that belongs to serviceID.
	GetVariant(ctx context.Context, serviceID, variantID uuid.UUID) (Variant, error)
	CreateService(ctx context.Context, svc *Service) error
	CreateVariant(ctx context.Context, v *Variant) error
}
