// Package clients keeps one record per phone number with the client's LGPD
// consent history.
package clients

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown client IDs.
	ErrNotFound = errors.New("clients: not found")
	// ErrInvalidClient is returned when name or phone is missing.
	ErrInvalidClient = errors.New("clients: name and phone are required")
)

// Client is a person who books appointments.
type Client struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email,omitempty"`
	LGPDConsent      bool       `json:"lgpdConsent"`
	LGPDConsentAt    *time.Time `json:"lgpdConsentAt,omitempty"`
	MarketingConsent bool       `json:"marketingConsent"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Contact is the data a booking form submits about the client.
type Contact struct {
	Name             string
	Phone            string
	Email            string
	LGPDConsent      bool
	MarketingConsent *bool
}

// Store finds and creates clients.
type Store interface {
	// UpsertByPhone returns the client with contact.Phone, creating it when
	// absent. An existing client's name is replaced, email only when given,
	// and consent is never revoked by a later booking.
	UpsertByPhone(ctx context.Context, contact Contact, now time.Time) (Client, error)
	Get(ctx context.Context, id uuid.UUID) (Client, error)
}

// NormalizePhone keeps digits and a leading plus so "(11) 98888-7777" and
// "11988887777" resolve to the same client.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c Contact) normalized() (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = NormalizePhone(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" || strings.TrimPrefix(c.Phone, "+") == "" {
		return Contact{}, ErrInvalidClient
	}
	return c, nil
}

// merge applies contact onto an existing client.
func merge(existing Client, c Contact, now time.Time) Client {
	existing.Name = c.Name
	if c.Email != "" {
		existing.Email = c.Email
	}
	if c.LGPDConsent && !existing.LGPDConsent {
		existing.LGPDConsent = true
		existing.LGPDConsentAt = &now
	}
	if c.MarketingConsent != nil {
		existing.MarketingConsent = *c.MarketingConsent
	}
	existing.UpdatedAt = now
	return existing
}

func newClient(c Contact, now time.Time) Client {
	client := Client{
		ID:          uuid.New(),
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		LGPDConsent: c.LGPDConsent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.LGPDConsent {
		client.LGPDConsentAt = &now
	}
	if c.MarketingConsent != nil {
		client.MarketingConsent = *c.MarketingConsent
	}
	return client
}
