package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists clients; phone is unique.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("clients: db required")
	}
	return &PostgresStore{db: db}
}

const returningClient = `
	RETURNING id, name, phone, coalesce(email, ''), lgpd_consent, lgpd_consent_at, marketing_consent, created_at, updated_at`

// UpsertByPhone runs as a single INSERT ... ON CONFLICT so two concurrent
// bookings from the same phone cannot create duplicates.
func (s *PostgresStore) UpsertByPhone(ctx context.Context, contact Contact, now time.Time) (Client, error) {
	c, err := contact.normalized()
	if err != nil {
		return Client{}, err
	}
	fresh := newClient(c, now)
	row := s.db.QueryRow(ctx, `
		INSERT INTO clients (id, name, phone, email, lgpd_consent, lgpd_consent_at, marketing_consent, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $8)
		ON CONFLICT (phone) DO UPDATE SET
			name = EXCLUDED.name,
			email = coalesce(EXCLUDED.email, clients.email),
			lgpd_consent = clients.lgpd_consent OR EXCLUDED.lgpd_consent,
			lgpd_consent_at = CASE WHEN clients.lgpd_consent THEN clients.lgpd_consent_at ELSE EXCLUDED.lgpd_consent_at END,
			marketing_consent = CASE WHEN $9 THEN EXCLUDED.marketing_consent ELSE clients.marketing_consent END,
			updated_at = EXCLUDED.updated_at`+returningClient,
		fresh.ID, fresh.Name, fresh.Phone, fresh.Email, fresh.LGPDConsent, fresh.LGPDConsentAt,
		fresh.MarketingConsent, now, c.MarketingConsent != nil,
	)
	client, err := scanClient(row)
	if err != nil {
		return Client{}, fmt.Errorf("clients: upsert: %w", err)
	}
	return client, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, phone, coalesce(email, ''), lgpd_consent, lgpd_consent_at, marketing_consent, created_at, updated_at
		FROM clients WHERE id = $1`, id)
	client, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("clients: get: %w", err)
	}
	return client, nil
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.LGPDConsent, &c.LGPDConsentAt,
		&c.MarketingConsent, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
