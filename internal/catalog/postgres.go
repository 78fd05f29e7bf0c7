package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads services and service_variants.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("catalog: db required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.name, coalesce(s.description, ''), s.sort_order, s.active,
		       v.id, v.name, coalesce(v.description, ''), v.duration_min, v.price_cents, v.sort_order, v.active
		FROM services s
		LEFT JOIN service_variants v ON v.service_id = s.id AND (v.active OR NOT $1)
		WHERE s.active OR NOT $1
		ORDER BY s.sort_order, s.id, v.sort_order`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var (
			svc     Service
			vID     *uuid.UUID
			vName   *string
			vDesc   *string
			vDur    *int
			vPrice  *int64
			vOrder  *int
			vActive *bool
		)
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.SortOrder, &svc.Active,
			&vID, &vName, &vDesc, &vDur, &vPrice, &vOrder, &vActive); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != svc.ID {
			svc.Variants = []Variant{}
			out = append(out, svc)
		}
		if vID != nil {
			last := &out[len(out)-1]
			last.Variants = append(last.Variants, Variant{
				ID:              *vID,
				ServiceID:       svc.ID,
				Name:            *vName,
				Description:     *vDesc,
				DurationMinutes: *vDur,
				PriceCents:      *vPrice,
				SortOrder:       *vOrder,
				Active:          *vActive,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate services: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetVariant(ctx context.Context, serviceID, variantID uuid.UUID) (Variant, error) {
	v := Variant{ID: variantID, ServiceID: serviceID}
	err := s.db.QueryRow(ctx, `
		SELECT v.name, coalesce(v.description, ''), v.duration_min, v.price_cents, v.sort_order, v.active
		FROM service_variants v
		JOIN services s ON s.id = v.service_id
		WHERE v.id = $1 AND v.service_id = $2 AND v.active AND s.active`, variantID, serviceID,
	).Scan(&v.Name, &v.Description, &v.DurationMinutes, &v.PriceCents, &v.SortOrder, &v.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Variant{}, ErrNotFound
	}
	if err != nil {
		return Variant{}, fmt.Errorf("catalog: get variant: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) CreateService(ctx context.Context, svc *Service) error {
	if strings.TrimSpace(svc.Name) == "" {
		return ErrInvalidVariant
	}
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO services (id, name, description, sort_order, active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)`,
		svc.ID, svc.Name, svc.Description, svc.SortOrder, svc.Active)
	if err != nil {
		return fmt.Errorf("catalog: create service: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateVariant(ctx context.Context, v *Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO service_variants (id, service_id, name, description, duration_min, price_cents, sort_order, active)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
		v.ID, v.ServiceID, v.Name, v.Description, v.DurationMinutes, v.PriceCents, v.SortOrder, v.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("catalog: create variant: %w", err)
	}
	return nil
}
