package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/calendar"
	"github.com/wolfman30/braidbook/internal/events"
	"github.com/wolfman30/braidbook/internal/interval"
)

// reservationLockKey is the pg_advisory_xact_lock key; every reservation
// serializes on it.
const reservationLockKey int64 = 0x6272616964626b

const (
	sqlStateExclusionViolation = "23P01"
	sqlStateUniqueViolation    = "23505"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queryer is the subset shared by the pool and a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in PostgreSQL. Reservations take a
// transaction-scoped advisory lock; the appointments_no_overlap exclusion
// constraint backs the guard for writers that bypass Reserve.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("appointments: db required")
	}
	return &PostgresRepository{db: db}
}

const appointmentColumns = `
	id, client_id, service_id, variant_id, scheduled_start, scheduled_end, status,
	price_cents, payment_status, management_token, coalesce(notes, ''), coalesce(internal_notes, ''),
	coalesce(cancellation_reason, ''), confirmed_at, completed_at, cancelled_at, no_show_at,
	created_at, updated_at`

func (r *PostgresRepository) ListAppointmentsOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Occupancy, error) {
	return listOverlapping(ctx, r.db, iv)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return getOne(ctx, r.db, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (Appointment, error) {
	return getOne(ctx, r.db, `SELECT `+appointmentColumns+` FROM appointments WHERE management_token = $1`, token)
}

func (r *PostgresRepository) ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE scheduled_start >= $1 AND scheduled_start < $2
		ORDER BY scheduled_start`, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: list between: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Reserve(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin reservation: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, reservationLockKey); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("appointments: acquire reservation lock: %w", err)
	}
	if err := fn(ctx, &postgresTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSQLState(err, sqlStateExclusionViolation) {
			return availability.ErrSlotUnavailable
		}
		return fmt.Errorf("appointments: commit reservation: %w", err)
	}
	return nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) ListAppointmentsOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Occupancy, error) {
	return listOverlapping(ctx, t.tx, iv)
}

func (t *postgresTx) ListBlocksOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Block, error) {
	return calendar.QueryBlocksOverlapping(ctx, t.tx, iv)
}

func (t *postgresTx) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return getOne(ctx, t.tx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
}

func (t *postgresTx) GetByToken(ctx context.Context, token string) (Appointment, error) {
	return getOne(ctx, t.tx, `SELECT `+appointmentColumns+` FROM appointments WHERE management_token = $1 FOR UPDATE`, token)
}

func (t *postgresTx) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO appointments (
			id, client_id, service_id, variant_id, scheduled_start, scheduled_end, status,
			price_cents, payment_status, management_token, notes, internal_notes,
			confirmed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13, $14, $15)
		ON CONFLICT (management_token) DO NOTHING`,
		a.ID, a.ClientID, a.ServiceID, a.VariantID, a.ScheduledStart, a.ScheduledEnd, string(a.Status),
		a.PriceCents, string(a.PaymentStatus), a.ManagementToken, a.Notes, a.InternalNotes,
		a.ConfirmedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("insert", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateToken
	}
	return nil
}

func (t *postgresTx) Update(ctx context.Context, a *Appointment) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments SET
			scheduled_start = $2, scheduled_end = $3, status = $4, payment_status = $5,
			notes = NULLIF($6, ''), internal_notes = NULLIF($7, ''), cancellation_reason = NULLIF($8, ''),
			confirmed_at = $9, completed_at = $10, cancelled_at = $11, no_show_at = $12, updated_at = $13
		WHERE id = $1`,
		a.ID, a.ScheduledStart, a.ScheduledEnd, string(a.Status), string(a.PaymentStatus),
		a.Notes, a.InternalNotes, a.CancellationReason,
		a.ConfirmedAt, a.CompletedAt, a.CancelledAt, a.NoShowAt, a.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) Emit(ctx context.Context, entry events.OutboxEntry) error {
	return events.WriteEntry(ctx, t.tx, entry)
}

func listOverlapping(ctx context.Context, q queryer, iv interval.Interval) ([]availability.Occupancy, error) {
	rows, err := q.Query(ctx, `
		SELECT id, scheduled_start, scheduled_end
		FROM appointments
		WHERE scheduled_start < $2 AND scheduled_end > $1
		  AND status NOT IN ('cancelled', 'no_show')
		ORDER BY scheduled_start`, iv.Start, iv.End)
	if err != nil {
		return nil, fmt.Errorf("appointments: list overlapping: %w", err)
	}
	defer rows.Close()

	var out []availability.Occupancy
	for rows.Next() {
		var occ availability.Occupancy
		if err := rows.Scan(&occ.AppointmentID, &occ.Interval.Start, &occ.Interval.End); err != nil {
			return nil, fmt.Errorf("appointments: scan occupancy: %w", err)
		}
		out = append(out, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate occupancy: %w", err)
	}
	return out, nil
}

func getOne(ctx context.Context, q queryer, sql string, arg any) (Appointment, error) {
	a, err := scanAppointment(q.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: get: %w", err)
	}
	return a, nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		a       Appointment
		status  string
		payment string
	)
	err := row.Scan(
		&a.ID, &a.ClientID, &a.ServiceID, &a.VariantID, &a.ScheduledStart, &a.ScheduledEnd, &status,
		&a.PriceCents, &payment, &a.ManagementToken, &a.Notes, &a.InternalNotes,
		&a.CancellationReason, &a.ConfirmedAt, &a.CompletedAt, &a.CancelledAt, &a.NoShowAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	a.Status = Status(status)
	a.PaymentStatus = PaymentStatus(payment)
	return a, err
}

func mapWriteError(op string, err error) error {
	switch {
	case isSQLState(err, sqlStateExclusionViolation):
		return availability.ErrSlotUnavailable
	case isSQLState(err, sqlStateUniqueViolation):
		return ErrDuplicateToken
	}
	return fmt.Errorf("appointments: %s: %w", op, err)
}

func isSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
