package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/interval"
)

// DB abstracts the pgx query interface. *pgxpool.Pool and pgx.Tx both satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists rules in availability_rules and blocks in blocks.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a calendar store.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("calendar: db required")
	}
	return &PostgresStore{db: db}
}

const selectRules = `
	SELECT id, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), active
	FROM availability_rules`

func (s *PostgresStore) ListRules(ctx context.Context) ([]availability.Rule, error) {
	rows, err := s.db.Query(ctx, selectRules+` ORDER BY day_of_week, start_time`)
	if err != nil {
		return nil, fmt.Errorf("calendar: list rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *PostgresStore) ListActiveRules(ctx context.Context, weekday time.Weekday) ([]availability.Rule, error) {
	rows, err := s.db.Query(ctx, selectRules+` WHERE day_of_week = $1 AND active ORDER BY start_time`, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("calendar: list active rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *PostgresStore) CreateRule(ctx context.Context, rule *availability.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO availability_rules (id, day_of_week, start_time, end_time, active)
		VALUES ($1, $2, $3::time, $4::time, $5)`,
		rule.ID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.Active,
	)
	if err != nil {
		return fmt.Errorf("calendar: create rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateRule(ctx context.Context, rule availability.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE availability_rules
		SET day_of_week = $2, start_time = $3::time, end_time = $4::time, active = $5, updated_at = now()
		WHERE id = $1`,
		rule.ID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.Active,
	)
	if err != nil {
		return fmt.Errorf("calendar: update rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("calendar: delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBlocksOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Block, error) {
	return QueryBlocksOverlapping(ctx, s.db, iv)
}

// QueryBlocksOverlapping reads blocks through db, which may be a transaction
// so the conflict guard sees the same snapshot the write commits against.
func QueryBlocksOverlapping(ctx context.Context, db DB, iv interval.Interval) ([]availability.Block, error) {
	rows, err := db.Query(ctx, `
		SELECT id, start_time, end_time, coalesce(reason, '')
		FROM blocks
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time`, iv.Start, iv.End)
	if err != nil {
		return nil, fmt.Errorf("calendar: list blocks: %w", err)
	}
	defer rows.Close()

	var out []availability.Block
	for rows.Next() {
		var b availability.Block
		if err := rows.Scan(&b.ID, &b.StartTime, &b.EndTime, &b.Reason); err != nil {
			return nil, fmt.Errorf("calendar: scan block: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calendar: iterate blocks: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateBlock(ctx context.Context, block *availability.Block) error {
	if err := validateBlock(*block); err != nil {
		return err
	}
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO blocks (id, start_time, end_time, reason)
		VALUES ($1, $2, $3, NULLIF($4, ''))`,
		block.ID, block.StartTime, block.EndTime, block.Reason,
	)
	if err != nil {
		return fmt.Errorf("calendar: create block: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("calendar: delete block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRules(rows pgx.Rows) ([]availability.Rule, error) {
	var out []availability.Rule
	for rows.Next() {
		var r availability.Rule
		if err := rows.Scan(&r.ID, &r.DayOfWeek, &r.StartTime, &r.EndTime, &r.Active); err != nil {
			return nil, fmt.Errorf("calendar: scan rule: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calendar: iterate rules: %w", err)
	}
	return out, nil
}
