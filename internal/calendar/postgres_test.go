package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/interval"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestPostgresStore_ListActiveRules(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "day_of_week", "start_time", "end_time", "active"}).
		AddRow(id, 1, "09:00", "19:00", true)
	mock.ExpectQuery("SELECT id, day_of_week").WithArgs(int(time.Monday)).WillReturnRows(rows)

	rules, err := store.ListActiveRules(context.Background(), time.Monday)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, id, rules[0].ID)
	assert.Equal(t, "19:00", rules[0].EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRuleValidatesBeforeInsert(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.CreateRule(context.Background(), &availability.Rule{DayOfWeek: 2, StartTime: "19:00", EndTime: "09:00"})
	assert.ErrorIs(t, err, availability.ErrInvalidRule)

	mock.ExpectExec("INSERT INTO availability_rules").
		WithArgs(pgxmock.AnyArg(), 2, "09:00", "19:00", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	rule := availability.Rule{DayOfWeek: 2, StartTime: "09:00", EndTime: "19:00", Active: true}
	require.NoError(t, store.CreateRule(context.Background(), &rule))
	assert.NotEqual(t, uuid.Nil, rule.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRuleNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	rule := availability.Rule{ID: uuid.New(), DayOfWeek: 2, StartTime: "09:00", EndTime: "19:00"}
	mock.ExpectExec("UPDATE availability_rules").
		WithArgs(rule.ID, 2, "09:00", "19:00", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, store.UpdateRule(context.Background(), rule), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBlocksOverlapping(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	iv := interval.Interval{Start: start, End: start.Add(24 * time.Hour)}
	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "start_time", "end_time", "reason"}).
		AddRow(id, start.Add(12*time.Hour), start.Add(13*time.Hour), "almoço")
	mock.ExpectQuery("FROM blocks").WithArgs(iv.Start, iv.End).WillReturnRows(rows)

	blocks, err := store.ListBlocksOverlapping(context.Background(), iv)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, id, blocks[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBlocksWrapsQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM blocks").WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).WillReturnError(boom)

	_, err := store.ListBlocksOverlapping(context.Background(), interval.Interval{
		Start: time.Unix(0, 0), End: time.Unix(3600, 0),
	})
	assert.ErrorIs(t, err, boom)
}

func TestPostgresStore_DeleteBlock(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	mock.ExpectExec("DELETE FROM blocks").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM blocks").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.DeleteBlock(context.Background(), id))
	assert.ErrorIs(t, store.DeleteBlock(context.Background(), id), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
