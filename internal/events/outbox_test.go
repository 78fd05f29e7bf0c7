package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxStoreFlow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewOutboxStore(mock)
	apptID := uuid.New()

	entry, err := NewEntry(apptID, TypeAppointmentBooked, AppointmentEventV1{AppointmentID: apptID, Status: "pending"})
	require.NoError(t, err)
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(entry.ID, apptID, TypeAppointmentBooked, pgxmock.AnyArg(), entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, WriteEntry(context.Background(), mock, entry))

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "aggregate_id", "type", "payload", "created_at"}).
		AddRow(entry.ID, apptID, TypeAppointmentBooked, []byte(`{"status":"pending"}`), now)
	mock.ExpectQuery("SELECT id").WithArgs(int32(10)).WillReturnRows(rows)

	entries, err := store.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, apptID, entries[0].AggregateID)

	mock.ExpectExec("UPDATE outbox").WithArgs(entry.ID).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := store.MarkDelivered(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

type recordingHandler struct {
	handled []OutboxEntry
	failOn  string
}

func (h *recordingHandler) Handle(_ context.Context, entry OutboxEntry) error {
	if entry.Type == h.failOn {
		return errors.New("downstream unavailable")
	}
	h.handled = append(h.handled, entry)
	return nil
}

func TestDeliverer_DrainMarksOnlySuccessfulEntries(t *testing.T) {
	outbox := NewMemoryOutbox()
	booked, err := NewEntry(uuid.New(), TypeAppointmentBooked, map[string]string{"k": "v"})
	require.NoError(t, err)
	cancelled, err := NewEntry(uuid.New(), TypeAppointmentCancelled, map[string]string{"k": "v"})
	require.NoError(t, err)
	outbox.Append(booked, cancelled)

	handler := &recordingHandler{failOn: TypeAppointmentCancelled}
	NewDeliverer(outbox, handler, nil).Drain(context.Background())

	require.Len(t, handler.handled, 1)
	assert.Equal(t, booked.ID, handler.handled[0].ID)

	pending, err := outbox.FetchPending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, cancelled.ID, pending[0].ID, "failed entries are retried on the next tick")
}

func TestMemoryOutbox_MarkDelivered(t *testing.T) {
	outbox := NewMemoryOutbox()
	entry, err := NewEntry(uuid.New(), TypeAppointmentBooked, nil)
	require.NoError(t, err)
	outbox.Append(entry)

	ok, err := outbox.MarkDelivered(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = outbox.MarkDelivered(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = outbox.MarkDelivered(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeliverer_StartStopsOnCancel(t *testing.T) {
	outbox := NewMemoryOutbox()
	entry, err := NewEntry(uuid.New(), TypeAppointmentBooked, nil)
	require.NoError(t, err)
	outbox.Append(entry)

	handler := &recordingHandler{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewDeliverer(outbox, handler, nil).WithInterval(5 * time.Millisecond).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pending, _ := outbox.FetchPending(context.Background(), 0)
		return len(pending) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
