package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusInProgress, false},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusNoShow, true},
		{StatusPending, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusNoShow, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, true},
		{Status("archived"), Status("archived"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestHoldsTime(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted} {
		assert.True(t, s.HoldsTime(), s)
	}
	assert.False(t, StatusCancelled.HoldsTime())
	assert.False(t, StatusNoShow.HoldsTime())
}

func TestSetStatus_StampsTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	a := Appointment{Status: StatusPending}

	require.NoError(t, a.SetStatus(StatusNoShow, now))
	require.NotNil(t, a.NoShowAt)
	assert.Equal(t, now, *a.NoShowAt)
	assert.Equal(t, now, a.UpdatedAt)

	err := a.SetStatus(StatusConfirmed, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusNoShow, a.Status)

	assert.ErrorIs(t, a.SetStatus(Status("lost"), now), ErrInvalidRequest)
}

func TestNewManagementToken(t *testing.T) {
	a, err := NewManagementToken()
	require.NoError(t, err)
	b, err := NewManagementToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
