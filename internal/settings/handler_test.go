package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/braidbook/internal/policy"
)

func TestHandler_BookingRoundTrip(t *testing.T) {
	store := NewMemoryStore(testDefaults())
	router := NewHandler(store, nil).Routes()

	body := `{"bufferBetweenAppointments":0,"maxAdvanceDays":30,"minAdvanceHours":1,"slotStrideMinutes":15,"autoConfirm":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/booking", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/booking", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, body, rec.Body.String())

	doc, err := store.Booking(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.AutoConfirm)
}

func TestHandler_PutBookingRejectsOutOfRange(t *testing.T) {
	router := NewHandler(NewMemoryStore(testDefaults()), nil).Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/booking", strings.NewReader(`{"maxAdvanceDays":900}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Fees(t *testing.T) {
	router := NewHandler(NewMemoryStore(testDefaults()), nil).Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got policy.FeePolicy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, policy.DefaultFeePolicy(), got)

	got.LateCancellationPercent = 101
	payload, err := json.Marshal(got)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/fees", strings.NewReader(string(payload))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
