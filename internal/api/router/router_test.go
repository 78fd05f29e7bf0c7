package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/braidbook/internal/appointments"
	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/calendar"
	"github.com/wolfman30/braidbook/internal/catalog"
	"github.com/wolfman30/braidbook/internal/clients"
	"github.com/wolfman30/braidbook/internal/events"
	httpmiddleware "github.com/wolfman30/braidbook/internal/http/middleware"
	"github.com/wolfman30/braidbook/internal/observability/metrics"
	"github.com/wolfman30/braidbook/internal/policy"
	"github.com/wolfman30/braidbook/internal/settings"
	"github.com/wolfman30/braidbook/pkg/logging"
)

const testSecret = "router-secret"

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) http.Handler {
	t.Helper()
	logger := logging.Default()

	cal := calendar.NewMemoryStore()
	cat := catalog.NewMemoryStore()
	store := settings.NewMemoryStore(settings.Defaults{
		BufferMinutes:   15,
		MaxAdvanceDays:  60,
		MinAdvanceHours: 2,
		StrideMinutes:   30,
		Fees:            policy.DefaultFeePolicy(),
	})
	repo := appointments.NewMemoryRepository(cal, events.NewMemoryOutbox())
	reg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)

	slots := availability.NewService(cal, availability.JoinLedger(repo, cal), store, time.UTC, logger).WithMetrics(bookingMetrics)
	lifecycle := appointments.NewService(repo, cat, clients.NewMemoryStore(), store, logger).WithMetrics(bookingMetrics)

	return New(&Config{
		Logger:          logger,
		Availability:    availability.NewHandler(slots, logger),
		Appointments:    appointments.NewHandler(lifecycle, time.UTC, logger),
		Calendar:        calendar.NewHandler(cal, logger),
		Catalog:         catalog.NewHandler(cat, logger),
		Settings:        settings.NewHandler(store, logger),
		AdminAuthSecret: testSecret,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		PublicLimiter:   limiter,
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "salon-owner",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(router http.Handler, method, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoint(t *testing.T) {
	rec := do(newTestRouter(t, nil), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/api/services", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/availability?date=2026-03-02", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/manage/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{
		"/admin/appointments",
		"/admin/availability",
		"/admin/blocks",
		"/admin/services",
		"/admin/settings/booking",
	} {
		rec := do(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = do(router, http.MethodGet, path, adminToken(t))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterThrottlesManagementLinks(t *testing.T) {
	router := newTestRouter(t, httpmiddleware.NewRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/manage/a", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/manage/b", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodGet, "/api/manage/c", "").Code)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/services", "").Code, "catalog is not throttled")
}
