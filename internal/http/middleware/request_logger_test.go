package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/braidbook/pkg/logging"
)

func TestRequestLoggerHidesManagementToken(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(logging.NewWithWriter("info", &buf)))
	r.Get("/api/manage/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/manage/secret-token-value", nil))

	out := buf.String()
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, out, "/api/manage/{token}")
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, "request_id")
	assert.NotContains(t, out, "secret-token-value")
}
