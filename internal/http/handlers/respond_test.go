package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"min=1,max=10"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"x","count":2,"kind":"a"}`},
		{name: "empty body", body: ``, wantErr: "request body is required"},
		{name: "malformed", body: `{"name":`, wantErr: "invalid JSON body"},
		{name: "unknown field", body: `{"name":"x","count":1,"extra":true}`, wantErr: "invalid JSON body"},
		{name: "missing required", body: `{"count":1}`, wantErr: "Name is required"},
		{name: "out of range", body: `{"name":"x","count":11}`, wantErr: "Count must be at most 10"},
		{name: "bad enum", body: `{"name":"x","count":1,"kind":"c"}`, wantErr: "Kind must be one of [a b]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst sampleRequest
			err := DecodeJSON(req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "x", dst.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusConflict, "taken")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"taken"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
