package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/showcase/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteError(w, 400, "test_error", "Test message")

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "test_error", resp.Error)
	assert.Equal(t, "Test message", resp.Message)
	assert.Empty(t, resp.Details)
}

func TestWriteErrorWithDetails(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteErrorWithDetails(w, 400, "test_error", "Test message", "Additional details")

	var resp pkghttp.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "Additional details", resp.Details)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteJSON(w, 200, map[string]bool{"success": true})

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestCommonErrorWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w *httptest.ResponseRecorder)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(w *httptest.ResponseRecorder) { pkghttp.WriteBadRequest(w, "msg") }, 400, "bad_request"},
		{"unauthorized", func(w *httptest.ResponseRecorder) { pkghttp.WriteUnauthorized(w, "msg") }, 401, "unauthorized"},
		{"too many requests", func(w *httptest.ResponseRecorder) { pkghttp.WriteTooManyRequests(w, "msg") }, 429, "rate_limit_exceeded"},
		{"service unavailable", func(w *httptest.ResponseRecorder) { pkghttp.WriteServiceUnavailable(w, "msg") }, 503, "service_unavailable"},
		{"internal", func(w *httptest.ResponseRecorder) { pkghttp.WriteInternalError(w, "msg") }, 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp pkghttp.ErrorResponse
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.Equal(t, "msg", resp.Message)
		})
	}
}
