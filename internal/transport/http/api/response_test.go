package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "bad", map[string]any{"field": "email"}, "req-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env struct {
		Success   bool   `json:"success"`
		RequestID string `json:"requestId"`
		Error     struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.False(t, env.Success)
	assert.Equal(t, "req-1", env.RequestID)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "email", env.Error.Details["field"])
}

func TestSuccessOmitsError(t *testing.T) {
	rec := httptest.NewRecorder()
	SetTotalCount(rec, 12)
	Created(rec, map[string]string{"id": "1"}, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "12", rec.Header().Get("X-Total-Count"))
	assert.NotContains(t, rec.Body.String(), `"error"`)
	assert.JSONEq(t, `{"success":true,"data":{"id":"1"}}`, rec.Body.String())
}

func TestDownload(t *testing.T) {
	rec := httptest.NewRecorder()
	Download(rec, ContentTypePDF, "vacation 42.pdf", []byte("%PDF-1.3"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypePDF, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="vacation 42.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "8", rec.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}
