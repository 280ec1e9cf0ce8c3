package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", models.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", models.ErrNotAuthorized), http.StatusUnauthorized},
		{models.ErrForbiddenRole, http.StatusForbidden},
		{fmt.Errorf("booking b1: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrCapacityExceeded, http.StatusConflict},
		{models.ErrPackageLocked, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestSendErrorHidesInternalErrors(t *testing.T) {
	var logs bytes.Buffer
	log := logger.NewLoggerWithWriter(&logs)

	rec := httptest.NewRecorder()
	SendError(rec, log, "API", errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Contains(t, logs.String(), "password authentication failed")

	rec = httptest.NewRecorder()
	SendError(rec, log, "API", models.ErrCapacityExceeded)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not enough seats available", body["message"])
}

type sampleRequest struct {
	Title  string `json:"title" validate:"required"`
	Guests int    `json:"guests" validate:"omitempty,min=1"`
}

func TestDecode(t *testing.T) {
	var ok sampleRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Hunza","guests":2}`))
	require.NoError(t, Decode(r, &ok))
	assert.Equal(t, "Hunza", ok.Title)

	var missing sampleRequest
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"guests":0}`))
	err := Decode(r, &missing)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Title failed on required")

	var broken sampleRequest
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.ErrorIs(t, Decode(r, &broken), models.ErrInvalidInput)
}

func TestActor(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := Actor(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r = r.WithContext(auth.WithActor(r.Context(), models.Actor{ID: "u1", Role: models.RoleAdmin}))
	actor, ok := Actor(rec, r)
	assert.True(t, ok)
	assert.Equal(t, "u1", actor.ID)
}
