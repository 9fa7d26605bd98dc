package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindDuplicateUser, http.StatusConflict},
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindUserTypeMismatch, http.StatusForbidden},
		{KindWrongPassword, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindStore, http.StatusInternalServerError},
		{KindUnauthorized, http.StatusUnauthorized},
		{Kind("Unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestError_IsAndAs(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("login: %w", Wrap(KindStore, "lookup failed", cause))

	assert.True(t, errors.Is(err, &Error{Kind: KindStore}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNotFound}))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindStore, KindOf(err))
	assert.Equal(t, KindStore, KindOf(errors.New("plain")))
	assert.Equal(t, KindValidation, KindOf(Validation("page must be positive")))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"duplicate", New(KindDuplicateUser, "exists"), http.StatusConflict, "exists"},
		{"wrapped mismatch", fmt.Errorf("x: %w", New(KindUserTypeMismatch, "User is not registered as Donor")), http.StatusForbidden, "User is not registered as Donor"},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "db down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, body, "status")
			assert.NotContains(t, body, "data")
		})
	}
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteOK(rec, Body{Message: "User logged in successfully", Token: "t", User: map[string]string{"_id": "u1"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"message": "User logged in successfully",
		"user": {"_id": "u1"},
		"token": "t"
	}`, rec.Body.String())
}
