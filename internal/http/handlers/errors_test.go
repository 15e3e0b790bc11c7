package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/budget-be/internal/services"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound string
		status   int
		message  string
		errors   []string
		logged   int
	}{
		{
			name:    "validation",
			err:     &services.ValidationError{Messages: []string{"Amount is required"}},
			status:  http.StatusBadRequest,
			message: "validation failed",
			errors:  []string{"Amount is required"},
		},
		{
			name:    "duplicate identity",
			err:     fmt.Errorf("register: %w", services.ErrDuplicateIdentity),
			status:  http.StatusBadRequest,
			message: "User with this email already exists",
			errors:  []string{"User with this email already exists"},
		},
		{
			name:    "authentication failed",
			err:     services.ErrAuthenticationFailed,
			status:  http.StatusUnauthorized,
			message: "invalid credentials",
		},
		{
			name:     "budget not found",
			err:      services.ErrNotFound,
			notFound: budgetNotFound,
			status:   http.StatusNotFound,
			message:  "Budget not found",
		},
		{
			name:     "account not found",
			err:      services.ErrNotFound,
			notFound: accountNotFound,
			status:   http.StatusNotFound,
			message:  "User not found",
		},
		{
			name:    "unexpected",
			err:     errors.New("connection reset"),
			status:  http.StatusInternalServerError,
			message: "internal server error",
			logged:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			rec := httptest.NewRecorder()

			writeServiceError(rec, zap.New(core), tt.err, tt.notFound)

			require.Equal(t, tt.status, rec.Code)
			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.status, env.Code)
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, tt.errors, env.Errors)
			assert.Equal(t, tt.logged, logs.Len())
		})
	}
}
