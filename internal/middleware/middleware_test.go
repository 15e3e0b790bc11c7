package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/services"
)

type stubResolver struct {
	user   models.User
	claims auth.Claims
	err    error
	got    string
}

func (s *stubResolver) ResolveToken(_ context.Context, bearer string) (models.User, auth.Claims, error) {
	s.got = bearer
	return s.user, s.claims, s.err
}

func okHandler(t *testing.T, wantUser models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUser.ID, user.ID)
		_, ok = ClaimsFromContext(r.Context())
		assert.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticated(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "a@example.com", Active: true, Roles: []string{models.RoleUser}}

	tests := []struct {
		name     string
		header   string
		resolver *stubResolver
		status   int
	}{
		{name: "missing header", header: "", resolver: &stubResolver{}, status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", resolver: &stubResolver{}, status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", resolver: &stubResolver{}, status: http.StatusUnauthorized},
		{
			name:     "rejected token",
			header:   "Bearer bad",
			resolver: &stubResolver{err: services.ErrAuthenticationFailed},
			status:   http.StatusUnauthorized,
		},
		{
			name:     "resolver failure",
			header:   "Bearer tok",
			resolver: &stubResolver{err: errors.New("redis down")},
			status:   http.StatusInternalServerError,
		},
		{
			name:     "missing role",
			header:   "Bearer tok",
			resolver: &stubResolver{user: models.User{ID: uuid.New()}},
			status:   http.StatusForbidden,
		},
		{
			name:     "ok",
			header:   "bearer tok",
			resolver: &stubResolver{user: user},
			status:   http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticated(tt.resolver, zap.NewNop())(okHandler(t, user))
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAuthenticatedPassesToken(t *testing.T) {
	resolver := &stubResolver{user: models.User{ID: uuid.New(), Roles: []string{models.RoleUser}}}
	h := Authenticated(resolver, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer  abc.def.ghi ")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc.def.ghi", resolver.got)
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/budgets", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcard(t *testing.T) {
	h := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/budgets/x", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/budgets/x", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.EqualValues(t, 4, fields["bytes"])
}
