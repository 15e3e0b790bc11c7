package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/http/respond"
	"github.com/hongminglow/budget-be/internal/models"
	"github.com/hongminglow/budget-be/internal/services"
)

type contextKey string

const (
	userContextKey   contextKey = "user"
	claimsContextKey contextKey = "claims"
)

// TokenResolver turns a bearer token into the identity it was issued to.
type TokenResolver interface {
	ResolveToken(ctx context.Context, bearer string) (models.User, auth.Claims, error)
}

// Authenticated rejects requests without a valid bearer token and stores the
// resolved user and claims in the request context.
func Authenticated(resolver TokenResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respond.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				respond.Error(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			user, claims, err := resolver.ResolveToken(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, services.ErrAuthenticationFailed) {
					respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				log.Error("resolve token", zap.Error(err))
				respond.Error(w, http.StatusInternalServerError, "failed to authenticate request")
				return
			}
			if !models.HasRole(user.Roles, models.RoleUser) {
				respond.Error(w, http.StatusForbidden, "access denied")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user stored by Authenticated.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// ClaimsFromContext returns the token claims stored by Authenticated.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(auth.Claims)
	return claims, ok
}

// WithUser returns a copy of ctx carrying user and claims, as Authenticated would.
func WithUser(ctx context.Context, user models.User, claims auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, claimsContextKey, claims)
}
